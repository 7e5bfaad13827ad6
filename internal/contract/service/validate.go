package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pactum/internal/actor"
	"pactum/internal/analyzer"
	"pactum/internal/contract"
	"pactum/internal/policy/matcher"
	id "pactum/pkg/domain"
	"pactum/pkg/platform/audit"
	"pactum/pkg/requestcontext"
)

// analyzerConcurrency bounds the per-clause fan-out; the analyzer is a small
// single-model service.
const analyzerConcurrency = 4

// ValidationResult is the outcome of one full validation run.
type ValidationResult struct {
	Valid           bool
	ComplianceScore float64
	Violations      []contract.Violation
	Message         string
}

func validationMessage(violations []contract.Violation) string {
	if len(violations) == 0 {
		return "No violations detected"
	}
	return "Violations found"
}

// ValidateWithAI sends every analyzable clause to the clause analyzer and
// records the merged outcome on the draft. A failed call for one clause is
// logged and skipped; the rest of the document still gets validated. The
// document's compliance score is the minimum score any clause received.
func (s *Service) ValidateWithAI(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*ValidationResult, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleCompany, "only the assigned company can validate"); err != nil {
		return nil, err
	}

	draft, err := s.drafts.Get(ctx, txnID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	payload, err := contract.ParsePayload(draft.Payload)
	if err != nil {
		return nil, err
	}

	started := requestcontext.Now(ctx)
	clauses := payload.AnalyzerClauses()
	results := make([]*analyzer.Result, len(clauses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyzerConcurrency)
	for i, clause := range clauses {
		g.Go(func() error {
			res, err := s.analyzer.Analyze(gctx, clause.Numbered)
			if err != nil {
				s.logger.ErrorContext(ctx, "clause analysis failed, skipping clause",
					"transaction_id", txnID.String(),
					"clause_id", clause.ID,
					"error", err,
				)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Workers never return errors; Wait only flushes the group.
	_ = g.Wait()

	minScore := 100.0
	var violations []contract.Violation
	for i, res := range results {
		if res == nil {
			continue
		}
		for _, finding := range res.Findings {
			violations = append(violations, contract.Violation{
				Source:     contract.SourceAI,
				ClauseID:   clauses[i].ID,
				ClauseText: clauses[i].Text,
				Reason:     finding.Reason,
				Suggestion: finding.Suggestion,
				Confidence: 1.0,
			})
		}
		if res.ComplianceScore < minScore {
			minScore = res.ComplianceScore
		}
	}

	draft.AIValidated = len(violations) == 0
	draft.ComplianceScore = minScore
	draft.Results = contract.MergeViolations(draft.Results, contract.SourceAI, violations)
	draft.UpdatedAt = requestcontext.Now(ctx)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, mapStoreErr(err)
	}

	elapsed := requestcontext.Now(ctx).Sub(started)
	s.metrics.RecordValidation("ai", draft.AIValidated, elapsed)
	s.emit(ctx, audit.EventContractValidated, txnID, callerID, string(contract.TypeMain),
		fmt.Sprintf("validator=ai valid=%t violations=%d", draft.AIValidated, len(violations)))

	return &ValidationResult{
		Valid:           draft.AIValidated,
		ComplianceScore: minScore,
		Violations:      violations,
		Message:         validationMessage(violations),
	}, nil
}

// ValidateWithPolicy runs the company's policy set against the draft. A
// company with no policies, or a document no policy is relevant to,
// auto-approves: there is nothing to violate.
func (s *Service) ValidateWithPolicy(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*ValidationResult, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleCompany, "only the assigned company can validate"); err != nil {
		return nil, err
	}

	draft, err := s.drafts.Get(ctx, txnID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	payload, err := contract.ParsePayload(draft.Payload)
	if err != nil {
		return nil, err
	}

	started := requestcontext.Now(ctx)
	policies, err := s.policies.ListByCompany(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var violations []contract.Violation
	if len(policies) > 0 {
		companyName := ""
		if txn, err := s.transactions.Get(ctx, txnID); err == nil {
			companyName = txn.Company.Name
		}

		clauses := make([]matcher.Clause, 0, len(payload.Sections))
		for _, c := range payload.PolicyClauses() {
			clauses = append(clauses, matcher.Clause{ID: c.ID, Text: c.Text})
		}

		outcome := s.matcher.Run(ctx, companyName, policies, clauses)
		for _, finding := range outcome.Findings {
			violations = append(violations, policyViolation(finding))
		}
	} else {
		s.logger.InfoContext(ctx, "no policies stored, auto-approving policy validation",
			"transaction_id", txnID.String(),
			"company_user_id", callerID.String(),
		)
	}

	draft.PolicyValidated = len(violations) == 0
	draft.Results = contract.MergeViolations(draft.Results, contract.SourcePolicy, violations)
	draft.UpdatedAt = requestcontext.Now(ctx)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, mapStoreErr(err)
	}

	elapsed := requestcontext.Now(ctx).Sub(started)
	s.metrics.RecordValidation("policy", draft.PolicyValidated, elapsed)
	s.emit(ctx, audit.EventContractValidated, txnID, callerID, string(contract.TypeMain),
		fmt.Sprintf("validator=policy valid=%t violations=%d", draft.PolicyValidated, len(violations)))

	return &ValidationResult{
		Valid:           draft.PolicyValidated,
		ComplianceScore: draft.ComplianceScore,
		Violations:      violations,
		Message:         validationMessage(violations),
	}, nil
}

func policyViolation(finding matcher.Finding) contract.Violation {
	p := finding.Policy
	return contract.Violation{
		Source:     contract.SourcePolicy,
		ClauseID:   finding.ClauseID,
		ClauseText: finding.ClauseText,
		Reason:     "This clause violates company policy: " + p.Name,
		Suggestion: "Revise this clause to comply with: " + p.Name,
		Confidence: 1.0,
		ViolatedLaw: map[string]string{
			"policyId":   p.ID.String(),
			"policyName": p.Name,
			"category":   p.Category,
			"articleRef": p.ArticleRef,
		},
	}
}
