// Package matcher decides, per clause, which of a company's policies are
// relevant and whether the rule engine finds them violated.
//
// Relevance is a pure keyword/category score; only relevant policies cost an
// external evaluation call. The evaluator is fail-open: an indeterminate
// answer (transport error, engine error, unusable response) is collapsed to
// compliant at this boundary, so a broken compliance backend can fail to
// catch violations but can never block the business process.
package matcher

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"pactum/internal/policy"
	"pactum/internal/policy/metrics"
	"pactum/internal/ruleengine"
)

// relevanceThreshold is the minimum score for a policy to be evaluated
// against a clause. Two points means a category match or a solid keyword
// signal; a single generic word can never reach it.
const relevanceThreshold = 2

// stopWords are keywords too generic to indicate relevance on their own.
var stopWords = map[string]struct{}{
	"policy": {}, "policies": {}, "company": {}, "contract": {}, "agreement": {},
	"shall": {}, "must": {}, "may": {}, "employee": {}, "employees": {},
	"client": {}, "customer": {}, "customers": {}, "user": {}, "users": {},
	"data": {}, "information": {}, "security": {}, "service": {}, "services": {},
	"system": {}, "systems": {}, "process": {}, "processing": {}, "law": {},
	"legal": {}, "compliance": {}, "requirements": {}, "requirement": {},
	"standard": {}, "terms": {}, "term": {},
}

// Clause is one unit of contract text under evaluation.
type Clause struct {
	ID   string
	Text string
}

// Finding records one policy violated by one clause.
type Finding struct {
	ClauseID   string
	ClauseText string
	Policy     *policy.Policy
}

// Outcome is the result of matching a full clause set against a policy set.
type Outcome struct {
	Findings []Finding
	// EvaluatedChecks counts (clause, policy) pairs that reached the
	// evaluator. Zero means nothing was relevant and validation
	// auto-approves.
	EvaluatedChecks int
}

// Evaluator is the slice of the rule engine client the matcher needs.
type Evaluator interface {
	Evaluate(ctx context.Context, req ruleengine.EvaluateRequest) (ruleengine.EvalResult, error)
}

// Matcher runs the relevance scoring and evaluation loop.
type Matcher struct {
	evaluator Evaluator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(evaluator Evaluator, logger *slog.Logger, m *metrics.Metrics) *Matcher {
	return &Matcher{evaluator: evaluator, logger: logger, metrics: m}
}

// containsWholeWord reports whether needle appears in haystack bounded by
// non-word characters. Both arguments must already be lowercased.
func containsWholeWord(haystack, needle string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(needle) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}

// Score computes how relevant a policy is to a clause: +2 for a whole-word
// category match (categories shorter than 4 characters are ignored), +2 for
// two or more whole-word keyword hits (keywords shorter than 5 characters
// and stop words never count), else +1 for a single hit of length >= 8.
func Score(p *policy.Policy, clauseText string) int {
	clauseLower := strings.ToLower(clauseText)
	score := 0

	category := strings.ToLower(strings.TrimSpace(p.Category))
	if len(category) >= 4 && containsWholeWord(clauseLower, category) {
		score += 2
	}

	keywords := p.KeywordList()
	hits := 0
	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if _, stopped := stopWords[k]; stopped {
			continue
		}
		if len(k) < 5 {
			continue
		}
		if containsWholeWord(clauseLower, k) {
			hits++
		}
	}
	if hits >= 2 {
		score += 2
	} else {
		for _, kw := range keywords {
			k := strings.ToLower(kw)
			if _, stopped := stopWords[k]; stopped {
				continue
			}
			if len(k) >= 8 && containsWholeWord(clauseLower, k) {
				score++
				break
			}
		}
	}

	return score
}

// Relevant reports whether the policy should be evaluated against the clause.
func Relevant(p *policy.Policy, clauseText string) bool {
	return Score(p, clauseText) >= relevanceThreshold
}

// Run matches every clause against every policy and evaluates the relevant
// pairs. Findings keep clause order, then policy order within a clause.
func (m *Matcher) Run(ctx context.Context, companyName string, policies []*policy.Policy, clauses []Clause) Outcome {
	var outcome Outcome

	for _, clause := range clauses {
		for _, p := range policies {
			if p == nil || !Relevant(p, clause.Text) {
				continue
			}
			outcome.EvaluatedChecks++

			if m.violates(ctx, companyName, p, clause) {
				outcome.Findings = append(outcome.Findings, Finding{
					ClauseID:   clause.ID,
					ClauseText: clause.Text,
					Policy:     p,
				})
			}
		}
	}

	return outcome
}

func (m *Matcher) violates(ctx context.Context, companyName string, p *policy.Policy, clause Clause) bool {
	result, err := m.evaluator.Evaluate(ctx, ruleengine.EvaluateRequest{
		PolicyID:    p.ID.String(),
		PolicyName:  p.Name,
		PolicyText:  p.PolicyText,
		RuleCode:    p.RuleCode,
		CompanyName: companyName,
		ClauseText:  clause.Text,
	})
	m.metrics.RecordEvaluation(result.String())

	switch result {
	case ruleengine.EvalViolates:
		return true
	case ruleengine.EvalCompliant:
		return false
	default:
		// Fail-open: an unanswerable check passes.
		m.metrics.RecordFailOpen()
		m.logger.WarnContext(ctx, "rule evaluation indeterminate, treating as compliant",
			"policy", p.Name,
			"clause_id", clause.ID,
			"error", err,
		)
		return false
	}
}
