package matcher

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactum/internal/policy"
	"pactum/internal/policy/metrics"
	"pactum/internal/ruleengine"
	id "pactum/pkg/domain"
)

func newPolicy(name, category, keywords string) *policy.Policy {
	return &policy.Policy{
		ID:            id.PolicyID(uuid.New()),
		CompanyUserID: id.UserID(uuid.New()),
		Name:          name,
		Category:      category,
		Keywords:      keywords,
	}
}

func Test_Score(t *testing.T) {
	tests := []struct {
		name     string
		category string
		keywords string
		clause   string
		want     int
	}{
		{
			name:     "category whole word match",
			category: "data storage",
			clause:   "All offshore data storage is permitted",
			want:     2,
		},
		{
			name:     "no match at all",
			category: "payment terms",
			keywords: "invoice,remittance",
			clause:   "The parties agree to cooperate in good faith",
			want:     0,
		},
		{
			name:     "two keyword hits",
			keywords: "offshore,overseas",
			clause:   "No offshore or overseas transfers are allowed",
			want:     2,
		},
		{
			name:     "single long keyword hit",
			keywords: "encryption",
			clause:   "All records use strong encryption at rest",
			want:     1,
		},
		{
			name:     "single short keyword hit scores nothing",
			keywords: "audit",
			clause:   "An audit may be requested annually",
			want:     0,
		},
		{
			name:     "stop words never count",
			keywords: "compliance,security,processing",
			clause:   "Security compliance processing is described here",
			want:     0,
		},
		{
			name:     "keywords under five characters ignored",
			keywords: "tax,fee",
			clause:   "The tax and fee schedule is attached",
			want:     0,
		},
		{
			name:     "whole word only, no substring hits",
			keywords: "storage",
			clause:   "Multiple storages are listed",
			want:     0,
		},
		{
			name:     "short category ignored",
			category: "tax",
			clause:   "The tax schedule is attached",
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPolicy("p", tt.category, tt.keywords)
			assert.Equal(t, tt.want, Score(p, tt.clause))
		})
	}
}

func Test_Score_CategoryPlusLongKeyword(t *testing.T) {
	// The §8 example policy: category match (+2) plus the single long
	// keyword "offshore" (+1).
	p := newPolicy("No Offshore Data Storage", "data storage", "offshore,overseas processing")
	clause := "All offshore data storage is permitted"
	assert.Equal(t, 3, Score(p, clause))
	assert.True(t, Relevant(p, clause))
}

type stubEvaluator struct {
	result   ruleengine.EvalResult
	err      error
	requests []ruleengine.EvaluateRequest
}

func (s *stubEvaluator) Evaluate(_ context.Context, req ruleengine.EvaluateRequest) (ruleengine.EvalResult, error) {
	s.requests = append(s.requests, req)
	return s.result, s.err
}

func newMatcher(eval Evaluator) *Matcher {
	return New(eval, slog.New(slog.DiscardHandler), nil)
}

func Test_Run_ViolationNamesThePolicy(t *testing.T) {
	p := newPolicy("No Offshore Data Storage", "data storage", "offshore,overseas processing")
	eval := &stubEvaluator{result: ruleengine.EvalViolates}

	outcome := newMatcher(eval).Run(context.Background(), "Acme", []*policy.Policy{p}, []Clause{
		{ID: "c1", Text: "All offshore data storage is permitted"},
	})

	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, "c1", outcome.Findings[0].ClauseID)
	assert.Equal(t, "No Offshore Data Storage", outcome.Findings[0].Policy.Name)
	assert.Equal(t, 1, outcome.EvaluatedChecks)

	require.Len(t, eval.requests, 1)
	assert.Equal(t, "Acme", eval.requests[0].CompanyName)
	assert.Equal(t, "All offshore data storage is permitted", eval.requests[0].ClauseText)
}

func Test_Run_IrrelevantPolicyNeverEvaluated(t *testing.T) {
	p := newPolicy("Payment Terms", "payments", "invoice,remittance")
	eval := &stubEvaluator{result: ruleengine.EvalViolates}

	outcome := newMatcher(eval).Run(context.Background(), "Acme", []*policy.Policy{p}, []Clause{
		{ID: "c1", Text: "The parties will cooperate in good faith"},
	})

	assert.Empty(t, outcome.Findings)
	assert.Zero(t, outcome.EvaluatedChecks)
	assert.Empty(t, eval.requests, "irrelevant policies must not cost an evaluator call")
}

func Test_Run_FailOpenOnEvaluatorError(t *testing.T) {
	p := newPolicy("No Offshore Data Storage", "data storage", "offshore")
	eval := &stubEvaluator{result: ruleengine.EvalIndeterminate, err: errors.New("timeout")}

	outcome := newMatcher(eval).Run(context.Background(), "Acme", []*policy.Policy{p}, []Clause{
		{ID: "c1", Text: "All offshore data storage is permitted"},
	})

	assert.Empty(t, outcome.Findings, "indeterminate evaluations must pass")
	assert.Equal(t, 1, outcome.EvaluatedChecks)
}

func Test_Run_CompliantProducesNoFinding(t *testing.T) {
	p := newPolicy("No Offshore Data Storage", "data storage", "offshore")
	eval := &stubEvaluator{result: ruleengine.EvalCompliant}

	outcome := newMatcher(eval).Run(context.Background(), "Acme", []*policy.Policy{p}, []Clause{
		{ID: "c1", Text: "All offshore data storage is prohibited"},
	})

	assert.Empty(t, outcome.Findings)
	assert.Equal(t, 1, outcome.EvaluatedChecks)
}

func Test_Run_CountsEvaluationsAndFailOpens(t *testing.T) {
	// Registers against the default prometheus registry, so this test owns
	// the single metrics.New() call in this package's test binary.
	m := metrics.New()
	p := newPolicy("No Offshore Data Storage", "data storage", "offshore")
	eval := &stubEvaluator{result: ruleengine.EvalIndeterminate, err: errors.New("timeout")}
	matcher := New(eval, slog.New(slog.DiscardHandler), m)

	matcher.Run(context.Background(), "Acme", []*policy.Policy{p}, []Clause{
		{ID: "c1", Text: "All offshore data storage is permitted"},
	})

	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Evaluations.WithLabelValues("indeterminate")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.FailOpens))

	eval.result = ruleengine.EvalViolates
	eval.err = nil
	matcher.Run(context.Background(), "Acme", []*policy.Policy{p}, []Clause{
		{ID: "c1", Text: "All offshore data storage is permitted"},
	})

	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Evaluations.WithLabelValues("violates")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.FailOpens), "violations are not fail-opens")
}
