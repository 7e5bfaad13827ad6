// Package ruleengine is the adapter for the external policy rule evaluation
// service: converting free-text policies to rule code, generating rule files,
// and evaluating clauses against them.
package ruleengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	dErrors "pactum/pkg/domain-errors"
)

// EvalResult is the three-valued outcome of one rule evaluation. The matcher
// collapses Indeterminate to compliant (fail-open) at its boundary; keeping
// the third value distinct here makes the collapse visible and countable.
type EvalResult int

const (
	EvalViolates EvalResult = iota
	EvalCompliant
	EvalIndeterminate
)

func (r EvalResult) String() string {
	switch r {
	case EvalViolates:
		return "violates"
	case EvalCompliant:
		return "compliant"
	default:
		return "indeterminate"
	}
}

// EvaluateRequest carries one policy and one clause to the evaluator.
type EvaluateRequest struct {
	PolicyID   string
	PolicyName string
	PolicyText string
	RuleCode   string
	// CompanyName selects the company's generated rule file on the engine side.
	CompanyName string
	// ClauseText is the text under test.
	ClauseText string
}

// ConvertRequest asks the engine to derive rule code from a free-text policy.
type ConvertRequest struct {
	PolicyName     string `json:"policyName"`
	LegalFramework string `json:"legalFramework"`
	PolicyText     string `json:"policyText"`
}

// ConvertResult is the machine-checkable form of a policy.
type ConvertResult struct {
	RuleCode    string   `json:"ruleCode"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Explanation string   `json:"explanation"`
	ArticleRef  string   `json:"articleRef"`
}

// Client talks to the rule engine over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type evaluateBody struct {
	PolicyName  string `json:"policyName"`
	PolicyText  string `json:"policyText"`
	RuleCode    string `json:"ruleCode"`
	CompanyName string `json:"companyName"`
	TestText    string `json:"testDescription"`
	PolicyID    string `json:"policyId"`
}

type evaluateResponse struct {
	// Passed is a bool from well-behaved engine versions and a string from
	// older ones; coerce both.
	Passed json.RawMessage `json:"passed"`
}

// Evaluate runs one clause against one policy's rule. Any transport or
// server failure yields EvalIndeterminate together with the error; the
// caller decides what indeterminate means.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (EvalResult, error) {
	body := evaluateBody{
		PolicyName:  req.PolicyName,
		PolicyText:  req.PolicyText,
		RuleCode:    req.RuleCode,
		CompanyName: req.CompanyName,
		TestText:    req.ClauseText,
		PolicyID:    req.PolicyID,
	}

	var parsed evaluateResponse
	if err := c.postJSON(ctx, "/evaluate-file", body, &parsed); err != nil {
		return EvalIndeterminate, err
	}

	passed, ok := coercePassed(parsed.Passed)
	if !ok {
		return EvalIndeterminate, fmt.Errorf("evaluator returned unusable passed value: %s", string(parsed.Passed))
	}
	if passed {
		return EvalCompliant, nil
	}
	return EvalViolates, nil
}

// coercePassed accepts the engine's boolean-or-string passed field.
func coercePassed(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

// Convert derives rule code, category, keywords and references from a
// free-text policy. Unlike evaluation this is not fail-open: the caller is a
// company authoring a policy and needs to see the failure.
func (c *Client) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	var result ConvertResult
	if err := c.postJSON(ctx, "/convert", req, &result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "policy conversion service unavailable")
	}
	return &result, nil
}

type generateFileBody struct {
	PolicyID    string `json:"policyId"`
	PolicyName  string `json:"policyName"`
	PolicyText  string `json:"policyText"`
	RuleCode    string `json:"ruleCode"`
	CompanyName string `json:"companyName"`
}

type generateFileResponse struct {
	FilePath string `json:"filePath"`
}

// GenerateFile asks the engine to materialize a rule file for later
// evaluation runs and returns its path.
func (c *Client) GenerateFile(ctx context.Context, policyID, policyName, policyText, ruleCode, companyName string) (string, error) {
	body := generateFileBody{
		PolicyID:    policyID,
		PolicyName:  policyName,
		PolicyText:  policyText,
		RuleCode:    ruleCode,
		CompanyName: companyName,
	}
	var parsed generateFileResponse
	if err := c.postJSON(ctx, "/generate-file", body, &parsed); err != nil {
		return "", err
	}
	if parsed.FilePath == "" {
		return "", fmt.Errorf("rule engine did not return a file path")
	}
	return parsed.FilePath, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
