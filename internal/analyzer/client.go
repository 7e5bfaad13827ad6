// Package analyzer is the adapter for the external NLP clause analysis
// service.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Finding is one issue the analyzer raised for a clause.
type Finding struct {
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

// Result aggregates the analyzer's answer for one clause.
type Result struct {
	Findings []Finding
	// ComplianceScore is the analyzer's 0-100 score for the clause. Absent
	// scores default to 100 so a scoreless answer never drags a document down.
	ComplianceScore float64
}

// Client calls the clause analysis service, one clause per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type analyzeRequest struct {
	Contract string `json:"contract"`
}

type analyzeResponse struct {
	Violations      []Finding `json:"violations"`
	ComplianceScore *float64  `json:"compliance_score"`
}

// Analyze submits one numbered clause. The clause text must carry its
// "section.index" prefix; the analyzer's extraction depends on it.
func (c *Client) Analyze(ctx context.Context, numberedClause string) (*Result, error) {
	payload, err := json.Marshal(analyzeRequest{Contract: numberedClause})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("analyze returned status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode analyze response: %w", err)
	}

	result := &Result{
		Findings:        parsed.Violations,
		ComplianceScore: 100,
	}
	if parsed.ComplianceScore != nil {
		result.ComplianceScore = *parsed.ComplianceScore
	}
	return result, nil
}
