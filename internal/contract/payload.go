package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	dErrors "pactum/pkg/domain-errors"
)

// LockedSectionID marks the template section that holds legal boilerplate.
// Its clauses are never matched against company policies.
const LockedSectionID = "s10"

// minClauseChars filters noise: anything shorter after trimming is not worth
// sending to a validator.
const minClauseChars = 10

// Clause is one numbered provision inside a section.
type Clause struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Section groups clauses under a title. Num is the display number the
// frontend assigns; the analyzer relies on it for clause numbering.
type Section struct {
	ID      string   `json:"id"`
	Num     int      `json:"num"`
	Title   string   `json:"title"`
	Clauses []Clause `json:"clauses"`
}

// Party is the display block for one side of the document.
type Party struct {
	Name      string `json:"name"`
	Signatory string `json:"signatory"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Details   string `json:"details"`
}

// Payload is the caller-defined document body. Main contracts carry Sections;
// NDAs carry the four variable fields instead.
type Payload struct {
	PartyA   *Party    `json:"partyA,omitempty"`
	PartyB   *Party    `json:"partyB,omitempty"`
	Sections []Section `json:"sections,omitempty"`

	Purpose           string `json:"purpose,omitempty"`
	Duration          string `json:"duration,omitempty"`
	DisputeResolution string `json:"disputeResolution,omitempty"`
	Provisions        string `json:"provisions,omitempty"`
}

// ParsePayload decodes the stored payload JSON. An empty or "{}" payload
// yields an empty Payload.
func ParsePayload(raw string) (Payload, error) {
	var p Payload
	if strings.TrimSpace(raw) == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "contract payload is not valid JSON")
	}
	return p, nil
}

// NumberedClause is a clause prepared for the analyzer: trimmed text plus the
// "section.index" numbered form the analyzer's patterns expect.
type NumberedClause struct {
	ID       string
	Text     string
	Numbered string
}

// AnalyzerClauses returns every clause worth analyzing, numbered
// "<section num>.<clause index> <text>". The index counts all clauses in the
// section, including short ones that are skipped, so numbering matches what
// the frontend displays.
func (p Payload) AnalyzerClauses() []NumberedClause {
	var out []NumberedClause
	for _, section := range p.Sections {
		idx := 1
		for _, clause := range section.Clauses {
			text := strings.TrimSpace(clause.Text)
			if len(text) < minClauseChars {
				idx++
				continue
			}
			out = append(out, NumberedClause{
				ID:       clause.ID,
				Text:     text,
				Numbered: fmt.Sprintf("%d.%d %s", section.Num, idx, text),
			})
			idx++
		}
	}
	return out
}

// PolicyClauses returns the clauses subject to policy matching: the locked
// boilerplate section and short clauses are excluded.
func (p Payload) PolicyClauses() []Clause {
	var out []Clause
	for _, section := range p.Sections {
		if section.ID == LockedSectionID {
			continue
		}
		for _, clause := range section.Clauses {
			text := strings.TrimSpace(clause.Text)
			if len(text) < minClauseChars {
				continue
			}
			out = append(out, Clause{ID: clause.ID, Text: text})
		}
	}
	return out
}
