// Package policy owns company compliance rules: the entity, its stores, and
// (in subpackages) the matching algorithm and management service.
package policy

import (
	"strings"
	"time"

	id "pactum/pkg/domain"
)

// Policy is one company-authored compliance rule. It is read-only to the
// matching algorithm; only its owning company creates or deletes it.
type Policy struct {
	ID             id.PolicyID
	CompanyUserID  id.UserID
	Name           string
	LegalFramework string
	PolicyText     string
	// RuleCode is the machine-checkable form produced by the conversion step.
	RuleCode string
	Category string
	// Keywords is stored comma-joined, exactly as authored.
	Keywords    string
	Explanation string
	ArticleRef  string
	// FilePath points at the generated rule file, relative to the upload dir.
	FilePath  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KeywordList splits the comma-joined keywords, trimming each entry.
// Blank entries are dropped.
func (p Policy) KeywordList() []string {
	if strings.TrimSpace(p.Keywords) == "" {
		return nil
	}
	parts := strings.Split(p.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
