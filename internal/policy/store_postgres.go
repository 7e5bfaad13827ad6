package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
)

// PostgresStore persists policies in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const policyColumns = `
	id, company_user_id, name, legal_framework, policy_text, rule_code,
	category, keywords, explanation, article_ref, file_path, created_at, updated_at
`

func (s *PostgresStore) Save(ctx context.Context, p *Policy) error {
	query := `
		INSERT INTO policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			legal_framework = EXCLUDED.legal_framework,
			policy_text = EXCLUDED.policy_text,
			rule_code = EXCLUDED.rule_code,
			category = EXCLUDED.category,
			keywords = EXCLUDED.keywords,
			explanation = EXCLUDED.explanation,
			article_ref = EXCLUDED.article_ref,
			file_path = EXCLUDED.file_path,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID.String(), p.CompanyUserID.String(), p.Name, p.LegalFramework,
		p.PolicyText, p.RuleCode, p.Category, p.Keywords, p.Explanation,
		p.ArticleRef, p.FilePath, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, policyID id.PolicyID) (*Policy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, policyID.String())
	p, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyUserID id.UserID) ([]*Policy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE company_user_id = $1 ORDER BY created_at DESC`,
		companyUserID.String())
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, policyID id.PolicyID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, policyID.String())
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*Policy, error) {
	var (
		p                 Policy
		rawID, rawCompany string
	)
	err := row.Scan(
		&rawID, &rawCompany, &p.Name, &p.LegalFramework, &p.PolicyText, &p.RuleCode,
		&p.Category, &p.Keywords, &p.Explanation, &p.ArticleRef, &p.FilePath,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.ID, err = id.ParsePolicyID(rawID); err != nil {
		return nil, err
	}
	if p.CompanyUserID, err = id.ParseUserID(rawCompany); err != nil {
		return nil, err
	}
	return &p, nil
}
