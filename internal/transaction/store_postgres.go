package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
	"pactum/pkg/requestcontext"
)

// PostgresStore reads the transactions table maintained by the proposal
// subsystem.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const transactionColumns = `
	id, client_id, company_user_id, client_kind, status, project_name,
	client_name, client_signatory, client_title, client_email, client_registration,
	company_name, company_signatory, company_title, company_email, company_registration,
	created_at, updated_at
`

func (s *PostgresStore) Get(ctx context.Context, transactionID id.TransactionID) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`,
		transactionID.String())
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

func (s *PostgresStore) ListByClient(ctx context.Context, clientID id.UserID) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE client_id = $1 ORDER BY created_at DESC`,
		clientID.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions by client: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, transactionID id.TransactionID, status SubmissionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), requestcontext.Now(ctx), transactionID.String())
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var (
		txn                Transaction
		rawID, rawClient   string
		rawCompanyUser     string
		rawKind, rawStatus string
	)
	err := row.Scan(
		&rawID, &rawClient, &rawCompanyUser, &rawKind, &rawStatus, &txn.ProjectName,
		&txn.Client.Name, &txn.Client.Signatory, &txn.Client.Title, &txn.Client.Email, &txn.Client.Registration,
		&txn.Company.Name, &txn.Company.Signatory, &txn.Company.Title, &txn.Company.Email, &txn.Company.Registration,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if txn.ID, err = id.ParseTransactionID(rawID); err != nil {
		return nil, err
	}
	if txn.ClientID, err = id.ParseUserID(rawClient); err != nil {
		return nil, err
	}
	if txn.CompanyUserID, err = id.ParseUserID(rawCompanyUser); err != nil {
		return nil, err
	}
	txn.ClientKind = ClientKind(rawKind)
	txn.Status = SubmissionStatus(rawStatus)
	return &txn, nil
}
