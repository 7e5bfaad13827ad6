package contract

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
	txcontext "pactum/pkg/platform/tx"

	"github.com/google/uuid"
)

// querier is satisfied by both *sql.DB and *sql.Tx; stores pick whichever the
// context carries so the signing flow can run several stores on one
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func pick(ctx context.Context, db *sql.DB) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// PostgresDraftStore persists main-contract drafts with optimistic version
// checks.
type PostgresDraftStore struct {
	db *sql.DB
}

func NewPostgresDraftStore(db *sql.DB) *PostgresDraftStore {
	return &PostgresDraftStore{db: db}
}

const draftColumns = `
	transaction_id, payload, state, ai_validated, policy_validated, compliance_score,
	client_signature, client_signed_at, company_signature, company_signed_at,
	results, version, created_at, updated_at
`

func (s *PostgresDraftStore) Get(ctx context.Context, txnID id.TransactionID) (*Draft, error) {
	row := pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM contract_drafts WHERE transaction_id = $1`,
		txnID.String())

	var (
		d       Draft
		rawID   string
		state   string
		results []byte
	)
	err := row.Scan(
		&rawID, &d.Payload, &state, &d.AIValidated, &d.PolicyValidated, &d.ComplianceScore,
		&d.ClientSignature, &d.ClientSignedAt, &d.CompanySignature, &d.CompanySignedAt,
		&results, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get contract draft: %w", err)
	}
	if d.TransactionID, err = id.ParseTransactionID(rawID); err != nil {
		return nil, err
	}
	d.State = DraftState(state)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &d.Results); err != nil {
			return nil, fmt.Errorf("decode validation results: %w", err)
		}
	}
	return &d, nil
}

func (s *PostgresDraftStore) Save(ctx context.Context, draft *Draft) error {
	results, err := json.Marshal(draft.Results)
	if err != nil {
		return fmt.Errorf("encode validation results: %w", err)
	}

	q := pick(ctx, s.db)
	if draft.Version == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO contract_drafts (`+draftColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
			ON CONFLICT (transaction_id) DO NOTHING`,
			draft.TransactionID.String(), draft.Payload, string(draft.State),
			draft.AIValidated, draft.PolicyValidated, draft.ComplianceScore,
			draft.ClientSignature, draft.ClientSignedAt, draft.CompanySignature, draft.CompanySignedAt,
			results, draft.CreatedAt, draft.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert contract draft: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrConflict
		}
		draft.Version = 1
		return nil
	}

	res, err := q.ExecContext(ctx, `
		UPDATE contract_drafts SET
			payload = $2, state = $3, ai_validated = $4, policy_validated = $5,
			compliance_score = $6, client_signature = $7, client_signed_at = $8,
			company_signature = $9, company_signed_at = $10, results = $11,
			version = version + 1, updated_at = $12
		WHERE transaction_id = $1 AND version = $13`,
		draft.TransactionID.String(), draft.Payload, string(draft.State),
		draft.AIValidated, draft.PolicyValidated, draft.ComplianceScore,
		draft.ClientSignature, draft.ClientSignedAt, draft.CompanySignature, draft.CompanySignedAt,
		results, draft.UpdatedAt, draft.Version,
	)
	if err != nil {
		return fmt.Errorf("update contract draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrConflict
	}
	draft.Version++
	return nil
}

func (s *PostgresDraftStore) Delete(ctx context.Context, txnID id.TransactionID) error {
	res, err := pick(ctx, s.db).ExecContext(ctx,
		`DELETE FROM contract_drafts WHERE transaction_id = $1`, txnID.String())
	if err != nil {
		return fmt.Errorf("delete contract draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresNdaDraftStore persists NDA signing drafts.
type PostgresNdaDraftStore struct {
	db *sql.DB
}

func NewPostgresNdaDraftStore(db *sql.DB) *PostgresNdaDraftStore {
	return &PostgresNdaDraftStore{db: db}
}

const ndaDraftColumns = `
	transaction_id, payload, client_signature, client_signed_at,
	company_signature, company_signed_at, version, created_at, updated_at
`

func (s *PostgresNdaDraftStore) Get(ctx context.Context, txnID id.TransactionID) (*NdaDraft, error) {
	row := pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+ndaDraftColumns+` FROM nda_signing_drafts WHERE transaction_id = $1`,
		txnID.String())

	var (
		d     NdaDraft
		rawID string
	)
	err := row.Scan(
		&rawID, &d.Payload, &d.ClientSignature, &d.ClientSignedAt,
		&d.CompanySignature, &d.CompanySignedAt, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get nda draft: %w", err)
	}
	if d.TransactionID, err = id.ParseTransactionID(rawID); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresNdaDraftStore) Save(ctx context.Context, draft *NdaDraft) error {
	q := pick(ctx, s.db)
	if draft.Version == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO nda_signing_drafts (`+ndaDraftColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
			ON CONFLICT (transaction_id) DO NOTHING`,
			draft.TransactionID.String(), draft.Payload,
			draft.ClientSignature, draft.ClientSignedAt,
			draft.CompanySignature, draft.CompanySignedAt,
			draft.CreatedAt, draft.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert nda draft: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrConflict
		}
		draft.Version = 1
		return nil
	}

	res, err := q.ExecContext(ctx, `
		UPDATE nda_signing_drafts SET
			payload = $2, client_signature = $3, client_signed_at = $4,
			company_signature = $5, company_signed_at = $6,
			version = version + 1, updated_at = $7
		WHERE transaction_id = $1 AND version = $8`,
		draft.TransactionID.String(), draft.Payload,
		draft.ClientSignature, draft.ClientSignedAt,
		draft.CompanySignature, draft.CompanySignedAt,
		draft.UpdatedAt, draft.Version,
	)
	if err != nil {
		return fmt.Errorf("update nda draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrConflict
	}
	draft.Version++
	return nil
}

func (s *PostgresNdaDraftStore) Delete(ctx context.Context, txnID id.TransactionID) error {
	res, err := pick(ctx, s.db).ExecContext(ctx,
		`DELETE FROM nda_signing_drafts WHERE transaction_id = $1`, txnID.String())
	if err != nil {
		return fmt.Errorf("delete nda draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresRecordStore is the append-only archive table.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

func (s *PostgresRecordStore) Append(ctx context.Context, record *Record) error {
	_, err := pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO contract_records
			(id, transaction_id, company_user_id, contract_type, document, file_name, file_size, signed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID.String(), record.TransactionID.String(), record.CompanyUserID.String(),
		string(record.Type), record.Document, record.FileName, record.FileSize,
		record.SignedAt, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contract record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) Get(ctx context.Context, recordID id.RecordID) (*Record, error) {
	row := pick(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, transaction_id, company_user_id, contract_type, document, file_name, file_size, signed_at, created_at
		FROM contract_records WHERE id = $1`,
		recordID.String())
	rec, err := scanRecord(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get contract record: %w", err)
	}
	return rec, nil
}

const recordMetaColumns = `
	id, transaction_id, company_user_id, contract_type, file_name, file_size, signed_at, created_at
`

func (s *PostgresRecordStore) ListByCompany(ctx context.Context, companyUserID id.UserID) ([]Record, error) {
	return s.list(ctx,
		`SELECT `+recordMetaColumns+` FROM contract_records WHERE company_user_id = $1 ORDER BY signed_at DESC`,
		companyUserID.String())
}

func (s *PostgresRecordStore) ListByTransaction(ctx context.Context, txnID id.TransactionID) ([]Record, error) {
	return s.list(ctx,
		`SELECT `+recordMetaColumns+` FROM contract_records WHERE transaction_id = $1 ORDER BY signed_at DESC`,
		txnID.String())
}

func (s *PostgresRecordStore) list(ctx context.Context, query string, arg any) ([]Record, error) {
	rows, err := pick(ctx, s.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list contract records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan contract record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner, withDocument bool) (*Record, error) {
	var (
		rec                    Record
		rawID, rawTxn, rawUser string
		contractType           string
	)
	dest := []any{&rawID, &rawTxn, &rawUser, &contractType}
	if withDocument {
		dest = append(dest, &rec.Document)
	}
	dest = append(dest, &rec.FileName, &rec.FileSize, &rec.SignedAt, &rec.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if rec.ID, err = id.ParseRecordID(rawID); err != nil {
		return nil, err
	}
	if rec.TransactionID, err = id.ParseTransactionID(rawTxn); err != nil {
		return nil, err
	}
	if rec.CompanyUserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, err
	}
	rec.Type = Type(contractType)
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresChatStore is the append-only chat table.
type PostgresChatStore struct {
	db *sql.DB
}

func NewPostgresChatStore(db *sql.DB) *PostgresChatStore {
	return &PostgresChatStore{db: db}
}

func (s *PostgresChatStore) Append(ctx context.Context, msg *ChatMessage) error {
	_, err := pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO contract_chat_messages (id, transaction_id, sender_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.TransactionID.String(), msg.SenderID.String(), msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *PostgresChatStore) ListByTransaction(ctx context.Context, txnID id.TransactionID) ([]ChatMessage, error) {
	rows, err := pick(ctx, s.db).QueryContext(ctx, `
		SELECT id, transaction_id, sender_id, message, created_at
		FROM contract_chat_messages WHERE transaction_id = $1 ORDER BY created_at ASC`,
		txnID.String())
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var (
			msg             ChatMessage
			rawID           uuid.UUID
			rawTxn, rawUser string
		)
		if err := rows.Scan(&rawID, &rawTxn, &rawUser, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.ID = rawID
		if msg.TransactionID, err = id.ParseTransactionID(rawTxn); err != nil {
			return nil, err
		}
		if msg.SenderID, err = id.ParseUserID(rawUser); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
