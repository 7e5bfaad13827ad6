package service

import (
	"context"
	"errors"
	"time"

	"pactum/internal/contract"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/sentinel"
)

// ListRecords returns the caller's archived contracts, newest first,
// metadata only.
func (s *Service) ListRecords(ctx context.Context, companyUserID id.UserID) ([]contract.Record, error) {
	return s.records.ListByCompany(ctx, companyUserID)
}

// RecordPDF loads the archived document. Access is limited to the record's
// company and the transaction's client; anyone else sees not found rather
// than confirmation the record exists.
func (s *Service) RecordPDF(ctx context.Context, recordID id.RecordID, callerID id.UserID) (*contract.Record, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, err
	}

	if record.CompanyUserID == callerID {
		return record, nil
	}
	txn, err := s.transactions.Get(ctx, record.TransactionID)
	if err == nil && txn.ClientID == callerID {
		return record, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
}

// SignedProject is one archived contract seen from the client's side,
// enriched with the transaction's display data.
type SignedProject struct {
	RecordID     id.RecordID
	ProjectName  string
	CompanyName  string
	ContractType contract.Type
	FileName     string
	FileSize     int64
	SignedAt     time.Time
}

// SignedProjects lists every archived contract across the client's
// transactions.
func (s *Service) SignedProjects(ctx context.Context, clientID id.UserID) ([]SignedProject, error) {
	txns, err := s.transactions.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var out []SignedProject
	for _, txn := range txns {
		records, err := s.records.ListByTransaction(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			out = append(out, SignedProject{
				RecordID:     record.ID,
				ProjectName:  txn.ProjectName,
				CompanyName:  txn.Company.Name,
				ContractType: record.Type,
				FileName:     record.FileName,
				FileSize:     record.FileSize,
				SignedAt:     record.SignedAt,
			})
		}
	}
	return out, nil
}
