package handler

import (
	"time"

	"pactum/internal/contract"
	"pactum/internal/contract/service"
	"pactum/internal/transaction"
)

type saveDraftRequest struct {
	TransactionID       string `json:"transactionId"`
	ContractPayloadJSON string `json:"contractPayloadJson"`
}

type signRequest struct {
	TransactionID       string `json:"transactionId"`
	SignatureBase64     string `json:"signatureBase64"`
	ContractPayloadJSON string `json:"contractPayloadJson"`
}

type chatSendRequest struct {
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

type partyResponse struct {
	Name      string `json:"name"`
	Signatory string `json:"signatory"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Details   string `json:"details"`
}

type partiesResponse struct {
	Actor      string        `json:"actor"`
	ClientType string        `json:"clientType"`
	PartyA     partyResponse `json:"partyA"`
	PartyB     partyResponse `json:"partyB"`
}

func toPartyResponse(p contract.Party) partyResponse {
	return partyResponse{
		Name:      p.Name,
		Signatory: p.Signatory,
		Title:     p.Title,
		Email:     p.Email,
		Details:   p.Details,
	}
}

func toPartiesResponse(p *service.Parties) partiesResponse {
	clientType := "INDIVIDUAL"
	if p.ClientKind == transaction.ClientCorporate {
		clientType = "COMPANY"
	}
	return partiesResponse{
		Actor:      string(p.Actor),
		ClientType: clientType,
		PartyA:     toPartyResponse(p.PartyA),
		PartyB:     toPartyResponse(p.PartyB),
	}
}

type draftResponse struct {
	TransactionID       string               `json:"transactionId"`
	ContractPayloadJSON string               `json:"contractPayloadJson"`
	AIValidated         bool                 `json:"aiValidated"`
	PolicyValidated     bool                 `json:"policyValidated"`
	SentToClient        bool                 `json:"sentToClient"`
	ClientSigned        bool                 `json:"clientSigned"`
	CompanySigned       bool                 `json:"companySigned"`
	ClientSignedAt      *time.Time           `json:"clientSignedAt,omitempty"`
	CompanySignedAt     *time.Time           `json:"companySignedAt,omitempty"`
	ComplianceScore     float64              `json:"complianceScore"`
	ValidationResults   []contract.Violation `json:"validationResults"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

func toDraftResponse(d *contract.Draft) draftResponse {
	return draftResponse{
		TransactionID:       d.TransactionID.String(),
		ContractPayloadJSON: d.Payload,
		AIValidated:         d.AIValidated,
		PolicyValidated:     d.PolicyValidated,
		SentToClient:        d.SentToClient(),
		ClientSigned:        d.ClientSigned(),
		CompanySigned:       d.CompanySigned(),
		ClientSignedAt:      d.ClientSignedAt,
		CompanySignedAt:     d.CompanySignedAt,
		ComplianceScore:     d.ComplianceScore,
		ValidationResults:   d.Results,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

type validationResponse struct {
	IsValid         bool                 `json:"isValid"`
	ComplianceScore float64              `json:"complianceScore"`
	Violations      []contract.Violation `json:"violations"`
	Message         string               `json:"message"`
}

func toValidationResponse(res *service.ValidationResult) validationResponse {
	violations := res.Violations
	if violations == nil {
		violations = []contract.Violation{}
	}
	return validationResponse{
		IsValid:         res.Valid,
		ComplianceScore: res.ComplianceScore,
		Violations:      violations,
		Message:         res.Message,
	}
}

type ndaDraftResponse struct {
	TransactionID       string     `json:"transactionId"`
	ContractPayloadJSON string     `json:"contractPayloadJson"`
	ClientSigned        bool       `json:"clientSigned"`
	CompanySigned       bool       `json:"companySigned"`
	ClientSignedAt      *time.Time `json:"clientSignedAt,omitempty"`
	CompanySignedAt     *time.Time `json:"companySignedAt,omitempty"`
}

func toNdaDraftResponse(d *contract.NdaDraft) ndaDraftResponse {
	return ndaDraftResponse{
		TransactionID:       d.TransactionID.String(),
		ContractPayloadJSON: d.Payload,
		ClientSigned:        d.ClientSigned(),
		CompanySigned:       d.CompanySigned(),
		ClientSignedAt:      d.ClientSignedAt,
		CompanySignedAt:     d.CompanySignedAt,
	}
}

type recordResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	ContractType  string    `json:"contractType"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	SignedAt      time.Time `json:"signedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toRecordResponse(r contract.Record) recordResponse {
	return recordResponse{
		ID:            r.ID.String(),
		TransactionID: r.TransactionID.String(),
		ContractType:  string(r.Type),
		FileName:      r.FileName,
		FileSize:      r.FileSize,
		SignedAt:      r.SignedAt,
		CreatedAt:     r.CreatedAt,
	}
}

type signedProjectResponse struct {
	ID           string    `json:"id"`
	ProjectName  string    `json:"projectName"`
	CompanyName  string    `json:"companyName"`
	ContractType string    `json:"contractType"`
	FileName     string    `json:"fileName"`
	FileSize     int64     `json:"fileSize"`
	SignedAt     time.Time `json:"signedAt"`
}

func toSignedProjectResponse(p service.SignedProject) signedProjectResponse {
	return signedProjectResponse{
		ID:           p.RecordID.String(),
		ProjectName:  p.ProjectName,
		CompanyName:  p.CompanyName,
		ContractType: string(p.ContractType),
		FileName:     p.FileName,
		FileSize:     p.FileSize,
		SignedAt:     p.SignedAt,
	}
}

type chatMessageResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toChatMessageResponse(e service.ChatEntry) chatMessageResponse {
	return chatMessageResponse{
		ID:            e.ID.String(),
		TransactionID: e.TransactionID.String(),
		SenderID:      e.SenderID.String(),
		SenderName:    e.SenderName,
		Message:       e.Message,
		CreatedAt:     e.CreatedAt,
	}
}
