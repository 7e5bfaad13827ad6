// Package handler exposes the contract lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pactum/internal/contract"
	"pactum/internal/contract/service"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/httputil"
	"pactum/pkg/requestcontext"
)

// Service is the contract operations surface the handler depends on.
type Service interface {
	GetParties(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*service.Parties, error)
	GetDraft(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*contract.Draft, error)
	SaveDraft(ctx context.Context, txnID id.TransactionID, callerID id.UserID, payload string) (*contract.Draft, error)
	ValidateWithAI(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*service.ValidationResult, error)
	ValidateWithPolicy(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*service.ValidationResult, error)
	SendToClient(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*contract.Draft, error)
	SignClient(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.Draft, error)
	SignCompany(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.Draft, error)
	GetNdaDraft(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*contract.NdaDraft, error)
	SignNdaClient(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.NdaDraft, error)
	SignNdaCompany(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.NdaDraft, error)
	ListRecords(ctx context.Context, companyUserID id.UserID) ([]contract.Record, error)
	RecordPDF(ctx context.Context, recordID id.RecordID, callerID id.UserID) (*contract.Record, error)
	SignedProjects(ctx context.Context, clientID id.UserID) ([]service.SignedProject, error)
	SendChatMessage(ctx context.Context, txnID id.TransactionID, callerID id.UserID, message string) (*service.ChatEntry, error)
	ChatMessages(ctx context.Context, txnID id.TransactionID, callerID id.UserID) ([]service.ChatEntry, error)
}

type Handler struct {
	contracts Service
	logger    *slog.Logger
}

func New(contracts Service, logger *slog.Logger) *Handler {
	return &Handler{contracts: contracts, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Route("/main", func(r chi.Router) {
			r.Get("/parties", h.getParties)
			r.Get("/draft", h.getDraft)
			r.Post("/draft/save", h.saveDraft)
			r.Post("/validate/ai", h.validateAI)
			r.Post("/validate/policy", h.validatePolicy)
			r.Post("/send-to-client", h.sendToClient)
			r.Post("/sign/client", h.signClient)
			r.Post("/sign/company", h.signCompany)
			r.Post("/chat/send", h.sendChat)
			r.Get("/chat", h.listChat)
		})
		r.Route("/nda", func(r chi.Router) {
			r.Get("/draft", h.getNdaDraft)
			r.Post("/sign/client", h.signNdaClient)
			r.Post("/sign/company", h.signNdaCompany)
		})
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.listRecords)
			r.Get("/signed-projects", h.signedProjects)
			r.Get("/{id}/pdf", h.recordPDF)
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), op+" failed",
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}

// transactionFromQuery reads the transactionId query parameter.
func transactionFromQuery(r *http.Request) (id.TransactionID, error) {
	return id.ParseTransactionID(r.URL.Query().Get("transactionId"))
}

func (h *Handler) getParties(w http.ResponseWriter, r *http.Request) {
	txnID, err := transactionFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	parties, err := h.contracts.GetParties(r.Context(), txnID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "get parties", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPartiesResponse(parties))
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	txnID, err := transactionFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := h.contracts.GetDraft(r.Context(), txnID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "get draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req saveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	txnID, err := id.ParseTransactionID(req.TransactionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := h.contracts.SaveDraft(r.Context(), txnID, requestcontext.UserID(r.Context()), req.ContractPayloadJSON)
	if err != nil {
		h.fail(w, r, "save draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

func (h *Handler) validateAI(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, "validate ai", h.contracts.ValidateWithAI)
}

func (h *Handler) validatePolicy(w http.ResponseWriter, r *http.Request) {
	h.validate(w, r, "validate policy", h.contracts.ValidateWithPolicy)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request, op string, run func(context.Context, id.TransactionID, id.UserID) (*service.ValidationResult, error)) {
	txnID, err := transactionFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := run(r.Context(), txnID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toValidationResponse(result))
}

func (h *Handler) sendToClient(w http.ResponseWriter, r *http.Request) {
	txnID, err := transactionFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := h.contracts.SendToClient(r.Context(), txnID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "send to client", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

func (h *Handler) signClient(w http.ResponseWriter, r *http.Request) {
	h.signMain(w, r, "sign client", h.contracts.SignClient)
}

func (h *Handler) signCompany(w http.ResponseWriter, r *http.Request) {
	h.signMain(w, r, "sign company", h.contracts.SignCompany)
}

func (h *Handler) signMain(w http.ResponseWriter, r *http.Request, op string, run func(context.Context, id.TransactionID, id.UserID, string, string) (*contract.Draft, error)) {
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	txnID, err := id.ParseTransactionID(req.TransactionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := run(r.Context(), txnID, requestcontext.UserID(r.Context()), req.SignatureBase64, req.ContractPayloadJSON)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

func (h *Handler) getNdaDraft(w http.ResponseWriter, r *http.Request) {
	txnID, err := transactionFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := h.contracts.GetNdaDraft(r.Context(), txnID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "get nda draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toNdaDraftResponse(draft))
}

func (h *Handler) signNdaClient(w http.ResponseWriter, r *http.Request) {
	h.signNda(w, r, "sign nda client", h.contracts.SignNdaClient)
}

func (h *Handler) signNdaCompany(w http.ResponseWriter, r *http.Request) {
	h.signNda(w, r, "sign nda company", h.contracts.SignNdaCompany)
}

func (h *Handler) signNda(w http.ResponseWriter, r *http.Request, op string, run func(context.Context, id.TransactionID, id.UserID, string, string) (*contract.NdaDraft, error)) {
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	txnID, err := id.ParseTransactionID(req.TransactionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	draft, err := run(r.Context(), txnID, requestcontext.UserID(r.Context()), req.SignatureBase64, req.ContractPayloadJSON)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toNdaDraftResponse(draft))
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.contracts.ListRecords(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "list records", err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) signedProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.contracts.SignedProjects(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "signed projects", err)
		return
	}
	out := make([]signedProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toSignedProjectResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) recordPDF(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.contracts.RecordPDF(r.Context(), recordID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "record pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(record.Document); err != nil {
		h.logger.WarnContext(r.Context(), "writing pdf response failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
	}
}

func (h *Handler) sendChat(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	txnID, err := id.ParseTransactionID(req.TransactionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.contracts.SendChatMessage(r.Context(), txnID, requestcontext.UserID(r.Context()), req.Message)
	if err != nil {
		h.fail(w, r, "send chat message", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toChatMessageResponse(*entry))
}

func (h *Handler) listChat(w http.ResponseWriter, r *http.Request) {
	txnID, err := transactionFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.contracts.ChatMessages(r.Context(), txnID, requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "list chat messages", err)
		return
	}
	out := make([]chatMessageResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toChatMessageResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
