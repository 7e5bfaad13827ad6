// Package handler exposes policy management over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pactum/internal/policy"
	"pactum/internal/policy/service"
	"pactum/internal/ruleengine"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/httputil"
	"pactum/pkg/requestcontext"
)

// Service defines the interface for policy operations.
type Service interface {
	Convert(ctx context.Context, req ruleengine.ConvertRequest) (*ruleengine.ConvertResult, error)
	Save(ctx context.Context, companyUserID id.UserID, req service.SaveRequest) (*policy.Policy, error)
	List(ctx context.Context, companyUserID id.UserID) ([]*policy.Policy, error)
	Delete(ctx context.Context, companyUserID id.UserID, policyID id.PolicyID) error
}

// Handler handles policy endpoints.
type Handler struct {
	policies Service
	logger   *slog.Logger
}

// New creates a new policy Handler.
func New(policies Service, logger *slog.Logger) *Handler {
	return &Handler{policies: policies, logger: logger}
}

// Register registers the policy routes with the chi router. The router must
// already authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policies/convert", h.handleConvert)
	r.Post("/policies", h.handleSave)
	r.Get("/policies", h.handleList)
	r.Delete("/policies/{id}", h.handleDelete)
}

type convertRequest struct {
	PolicyName     string `json:"policyName"`
	LegalFramework string `json:"legalFramework"`
	PolicyText     string `json:"policyText"`
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.policies.Convert(ctx, ruleengine.ConvertRequest{
		PolicyName:     req.PolicyName,
		LegalFramework: req.LegalFramework,
		PolicyText:     req.PolicyText,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "policy conversion failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

type saveRequest struct {
	PolicyName     string   `json:"policyName"`
	LegalFramework string   `json:"legalFramework"`
	PolicyText     string   `json:"policyText"`
	RuleCode       string   `json:"ruleCode"`
	Category       string   `json:"category"`
	Keywords       []string `json:"keywords"`
	Explanation    string   `json:"explanation"`
	ArticleRef     string   `json:"articleRef"`
	CompanyName    string   `json:"companyName"`
}

type policyResponse struct {
	ID             string    `json:"id"`
	PolicyName     string    `json:"policyName"`
	LegalFramework string    `json:"legalFramework"`
	PolicyText     string    `json:"policyText"`
	RuleCode       string    `json:"ruleCode"`
	Category       string    `json:"category"`
	Keywords       string    `json:"keywords"`
	Explanation    string    `json:"explanation"`
	ArticleRef     string    `json:"articleRef"`
	FilePath       string    `json:"filePath"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toPolicyResponse(p *policy.Policy) policyResponse {
	return policyResponse{
		ID:             p.ID.String(),
		PolicyName:     p.Name,
		LegalFramework: p.LegalFramework,
		PolicyText:     p.PolicyText,
		RuleCode:       p.RuleCode,
		Category:       p.Category,
		Keywords:       p.Keywords,
		Explanation:    p.Explanation,
		ArticleRef:     p.ArticleRef,
		FilePath:       p.FilePath,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	saved, err := h.policies.Save(ctx, caller, service.SaveRequest{
		Name:           req.PolicyName,
		LegalFramework: req.LegalFramework,
		PolicyText:     req.PolicyText,
		RuleCode:       req.RuleCode,
		Category:       req.Category,
		Keywords:       req.Keywords,
		Explanation:    req.Explanation,
		ArticleRef:     req.ArticleRef,
		CompanyName:    req.CompanyName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "policy save failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toPolicyResponse(saved))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policies, err := h.policies.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policyID, err := id.ParsePolicyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.policies.Delete(ctx, requestcontext.UserID(ctx), policyID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
