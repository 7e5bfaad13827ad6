// Package service manages the policy catalog: conversion of free-text
// policies to rule code, persistence, rule file generation, and deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"pactum/internal/policy"
	"pactum/internal/ruleengine"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/audit"
	"pactum/pkg/platform/sentinel"
	"pactum/pkg/requestcontext"
)

// RuleEngine is the slice of the rule engine client this service needs.
type RuleEngine interface {
	Convert(ctx context.Context, req ruleengine.ConvertRequest) (*ruleengine.ConvertResult, error)
	GenerateFile(ctx context.Context, policyID, policyName, policyText, ruleCode, companyName string) (string, error)
}

// Service manages company policies.
type Service struct {
	store     policy.Store
	engine    RuleEngine
	audit     audit.Store
	logger    *slog.Logger
	uploadDir string
}

func NewService(store policy.Store, engine RuleEngine, auditStore audit.Store, logger *slog.Logger, uploadDir string) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		audit:     auditStore,
		logger:    logger,
		uploadDir: uploadDir,
	}
}

// Convert asks the rule engine to derive rule code from a free-text policy.
// Failures surface to the caller; an authoring company needs to see them.
func (s *Service) Convert(ctx context.Context, req ruleengine.ConvertRequest) (*ruleengine.ConvertResult, error) {
	if strings.TrimSpace(req.PolicyName) == "" || strings.TrimSpace(req.PolicyText) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "policy name and text are required")
	}
	return s.engine.Convert(ctx, req)
}

// SaveRequest carries a converted policy ready to persist.
type SaveRequest struct {
	Name           string
	LegalFramework string
	PolicyText     string
	RuleCode       string
	Category       string
	Keywords       []string
	Explanation    string
	ArticleRef     string
	// CompanyName labels the generated rule file; falls back to a
	// company-id-derived name when the caller has no display name.
	CompanyName string
}

// Save persists the policy, then materializes its rule file: first by asking
// the rule engine, falling back to a locally generated file when the engine
// cannot produce one. The policy exists either way; only evaluation quality
// degrades without an engine-generated file.
func (s *Service) Save(ctx context.Context, companyUserID id.UserID, req SaveRequest) (*policy.Policy, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.RuleCode) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "policy name and rule code are required")
	}

	now := requestcontext.Now(ctx)
	p := &policy.Policy{
		ID:             id.PolicyID(uuid.New()),
		CompanyUserID:  companyUserID,
		Name:           req.Name,
		LegalFramework: req.LegalFramework,
		PolicyText:     req.PolicyText,
		RuleCode:       req.RuleCode,
		Category:       req.Category,
		Keywords:       strings.Join(req.Keywords, ","),
		Explanation:    req.Explanation,
		ArticleRef:     req.ArticleRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save policy")
	}

	companyName := req.CompanyName
	if strings.TrimSpace(companyName) == "" {
		companyName = "company_" + companyUserID.String()
	}

	filePath, err := s.engine.GenerateFile(ctx, p.ID.String(), p.Name, p.PolicyText, p.RuleCode, companyName)
	if err != nil {
		s.logger.WarnContext(ctx, "rule engine file generation failed, writing local rule file",
			"policy", p.Name,
			"error", err,
		)
		filePath = s.writeLocalRuleFile(ctx, p, companyName)
	}

	if filePath != "" {
		p.FilePath = filePath
		p.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Save(ctx, p); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rule file path")
		}
	}

	s.emit(ctx, audit.EventPolicyCreated, companyUserID, p.Name)
	return p, nil
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// writeLocalRuleFile is the fallback when the engine cannot generate a rule
// file. Returns the stored (relative) path, or empty on failure.
func (s *Service) writeLocalRuleFile(ctx context.Context, p *policy.Policy, companyName string) string {
	companyDir := unsafePathChars.ReplaceAllString(companyName, "_")
	dir := filepath.Join(s.uploadDir, "policies", companyDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.ErrorContext(ctx, "failed to create rule file directory", "dir", dir, "error", err)
		return ""
	}

	name := unsafePathChars.ReplaceAllString(p.Name, "_")
	fileName := fmt.Sprintf("%s_%d.rule", name, requestcontext.Now(ctx).UnixMilli())

	content := fmt.Sprintf("-- Policy: %s\n-- Generated: %s\n\ncontext Policy inv:\n    %s\n",
		p.Name, requestcontext.Now(ctx).Format("2006-01-02T15:04:05"), p.RuleCode)

	if err := os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644); err != nil {
		s.logger.ErrorContext(ctx, "failed to write rule file", "error", err)
		return ""
	}
	return filepath.Join("policies", companyDir, fileName)
}

// List returns the company's policies, newest first.
func (s *Service) List(ctx context.Context, companyUserID id.UserID) ([]*policy.Policy, error) {
	policies, err := s.store.ListByCompany(ctx, companyUserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return policies, nil
}

// Delete removes a policy and best-effort removes its rule file. Only the
// owning company may delete.
func (s *Service) Delete(ctx context.Context, companyUserID id.UserID, policyID id.PolicyID) error {
	p, err := s.store.Get(ctx, policyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	if p.CompanyUserID != companyUserID {
		return dErrors.New(dErrors.CodeForbidden, "only the owning company can delete this policy")
	}

	if p.FilePath != "" {
		if err := os.Remove(filepath.Join(s.uploadDir, p.FilePath)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "failed to delete rule file", "path", p.FilePath, "error", err)
		}
	}

	if err := s.store.Delete(ctx, policyID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete policy")
	}

	s.emit(ctx, audit.EventPolicyDeleted, companyUserID, p.Name)
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, actorID id.UserID, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Append(ctx, audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actorID,
		Action:    string(action),
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit event", "action", string(action), "error", err)
	}
}
