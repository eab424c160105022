package service

import (
	"context"
	"encoding/json"
	"log"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditRecorder is the write side of the audit log. Recording is
// best-effort: it runs after the primary operation has committed and a
// failed write is logged and swallowed, never propagated.
type AuditRecorder interface {
	Record(ctx context.Context, userID, action, entityID, entityName string, details any)
}

type AuditService interface {
	AuditRecorder
	GetAuditLogs(ctx context.Context, page, limit int, action string) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, userID, action, entityID, entityName string, details any) {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	payload := "{}"
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			payload = string(raw)
		}
	}

	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("audit write failed (action=%s entity=%s): %v", action, entityID, err)
	}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int, action string) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.auditRepo.List(ctx, page, limit, action)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
