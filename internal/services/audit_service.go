package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"pocketbook/internal/logger"
	"pocketbook/internal/models"
)

// maxAuditChanges bounds the stored change set. Larger payloads keep only a
// marker so a single request cannot bloat audit_logs.
const maxAuditChanges = 4096

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records a mutating operation on one of the owner's records. Failures
// are logged and swallowed so the operation itself still succeeds.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.Get()
	if userID == "" || action == "" {
		log.Warnw("audit entry skipped: missing owner or action",
			"user_id", userID, "action", action, "resource_type", resourceType)
		return
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(action, changes),
	}

	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

func encodeChanges(action string, changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
		return "{}"
	}
	if len(data) > maxAuditChanges {
		return `{"truncated":true}`
	}
	return string(data)
}
