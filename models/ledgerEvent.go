package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"gorm.io/gorm"
)

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// LedgerEvent is the transactional outbox row for a committed ledger mutation.
// It is written in the mutation's DB transaction and published after commit by the dispatcher.
type LedgerEvent struct {
	ID               int        `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	BusinessId       string     `gorm:"size:64;not null;index" json:"business_id"`
	OccurredAt       time.Time  `gorm:"not null" json:"occurred_at"`
	ReferenceId      int        `gorm:"index" json:"reference_id"`
	ReferenceType    string     `gorm:"size:64;not null" json:"reference_type"`
	Action           string     `gorm:"size:10;not null" json:"action"`
	Payload          string     `gorm:"type:text" json:"payload"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e LedgerEvent) ToMessage() config.LedgerEventMessage {
	return config.LedgerEventMessage{
		ID:            e.ID,
		BusinessId:    e.BusinessId,
		OccurredAt:    e.OccurredAt,
		ReferenceId:   e.ReferenceId,
		ReferenceType: e.ReferenceType,
		Action:        e.Action,
		Payload:       []byte(e.Payload),
		CorrelationId: e.CorrelationId,
	}
}

// recordLedgerEvent writes the outbox row inside the caller's transaction. Nothing is published here.
func recordLedgerEvent(tx *gorm.DB, referenceType string, referenceId int, action string, payload interface{}) error {
	ctx := tx.Statement.Context
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	event := LedgerEvent{
		BusinessId:    businessId,
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		Action:        action,
		Payload:       string(data),
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}
	return tx.Create(&event).Error
}

// ReplayLedgerEvent moves a DEAD or FAILED event back to the dispatch queue.
func ReplayLedgerEvent(ctx context.Context, id int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	now := time.Now().UTC()
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&LedgerEvent{}).
		Where("id = ? AND business_id = ? AND publish_status IN ?", id, businessId,
			[]string{OutboxPublishStatusDead, OutboxPublishStatusFailed}).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusFailed,
			"publish_attempts":   0,
			"next_attempt_at":    &now,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// GetLedgerEvents lists outbox rows newest first, optionally filtered by publish status or reference.
func GetLedgerEvents(ctx context.Context, publishStatus string, referenceType string, referenceId int, limit int) ([]*LedgerEvent, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if publishStatus != "" {
		dbCtx = dbCtx.Where("publish_status = ?", publishStatus)
	}
	if referenceType != "" {
		dbCtx = dbCtx.Where("reference_type = ?", referenceType)
	}
	if referenceId > 0 {
		dbCtx = dbCtx.Where("reference_id = ?", referenceId)
	}

	var results []*LedgerEvent
	if err := dbCtx.Order("id DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
