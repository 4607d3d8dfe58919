package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dispatcherLeaseKey = "lock:outbox-dispatcher"

// OutboxDispatcher publishes committed ledger events. It never touches balances.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	Publisher    config.EventPublisher
	Locker       *redislock.Client
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger, publisher config.EventPublisher) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		Publisher:      publisher,
		Locker:         config.GetRedisLock(),
		DispatcherID:   uuid.NewString(),
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch and publishes it. Returns the number of events sent.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) int {
	if d.DB == nil || d.Publisher == nil {
		return 0
	}

	// one replica at a time when redis is up; SKIP LOCKED keeps it correct otherwise
	if d.Locker != nil {
		lease, err := d.Locker.Obtain(ctx, dispatcherLeaseKey, d.LockTimeout, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return 0
		}
		if err != nil {
			d.log(logrus.Fields{}).Warn("dispatcher lease unavailable; proceeding without it: " + err.Error())
		} else {
			defer lease.Release(context.Background())
		}
	}

	claimed, err := d.claim(ctx)
	if err != nil {
		d.log(logrus.Fields{}).Error("outbox claim failed: " + err.Error())
		return 0
	}

	sent := 0
	for _, event := range claimed {
		if event.PublishStatus == models.OutboxPublishStatusDead {
			continue
		}
		msgId, pubErr := d.Publisher.Publish(ctx, event.ToMessage())
		if pubErr != nil {
			d.markPublishFailed(ctx, event, pubErr)
			continue
		}
		d.markPublishSent(ctx, event.ID, msgId)
		sent++
	}
	metrics.RecordOutboxPublish(models.OutboxPublishStatusSent, sent)
	return sent
}

// claim marks a batch PROCESSING. Eligible rows are PENDING or FAILED and due,
// or PROCESSING with a lock older than LockTimeout (the dispatcher died mid batch).
func (d *OutboxDispatcher) claim(ctx context.Context) ([]models.LedgerEvent, error) {
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)

	var claimed []models.LedgerEvent
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now,
				models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}

		for i := range claimed {
			if d.MaxAttempts > 0 && claimed[i].PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.LedgerEvent{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			claimed[i].PublishStatus = models.OutboxPublishStatusProcessing
			claimed[i].PublishAttempts++
			if err := tx.Model(&models.LedgerEvent{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusProcessing,
				"locked_at":          &now,
				"locked_by":          &d.DispatcherID,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (d *OutboxDispatcher) markPublishSent(ctx context.Context, eventId int, msgId string) {
	now := time.Now().UTC()
	err := d.DB.WithContext(ctx).Model(&models.LedgerEvent{}).
		Where("id = ?", eventId).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &msgId,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
	if err != nil {
		d.log(logrus.Fields{"record_id": eventId}).Error("outbox mark sent failed: " + err.Error())
	}
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, event models.LedgerEvent, pubErr error) {
	db := d.DB.WithContext(ctx)
	msg := pubErr.Error()
	fields := logrus.Fields{
		"business_id":    event.BusinessId,
		"record_id":      event.ID,
		"attempt":        event.PublishAttempts,
		"correlation_id": event.CorrelationId,
	}

	if d.MaxAttempts > 0 && event.PublishAttempts >= d.MaxAttempts {
		_ = db.Model(&models.LedgerEvent{}).
			Where("id = ?", event.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error
		metrics.RecordOutboxPublish(models.OutboxPublishStatusDead, 1)
		d.log(fields).Error("outbox publish moved to DEAD after max attempts: " + msg)
		return
	}

	next := time.Now().UTC().Add(d.backoff(event.PublishAttempts))
	_ = db.Model(&models.LedgerEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error
	metrics.RecordOutboxPublish(models.OutboxPublishStatusFailed, 1)
	fields["next_attempt_at"] = next.Format(time.RFC3339Nano)
	d.log(fields).Error("outbox publish failed: " + msg)
}

// backoff doubles from InitialBackoff per attempt, capped at MaxBackoff.
func (d *OutboxDispatcher) backoff(attempt int) time.Duration {
	backoff := d.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if d.MaxBackoff > 0 && backoff > d.MaxBackoff {
			return d.MaxBackoff
		}
	}
	return backoff
}

func (d *OutboxDispatcher) log(fields logrus.Fields) *logrus.Entry {
	logger := d.Logger
	if logger == nil {
		logger = config.GetLogger()
	}
	fields["field"] = "OutboxDispatcher"
	fields["dispatcher_id"] = d.DispatcherID
	return logger.WithFields(fields)
}
