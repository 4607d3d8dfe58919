package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/metrics"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePublisher struct {
	mu    sync.Mutex
	fail  error
	calls []int
}

func (p *fakePublisher) Publish(_ context.Context, msg config.LedgerEventMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, msg.ID)
	if p.fail != nil {
		return "", p.fail
	}
	return fmt.Sprintf("msg-%d", msg.ID), nil
}

func (p *fakePublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newDispatcherDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "outbox.db") + "?_pragma=busy_timeout(5000)"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.SetDB(conn))
	require.NoError(t, models.MigrateTable())
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func seedEvent(t *testing.T, db *gorm.DB, mutate func(e *models.LedgerEvent)) *models.LedgerEvent {
	t.Helper()
	event := models.LedgerEvent{
		BusinessId:    "biz-1",
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   7,
		ReferenceType: "transfers",
		Action:        models.ActionApprove,
		Payload:       `{"id":7}`,
		PublishStatus: models.OutboxPublishStatusPending,
	}
	if mutate != nil {
		mutate(&event)
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

func reloadEvent(t *testing.T, db *gorm.DB, id int) models.LedgerEvent {
	t.Helper()
	var event models.LedgerEvent
	require.NoError(t, db.First(&event, id).Error)
	return event
}

func newTestDispatcher(db *gorm.DB, publisher config.EventPublisher) *OutboxDispatcher {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	d := NewOutboxDispatcher(db, logger, publisher)
	d.Locker = nil
	return d
}

func TestDispatchOncePublishesPending(t *testing.T) {
	db := newDispatcherDB(t)
	first := seedEvent(t, db, nil)
	second := seedEvent(t, db, nil)
	publisher := &fakePublisher{}
	d := newTestDispatcher(db, publisher)

	sentBefore := testutil.ToFloat64(metrics.OutboxPublish.WithLabelValues(models.OutboxPublishStatusSent))
	assert.Equal(t, 2, d.DispatchOnce(context.Background()))
	assert.Equal(t, []int{first.ID, second.ID}, publisher.calls)
	assert.Equal(t, sentBefore+2, testutil.ToFloat64(metrics.OutboxPublish.WithLabelValues(models.OutboxPublishStatusSent)))

	event := reloadEvent(t, db, first.ID)
	assert.Equal(t, models.OutboxPublishStatusSent, event.PublishStatus)
	assert.Equal(t, 1, event.PublishAttempts)
	require.NotNil(t, event.PubSubMessageId)
	assert.Equal(t, fmt.Sprintf("msg-%d", first.ID), *event.PubSubMessageId)
	assert.NotNil(t, event.PublishedAt)
	assert.Nil(t, event.LockedAt)

	// sent events are not published twice
	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
	assert.Equal(t, 2, publisher.callCount())
}

func TestDispatchOnceSchedulesRetry(t *testing.T) {
	db := newDispatcherDB(t)
	event := seedEvent(t, db, nil)
	publisher := &fakePublisher{fail: errors.New("broker unavailable")}
	d := newTestDispatcher(db, publisher)

	assert.Equal(t, 0, d.DispatchOnce(context.Background()))

	failed := reloadEvent(t, db, event.ID)
	assert.Equal(t, models.OutboxPublishStatusFailed, failed.PublishStatus)
	assert.Equal(t, 1, failed.PublishAttempts)
	require.NotNil(t, failed.LastPublishError)
	assert.Equal(t, "broker unavailable", *failed.LastPublishError)
	require.NotNil(t, failed.NextAttemptAt)
	assert.True(t, failed.NextAttemptAt.After(time.Now().UTC()))

	// not due yet
	d.DispatchOnce(context.Background())
	assert.Equal(t, 1, publisher.callCount())

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.Model(&models.LedgerEvent{}).Where("id = ?", event.ID).Update("next_attempt_at", past).Error)
	publisher.fail = nil
	assert.Equal(t, 1, d.DispatchOnce(context.Background()))

	sent := reloadEvent(t, db, event.ID)
	assert.Equal(t, models.OutboxPublishStatusSent, sent.PublishStatus)
	assert.Equal(t, 2, sent.PublishAttempts)
}

func TestDispatchOnceMovesToDead(t *testing.T) {
	db := newDispatcherDB(t)
	event := seedEvent(t, db, nil)
	exhausted := seedEvent(t, db, func(e *models.LedgerEvent) {
		e.PublishStatus = models.OutboxPublishStatusFailed
		e.PublishAttempts = 3
	})
	publisher := &fakePublisher{fail: errors.New("rejected")}
	d := newTestDispatcher(db, publisher)
	d.MaxAttempts = 1

	d.DispatchOnce(context.Background())

	dead := reloadEvent(t, db, event.ID)
	assert.Equal(t, models.OutboxPublishStatusDead, dead.PublishStatus)
	assert.Nil(t, dead.NextAttemptAt)

	// already over the limit, so it is never published
	dead = reloadEvent(t, db, exhausted.ID)
	assert.Equal(t, models.OutboxPublishStatusDead, dead.PublishStatus)
	assert.Equal(t, []int{event.ID}, publisher.calls)

	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
	assert.Equal(t, 1, publisher.callCount())
}

func TestDispatchOnceReclaimsStaleProcessing(t *testing.T) {
	db := newDispatcherDB(t)
	staleAt := time.Now().UTC().Add(-time.Hour)
	freshAt := time.Now().UTC()
	owner := "other-dispatcher"
	stale := seedEvent(t, db, func(e *models.LedgerEvent) {
		e.PublishStatus = models.OutboxPublishStatusProcessing
		e.LockedAt = &staleAt
		e.LockedBy = &owner
		e.PublishAttempts = 1
	})
	seedEvent(t, db, func(e *models.LedgerEvent) {
		e.PublishStatus = models.OutboxPublishStatusProcessing
		e.LockedAt = &freshAt
		e.LockedBy = &owner
		e.PublishAttempts = 1
	})
	publisher := &fakePublisher{}
	d := newTestDispatcher(db, publisher)

	assert.Equal(t, 1, d.DispatchOnce(context.Background()))
	assert.Equal(t, []int{stale.ID}, publisher.calls)
	assert.Equal(t, 2, reloadEvent(t, db, stale.ID).PublishAttempts)
}

func TestDispatcherBackoff(t *testing.T) {
	d := &OutboxDispatcher{InitialBackoff: 5 * time.Second, MaxBackoff: 10 * time.Minute}
	assert.Equal(t, 5*time.Second, d.backoff(1))
	assert.Equal(t, 10*time.Second, d.backoff(2))
	assert.Equal(t, 40*time.Second, d.backoff(4))
	assert.Equal(t, 10*time.Minute, d.backoff(12))
}

func TestDispatchOnceWithoutPublisher(t *testing.T) {
	db := newDispatcherDB(t)
	seedEvent(t, db, nil)
	d := newTestDispatcher(db, nil)
	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
}
