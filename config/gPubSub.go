package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// LedgerEventMessage is the payload published for every committed ledger mutation.
type LedgerEventMessage struct {
	ID            int       `json:"id"`
	BusinessId    string    `json:"business_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	ReferenceId   int       `json:"reference_id"`
	ReferenceType string    `json:"reference_type"`
	Action        string    `json:"action"`
	Payload       []byte    `json:"payload"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

// getPubSubClient initializes the shared client, retrying until ctx is done.
// Uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is set.
func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}
	var opts []option.ClientOption
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	var attempt int
	for {
		attempt++
		c, err := pubsub.NewClient(ctx, projectID, opts...)
		if err == nil {
			pubsubClient = c
			logg.WithFields(logrus.Fields{
				"field":      "pubsub",
				"project_id": projectID,
				"attempt":    attempt,
			}).Info("pubsub client ready")
			return c, nil
		}

		sleep := backoff(attempt)
		logg.WithFields(logrus.Fields{
			"field":      "pubsub",
			"project_id": projectID,
			"attempt":    attempt,
		}).Warn(fmt.Sprintf("failed to init pubsub client: %v; retrying in %s", err, sleep))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func ledgerEventsTopic() string {
	if v := os.Getenv("LEDGER_EVENTS_TOPIC"); v != "" {
		return v
	}
	return "ledger-events"
}

// EventPublisher publishes ledger events and returns the broker-assigned message id.
type EventPublisher interface {
	Publish(ctx context.Context, msg LedgerEventMessage) (string, error)
}

// PubSubPublisher publishes to the LEDGER_EVENTS_TOPIC Google Pub/Sub topic.
type PubSubPublisher struct{}

func (PubSubPublisher) Publish(ctx context.Context, msg LedgerEventMessage) (string, error) {
	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := client.Topic(ledgerEventsTopic()).Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"business_id":    msg.BusinessId,
			"reference_type": msg.ReferenceType,
			"action":         msg.Action,
		},
	})
	return result.Get(ctx)
}

// EnsureLedgerEventsTopic creates the topic when it does not exist yet.
func EnsureLedgerEventsTopic(ctx context.Context) error {
	client, err := getPubSubClient(ctx)
	if err != nil {
		return err
	}
	t := client.Topic(ledgerEventsTopic())
	ok, err := t.Exists(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := client.CreateTopic(ctx, ledgerEventsTopic()); err != nil {
		return fmt.Errorf("create topic %q: %w", ledgerEventsTopic(), err)
	}
	return nil
}

func OutboxDispatcherEnabled() bool {
	return boolFromEnv("OUTBOX_DISPATCHER_ENABLED")
}

func ClosePubSub() {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		_ = pubsubClient.Close()
		pubsubClient = nil
	}
}
