package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// EntityEvent is the payload published for every outbox row: one entity
// change (create/update/delete) within one tenant.
type EntityEvent struct {
	ID            int       `json:"id"`
	TenantId      string    `json:"tenant_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	ReferenceId   int       `json:"reference_id"`
	ReferenceType string    `json:"reference_type"`
	Action        string    `json:"action"`
	OldObj        []byte    `json:"old_obj"`
	NewObj        []byte    `json:"new_obj"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// GetPubSubClient returns a Pub/Sub client, initializing with retries if needed.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := pubsubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var attempt int
	for {
		attempt++
		var opts []option.ClientOption
		if credJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
		}
		c, err := pubsub.NewClient(ctx, projectID, opts...)
		if err == nil {
			pubsubClientMu.Lock()
			pubsubClient = c
			pubsubClientMu.Unlock()
			return c, nil
		}
		if attempt >= 5 {
			return nil, fmt.Errorf("pubsub client init failed after %d attempts: %w", attempt, err)
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 4))
		log.Printf("failed to init pubsub client (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

func pubsubProjectID() string {
	// Prefer explicit override.
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return ""
}

func pubsubTopicID() string {
	if v := os.Getenv("PUBSUB_TOPIC_ID"); v != "" {
		return v
	}
	return "entity-events"
}

// PublishEntityEvent publishes one entity change event and blocks until the
// server acks it. Callers decide what a failed publish means (the outbox
// dispatcher retries; nothing else should call this directly).
func PublishEntityEvent(ctx context.Context, event *EntityEvent) (string, error) {
	client, err := GetPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	topic := client.Topic(pubsubTopicID())
	result := topic.Publish(ctx, &pubsub.Message{Data: payload})
	return result.Get(ctx)
}
