package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectListingCreated = "listing.created"
	SubjectListingDeleted = "listing.deleted"
)

// ListingEvent is published on listing lifecycle changes so downstream
// services (search indexers, notifications) can react.
type ListingEvent struct {
	EventID    string    `json:"event_id"`
	Slug       string    `json:"slug"`
	UserID     string    `json:"user_id"`
	ImageCount int       `json:"image_count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewListingEvent(slug, userID string, imageCount int) ListingEvent {
	return ListingEvent{
		EventID:    uuid.New().String(),
		Slug:       slug,
		UserID:     userID,
		ImageCount: imageCount,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher struct {
	conn *nats.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Publish(ctx context.Context, subject string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, jsonData)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
