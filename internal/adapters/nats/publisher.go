package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

const (
	// FeatureSubjectPrefix is followed by the sanitised document source.
	FeatureSubjectPrefix = "geo.features."
	// DocumentSubjectPrefix is followed by the sanitised scraper name.
	DocumentSubjectPrefix = "scrape.documents."
	// BroadcastSubject carries feature events for WebSocket clients.
	BroadcastSubject = "geo.updates.broadcast"
)

// FeatureEvent is the payload published for every extraction with results.
type FeatureEvent struct {
	Source      string               `json:"source"`
	Features    []*domain.GeoFeature `json:"features"`
	PublishedAt time.Time            `json:"published_at"`
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "GEO_FEATURES",
			Subjects:  []string{FeatureSubjectPrefix + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "SCRAPED_DOCUMENTS",
			Subjects:  []string{DocumentSubjectPrefix + ">"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    72 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFeatures sends features to the durable stream and mirrors the same
// event on the broadcast subject for live clients.
func (p *Publisher) PublishFeatures(ctx context.Context, source string, features []*domain.GeoFeature) error {
	data, err := json.Marshal(FeatureEvent{Source: source, Features: features, PublishedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(FeatureSubject(source), data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish features: %w", err)
	}
	return p.PublishBroadcast(ctx, data)
}

// PublishDocument queues a scraped document for the extractor workers.
func (p *Publisher) PublishDocument(ctx context.Context, doc *domain.ScrapedDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(DocumentSubject(doc.Source), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(BroadcastSubject, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// FeatureSubject is the subject feature events from source are sent on.
func FeatureSubject(source string) string {
	return FeatureSubjectPrefix + subjectToken(source)
}

// DocumentSubject is the subject documents from source are queued on.
func DocumentSubject(source string) string {
	return DocumentSubjectPrefix + subjectToken(source)
}

// subjectToken turns s into a single subject token. Separators and
// wildcards become underscores.
func subjectToken(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return connect(url)
}

func connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
