package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// Subscriber implements ports.DocumentSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. Workers sharing durable share the queue.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if durable == "" {
		durable = "document-extractor"
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeDocuments delivers every scraped document to handler. Messages
// that fail to decode are terminated; handler errors are redelivered up to
// three times.
func (s *Subscriber) SubscribeDocuments(ctx context.Context, handler func(ctx context.Context, doc *domain.ScrapedDocument) error) error {
	sub, err := s.js.QueueSubscribe(DocumentSubjectPrefix+">", s.durable, func(msg *nats.Msg) {
		doc, err := DecodeDocument(msg.Data)
		if err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, doc); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// DecodeDocument parses a queued document, defaulting the format to text.
func DecodeDocument(data []byte) (*domain.ScrapedDocument, error) {
	var doc domain.ScrapedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Format == "" {
		doc.Format = domain.FormatText
	}
	if !doc.Format.Valid() {
		return nil, fmt.Errorf("decode document: %w: %q", domain.ErrUnsupportedFormat, doc.Format)
	}
	return &doc, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
