// Package events publishes booking lifecycle events so that notification
// workers (WhatsApp relay, admin dashboard) can react without polling.
package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicTransactionCreated = "cuss.transaction.created"
	TopicTransactionDeleted = "cuss.transaction.deleted"
	TopicFormChanged        = "cuss.form.changed"
)

// TransactionCreated is published after a booking is stored.
type TransactionCreated struct {
	ID        string    `json:"id"`
	Service   string    `json:"service"`
	Name      string    `json:"name"`
	Whatsapp  string    `json:"whatsapp,omitempty"`
	Distance  float64   `json:"distance"`
	CreatedAt time.Time `json:"createdAt"`
}

// TransactionDeleted is published after an admin removes a booking.
type TransactionDeleted struct {
	ID string `json:"id"`
}

// FormChanged is published after an admin edits the form registry or a
// service config, so other replicas can refresh ahead of their next poll.
type FormChanged struct {
	Kind string `json:"kind"` // "field" or "serviceConfig"
	ID   string `json:"id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
