package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/ports"
)

const (
	TopicLogin  = "signet.login"
	TopicIntent = "signet.intent"
)

// LoginEvent represents a successful login
type LoginEvent struct {
	Address string    `json:"address"`
	Nonce   string    `json:"nonce"`
	At      time.Time `json:"at"`
}

// IntentEvent represents a confirmed transaction intent
type IntentEvent struct {
	ID     string      `json:"id"`
	Action core.Action `json:"action"`
	From   string      `json:"from_address"`
	To     string      `json:"to_address,omitempty"`
	Amount string      `json:"amount"`
	Nonce  string      `json:"nonce"`
	TxID   string      `json:"tx_id,omitempty"`
	At     time.Time   `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string, nonce string) error {
	return p.publish(ctx, TopicLogin, LoginEvent{
		Address: address,
		Nonce:   nonce,
		At:      p.now().UTC(),
	})
}

// PublishIntent publishes a confirmed intent. Signatures are not included.
func (p *WatermillPublisher) PublishIntent(ctx context.Context, intent core.SignedIntent, submission core.Submission) error {
	return p.publish(ctx, TopicIntent, IntentEvent{
		ID:     intent.ID,
		Action: intent.Action,
		From:   intent.From,
		To:     intent.To,
		Amount: intent.Amount,
		Nonce:  intent.Nonce,
		TxID:   submission.TxID,
		At:     p.now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
