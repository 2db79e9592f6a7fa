package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// DefaultIntentSubject is the NATS subject host intents are published on.
const DefaultIntentSubject = "appblock.intents"

// NATSForegrounder publishes host intents on a NATS subject. A host
// application subscribed to the subject brings itself to the foreground.
type NATSForegrounder struct {
	conn    *nats.Conn
	subject string
}

// NewNATSForegrounder connects to url and publishes on subject.
func NewNATSForegrounder(url, subject string, opts ...nats.Option) (*NATSForegrounder, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	if subject == "" {
		subject = DefaultIntentSubject
	}
	return &NATSForegrounder{conn: nc, subject: subject}, nil
}

// BringToForeground encodes intent as JSON and publishes it.
func (f *NATSForegrounder) BringToForeground(ctx context.Context, intent domain.Intent) error {
	if f == nil || f.conn == nil {
		return errors.New("nil nats foregrounder")
	}
	data, err := EncodeIntent(intent)
	if err != nil {
		return err
	}
	return f.conn.Publish(f.subject, data)
}

// Close drains the connection.
func (f *NATSForegrounder) Close() {
	if f == nil || f.conn == nil {
		return
	}
	if err := f.conn.Drain(); err != nil {
		f.conn.Close()
	}
}

// SubscribeIntents delivers every intent published on subject to fn until
// ctx is done.
func SubscribeIntents(ctx context.Context, url, subject string, fn func(domain.Intent)) error {
	if fn == nil {
		return errors.New("nil handler")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	defer nc.Close()

	if subject == "" {
		subject = DefaultIntentSubject
	}
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		intent, err := DecodeIntent(msg.Data)
		if err != nil {
			return
		}
		fn(intent)
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	<-ctx.Done()
	return nil
}

// EncodeIntent returns the wire form of intent.
func EncodeIntent(intent domain.Intent) ([]byte, error) {
	return json.Marshal(intent)
}

// DecodeIntent parses the wire form of an intent.
func DecodeIntent(data []byte) (domain.Intent, error) {
	var intent domain.Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return domain.Intent{}, fmt.Errorf("invalid intent: %w", err)
	}
	if intent.Action != domain.LaunchMainAction {
		return domain.Intent{}, fmt.Errorf("unexpected intent action %q", intent.Action)
	}
	return intent, nil
}

// Ensure NATSForegrounder implements domain.Foregrounder.
var _ domain.Foregrounder = (*NATSForegrounder)(nil)
