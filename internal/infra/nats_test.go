package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

func TestIntentWireFormat(t *testing.T) {
	intent := domain.Intent{
		ID:     "3f1c",
		Action: domain.LaunchMainAction,
		Kind:   domain.SignalDisabled,
		Extras: map[string]string{domain.IntentBundleKey: domain.ServiceDisabled},
		SentAt: time.Date(2024, 3, 10, 23, 50, 0, 0, time.UTC),
	}

	data, err := EncodeIntent(intent)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "3f1c",
		"action": "com.phys.intent.action.ACTION_LAUNCH_MAIN",
		"kind": "disabled",
		"extras": {"INTENT_BUNDLE_KEY": "SERVICE_DISABLED"},
		"sent_at": "2024-03-10T23:50:00Z"
	}`, string(data))

	decoded, err := DecodeIntent(data)
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceDisabled, decoded.Payload())
	assert.True(t, intent.SentAt.Equal(decoded.SentAt))
}

func TestDecodeIntent_Rejects(t *testing.T) {
	_, err := DecodeIntent([]byte("{not json"))
	assert.Error(t, err)

	_, err = DecodeIntent([]byte(`{"action":"android.intent.action.VIEW"}`))
	assert.ErrorContains(t, err, "unexpected intent action")
}

func TestNATS_Unreachable(t *testing.T) {
	_, err := NewNATSForegrounder("nats://127.0.0.1:1", "")
	assert.Error(t, err)

	err = SubscribeIntents(context.Background(), "nats://127.0.0.1:1", "", func(domain.Intent) {})
	assert.Error(t, err)

	var nf *NATSForegrounder
	assert.Error(t, nf.BringToForeground(context.Background(), domain.Intent{}))
	assert.NotPanics(t, nf.Close)
}
