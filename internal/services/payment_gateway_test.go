package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestStripeGatewayParseWebhook(t *testing.T) {
	gw := NewStripeGateway("sk_test_123", "whsec_test")
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2020-08-27","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","client_reference_id":"u1"}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	ev, err := gw.ParseWebhook(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.EqualValues(t, "checkout.session.completed", ev.Type)
	assert.Contains(t, string(ev.Data.Raw), `"client_reference_id":"u1"`)

	_, err = gw.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)

	other := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "whsec_other", Timestamp: time.Now()})
	_, err = gw.ParseWebhook(payload, other.Header)
	assert.Error(t, err)
}
