package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Hotspot-Ledger/config"
)

type panickingSMS struct{}

func (panickingSMS) SendSMS(context.Context, string, string) error { panic("provider exploded") }

func (panickingSMS) SendBulk(context.Context, []string, string) error { return nil }

func TestSMSNotificationSink(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivered", func(t *testing.T) {
		sms := NewMockSMSService()
		sink := NewSMSNotificationSink(sms)

		assert.True(t, sink.Send(ctx, " +254700000001 ", "Credit added: 10.00. New balance: 10.00"))
		sent := sms.GetSentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "+254700000001", sent[0].Recipient)
	})

	t.Run("ProviderFailure", func(t *testing.T) {
		sms := NewMockSMSService()
		sms.Fail = errors.New("quota exceeded")
		assert.False(t, NewSMSNotificationSink(sms).Send(ctx, "+254700000001", "x"))
	})

	t.Run("EmptyTarget", func(t *testing.T) {
		sms := NewMockSMSService()
		assert.False(t, NewSMSNotificationSink(sms).Send(ctx, "  ", "x"))
		assert.Empty(t, sms.GetSentMessages())
	})

	t.Run("PanicIsContained", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.False(t, NewSMSNotificationSink(panickingSMS{}).Send(ctx, "+254700000001", "x"))
		})
	})

	t.Run("Noop", func(t *testing.T) {
		assert.False(t, NoopNotificationSink{}.Send(ctx, "+254700000001", "x"))
	})
}

func newTestSMSService(t *testing.T, handler http.HandlerFunc) SMSService {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.SMSConfig{
		ProviderDomain: strings.TrimPrefix(server.URL, "https://"),
		APIKey:         "key",
		SourceNumber:   "1000",
		RetryCount:     1,
		ValidityPeriod: 60,
		Timeout:        2 * time.Second,
	}
	svc := NewSMSService(cfg).(*SMSServiceImpl)
	svc.client = server.Client()
	return svc
}

func TestSMSServiceSendSMS(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		var got []SMSRequest
		svc := newTestSMSService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3.0.1/send", r.URL.Path)
			assert.Equal(t, "key", r.Header.Get("x-api-key"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode([]SMSResponse{{Recipient: "+254700000001", Status: "ACCEPTED", StatusCode: 200}})
		})

		require.NoError(t, svc.SendSMS(context.Background(), "+254700000001", "hello"))
		require.Len(t, got, 1)
		assert.Equal(t, "1000", got[0].SrcNum)
		assert.Equal(t, "hello", got[0].Body)
		assert.Equal(t, 1, got[0].Type)
	})

	t.Run("Rejected", func(t *testing.T) {
		svc := newTestSMSService(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]SMSResponse{{Recipient: "+254700000001", Status: "REJECTED", StatusCode: 400}})
		})
		err := svc.SendSMS(context.Background(), "+254700000001", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REJECTED")
	})

	t.Run("HTTPError", func(t *testing.T) {
		svc := newTestSMSService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		require.Error(t, svc.SendSMS(context.Background(), "+254700000001", "hello"))
	})
}
