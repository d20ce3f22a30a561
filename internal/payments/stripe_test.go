package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybuy/internal/domain"
)

func fakeStripe(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payment_intents", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":5000,"currency":"usd",
			"status":"requires_payment_method","client_secret":"pi_1_secret_abc"}`))
	})
	mux.HandleFunc("/v1/payment_intents/pi_1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":5000,"currency":"usd","status":"succeeded"}`))
	})
	mux.HandleFunc("/v1/payment_intents/pi_missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such payment_intent"}}`))
	})
	mux.HandleFunc("/v1/payment_intents/pi_boom", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"internal"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStripe(t *testing.T) *Stripe {
	t.Helper()
	s, err := NewStripe(Options{Key: "sk_test_123", URL: fakeStripe(t).URL})
	require.NoError(t, err)
	return s
}

func TestCreateIntent(t *testing.T) {
	s := newTestStripe(t)
	in, err := s.CreateIntent(context.Background(), 5000, "USD")
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_abc", in.ClientSecret)
	assert.EqualValues(t, 5000, in.Amount)
}

func TestGetIntent(t *testing.T) {
	s := newTestStripe(t)
	in, err := s.GetIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSucceeded, in.Status)
	assert.Equal(t, "usd", in.Currency)

	_, err = s.GetIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = s.GetIntent(context.Background(), "pi_boom")
	var up *domain.UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, "get intent", up.Op)
}

func TestNewStripeRequiresKey(t *testing.T) {
	_, err := NewStripe(Options{})
	assert.Error(t, err)
}
