package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brandsRequest = editorial.Request{BrandRefs: []string{"Marca A", "Marca B"}}

func noDelay() *retry.Policy {
	p := retry.Default("client")
	p.Delay = 0
	return &p
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	return NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "key-1", Retry: noDelay()}), &calls
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestGenerate_Success(t *testing.T) {
	var got editorial.Request
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generate", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeBody(w, http.StatusOK, `{"profile": {"style": "minimal"}, "editorial": {"title": "Linho"}}`)
	})

	outcome := client.Generate(context.Background(), brandsRequest)
	require.True(t, outcome.OK())
	payload, _ := outcome.Payload()
	assert.Equal(t, map[string]any{"style": "minimal"}, payload["profile"])
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, brandsRequest.BrandRefs, got.BrandRefs)
}

func TestGenerate_RetryBudget(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  editorial.Kind
		wantCalls int32
	}{
		{"gateway failure is retried once", http.StatusOK, `{"error": "gateway_error", "message": "upstream", "debug_id": "d1"}`, editorial.KindGatewayError, 2},
		{"server failure is retried once", http.StatusInternalServerError, `{"error": "server_error", "message": "internal error", "debug_id": "d1"}`, editorial.KindServerError, 2},
		{"bare 502 is a gateway failure", http.StatusBadGateway, `<html>bad gateway</html>`, editorial.KindGatewayError, 2},
		{"non-JSON success", http.StatusOK, `not json`, editorial.KindGatewayError, 2},
		{"malformed model output", http.StatusOK, `{"error": "malformed_json", "message": "x", "debug_id": "d1"}`, editorial.KindMalformedJSON, 2},
		{"rate limited is not retried", http.StatusTooManyRequests, `{"error": "rate_limited", "message": "slow down", "debug_id": "d1", "retry_after": 30}`, editorial.KindRateLimited, 1},
		{"unauthorized is not retried", http.StatusUnauthorized, `{"error": "unauthorized", "message": "no", "debug_id": "d1"}`, editorial.KindUnauthorized, 1},
		{"selfie is not retried", http.StatusOK, `{"error": "selfie_not_allowed", "message": "selfie", "debug_id": "d1"}`, editorial.KindSelfieNotAllowed, 1},
		{"insufficient items is not retried", http.StatusOK, `{"error": "insufficient_items", "message": "few", "debug_id": "d1"}`, editorial.KindInsufficientItems, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, tt.status, tt.body)
			})

			outcome := client.Generate(context.Background(), brandsRequest)
			require.False(t, outcome.OK())
			assert.Equal(t, tt.wantKind, outcome.Failure().Kind)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestGenerate_RateLimitedCarriesWait(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		writeBody(w, http.StatusTooManyRequests, `{"error": "rate_limited", "message": "slow down", "debug_id": "abc", "retry_after": 42}`)
	})

	failure := client.Generate(context.Background(), brandsRequest).Failure()
	require.NotNil(t, failure)
	assert.Equal(t, 42*time.Second, failure.RetryAfter)
	assert.Equal(t, "abc", failure.DebugID)
	assert.Contains(t, editorial.UserMessage(failure), "42 segundos")
}

func TestGenerate_RateLimitedBodyOnly(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusTooManyRequests, `{"error": "rate_limited", "retry_after": 5}`)
	})

	failure := client.Generate(context.Background(), brandsRequest).Failure()
	require.NotNil(t, failure)
	assert.Equal(t, 5*time.Second, failure.RetryAfter)
}

func TestGenerate_RecoversOnRetry(t *testing.T) {
	var n atomic.Int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			writeBody(w, http.StatusOK, `{"error": "no_json_in_response", "message": "x", "debug_id": "d"}`)
			return
		}
		writeBody(w, http.StatusOK, `{"capsule": ["Calça reta"], "looks": []}`)
	})

	outcome := client.Generate(context.Background(), editorial.Request{Variant: editorial.VariantCapsule, Items: "calça, blusa, saia"})
	require.True(t, outcome.OK())
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerate_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := NewClient(ClientOpts{BaseURL: url, Retry: noDelay(), Timeout: time.Second})
	failure := client.Generate(context.Background(), brandsRequest).Failure()
	require.NotNil(t, failure)
	assert.Equal(t, editorial.KindNetworkError, failure.Kind)
}

func TestClassifyResponse(t *testing.T) {
	_, err := classifyResponse(http.StatusOK, http.Header{}, []byte(`[1, 2]`))
	assert.Equal(t, editorial.KindGatewayError, editorial.KindOf(err))

	_, err = classifyResponse(http.StatusOK, http.Header{}, []byte(`{"error": "made_up"}`))
	require.NoError(t, err)

	_, err = classifyResponse(http.StatusNotFound, http.Header{}, []byte(`{"error": "not_found"}`))
	assert.Equal(t, editorial.KindGatewayError, editorial.KindOf(err))
}
