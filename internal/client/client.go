// Package client calls the generation service over HTTP and turns every
// response into an editorial.Outcome.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/retry"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 90 * time.Second

	generatePath = "/v1/generate"
)

type ClientOpts struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Retry overrides the caller-side retry policy.
	Retry      *retry.Policy
	HTTPClient *http.Client
}

type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
	retry      retry.Policy
}

func NewClient(opts ClientOpts) *Client {
	c := Client{baseURL: DefaultBaseURL, retry: retry.Default("client")}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.APIKey != "" {
		c.apiKey = opts.APIKey
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := resty.New()
	if opts.HTTPClient != nil {
		hc = resty.NewWithClient(opts.HTTPClient)
	}
	c.httpClient = hc.
		SetDebug(false).
		SetBaseURL(c.baseURL).
		SetTimeout(timeout).
		SetHeaders(
			map[string]string{
				"Accept":       "application/json",
				"Content-Type": "application/json",
				"User-Agent":   "wardrobe-editorial-client/1",
			},
		)

	return &c
}

func (c *Client) req(ctx context.Context) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx)

	if c.apiKey != "" {
		request.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	return request
}

// Generate submits req and returns its outcome. Transient failures are
// retried according to the client's policy; the service retries the model
// independently.
func (c *Client) Generate(ctx context.Context, req editorial.Request) editorial.Outcome {
	var payload editorial.Payload
	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		p, err := c.generateOnce(ctx, req)
		if err != nil {
			return err
		}
		payload = p
		return nil
	})
	if err != nil {
		e := editorial.AsError(err)
		zerolog.Ctx(ctx).Warn().
			Str("kind", string(e.Kind)).
			Str("debug_id", e.DebugID).
			Msg("generation failed")
	}
	return editorial.OutcomeOf(payload, err)
}

func (c *Client) generateOnce(ctx context.Context, req editorial.Request) (editorial.Payload, error) {
	res, err := c.req(ctx).
		SetBody(req).
		Post(generatePath)
	if err != nil {
		return nil, editorial.Wrap(editorial.KindNetworkError, "could not reach the generation service", err)
	}
	return classifyResponse(res.StatusCode(), res.Header(), res.Body())
}

// failureEnvelope mirrors the service's failure body.
type failureEnvelope struct {
	Error      editorial.Kind `json:"error"`
	Message    string         `json:"message"`
	DebugID    string         `json:"debug_id"`
	RetryAfter int            `json:"retry_after"`
}

// classifyResponse maps a service response to a payload or a classified
// failure.
func classifyResponse(status int, header http.Header, body []byte) (editorial.Payload, error) {
	env, isEnvelope := parseEnvelope(body)

	switch {
	case status == http.StatusTooManyRequests:
		e := &editorial.Error{Kind: editorial.KindRateLimited, Message: env.Message, DebugID: env.DebugID}
		e.RetryAfter = retryAfter(header.Get("Retry-After"), env.RetryAfter)
		return nil, e
	case status == http.StatusUnauthorized:
		return nil, &editorial.Error{Kind: editorial.KindUnauthorized, Message: env.Message, DebugID: env.DebugID}
	case status >= 400:
		kind := editorial.KindGatewayError
		if isEnvelope {
			kind = env.Error
		}
		return nil, &editorial.Error{
			Kind:    kind,
			Message: firstNonEmpty(env.Message, "service responded with status "+strconv.Itoa(status)),
			DebugID: env.DebugID,
		}
	}

	if isEnvelope {
		return nil, &editorial.Error{Kind: env.Error, Message: env.Message, DebugID: env.DebugID}
	}

	var payload editorial.Payload
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, editorial.NewError(editorial.KindGatewayError, "service returned a non-JSON response")
	}
	return payload, nil
}

// parseEnvelope reports whether body is a failure envelope with a known kind.
func parseEnvelope(body []byte) (failureEnvelope, bool) {
	var env failureEnvelope
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return env, false
	}
	if _, ok := fields["error"]; !ok {
		return env, false
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return failureEnvelope{}, false
	}
	return env, env.Error.Valid()
}

func retryAfter(header string, bodySeconds int) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	if bodySeconds > 0 {
		return time.Duration(bodySeconds) * time.Second
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
