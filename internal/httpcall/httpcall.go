// Package httpcall notifies an HTTP endpoint when an event fires.
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/golden-hour/internal/dispatch"
	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/state"
)

// DefaultMethod is used when no method is configured.
const DefaultMethod = http.MethodGet

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Response is the document the endpoint is expected to answer with.
type Response struct {
	Explanation string `json:"explanation"`
}

// Effect calls URL with Method once per fired event. Non-GET requests carry
// the trigger payload as a JSON body.
type Effect struct {
	URL    string
	Method string
	Client *http.Client
	logger zerolog.Logger
}

// New creates an Effect. An empty method means GET.
func New(url, method string, timeout time.Duration) *Effect {
	if method == "" {
		method = DefaultMethod
	}
	return &Effect{
		URL:    url,
		Method: strings.ToUpper(method),
		Client: &http.Client{Timeout: timeout},
		logger: xglog.WithComponent("httpcall"),
	}
}

// Source implements dispatch.Effect.
func (e *Effect) Source() string {
	return state.SourceHTTP
}

// SendsBody reports whether requests carry the state payload.
func (e *Effect) SendsBody() bool {
	return !strings.EqualFold(e.Method, http.MethodGet)
}

// Run performs the request. Network errors, non-2xx statuses and malformed
// response bodies are recorded with ResultFailed.
func (e *Effect) Run(ctx context.Context, t dispatch.Trigger) state.Outcome {
	out := state.Outcome{HTTPURL: e.URL, HTTPMethod: e.Method}

	explanation, status, err := e.do(ctx, t)
	out.StatusCode = status
	out.Result = explanation
	if err != nil {
		out.ResultCode = state.ResultFailed
		out.Error = err.Error()
		e.logger.Warn().Err(err).
			Str("event", string(t.Event)).
			Str("url", e.URL).
			Int("status", status).
			Msg("http callback failed")
		return out
	}

	e.logger.Info().
		Str("event", string(t.Event)).
		Str("url", e.URL).
		Int("status", status).
		Str("explanation", explanation).
		Msg("http callback completed")
	return out
}

func (e *Effect) do(ctx context.Context, t dispatch.Trigger) (string, int, error) {
	var body io.Reader
	if e.SendsBody() {
		body = bytes.NewReader(t.Payload)
	}
	req, err := http.NewRequestWithContext(ctx, e.Method, e.URL, body)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.RunID != "" {
		req.Header.Set("X-Run-ID", t.RunID)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var parsed Response
	decodeErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parsed.Explanation, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if decodeErr != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr)
	}
	return parsed.Explanation, resp.StatusCode, nil
}
