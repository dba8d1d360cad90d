package httpcall

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/golden-hour/internal/dispatch"
	"github.com/sweeney/golden-hour/internal/logic"
	"github.com/sweeney/golden-hour/internal/state"
)

type captured struct {
	method string
	body   []byte
	ctype  string
	runID  string
}

func server(t *testing.T, status int, reply string) (*httptest.Server, chan captured) {
	t.Helper()
	got := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- captured{
			method: r.Method,
			body:   body,
			ctype:  r.Header.Get("Content-Type"),
			runID:  r.Header.Get("X-Run-ID"),
		}
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func trigger() dispatch.Trigger {
	return dispatch.Trigger{
		Event:   logic.EventGoldenHourAfternoon,
		RunID:   "run-7",
		Payload: []byte(`{"currentState":{},"previousState":{}}`),
	}
}

func TestPostSendsPayload(t *testing.T) {
	srv, got := server(t, http.StatusOK, `{"explanation":"ok"}`)

	out := New(srv.URL, "post", time.Second).Run(context.Background(), trigger())

	assert.Equal(t, state.ResultOK, out.ResultCode)
	assert.Equal(t, "ok", out.Result)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Equal(t, "POST", out.HTTPMethod)
	assert.Equal(t, srv.URL, out.HTTPURL)

	req := <-got
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.ctype)
	assert.Equal(t, "run-7", req.runID)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(req.body, &body))
	assert.Contains(t, body, "currentState")
	assert.Contains(t, body, "previousState")
}

func TestGetSendsNoBody(t *testing.T) {
	srv, got := server(t, http.StatusOK, `{"explanation":"fine"}`)

	eff := New(srv.URL, "", time.Second)
	assert.False(t, eff.SendsBody())
	out := eff.Run(context.Background(), trigger())

	assert.Equal(t, state.ResultOK, out.ResultCode)
	assert.Equal(t, "GET", out.HTTPMethod)
	req := <-got
	assert.Equal(t, http.MethodGet, req.method)
	assert.Empty(t, req.body)
}

func TestNon2xxFails(t *testing.T) {
	srv, _ := server(t, http.StatusInternalServerError, `{"explanation":"boom"}`)

	out := New(srv.URL, "PUT", time.Second).Run(context.Background(), trigger())
	assert.Equal(t, state.ResultFailed, out.ResultCode)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	assert.Equal(t, "boom", out.Result)
	assert.Contains(t, out.Error, "500")
}

func TestMalformedResponseFails(t *testing.T) {
	srv, _ := server(t, http.StatusOK, `not json`)

	out := New(srv.URL, "GET", time.Second).Run(context.Background(), trigger())
	assert.Equal(t, state.ResultFailed, out.ResultCode)
	assert.Contains(t, out.Error, "decode response")
}

func TestNetworkErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := New(url, "POST", time.Second).Run(context.Background(), trigger())
	assert.Equal(t, state.ResultFailed, out.ResultCode)
	assert.Zero(t, out.StatusCode)
	assert.NotEmpty(t, out.Error)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	out := New(srv.URL, "GET", 50*time.Millisecond).Run(context.Background(), trigger())
	assert.Equal(t, state.ResultFailed, out.ResultCode)
}

func TestBadURL(t *testing.T) {
	out := New("://bad", "GET", time.Second).Run(context.Background(), trigger())
	assert.Equal(t, state.ResultFailed, out.ResultCode)
	assert.Contains(t, out.Error, "build request")
}
