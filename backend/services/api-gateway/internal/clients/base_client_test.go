package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseClientForwardsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	client := NewLedgerClient(upstream.URL+"/", NewDefaultHTTPClient(time.Second))
	resp, err := client.SubmitReading(context.Background(), []byte(`{"nozzleId":"n1"}`), map[string]string{
		HeaderUserID:      "7",
		HeaderUserRole:    "employee",
		HeaderRequestID:   "req-1",
		"Idempotency-Key": "",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))

	assert.Equal(t, "/readings", got.URL.Path)
	assert.Equal(t, "7", got.Header.Get(HeaderUserID))
	assert.Equal(t, "employee", got.Header.Get(HeaderUserRole))
	assert.Equal(t, "req-1", got.Header.Get(HeaderRequestID))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Empty(t, got.Header.Values("Idempotency-Key"))
	assert.JSONEq(t, `{"nozzleId":"n1"}`, string(gotBody))

	_, err = client.ListSales(context.Background(), "stationId=st-1&limit=5", nil)
	require.NoError(t, err)
	assert.Equal(t, "/sales", got.URL.Path)
	assert.Equal(t, "st-1", got.URL.Query().Get("stationId"))
	assert.Equal(t, "5", got.URL.Query().Get("limit"))
}

func TestBaseClientEscapesPathParams(t *testing.T) {
	var path string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	client := NewStationsClient(upstream.URL, upstream.Client())
	_, err := client.AddPump(context.Background(), "a/b", []byte(`{}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "/stations/a%2Fb/pumps", path)
}

func TestBaseClientTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := upstream.URL
	upstream.Close()

	client := NewAuthClient(addr, NewDefaultHTTPClient(time.Second))
	resp, err := client.Login(context.Background(), []byte(`{}`), nil)
	assert.Error(t, err)
	assert.Nil(t, resp)
}
