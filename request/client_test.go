package request

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/token", r.URL.Path)
		assert.Equal(t, "abc-defg-hij", r.URL.Query().Get("room"))
		assert.Equal(t, "Alice", r.URL.Query().Get("username"))
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "jwt-value", "url": "wss://gw.example.com"})
	}))
	defer srv.Close()

	credential, err := New(srv.URL, "test", "0.0.0").FetchToken(context.Background(), "abc-defg-hij", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", credential.Token)
	assert.Equal(t, "wss://gw.example.com", credential.ServerURL)
}

func TestFetchTokenFailureIsHardStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Meeting not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "test", "0.0.0").FetchToken(context.Background(), "nope", "Alice")
	assert.Error(t, err)
}

func TestFetchTokenEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "test", "0.0.0").FetchToken(context.Background(), "room", "Alice")
	assert.Error(t, err)
}

func TestMeetingLogCalls(t *testing.T) {
	type call struct {
		method string
		body   map[string]interface{}
	}
	calls := make(chan call, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings", r.URL.Path)
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls <- call{method: r.Method, body: body}
	}))
	defer srv.Close()

	c := New(srv.URL, "test", "0.0.0")
	c.LogMeetingStart(context.Background(), "abc-defg-hij", "room-1")
	c.LogMeetingEnd(context.Background(), "abc-defg-hij", 95*time.Second)

	started := <-calls
	assert.Equal(t, http.MethodPost, started.method)
	assert.Equal(t, "abc-defg-hij", started.body["meetingCode"])
	assert.Equal(t, "room-1", started.body["roomId"])

	ended := <-calls
	assert.Equal(t, http.MethodPatch, ended.method)
	assert.Equal(t, float64(95), ended.body["durationSeconds"])
}

func TestMeetingLogFailureIsSwallowed(t *testing.T) {
	c := New("http://127.0.0.1:1", "test", "0.0.0")
	// Must not panic or block beyond the client timeout.
	c.LogMeetingStart(context.Background(), "code", "room")
	c.LogMeetingEnd(context.Background(), "code", time.Second)
}
