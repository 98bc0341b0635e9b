package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/classytamil/Go-Meet/platform"
	"github.com/classytamil/Go-Meet/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func TestExtractPayload(t *testing.T) {
	payload, err := extractPayload([]byte(`{"type":"left","payload":{"id":"p1"}}`))
	require.NoError(t, err)
	left, ok := payload.(*LeftResponseMessage)
	require.True(t, ok)
	assert.Equal(t, "p1", left.ID)

	_, err = extractPayload([]byte(`{"type":"fancyNewThing","payload":{}}`))
	assert.ErrorIs(t, err, UnknownMsgTypeErr)

	_, err = extractPayload([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = extractPayload([]byte(`garbage`))
	assert.Error(t, err)
}

// gatewayStub accepts one websocket client, answers the register handshake
// and then relays whatever the test pushes into send.
type gatewayStub struct {
	t        *testing.T
	send     chan utils.H
	register chan utils.H
}

func newGatewayStub(t *testing.T) (*gatewayStub, string) {
	g := &gatewayStub{
		t:        t,
		send:     make(chan utils.H, 8),
		register: make(chan utils.H, 1),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg struct {
			Type    string  `json:"type"`
			Payload utils.H `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, "register", msg.Type)
		g.register <- msg.Payload

		writeJSON(ctx, t, conn, utils.H{
			"type": "register",
			"payload": utils.H{
				"id": "local-1",
				"roster": []utils.H{
					{"id": "remote-1", "name": "Bob", "metadata": `{"v":1}`},
				},
			},
		})

		for {
			select {
			case msg := <-g.send:
				writeJSON(ctx, t, conn, msg)
			case <-ctx.Done():
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return g, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func writeJSON(ctx context.Context, t *testing.T, conn *websocket.Conn, msg utils.H) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestDialRegistersAndStreamsEvents(t *testing.T) {
	gw, url := newGatewayStub(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url, "abc-defg-hij", "Alice", "jwt-value")
	require.NoError(t, err)
	defer conn.Disconnect()

	registered := <-gw.register
	assert.Equal(t, "abc-defg-hij", registered["room"])
	assert.Equal(t, "Alice", registered["name"])
	assert.Equal(t, "jwt-value", registered["accessToken"])

	assert.Equal(t, "local-1", conn.Local().Identity())
	remotes := conn.Remotes()
	require.Len(t, remotes, 1)
	assert.Equal(t, "remote-1", remotes[0].Identity)
	assert.Equal(t, "Bob", remotes[0].Name)

	gw.send <- utils.H{
		"type":    "joined",
		"payload": utils.H{"participant": utils.H{"id": "remote-2", "name": "Carol"}},
	}
	select {
	case ev := <-conn.Events():
		joined, ok := ev.(platform.ParticipantJoinedEvent)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, "remote-2", joined.Participant.Identity)
	case <-time.After(5 * time.Second):
		t.Fatal("no joined event")
	}
	assert.Len(t, conn.Remotes(), 2)

	gw.send <- utils.H{
		"type":    "data",
		"payload": utils.H{"payload": []byte(`{"id":"1"}`)},
	}
	select {
	case ev := <-conn.Events():
		data, ok := ev.(platform.DataReceivedEvent)
		require.True(t, ok, "got %T", ev)
		assert.JSONEq(t, `{"id":"1"}`, string(data.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("no data event")
	}
}

func TestReconnectRefreshesRoster(t *testing.T) {
	var mu sync.Mutex
	connects := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		ctx := r.Context()
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}

		mu.Lock()
		connects++
		n := connects
		mu.Unlock()

		if n == 1 {
			writeJSON(ctx, t, conn, utils.H{
				"type": "register",
				"payload": utils.H{
					"id":     "local-1",
					"roster": []utils.H{{"id": "remote-1", "name": "Bob"}},
				},
			})
			// Drop the connection to force a reconnect cycle.
			_ = conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		writeJSON(ctx, t, conn, utils.H{
			"type": "register",
			"payload": utils.H{
				"id":     "local-1",
				"roster": []utils.H{{"id": "remote-2", "name": "Carol"}},
			},
		})
		<-ctx.Done()
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url, "abc-defg-hij", "Alice", "jwt-value")
	require.NoError(t, err)
	defer conn.Disconnect()
	require.Len(t, conn.Remotes(), 1)

	// After re-register the roster change must surface as events, not wait
	// for unrelated traffic.
	var left, joined bool
	deadline := time.After(5 * time.Second)
	for !left || !joined {
		select {
		case ev := <-conn.Events():
			switch ev := ev.(type) {
			case platform.ParticipantLeftEvent:
				if ev.Identity == "remote-1" {
					left = true
				}
			case platform.ParticipantJoinedEvent:
				if ev.Participant.Identity == "remote-2" {
					joined = true
				}
			}
		case <-deadline:
			t.Fatalf("no roster refresh after reconnect, left=%v joined=%v", left, joined)
		}
	}

	remotes := conn.Remotes()
	require.Len(t, remotes, 1)
	assert.Equal(t, "remote-2", remotes[0].Identity)
}

func TestWriteAfterDisconnect(t *testing.T) {
	_, url := newGatewayStub(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url, "abc-defg-hij", "Alice", "jwt-value")
	require.NoError(t, err)

	conn.Disconnect()
	assert.ErrorIs(t, conn.Local().PublishData([]byte(`{}`), platform.Reliable), Closed)
}
