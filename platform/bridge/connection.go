// Package bridge implements platform.Room over the meeting gateway's
// websocket protocol.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/classytamil/Go-Meet/platform"
	"github.com/classytamil/Go-Meet/volatile"
	log "github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

type ConnectionState int32

const (
	ConnectionStateConnecting ConnectionState = iota
	ConnectionStateConnected
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	return [...]string{
		"Connecting",
		"Connected",
		"Closed",
	}[s]
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 5 * time.Second

	// Send pings to peer with this period.
	pingInterval = 10 * time.Second

	pingLatency = 2 * time.Second

	reconnectDelay = 500 * time.Millisecond

	protocolVersion = 1
)

var UnknownMsgTypeErr = errors.New("unknown message type")
var Closed = errors.New("gateway connection is closed")
var NotConnected = errors.New("gateway connection is not connected")

// Connection is the production platform.Room: a reconnecting websocket to the
// meeting gateway that translates wire messages into platform events.
type Connection struct {
	url                     string
	room, name, accessToken string

	conn        *websocket.Conn
	connWriteMu sync.Mutex
	cancelPing  context.CancelFunc
	state       *volatile.Value[ConnectionState]

	local *localParticipant

	rosterMu    sync.RWMutex
	rosterOrder []string
	roster      map[string]platform.RemoteParticipant

	events    chan platform.Event
	done      chan struct{}
	closeOnce sync.Once
}

// Dial joins the gateway room. The initial connect and register handshake are
// synchronous; failure here is a hard stop for the session.
func Dial(ctx context.Context, url, room, name, accessToken string) (*Connection, error) {
	c := &Connection{
		url:         url,
		room:        room,
		name:        name,
		accessToken: accessToken,
		cancelPing:  func() {},
		state:       volatile.NewValue(ConnectionStateConnecting),
		roster:      map[string]platform.RemoteParticipant{},
		events:      make(chan platform.Event, 64),
		done:        make(chan struct{}),
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	c.state.Store(ConnectionStateConnected)
	go c.readLoop()
	return c, nil
}

func (c *Connection) Local() platform.LocalParticipant {
	return c.local
}

func (c *Connection) Remotes() []platform.RemoteParticipant {
	c.rosterMu.RLock()
	defer c.rosterMu.RUnlock()

	remotes := make([]platform.RemoteParticipant, 0, len(c.rosterOrder))
	for _, id := range c.rosterOrder {
		remotes = append(remotes, c.roster[id])
	}
	return remotes
}

func (c *Connection) Events() <-chan platform.Event {
	return c.events
}

func (c *Connection) Disconnect() {
	c.closeOnce.Do(func() {
		if c.state.Swap(ConnectionStateClosed) == ConnectionStateClosed {
			return
		}
		close(c.done)
		c.internalClose()
	})
}

func (c *Connection) internalClose() {
	c.cancelPing()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (c *Connection) connect(ctx context.Context) error {
	log.Info("dial websocket")
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("cannot dial gateway, err = %w", err)
	}
	log.Info("websocket connected")

	reqMsg := &RegisterRequestMessage{
		Room:        c.room,
		Name:        c.name,
		AccessToken: c.accessToken,
		Version:     protocolVersion,
	}
	data, err := json.Marshal(&messageToWrite{Type: reqMsg.typ(), Payload: reqMsg})
	if err != nil {
		_ = conn.Close(websocket.StatusAbnormalClosure, err.Error())
		return fmt.Errorf("cannot marshal register message, err = %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		_ = conn.Close(websocket.StatusAbnormalClosure, err.Error())
		return fmt.Errorf("cannot write register message, err = %w", err)
	}

	var register *RegisterResponseMessage
	for register == nil {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			_ = conn.Close(websocket.StatusAbnormalClosure, err.Error())
			return fmt.Errorf("cannot read register response, err = %w", err)
		}
		payload, err := extractPayload(msg)
		if err != nil {
			log.WithError(err).Warn("unexpected message during register")
			continue
		}
		var ok bool
		if register, ok = payload.(*RegisterResponseMessage); !ok {
			log.Infof("expected register response, got %T", payload)
			register = nil
		}
	}
	log.Infof("registered id=%v roster=%v", register.ID, len(register.Roster))

	c.rosterMu.Lock()
	c.rosterOrder = c.rosterOrder[:0]
	c.roster = map[string]platform.RemoteParticipant{}
	for i := range register.Roster {
		p := register.Roster[i].toPlatform()
		c.rosterOrder = append(c.rosterOrder, p.Identity)
		c.roster[p.Identity] = p
	}
	c.rosterMu.Unlock()

	if c.local == nil {
		c.local = &localParticipant{conn: c, identity: register.ID}
	}

	c.conn = conn
	pingCtx, cancel := context.WithCancel(context.Background())
	c.cancelPing = cancel
	go c.ping(pingCtx)
	return nil
}

func (c *Connection) reconnect() {
	c.rosterMu.RLock()
	before := append([]string(nil), c.rosterOrder...)
	c.rosterMu.RUnlock()

	for {
		select {
		case <-c.done:
			return
		case <-time.After(reconnectDelay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			c.emitRosterDiff(before)
			return
		}
		log.WithError(err).Warn("cannot reconnect to gateway")
	}
}

// emitRosterDiff reconciles consumers with the roster from a re-register:
// participants that vanished during the outage leave, everyone in the fresh
// roster joins (repeat joins are harmless, consumers re-project).
func (c *Connection) emitRosterDiff(before []string) {
	c.rosterMu.RLock()
	current := make([]platform.RemoteParticipant, 0, len(c.rosterOrder))
	for _, id := range c.rosterOrder {
		current = append(current, c.roster[id])
	}
	c.rosterMu.RUnlock()

	known := map[string]struct{}{}
	for _, p := range current {
		known[p.Identity] = struct{}{}
	}
	for _, id := range before {
		if _, ok := known[id]; !ok {
			c.emit(platform.ParticipantLeftEvent{Identity: id})
		}
	}
	for _, p := range current {
		c.emit(platform.ParticipantJoinedEvent{Participant: p})
	}
}

func (c *Connection) readLoop() {
	defer close(c.events)
	for {
		if c.state.Load() == ConnectionStateClosed {
			c.emit(platform.DisconnectedEvent{Reason: "closed"})
			return
		}
		_, msg, err := c.conn.Read(context.Background())
		if err != nil {
			if c.state.Load() == ConnectionStateClosed {
				c.emit(platform.DisconnectedEvent{Reason: "closed"})
				return
			}
			log.WithError(err).Info("cannot read message, trying to reconnect")
			c.internalClose()
			c.reconnect()
			continue
		}
		payload, err := extractPayload(msg)
		if err != nil {
			if err == UnknownMsgTypeErr {
				log.Debugf("dropping message of unknown type: %s", msg)
			} else {
				log.WithError(err).Warn("cannot parse gateway message")
			}
			continue
		}
		c.dispatch(payload)
	}
}

func (c *Connection) dispatch(payload interface{}) {
	switch msg := payload.(type) {
	case *JoinedResponseMessage:
		p := msg.Participant.toPlatform()
		c.rosterMu.Lock()
		if _, ok := c.roster[p.Identity]; !ok {
			c.rosterOrder = append(c.rosterOrder, p.Identity)
		}
		c.roster[p.Identity] = p
		c.rosterMu.Unlock()
		c.emit(platform.ParticipantJoinedEvent{Participant: p})
	case *LeftResponseMessage:
		c.rosterMu.Lock()
		delete(c.roster, msg.ID)
		for i, id := range c.rosterOrder {
			if id == msg.ID {
				c.rosterOrder = append(c.rosterOrder[:i], c.rosterOrder[i+1:]...)
				break
			}
		}
		c.rosterMu.Unlock()
		c.emit(platform.ParticipantLeftEvent{Identity: msg.ID})
	case *MetadataResponseMessage:
		c.rosterMu.Lock()
		if p, ok := c.roster[msg.ID]; ok {
			p.Metadata = msg.Metadata
			c.roster[msg.ID] = p
		}
		c.rosterMu.Unlock()
		c.emit(platform.MetadataChangedEvent{Identity: msg.ID, Metadata: msg.Metadata})
	case *TrackStateResponseMessage:
		tracks := platform.TrackState{
			Camera:      msg.Camera,
			Microphone:  msg.Microphone,
			ScreenShare: msg.ScreenShare,
		}
		c.rosterMu.Lock()
		if p, ok := c.roster[msg.ID]; ok {
			p.Tracks = tracks
			c.roster[msg.ID] = p
		}
		c.rosterMu.Unlock()
		c.emit(platform.TrackStateChangedEvent{Identity: msg.ID, Tracks: tracks})
	case *QualityResponseMessage:
		quality := platform.ConnectionQuality(msg.Quality)
		c.rosterMu.Lock()
		if p, ok := c.roster[msg.ID]; ok {
			p.Quality = quality
			c.roster[msg.ID] = p
		}
		c.rosterMu.Unlock()
		c.emit(platform.ConnectionQualityEvent{Identity: msg.ID, Quality: quality})
	case *DataResponseMessage:
		c.emit(platform.DataReceivedEvent{Payload: msg.Payload})
	case *SpeakersResponseMessage:
		c.emit(platform.ActiveSpeakersEvent{Identities: msg.IDs})
	default:
		log.Warnf("no dispatch for %T", payload)
	}
}

func (c *Connection) emit(ev platform.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Connection) ping(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.state.Load() != ConnectionStateConnected {
				return
			}
			ctx, cancel := context.WithTimeout(ctx, pingLatency)
			if err := c.conn.Ping(ctx); err != nil {
				log.WithError(err).Warn("ping")
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connection) writeMsg(msg RequestMessage) error {
	data, err := json.Marshal(&messageToWrite{Type: msg.typ(), Payload: msg})
	if err != nil {
		return fmt.Errorf("cannot marshal messageToWrite, err = %w", err)
	}
	return c.write(data)
}

func (c *Connection) write(data []byte) error {
	state := c.state.Load()
	if state == ConnectionStateClosed {
		return Closed
	} else if state != ConnectionStateConnected {
		return NotConnected
	}

	c.connWriteMu.Lock()
	defer c.connWriteMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	err := c.conn.Write(ctx, websocket.MessageText, data)
	cancel()
	return err
}

type messageToWrite struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func extractPayload(msg []byte) (interface{}, error) {
	var jsonMsg map[string]json.RawMessage
	if err := json.Unmarshal(msg, &jsonMsg); err != nil {
		return nil, fmt.Errorf("cannot extract payload from not a json message, msg = %v, err = %w", string(msg), err)
	}

	rawMsgType, ok := jsonMsg["type"]
	if !ok {
		return nil, errors.New("cannot extract payload from message without type")
	}
	msgPayload, ok := jsonMsg["payload"]
	if !ok {
		return nil, fmt.Errorf("cannot extract payload from msg = %v", string(msg))
	}

	var msgType string
	if err := json.Unmarshal(rawMsgType, &msgType); err != nil {
		return nil, fmt.Errorf("cannot unmarshal type, err = %w", err)
	}
	payload := typeFactory(msgType)
	if payload == nil {
		return nil, UnknownMsgTypeErr
	}
	if err := json.Unmarshal(msgPayload, payload); err != nil {
		return nil, fmt.Errorf("cannot unmarshal payload to type = %v, err = %w", msgType, err)
	}
	return payload, nil
}

func typeFactory(typ string) interface{} {
	switch typ {
	case "register":
		return &RegisterResponseMessage{}
	case "joined":
		return &JoinedResponseMessage{}
	case "left":
		return &LeftResponseMessage{}
	case "metadata":
		return &MetadataResponseMessage{}
	case "trackState":
		return &TrackStateResponseMessage{}
	case "quality":
		return &QualityResponseMessage{}
	case "data":
		return &DataResponseMessage{}
	case "speakers":
		return &SpeakersResponseMessage{}
	default:
		return nil
	}
}
