package meet

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/classytamil/Go-Meet/admission"
	"github.com/classytamil/Go-Meet/e2ee"
	"github.com/classytamil/Go-Meet/envelope"
	"github.com/classytamil/Go-Meet/platform"
	"github.com/classytamil/Go-Meet/presence"
	"github.com/classytamil/Go-Meet/request"
	"github.com/classytamil/Go-Meet/utils"
	"github.com/classytamil/Go-Meet/volatile"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type SessionState int32

const (
	// SessionStateWaiting gates a guest: the UI must show the blocking
	// waiting view and no grid while the session is in this state.
	SessionStateWaiting SessionState = iota
	SessionStateJoined
	SessionStateClosed
)

func (s SessionState) String() string {
	return [...]string{
		"Waiting",
		"Joined",
		"Closed",
	}[s]
}

const reactionDisplayDuration = 4 * time.Second

// Session owns all mutable meeting state. A single goroutine drains the
// queue; every platform event, data envelope and user intent is applied
// there to completion, so no field below needs a lock of its own.
type Session struct {
	room        platform.Room
	delegate    SessionDelegate
	meetingCode string
	displayName string
	logClient   *request.Client

	gate         *admission.Gate
	handRaised   bool
	lastMetadata string
	chatVisible  bool
	unread       int
	messages     []DeviceMessage
	messageIds   map[chatKey]struct{}
	reactions    []DeviceReaction
	dismissed    map[string]struct{}
	speakers     []string
	quality      platform.ConnectionQuality
	reactionTTL  time.Duration
	lastClock    string

	state    *volatile.Value[SessionState]
	duration *volatile.Value[int]

	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// StartSession wraps an already joined platform room. A host enters the
// meeting immediately; a guest starts in the waiting room and publishes
// waiting status to every peer.
func StartSession(room platform.Room, delegate SessionDelegate, meetingCode, displayName string, isHost bool) *Session {
	return startSession(room, delegate, meetingCode, displayName, isHost, nil)
}

func startSession(room platform.Room, delegate SessionDelegate, meetingCode, displayName string, isHost bool, logClient *request.Client) *Session {
	s := &Session{
		room:        room,
		delegate:    delegate,
		meetingCode: meetingCode,
		displayName: displayName,
		logClient:   logClient,
		gate:        admission.NewGate(isHost),
		messageIds:  map[chatKey]struct{}{},
		dismissed:   map[string]struct{}{},
		reactionTTL: reactionDisplayDuration,
		state:       volatile.NewValue(SessionStateWaiting),
		duration:    volatile.NewValue(0),
		queue:       make(chan func(), 128),
		done:        make(chan struct{}),
		timers:      map[string]*time.Timer{},
	}
	if isHost {
		s.state.Store(SessionStateJoined)
	}

	go s.run()
	go s.pump()
	go s.durationLoop()

	s.post(func() {
		s.publishMetadata()
		s.delegate.OnStateChanged(int(s.state.Load()))
		s.publishParticipants()
	})
	return s
}

func (s *Session) State() SessionState {
	return s.state.Load()
}

func (s *Session) Duration() int {
	return s.duration.Load()
}

func (s *Session) MeetingCode() string {
	return s.meetingCode
}

// ChatLog returns a copy of the accumulated message log, taken on the event
// loop so callers (e.g. a summarizer) never observe a partial append.
func (s *Session) ChatLog() []DeviceMessage {
	out := make(chan []DeviceMessage, 1)
	s.post(func() {
		out <- append([]DeviceMessage(nil), s.messages...)
	})
	select {
	case messages := <-out:
		return messages
	case <-s.done:
		return nil
	}
}

// Leave tears the session down: timers stopped, local capture released,
// room disconnected, final duration logged. Safe to call more than once.
func (s *Session) Leave() {
	s.closeOnce.Do(func() {
		log.Info("leaving session")
		close(s.done)

		s.timersMu.Lock()
		for _, t := range s.timers {
			t.Stop()
		}
		s.timers = map[string]*time.Timer{}
		s.timersMu.Unlock()

		local := s.room.Local()
		if err := local.SetScreenShareEnabled(false, false); err != nil {
			log.WithError(err).Warn("cannot release screen share")
		}
		if err := local.SetCameraEnabled(false); err != nil {
			log.WithError(err).Warn("cannot release camera")
		}
		if err := local.SetMicrophoneEnabled(false); err != nil {
			log.WithError(err).Warn("cannot release microphone")
		}
		s.room.Disconnect()

		if s.logClient != nil {
			go s.logClient.LogMeetingEnd(context.Background(), s.meetingCode, time.Duration(s.duration.Load())*time.Second)
		}

		s.state.Store(SessionStateClosed)
		s.delegate.OnStateChanged(int(SessionStateClosed))
	})
}

// --- intents -----------------------------------------------------------

// ToggleMicrophone flips the mic through the platform handle and re-reads
// the platform's own state; the session keeps no shadow flag that could
// diverge from the actual publication state.
func (s *Session) ToggleMicrophone() {
	s.post(func() {
		local := s.room.Local()
		if err := local.SetMicrophoneEnabled(!local.TrackState().Microphone); err != nil {
			s.delegate.OnError(err.Error())
			return
		}
		s.publishParticipants()
	})
}

func (s *Session) ToggleCamera() {
	s.post(func() {
		local := s.room.Local()
		if err := local.SetCameraEnabled(!local.TrackState().Camera); err != nil {
			s.delegate.OnError(err.Error())
			return
		}
		s.publishParticipants()
	})
}

// ToggleScreenShare starts or stops screen capture; withAudio requests
// system audio when starting. A denied capture surfaces as OnError and the
// session continues.
func (s *Session) ToggleScreenShare(withAudio bool) {
	s.post(func() {
		local := s.room.Local()
		if err := local.SetScreenShareEnabled(!local.TrackState().ScreenShare, withAudio); err != nil {
			s.delegate.OnError(err.Error())
			return
		}
		s.publishParticipants()
	})
}

func (s *Session) ToggleHandRaise() {
	s.post(func() {
		s.handRaised = !s.handRaised
		s.publishMetadata()
		s.publishParticipants()
	})
}

// SetChatVisible tracks which sidebar tab is on screen. The unread counter
// resets exactly when the chat tab becomes visible, not when the sidebar
// merely opens on another tab.
func (s *Session) SetChatVisible(visible bool) {
	s.post(func() {
		s.chatVisible = visible
		if visible && s.unread != 0 {
			s.unread = 0
			s.delegate.OnUnreadCount(0)
		}
	})
}

// SendChatMessage encrypts with the meeting code and broadcasts reliably.
// The key derivation is deliberately done on the caller's goroutine to keep
// the event loop free.
func (s *Session) SendChatMessage(text string) error {
	cipher, err := e2ee.Encrypt(text, s.meetingCode)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	env := envelope.Envelope{
		ID:        strconv.FormatInt(now, 10),
		Sender:    s.displayName,
		Text:      cipher,
		Timestamp: now,
	}
	s.post(func() {
		data, err := envelope.Encode(env)
		if err != nil {
			log.WithError(err).Error("cannot encode chat envelope")
			return
		}
		if err := s.room.Local().PublishData(data, platform.Reliable); err != nil {
			s.delegate.OnError(err.Error())
			return
		}
		s.appendChat(env, true)
	})
	return nil
}

// SendReaction broadcasts best effort; a lost reaction only drops an
// animation on some peers.
func (s *Session) SendReaction(emoji string) {
	s.post(func() {
		env := envelope.Envelope{
			Type:     envelope.TypeReaction,
			ID:       uuid.NewString(),
			Sender:   s.displayName,
			Emoji:    emoji,
			SenderID: s.room.Local().Identity(),
		}
		data, err := envelope.Encode(env)
		if err != nil {
			log.WithError(err).Error("cannot encode reaction envelope")
			return
		}
		if err := s.room.Local().PublishData(data, platform.Lossy); err != nil {
			log.WithError(err).Warn("cannot publish reaction")
		}
		s.addReaction(env)
	})
}

// AdmitParticipant broadcasts an admit envelope naming the guest. Only a
// host may do this; the guest transitions when it observes the envelope.
// There is no acknowledgment: if the envelope is lost, the guest stays in
// the pending list and the host can admit again.
func (s *Session) AdmitParticipant(targetID string) {
	s.post(func() {
		if !s.gate.CanAdmit() {
			log.Warnf("non-host tried to admit %v", targetID)
			return
		}
		env := envelope.Envelope{
			Type:     envelope.TypeAdmit,
			ID:       strconv.FormatInt(time.Now().UnixMilli(), 10),
			Sender:   s.displayName,
			TargetID: targetID,
		}
		data, err := envelope.Encode(env)
		if err != nil {
			log.WithError(err).Error("cannot encode admit envelope")
			return
		}
		if err := s.room.Local().PublishData(data, platform.Reliable); err != nil {
			s.delegate.OnError(err.Error())
			return
		}
		// Re-admitting cancels an earlier local dismissal, so the guest is
		// visible again in the pending list if the envelope gets lost.
		delete(s.dismissed, targetID)
		s.publishParticipants()
	})
}

// DenyParticipant dismisses a pending request locally. Nothing is sent: the
// guest stays waiting on its own side and may be re-surfaced later.
func (s *Session) DenyParticipant(targetID string) {
	s.post(func() {
		s.dismissed[targetID] = struct{}{}
		s.publishParticipants()
	})
}

// --- event loop --------------------------------------------------------

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.queue:
			fn()
		}
	}
}

func (s *Session) post(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

func (s *Session) pump() {
	for ev := range s.room.Events() {
		ev := ev
		s.post(func() {
			s.handleEvent(ev)
		})
	}
}

func (s *Session) durationLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.post(func() {
				seconds := s.duration.Load() + 1
				s.duration.Store(seconds)
				s.delegate.OnDuration(seconds)

				if clock := time.Now().Format("15:04"); clock != s.lastClock {
					s.lastClock = clock
					s.delegate.OnClock(clock)
				}
			})
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleEvent(ev platform.Event) {
	switch ev := ev.(type) {
	case platform.ParticipantJoinedEvent:
		s.publishParticipants()
	case platform.ParticipantLeftEvent:
		delete(s.dismissed, ev.Identity)
		s.publishParticipants()
	case platform.MetadataChangedEvent:
		s.publishParticipants()
	case platform.TrackStateChangedEvent:
		s.publishParticipants()
	case platform.ConnectionQualityEvent:
		if ev.Identity == s.room.Local().Identity() {
			s.quality = ev.Quality
			s.delegate.OnConnectionQuality(ev.Quality.String())
		}
	case platform.ActiveSpeakersEvent:
		s.speakers = ev.Identities
		s.publishParticipants()
	case platform.DataReceivedEvent:
		s.handleData(ev.Payload)
	case platform.DisconnectedEvent:
		log.Infof("room disconnected: %v", ev.Reason)
		s.Leave()
	}
}

func (s *Session) handleData(payload []byte) {
	env, err := envelope.Decode(payload)
	if err != nil {
		// Unreliable by design at the application layer: peers may be
		// mid-join or speak a newer protocol.
		if errors.Is(err, envelope.ErrUnknownType) {
			log.Debugf("dropping envelope: %v", err)
		} else {
			log.WithError(err).Debug("dropping malformed data payload")
		}
		return
	}

	switch env.Type {
	case envelope.TypeChat:
		own := env.Sender == s.displayName
		if !s.appendChat(env, own) {
			return
		}
		if !s.chatVisible && !own {
			s.unread++
			s.delegate.OnUnreadCount(s.unread)
		}
	case envelope.TypeReaction:
		s.addReaction(env)
	case envelope.TypeAdmit:
		s.applyAdmit(env.TargetID)
	}
}

// chatKey includes the sender because ids are time-based: two participants
// sending in the same millisecond must not shadow each other.
type chatKey struct {
	sender string
	id     string
}

func (s *Session) appendChat(env envelope.Envelope, isLocal bool) bool {
	if len(env.ID) == 0 {
		env.ID = uuid.NewString()
	} else {
		key := chatKey{sender: env.Sender, id: env.ID}
		if _, ok := s.messageIds[key]; ok {
			// Transport echo of an already appended message.
			return false
		}
		s.messageIds[key] = struct{}{}
	}

	msg := DeviceMessage{
		Id:        env.ID,
		Sender:    env.Sender,
		Text:      env.Text,
		Timestamp: env.Timestamp,
		IsLocal:   isLocal,
	}
	s.messages = append(s.messages, msg)
	s.delegate.OnChatMessage(utils.PackToByteArray(msg))
	return true
}

func (s *Session) addReaction(env envelope.Envelope) {
	id := env.ID
	if len(id) == 0 {
		id = uuid.NewString()
	}
	s.reactions = append(s.reactions, DeviceReaction{
		Id:       id,
		Emoji:    env.Emoji,
		SenderId: env.SenderID,
	})
	s.publishReactions()

	timer := time.AfterFunc(s.reactionTTL, func() {
		s.post(func() {
			s.removeReaction(id)
		})
	})
	s.timersMu.Lock()
	s.timers[id] = timer
	s.timersMu.Unlock()
}

func (s *Session) removeReaction(id string) {
	s.timersMu.Lock()
	delete(s.timers, id)
	s.timersMu.Unlock()

	for i, r := range s.reactions {
		if r.Id == id {
			s.reactions = append(s.reactions[:i], s.reactions[i+1:]...)
			break
		}
	}
	s.publishReactions()
}

func (s *Session) applyAdmit(targetID string) {
	if !s.gate.Admit(targetID, s.room.Local().Identity()) {
		return
	}
	log.Info("admitted by host")
	s.publishMetadata()
	s.setState(SessionStateJoined)
	s.publishParticipants()
}

// --- derived views -----------------------------------------------------

// publishMetadata republishes the local metadata blob wholesale. Identical
// republishes are skipped, so the operation is idempotent for peers.
func (s *Session) publishMetadata() {
	meta := presence.Metadata{
		IsHandRaised: s.handRaised,
		Status:       s.gate.Status(),
		IsHost:       s.gate.IsHost(),
	}.Encode()
	if meta == s.lastMetadata {
		return
	}
	if err := s.room.Local().SetMetadata(meta); err != nil {
		log.WithError(err).Warn("cannot publish metadata")
		return
	}
	s.lastMetadata = meta
}

func (s *Session) publishParticipants() {
	if s.gate.RequiresLobby() {
		// Waiting guests get no grid, whatever the roster does.
		return
	}

	local := presence.LocalState{
		Identity:    s.room.Local().Identity(),
		DisplayName: s.displayName,
		IsHost:      s.gate.IsHost(),
		Tracks:      s.room.Local().TrackState(),
		HandRaised:  s.handRaised,
		Status:      s.gate.Status(),
	}
	active, pending := presence.SplitByAdmission(presence.Project(local, s.room.Remotes(), s.speakers))

	visible := pending[:0]
	for _, p := range pending {
		if _, ok := s.dismissed[p.ID]; !ok {
			visible = append(visible, p)
		}
	}

	s.delegate.OnParticipants(utils.PackToByteArray(active))
	s.delegate.OnPendingParticipants(utils.PackToByteArray(visible))
}

func (s *Session) publishReactions() {
	s.delegate.OnReactions(utils.PackToByteArray(s.reactions))
}

func (s *Session) setState(newState SessionState) {
	if s.state.Swap(newState) == newState {
		return
	}
	log.Infof("session state=%v", newState.String())
	s.delegate.OnStateChanged(int(newState))
}
