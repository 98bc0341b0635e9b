// Package platform is the boundary with the external media platform. The
// session core only ever talks to these interfaces; production code plugs in
// the websocket bridge, tests plug in an in-memory fake.
package platform

// ConnectionQuality mirrors the platform's per-participant link estimate.
type ConnectionQuality int32

const (
	QualityExcellent ConnectionQuality = iota
	QualityGood
	QualityPoor
	QualityLost
)

func (q ConnectionQuality) String() string {
	return [...]string{
		"Excellent",
		"Good",
		"Poor",
		"Lost",
	}[q]
}

// DeliveryMode selects the transport guarantee of a published data payload.
type DeliveryMode int32

const (
	// Reliable delivery, in transport order.
	Reliable DeliveryMode = iota
	// Lossy is best effort; acceptable for cosmetic payloads only.
	Lossy
)

// TrackState is the platform's own view of what a participant publishes.
// These flags come from track publications, not from self-reported metadata.
type TrackState struct {
	Camera      bool `json:"camera"`
	Microphone  bool `json:"microphone"`
	ScreenShare bool `json:"screenShare"`
}

// RemoteParticipant is one roster entry as reported by the platform.
type RemoteParticipant struct {
	Identity string
	Name     string
	Metadata string
	Tracks   TrackState
	Quality  ConnectionQuality
}

// LocalParticipant is the handle over the local media publications. Setters
// are authoritative: callers read the state back after the call instead of
// keeping shadow flags.
type LocalParticipant interface {
	Identity() string

	SetCameraEnabled(enabled bool) error
	SetMicrophoneEnabled(enabled bool) error
	// SetScreenShareEnabled starts or stops screen capture; withAudio asks
	// for system audio when available.
	SetScreenShareEnabled(enabled bool, withAudio bool) error
	TrackState() TrackState

	// SetMetadata overwrites the participant's metadata blob wholesale.
	SetMetadata(metadata string) error
	PublishData(payload []byte, mode DeliveryMode) error
}

// Room is the joined platform session.
type Room interface {
	Local() LocalParticipant
	// Remotes returns the current remote roster in the platform's iteration
	// order. The slice is a snapshot, safe to retain.
	Remotes() []RemoteParticipant
	// Events delivers roster/metadata/quality/data/speaker events. The channel
	// is closed when the room disconnects.
	Events() <-chan Event
	Disconnect()
}

// Event is one entry of the platform event stream. Exactly the types below
// are produced.
type Event interface {
	isEvent()
}

type ParticipantJoinedEvent struct {
	Participant RemoteParticipant
}

type ParticipantLeftEvent struct {
	Identity string
}

type MetadataChangedEvent struct {
	Identity string
	Metadata string
}

type TrackStateChangedEvent struct {
	Identity string
	Tracks   TrackState
}

type ConnectionQualityEvent struct {
	Identity string
	Quality  ConnectionQuality
}

type DataReceivedEvent struct {
	Payload []byte
}

type ActiveSpeakersEvent struct {
	Identities []string
}

type DisconnectedEvent struct {
	Reason string
}

func (ParticipantJoinedEvent) isEvent()  {}
func (ParticipantLeftEvent) isEvent()    {}
func (MetadataChangedEvent) isEvent()    {}
func (TrackStateChangedEvent) isEvent()  {}
func (ConnectionQualityEvent) isEvent()  {}
func (DataReceivedEvent) isEvent()       {}
func (ActiveSpeakersEvent) isEvent()     {}
func (DisconnectedEvent) isEvent()       {}
