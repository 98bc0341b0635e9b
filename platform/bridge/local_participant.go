package bridge

import (
	"sync"

	"github.com/classytamil/Go-Meet/platform"
)

// localParticipant publishes the local track state to the gateway. The cached
// state is updated only after a successful write, so TrackState always
// reflects what the gateway accepted.
type localParticipant struct {
	conn     *Connection
	identity string

	mu          sync.Mutex
	tracks      platform.TrackState
	screenAudio bool
}

func (p *localParticipant) Identity() string {
	return p.identity
}

func (p *localParticipant) TrackState() platform.TrackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks
}

func (p *localParticipant) SetCameraEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.tracks
	next.Camera = enabled
	return p.sendTrackState(next, p.screenAudio)
}

func (p *localParticipant) SetMicrophoneEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.tracks
	next.Microphone = enabled
	return p.sendTrackState(next, p.screenAudio)
}

func (p *localParticipant) SetScreenShareEnabled(enabled bool, withAudio bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.tracks
	next.ScreenShare = enabled
	return p.sendTrackState(next, enabled && withAudio)
}

// sendTrackState must be called with p.mu held.
func (p *localParticipant) sendTrackState(next platform.TrackState, screenAudio bool) error {
	err := p.conn.writeMsg(&TrackStateRequestMessage{
		Camera:      next.Camera,
		Microphone:  next.Microphone,
		ScreenShare: next.ScreenShare,
		ScreenAudio: screenAudio,
	})
	if err != nil {
		return err
	}
	p.tracks = next
	p.screenAudio = screenAudio
	return nil
}

func (p *localParticipant) SetMetadata(metadata string) error {
	return p.conn.writeMsg(&MetadataRequestMessage{Metadata: metadata})
}

func (p *localParticipant) PublishData(payload []byte, mode platform.DeliveryMode) error {
	return p.conn.writeMsg(&DataRequestMessage{
		Payload:  payload,
		Reliable: mode == platform.Reliable,
	})
}
