package bridge

import (
	"github.com/classytamil/Go-Meet/platform"
)

type participantPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Metadata    string `json:"metadata"`
	Camera      bool   `json:"camera"`
	Microphone  bool   `json:"microphone"`
	ScreenShare bool   `json:"screenShare"`
	Quality     int32  `json:"quality"`
}

func (p *participantPayload) toPlatform() platform.RemoteParticipant {
	return platform.RemoteParticipant{
		Identity: p.ID,
		Name:     p.Name,
		Metadata: p.Metadata,
		Tracks: platform.TrackState{
			Camera:      p.Camera,
			Microphone:  p.Microphone,
			ScreenShare: p.ScreenShare,
		},
		Quality: platform.ConnectionQuality(p.Quality),
	}
}

type RegisterResponseMessage struct {
	ID     string               `json:"id"`
	Roster []participantPayload `json:"roster"`
}

type JoinedResponseMessage struct {
	Participant participantPayload `json:"participant"`
}

type LeftResponseMessage struct {
	ID string `json:"id"`
}

type MetadataResponseMessage struct {
	ID       string `json:"id"`
	Metadata string `json:"metadata"`
}

type TrackStateResponseMessage struct {
	ID          string `json:"id"`
	Camera      bool   `json:"camera"`
	Microphone  bool   `json:"microphone"`
	ScreenShare bool   `json:"screenShare"`
}

type QualityResponseMessage struct {
	ID      string `json:"id"`
	Quality int32  `json:"quality"`
}

type DataResponseMessage struct {
	Payload []byte `json:"payload"`
}

type SpeakersResponseMessage struct {
	IDs []string `json:"ids"`
}
