// Package presence derives the render-ready participant list from the
// platform's raw roster plus per-participant metadata blobs.
package presence

import (
	"sort"

	"github.com/classytamil/Go-Meet/admission"
	"github.com/classytamil/Go-Meet/platform"
	"github.com/classytamil/Go-Meet/utils"
)

// LocalID is the sentinel id of the local participant in projected views,
// distinct from any platform identity.
const LocalID = "me"

type Participant struct {
	ID                string           `json:"id"`
	DisplayName       string           `json:"displayName"`
	IsLocal           bool             `json:"isLocal"`
	IsHost            bool             `json:"isHost"`
	CameraEnabled     bool             `json:"cameraEnabled"`
	MicrophoneEnabled bool             `json:"microphoneEnabled"`
	HandRaised        bool             `json:"handRaised"`
	ScreenSharing     bool             `json:"screenSharing"`
	AdmissionStatus   admission.Status `json:"admissionStatus"`
	IsActiveSpeaker   bool             `json:"isActiveSpeaker"`
	// MainScreenShare marks the single share shown as the main tile when
	// several participants share at once.
	MainScreenShare bool `json:"mainScreenShare"`
}

// LocalState is the authoritative local input of the projection. It is taken
// from session state and the platform's own track flags, never from a
// metadata round-trip of self-sent values.
type LocalState struct {
	Identity    string
	DisplayName string
	IsHost      bool
	Tracks      platform.TrackState
	HandRaised  bool
	Status      admission.Status
}

// Project builds the ordered participant set. For remotes, camera/mic/screen
// flags come from platform track state only; handRaised/status/isHost come
// from metadata. At most one participant gets MainScreenShare, first match
// in roster iteration order (local first).
func Project(local LocalState, remotes []platform.RemoteParticipant, activeSpeakers []string) []Participant {
	participants := make([]Participant, 0, len(remotes)+1)

	participants = append(participants, Participant{
		ID:                LocalID,
		DisplayName:       local.DisplayName,
		IsLocal:           true,
		IsHost:            local.IsHost,
		CameraEnabled:     local.Tracks.Camera,
		MicrophoneEnabled: local.Tracks.Microphone,
		HandRaised:        local.HandRaised,
		ScreenSharing:     local.Tracks.ScreenShare,
		AdmissionStatus:   local.Status,
		IsActiveSpeaker:   utils.ContainsString(activeSpeakers, local.Identity),
	})

	for _, r := range remotes {
		meta := ParseMetadata(r.Metadata)
		participants = append(participants, Participant{
			ID:                r.Identity,
			DisplayName:       r.Name,
			IsHost:            meta.IsHost,
			CameraEnabled:     r.Tracks.Camera,
			MicrophoneEnabled: r.Tracks.Microphone,
			HandRaised:        meta.IsHandRaised,
			ScreenSharing:     r.Tracks.ScreenShare,
			AdmissionStatus:   meta.Status,
			IsActiveSpeaker:   utils.ContainsString(activeSpeakers, r.Identity),
		})
	}

	for i := range participants {
		if participants[i].ScreenSharing {
			participants[i].MainScreenShare = true
			break
		}
	}

	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.IsActiveSpeaker != b.IsActiveSpeaker {
			return a.IsActiveSpeaker
		}
		if a.HandRaised != b.HandRaised {
			return a.HandRaised
		}
		return false
	})

	return participants
}

// SplitByAdmission buckets a projection into the grid list and the waiting
// list a host acts on.
func SplitByAdmission(participants []Participant) (active, pending []Participant) {
	active = make([]Participant, 0, len(participants))
	pending = make([]Participant, 0)
	for _, p := range participants {
		if p.AdmissionStatus == admission.StatusWaiting {
			pending = append(pending, p)
		} else {
			active = append(active, p)
		}
	}
	return active, pending
}
