package presence

import (
	"testing"

	"github.com/classytamil/Go-Meet/admission"
	"github.com/classytamil/Go-Meet/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localAlice() LocalState {
	return LocalState{
		Identity:    "alice-id",
		DisplayName: "Alice",
		IsHost:      true,
		Tracks:      platform.TrackState{Camera: true, Microphone: true},
		Status:      admission.StatusActive,
	}
}

func TestProjectionContainsExactlyOneLocal(t *testing.T) {
	remotes := []platform.RemoteParticipant{
		{Identity: "bob-id", Name: "Bob"},
		{Identity: "carol-id", Name: "Carol"},
	}

	ps := Project(localAlice(), remotes, nil)
	require.Len(t, ps, 3)

	locals := 0
	for _, p := range ps {
		if p.IsLocal {
			locals++
			assert.Equal(t, LocalID, p.ID)
		}
	}
	assert.Equal(t, 1, locals)
}

func TestRemoteTrackFlagsComeFromPlatformNotMetadata(t *testing.T) {
	// Metadata lies about media state; the platform's track flags win.
	remotes := []platform.RemoteParticipant{{
		Identity: "bob-id",
		Name:     "Bob",
		Metadata: `{"v":1,"camera":true,"microphone":true,"screenShare":true,"isHandRaised":true}`,
		Tracks:   platform.TrackState{Camera: false, Microphone: false, ScreenShare: false},
	}}

	ps := Project(localAlice(), remotes, nil)
	bob := findParticipant(t, ps, "bob-id")
	assert.False(t, bob.CameraEnabled)
	assert.False(t, bob.MicrophoneEnabled)
	assert.False(t, bob.ScreenSharing)
	assert.True(t, bob.HandRaised, "handRaised is a metadata signal")
}

func TestMalformedMetadataTreatedAsEmpty(t *testing.T) {
	remotes := []platform.RemoteParticipant{{
		Identity: "bob-id",
		Name:     "Bob",
		Metadata: `{not json`,
		Tracks:   platform.TrackState{Camera: true},
	}}

	ps := Project(localAlice(), remotes, nil)
	bob := findParticipant(t, ps, "bob-id")
	assert.True(t, bob.CameraEnabled)
	assert.False(t, bob.HandRaised)
	assert.Equal(t, admission.StatusActive, bob.AdmissionStatus, "absent status defaults to active")
}

func TestAbsentStatusDefaultsToActive(t *testing.T) {
	// Peers that predate the admission protocol publish no status at all.
	remotes := []platform.RemoteParticipant{
		{Identity: "old-peer", Name: "Old", Metadata: `{"isHandRaised":false}`},
		{Identity: "waiting-peer", Name: "New", Metadata: `{"v":1,"status":"waiting"}`},
	}

	active, pending := SplitByAdmission(Project(localAlice(), remotes, nil))
	assert.Len(t, pending, 1)
	assert.Equal(t, "waiting-peer", pending[0].ID)
	assert.Len(t, active, 2)
}

func TestSingleMainScreenShareOnSimultaneousShares(t *testing.T) {
	remotes := []platform.RemoteParticipant{
		{Identity: "bob-id", Name: "Bob", Tracks: platform.TrackState{ScreenShare: true}},
		{Identity: "carol-id", Name: "Carol", Tracks: platform.TrackState{ScreenShare: true}},
	}

	ps := Project(localAlice(), remotes, nil)

	mains := 0
	for _, p := range ps {
		if p.MainScreenShare {
			mains++
			assert.Equal(t, "bob-id", p.ID, "first sharer in roster order wins")
		}
	}
	assert.Equal(t, 1, mains)
	// Both sharers are still listed normally.
	assert.True(t, findParticipant(t, ps, "carol-id").ScreenSharing)
}

func TestOrderingActiveSpeakerThenHandRaised(t *testing.T) {
	remotes := []platform.RemoteParticipant{
		{Identity: "bob-id", Name: "Bob"},
		{Identity: "carol-id", Name: "Carol", Metadata: `{"v":1,"isHandRaised":true}`},
		{Identity: "dave-id", Name: "Dave"},
	}

	ps := Project(localAlice(), remotes, []string{"dave-id"})
	require.Len(t, ps, 4)
	assert.Equal(t, "dave-id", ps[0].ID)
	assert.Equal(t, "carol-id", ps[1].ID)
	// Remaining order is the stable insertion order, local first.
	assert.Equal(t, LocalID, ps[2].ID)
	assert.Equal(t, "bob-id", ps[3].ID)
}

func TestMetadataEncodeIsVersionedAndRoundTrips(t *testing.T) {
	raw := Metadata{IsHandRaised: true, Status: admission.StatusWaiting}.Encode()
	m := ParseMetadata(raw)
	assert.Equal(t, metadataVersion, m.Version)
	assert.True(t, m.IsHandRaised)
	assert.Equal(t, admission.StatusWaiting, m.Status)
}

func findParticipant(t *testing.T, ps []Participant, id string) Participant {
	t.Helper()
	for _, p := range ps {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("participant %v not found", id)
	return Participant{}
}
