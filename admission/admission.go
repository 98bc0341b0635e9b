// Package admission implements the client-side half of the waiting-room
// workflow: a guest is invisible to the meeting grid until a host broadcasts
// an admit envelope naming it. The platform itself enforces nothing here;
// gating is per-participant and best effort.
package admission

import (
	"encoding/json"
	"fmt"
)

type Status int32

const (
	StatusActive Status = iota
	StatusWaiting
)

var statusStrings = [...]string{"active", "waiting"}

func (s Status) String() string {
	return statusStrings[s]
}

func StatusFromString(str string) (Status, error) {
	for i, v := range statusStrings {
		if v == str {
			return Status(i), nil
		}
	}
	return -1, fmt.Errorf("unknown Status(%v)", str)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	} else if status, err := StatusFromString(str); err != nil {
		return err
	} else {
		*s = status
		return nil
	}
}

// Gate is the local participant's admission state machine. A host is active
// for the whole session; a guest starts waiting and the only transition is
// waiting -> active on a matching admit. There is no reverse path.
type Gate struct {
	isHost bool
	status Status
}

func NewGate(isHost bool) *Gate {
	g := &Gate{isHost: isHost, status: StatusActive}
	if !isHost {
		g.status = StatusWaiting
	}
	return g
}

func (g *Gate) IsHost() bool {
	return g.isHost
}

func (g *Gate) Status() Status {
	return g.status
}

// RequiresLobby reports whether the UI must show the blocking waiting view
// instead of the meeting grid.
func (g *Gate) RequiresLobby() bool {
	return !g.isHost && g.status == StatusWaiting
}

// CanAdmit reports whether this participant may broadcast admit envelopes.
// Host identity comes from session start; the protocol itself does not
// verify the claim.
func (g *Gate) CanAdmit() bool {
	return g.isHost
}

// Admit applies an admit envelope targeting targetID. It returns true only
// on the waiting -> active transition for the local identity; repeated or
// mistargeted admits change nothing.
func (g *Gate) Admit(targetID, localID string) bool {
	if targetID != localID {
		return false
	}
	if g.status != StatusWaiting {
		return false
	}
	g.status = StatusActive
	return true
}
