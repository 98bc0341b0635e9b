// Package envelope defines the JSON envelope carried over the platform's data
// channel. All non-media signaling between peers travels in these.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope type discriminants. An absent type means a chat message; that is
// the legacy variant from before the field existed.
const (
	TypeChat     = ""
	TypeReaction = "reaction"
	TypeAdmit    = "ADMIT_PARTICIPANT"
)

var ErrUnknownType = errors.New("unknown envelope type")

// Envelope is the tagged union sent over the data channel. Field presence
// depends on Type: chat uses Sender/Text/Timestamp, reaction uses
// Emoji/SenderID, admit uses TargetID.
type Envelope struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"`

	Sender    string `json:"sender,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`

	Emoji    string `json:"emoji,omitempty"`
	SenderID string `json:"senderId,omitempty"`

	TargetID string `json:"targetId,omitempty"`
}

func Encode(e Envelope) ([]byte, error) {
	data, err := json.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal envelope, err = %w", err)
	}
	return data, nil
}

// Decode parses a data-channel payload. Malformed JSON and unknown type
// values are errors the caller is expected to log and drop: peers may be
// mid-join or speak a newer protocol, so the codec never treats a bad
// payload as fatal.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("cannot unmarshal envelope, err = %w", err)
	}
	switch e.Type {
	case TypeChat, TypeReaction, TypeAdmit:
		return e, nil
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
}
