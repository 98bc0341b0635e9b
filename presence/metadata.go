package presence

import (
	"encoding/json"

	"github.com/classytamil/Go-Meet/admission"
	log "github.com/sirupsen/logrus"
)

const metadataVersion = 1

// Metadata is the self-published blob attached to a participant's presence
// record. It is untrusted remote input: hand raise and admission status are
// UI-only signals, never track truth. Peers that predate a field simply omit
// it, so every field defaults to the pre-protocol behavior (status absent
// means active).
type Metadata struct {
	Version      int              `json:"v,omitempty"`
	IsHandRaised bool             `json:"isHandRaised,omitempty"`
	Status       admission.Status `json:"status,omitempty"`
	IsHost       bool             `json:"isHost,omitempty"`
}

// ParseMetadata never fails: malformed or missing JSON is treated as an
// empty blob. Unknown fields are ignored.
func ParseMetadata(raw string) Metadata {
	if len(raw) == 0 {
		return Metadata{}
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		log.WithError(err).Debugf("malformed participant metadata: %v", raw)
		return Metadata{}
	}
	return m
}

func (m Metadata) Encode() string {
	m.Version = metadataVersion
	data, err := json.Marshal(&m)
	if err != nil {
		log.WithError(err).Error("cannot marshal metadata")
		return "{}"
	}
	return string(data)
}
