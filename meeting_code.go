package meet

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const meetingCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewMeetingCode generates a shareable code in the xxx-xxxx-xxx shape used
// by meeting links. Codes are random, not registered anywhere; collisions
// are accepted the same way ad-hoc room names are.
func NewMeetingCode() string {
	var b strings.Builder
	for _, segment := range []int{3, 4, 3} {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < segment; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(meetingCodeAlphabet))))
			if err != nil {
				// crypto/rand only fails when the OS entropy source is broken.
				panic(err)
			}
			b.WriteByte(meetingCodeAlphabet[n.Int64()])
		}
	}
	return b.String()
}
