package meet

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMeetingCodeShape(t *testing.T) {
	shape := regexp.MustCompile(`^[0-9a-z]{3}-[0-9a-z]{4}-[0-9a-z]{3}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		code := NewMeetingCode()
		assert.Regexp(t, shape, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 100, "codes repeat far too often")
}
