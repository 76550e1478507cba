package timeline

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var idRe = regexp.MustCompile(`^item-\d+-[0-9a-f]{9}$`)

func TestNewIDFormatAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		assert.Regexp(t, idRe, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestFallbackID(t *testing.T) {
	assert.Equal(t, "initial-0", FallbackID(0))
	assert.Equal(t, "initial-12", FallbackID(12))
}
