package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timelinekit/timeline/pkg/model"
)

const idSuffixLen = 9

// NewID returns item-<unix millis>-<9 random chars>.
func NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]
	return fmt.Sprintf("item-%d-%s", time.Now().UnixMilli(), suffix)
}

// FallbackID is the stable id given to the seed record at index i when it
// carries none.
func FallbackID(i int) string {
	return fmt.Sprintf("initial-%d", i)
}

// WithFallbackIDs returns a copy of seed where every record without an id
// gets FallbackID of its position.
func WithFallbackIDs(seed []model.Item) []model.Item {
	out := make([]model.Item, len(seed))
	for i, it := range seed {
		if it.ID == "" {
			it.ID = FallbackID(i)
		}
		out[i] = it
	}
	return out
}
