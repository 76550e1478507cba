// Package backup moves the whole timeline (items and profile) to and from a
// single JSON snapshot file.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/schema"
	"github.com/timelinekit/timeline/pkg/timeline"
)

// ErrImportDeclined is returned when the confirmation callback refuses the
// overwrite.
var ErrImportDeclined = errors.New("import declined")

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is the export file layout.
type Snapshot struct {
	Items      []model.Item  `json:"items"`
	Profile    model.Profile `json:"profile"`
	ExportedAt string        `json:"exportedAt"`
}

// ItemStore is the part of the timeline store the manager needs.
type ItemStore interface {
	Items() []model.Item
	ReplaceAll(items []model.Item)
}

// ProfileStore is the part of the profile store the manager needs.
type ProfileStore interface {
	Get() model.Profile
	Set(p model.Profile)
}

// Pending describes an accepted import waiting for confirmation.
type Pending struct {
	Items []model.Item
	// Profile is nil when the file carries no profile.
	Profile *model.Profile
}

// Confirmer decides whether a validated import may overwrite current data.
type Confirmer func(p Pending) bool

// Result reports what an import replaced.
type Result struct {
	Items          int
	ProfileChanged bool
}

type Manager struct {
	items   ItemStore
	profile ProfileStore
	now     func() time.Time
}

func NewManager(items ItemStore, profile ProfileStore) *Manager {
	return &Manager{items: items, profile: profile, now: time.Now}
}

// Export captures the current items and profile.
func (m *Manager) Export() Snapshot {
	items := m.items.Items()
	if items == nil {
		items = []model.Item{}
	}
	return Snapshot{
		Items:      items,
		Profile:    m.profile.Get(),
		ExportedAt: m.now().UTC().Format(isoMillis),
	}
}

// Marshal renders a snapshot the way it is written to disk.
func Marshal(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Filename is the download name for a backup taken at t (local date).
func Filename(t time.Time) string {
	return fmt.Sprintf("timeline-backup-%s.json", t.Local().Format("2006-01-02"))
}

// WriteExport writes the current snapshot into dir and returns the path.
func (m *Manager) WriteExport(dir string) (string, error) {
	data, err := Marshal(m.Export())
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(m.now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	utils.Log.Debugf("[backup] wrote %s (%d bytes)", path, len(data))
	return path, nil
}

// Validate parses raw as an import payload without touching any store.
// It fails with schema.ErrInvalidJSON or schema.ErrInvalidShape.
func Validate(raw []byte) (Pending, error) {
	if !gjson.ValidBytes(raw) {
		return Pending{}, schema.ErrInvalidJSON
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Pending{}, &schema.ValidationError{Index: -1, Reason: "expected an object with an items array"}
	}

	itemsRes := root.Get("items")
	if !itemsRes.IsArray() {
		return Pending{}, &schema.ValidationError{Index: -1, Field: "items", Reason: "missing or not an array"}
	}
	items, err := schema.ItemsFromResult(itemsRes)
	if err != nil {
		return Pending{}, err
	}

	p := Pending{Items: uniqueIDs(items)}
	if pr := root.Get("profile"); pr.Exists() && pr.Type != gjson.Null {
		prof, err := schema.MergeProfileResult(model.Profile{}, pr)
		if err != nil {
			return Pending{}, err
		}
		p.Profile = &prof
	}
	return p, nil
}

// Import validates raw and, once confirm agrees, overwrites the items and,
// when present, the profile. Nothing is merged with existing data. On any
// error both stores are left untouched.
func (m *Manager) Import(raw []byte, confirm Confirmer) (Result, error) {
	p, err := Validate(raw)
	if err != nil {
		utils.Log.Debugf("[backup] import rejected: %v", err)
		return Result{}, err
	}
	if confirm != nil && !confirm(p) {
		return Result{}, ErrImportDeclined
	}

	m.items.ReplaceAll(p.Items)
	res := Result{Items: len(p.Items)}
	if p.Profile != nil {
		m.profile.Set(*p.Profile)
		res.ProfileChanged = true
	}
	return res, nil
}

// uniqueIDs gives records without an id the seed's positional id, and a
// fresh id to every repeat of an id already taken earlier in the file.
func uniqueIDs(items []model.Item) []model.Item {
	taken := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID != "" {
			taken[it.ID] = true
		}
	}

	seen := make(map[string]bool, len(items))
	out := make([]model.Item, len(items))
	for i, it := range items {
		switch {
		case it.ID == "":
			it.ID = timeline.FallbackID(i)
			for taken[it.ID] {
				it.ID = timeline.NewID()
			}
			taken[it.ID] = true
		case seen[it.ID]:
			utils.Log.Warnf("[backup] record %d repeats id %q, giving it a new one", i, it.ID)
			for taken[it.ID] {
				it.ID = timeline.NewID()
			}
			taken[it.ID] = true
		}
		seen[it.ID] = true
		out[i] = it
	}
	return out
}
