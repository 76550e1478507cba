// Package profile holds the single hero profile record.
package profile

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/schema"
	"github.com/timelinekit/timeline/pkg/storage"
)

// Default is the record used before anything has been saved and after Reset.
func Default() model.Profile {
	return model.Profile{
		Title:       "Hi, I'm catnose",
		Description: "Designer, developer, maker, dog & cat lover.",
		IconURL:     "/icon.png",
	}
}

type Store struct {
	mu      sync.RWMutex
	backend storage.Storage
	key     string
	current model.Profile
}

func NewStore(backend storage.Storage) *Store {
	return &Store{
		backend: backend,
		key:     storage.KeyProfile,
		current: Default(),
	}
}

// Load reads the stored record and overlays it on Default, so fields the
// stored record lacks keep their default value. Missing or unreadable data
// leaves the default in place. Load never writes.
func (s *Store) Load() {
	next := Default()
	raw, ok, err := s.backend.GetItem(s.key)
	switch {
	case err != nil:
		utils.Log.Errorf("[profile] failed to read stored profile: %v", err)
	case ok:
		merged, perr := schema.MergeProfile(next, []byte(raw))
		if perr != nil {
			utils.Log.Errorf("[profile] failed to parse stored profile: %v", perr)
		} else {
			next = merged
		}
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// Get returns the current record.
func (s *Store) Get() model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the whole record.
func (s *Store) Set(p model.Profile) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	s.persist(p)
}

// Update shallow-merges patch into the current record and returns the result.
func (s *Store) Update(patch model.ProfilePatch) model.Profile {
	s.mu.Lock()
	s.current = patch.Apply(s.current)
	p := s.current
	s.mu.Unlock()
	s.persist(p)
	return p
}

// Reset restores Default.
func (s *Store) Reset() {
	s.Set(Default())
}

func (s *Store) persist(p model.Profile) {
	data, err := json.Marshal(p)
	if err != nil {
		utils.Log.Errorf("[profile] failed to encode profile: %v", err)
		return
	}
	if err := s.backend.SetItem(s.key, string(data)); err != nil {
		utils.Log.Errorf("[profile] failed to save profile: %v", err)
	}
}

// IconDataURL encodes image bytes as a data URL suitable for IconURL.
func IconDataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("icon: empty file")
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("icon: %s is not an image", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
