// Package timeline owns the ordered collection of timeline items.
//
// The working set held in memory is authoritative. Every mutation writes the
// whole collection to the storage backend afterwards; a failed write is
// logged and otherwise ignored.
package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/schema"
	"github.com/timelinekit/timeline/pkg/storage"
)

// ErrInvalidItem is returned by Add and Update when the resulting item lacks
// a title or a well-formed date.
var ErrInvalidItem = errors.New("invalid item")

// LoadSource tells how the working set was established by Load.
type LoadSource string

const (
	LoadedPersisted LoadSource = "persisted"
	LoadedSeed      LoadSource = "seed"
	// LoadedFallback means persisted data existed but could not be read or
	// parsed, so the seed was used instead.
	LoadedFallback LoadSource = "fallback"
)

type Store struct {
	mu      sync.RWMutex
	backend storage.Storage
	key     string
	items   []model.Item
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key the collection is written under.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithIDGenerator replaces the id generator used by Add.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

func NewStore(backend storage.Storage, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     storage.KeyItems,
		items:   []model.Item{},
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load establishes the working set. Persisted data, when present and
// parseable, is used verbatim. Without persisted data the seed is installed
// once, with fallback ids for records that have none. Unparseable persisted
// data is replaced by the seed. When the backend cannot be read at all the
// seed is only held in memory, so whatever is stored stays untouched.
func (s *Store) Load(seed []model.Item) LoadSource {
	raw, ok, err := s.backend.GetItem(s.key)
	if err != nil {
		utils.Log.Errorf("[timeline] failed to read stored items, using the seed in memory only: %v", err)
		s.mu.Lock()
		s.items = WithFallbackIDs(seed)
		s.mu.Unlock()
		return LoadedFallback
	}
	if !ok {
		utils.Log.Debugf("[timeline] no stored items, seeding %d items", len(seed))
		s.ReplaceAll(WithFallbackIDs(seed))
		return LoadedSeed
	}

	items, err := schema.ParseItems([]byte(raw))
	if err != nil {
		utils.Log.Errorf("[timeline] failed to parse stored items: %v", err)
		s.ReplaceAll(WithFallbackIDs(seed))
		return LoadedFallback
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	utils.Log.Debugf("[timeline] loaded %d stored items", len(items))
	return LoadedPersisted
}

// Items returns a copy of the working set in working order.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items in the working set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return model.Item{}, false
}

// Add appends a new item with a fresh id and excluded=false, then re-sorts
// the whole collection newest first.
func (s *Store) Add(in model.NewItem) (model.Item, error) {
	it := model.Item{
		Date:        in.Date,
		Title:       in.Title,
		Action:      in.Action,
		Description: in.Description,
		URL:         in.URL,
		ImageURL:    in.ImageURL,
		Emoji:       in.Emoji,
	}
	if err := schema.CheckItem(it); err != nil {
		return model.Item{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}

	s.mu.Lock()
	it.ID = s.uniqueID()
	it.Excluded = false
	s.items = append(s.items, it)
	SortByDateDesc(s.items)
	s.mu.Unlock()

	s.persist()
	return it, nil
}

// Update shallow-merges patch into the item with the given id. The item
// keeps its position even when its date changes. It reports whether the id
// was found; a miss changes nothing and writes nothing. A patch that would
// leave the item without a title or a valid date fails with ErrInvalidItem
// and is not applied.
func (s *Store) Update(id string, patch model.ItemPatch) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := patch.Apply(s.items[i])
	if err := schema.CheckItem(next); err != nil {
		s.mu.Unlock()
		return true, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	s.items[i] = next
	s.mu.Unlock()

	s.persist()
	return true, nil
}

// Delete removes the item with the given id. Deleting a missing id is a
// no-op; the return value reports whether something was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.persist()
	return true
}

// ReplaceAll swaps in items as the working set, in the given order.
func (s *Store) ReplaceAll(items []model.Item) {
	next := make([]model.Item, len(items))
	copy(next, items)

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()

	s.persist()
}

// Clear empties the working set.
func (s *Store) Clear() {
	s.ReplaceAll(nil)
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueID draws ids until one is unused. Callers hold s.mu.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) persist() {
	s.mu.RLock()
	data, err := json.Marshal(s.items)
	s.mu.RUnlock()
	if err != nil {
		utils.Log.Errorf("[timeline] failed to encode items: %v", err)
		return
	}
	if err := s.backend.SetItem(s.key, string(data)); err != nil {
		utils.Log.Errorf("[timeline] failed to save items: %v", err)
	}
}

// SortByDateDesc orders items newest first by their YYYY-MM-DD date.
// Items sharing a date keep their relative order.
func SortByDateDesc(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
}
