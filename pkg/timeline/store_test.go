package timeline

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/schema"
	"github.com/timelinekit/timeline/pkg/storage"
)

func strp(s string) *string { return &s }

func stored(t *testing.T, m *storage.Memory) []model.Item {
	t.Helper()
	raw, ok, err := m.GetItem(storage.KeyItems)
	require.NoError(t, err)
	require.True(t, ok, "items were never persisted")
	items, err := schema.ParseItems([]byte(raw))
	require.NoError(t, err)
	return items
}

// mustUpdate applies a patch that is expected to be valid.
func mustUpdate(t *testing.T, s *Store, id string, patch model.ItemPatch) bool {
	t.Helper()
	found, err := s.Update(id, patch)
	require.NoError(t, err)
	return found
}

func assertSortedDesc(t *testing.T, items []model.Item) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		require.GreaterOrEqual(t, items[i-1].Date, items[i].Date, "items not sorted newest first at %d", i)
	}
}

func TestScenarioSeedAddUpdate(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem)

	src := s.Load([]model.Item{{Date: "2023-05-01", Title: "Launched product"}})
	assert.Equal(t, LoadedSeed, src)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "initial-0", items[0].ID)
	assert.False(t, items[0].Excluded)

	added, err := s.Add(model.NewItem{Title: "Wrote a retro", Date: "2024-01-10"})
	require.NoError(t, err)

	items = s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Wrote a retro", items[0].Title)
	assert.Equal(t, "2024-01-10", items[0].Date)
	assert.Equal(t, "Launched product", items[1].Title)
	assert.Equal(t, "2023-05-01", items[1].Date)

	require.True(t, mustUpdate(t, s, added.ID, model.ItemPatch{Title: strp("Wrote a retrospective")}))

	after := s.Items()
	require.Len(t, after, 2)
	assert.Equal(t, added.ID, after[0].ID)
	assert.Equal(t, "Wrote a retrospective", after[0].Title)
	want := items[0]
	want.Title = "Wrote a retrospective"
	assert.Equal(t, want, after[0], "only the title may change")
	assert.Equal(t, items[1], after[1])

	assert.Equal(t, after, stored(t, mem))
}

func TestAddProperties(t *testing.T) {
	s := NewStore(storage.NewMemory())
	s.Load([]model.Item{
		{Date: "2021-03-01", Title: "a"},
		{Date: "2019-07-12", Title: "b"},
	})

	dates := []string{"2020-01-01", "2022-12-31", "2019-07-12", "1999-01-01", "2030-06-15"}
	seen := map[string]bool{}
	for _, it := range s.Items() {
		seen[it.ID] = true
	}

	for _, d := range dates {
		before := s.Len()
		added, err := s.Add(model.NewItem{Title: "on " + d, Date: d})
		require.NoError(t, err)

		assert.Equal(t, before+1, s.Len())
		assert.NotEmpty(t, added.ID)
		assert.False(t, seen[added.ID], "duplicate id %s", added.ID)
		seen[added.ID] = true
		assert.False(t, added.Excluded)
		assertSortedDesc(t, s.Items())
	}
}

func TestAddKeepsInsertionOrderForEqualDates(t *testing.T) {
	s := NewStore(storage.NewMemory())
	s.Load(nil)

	first, err := s.Add(model.NewItem{Title: "first", Date: "2024-01-01"})
	require.NoError(t, err)
	second, err := s.Add(model.NewItem{Title: "second", Date: "2024-01-01"})
	require.NoError(t, err)

	items := s.Items()
	assert.Equal(t, []string{first.ID, second.ID}, []string{items[0].ID, items[1].ID})
}

func TestAddRejectsInvalidInput(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem)
	s.Load(nil)
	writes := mem.Writes[storage.KeyItems]

	for _, in := range []model.NewItem{
		{Title: "", Date: "2024-01-01"},
		{Title: "   ", Date: "2024-01-01"},
		{Title: "no date"},
		{Title: "bad date", Date: "01/02/2024"},
	} {
		_, err := s.Add(in)
		assert.ErrorIs(t, err, ErrInvalidItem, "%+v", in)
	}
	assert.Zero(t, s.Len())
	assert.Equal(t, writes, mem.Writes[storage.KeyItems], "rejected adds must not persist")
}

func TestAddRetriesCollidingIDs(t *testing.T) {
	ids := []string{"dup", "dup", "fresh"}
	s := NewStore(storage.NewMemory(), WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	s.Load(nil)

	a, err := s.Add(model.NewItem{Title: "a", Date: "2024-01-01"})
	require.NoError(t, err)
	b, err := s.Add(model.NewItem{Title: "b", Date: "2024-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "dup", a.ID)
	assert.Equal(t, "fresh", b.ID)
}

// Update never re-sorts, even when the date moves an item out of order.
func TestUpdateDoesNotResort(t *testing.T) {
	s := NewStore(storage.NewMemory())
	s.Load([]model.Item{
		{ID: "new", Date: "2024-01-10", Title: "newest"},
		{ID: "mid", Date: "2022-01-10", Title: "middle"},
		{ID: "old", Date: "2020-01-10", Title: "oldest"},
	})

	require.True(t, mustUpdate(t, s, "old", model.ItemPatch{Date: strp("2025-01-01")}))

	items := s.Items()
	assert.Equal(t, []string{"new", "mid", "old"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, "2025-01-01", items[2].Date)
	assert.Equal(t, "oldest", items[2].Title)

	// The next add restores the order.
	_, err := s.Add(model.NewItem{Title: "x", Date: "2023-01-01"})
	require.NoError(t, err)
	assertSortedDesc(t, s.Items())
	assert.Equal(t, "old", s.Items()[0].ID)
}

func TestUpdateMissingIDIsNoop(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem)
	s.Load([]model.Item{{Date: "2023-05-01", Title: "Launched product"}})

	before, _, err := mem.GetItem(storage.KeyItems)
	require.NoError(t, err)
	writes := mem.Writes[storage.KeyItems]
	snapshot, err := json.Marshal(s.Items())
	require.NoError(t, err)

	assert.False(t, mustUpdate(t, s, "nope", model.ItemPatch{Title: strp("changed")}))

	after, err := json.Marshal(s.Items())
	require.NoError(t, err)
	assert.Equal(t, string(snapshot), string(after))

	raw, _, err := mem.GetItem(storage.KeyItems)
	require.NoError(t, err)
	assert.Equal(t, before, raw)
	assert.Equal(t, writes, mem.Writes[storage.KeyItems])
}

func TestUpdateRejectsInvalidResult(t *testing.T) {
	tests := []struct {
		name  string
		patch model.ItemPatch
	}{
		{"malformed date", model.ItemPatch{Date: strp("10/01/2024")}},
		{"impossible date", model.ItemPatch{Date: strp("2024-02-30")}},
		{"blank title", model.ItemPatch{Title: strp("")}},
		{"whitespace title", model.ItemPatch{Title: strp("   "), Action: strp("ignored")}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			mem := storage.NewMemory()
			s := NewStore(mem)
			s.Load([]model.Item{{Date: "2023-05-01", Title: "Launched product", Action: "Launched"}})
			before := s.Items()
			writes := mem.Writes[storage.KeyItems]

			found, err := s.Update("initial-0", tc.patch)
			assert.True(t, found)
			assert.ErrorIs(t, err, ErrInvalidItem)
			assert.Equal(t, before, s.Items(), "a rejected patch must not be applied")
			assert.Equal(t, writes, mem.Writes[storage.KeyItems])
			assert.Equal(t, "2023", GroupByYear(s.Items())[0].Year)
		})
	}
}

func TestUpdateExcludedFlag(t *testing.T) {
	s := NewStore(storage.NewMemory())
	s.Load([]model.Item{{Date: "2023-05-01", Title: "t"}})

	excluded := true
	require.True(t, mustUpdate(t, s, "initial-0", model.ItemPatch{Excluded: &excluded}))
	it, ok := s.Get("initial-0")
	require.True(t, ok)
	assert.True(t, it.Excluded)
	assert.Equal(t, "t", it.Title)
}

func TestDeleteIsIdempotent(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem)
	s.Load([]model.Item{
		{Date: "2023-05-01", Title: "a"},
		{Date: "2022-05-01", Title: "b"},
	})

	assert.True(t, s.Delete("initial-0"))
	assert.False(t, s.Delete("initial-0"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "initial-1", items[0].ID)
	assert.Equal(t, items, stored(t, mem))
}

func TestLoadUsesPersistedDataVerbatim(t *testing.T) {
	mem := storage.NewMemory()
	persisted := `[{"id":"x","date":"2020-01-01","title":"older","excluded":false},{"date":"2024-01-01","title":"no id","excluded":true}]`
	require.NoError(t, mem.SetItem(storage.KeyItems, persisted))

	s := NewStore(mem)
	src := s.Load([]model.Item{{Date: "2023-05-01", Title: "seed"}})
	assert.Equal(t, LoadedPersisted, src)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "older", items[0].Title, "persisted order is kept")
	assert.Equal(t, "", items[1].ID, "persisted records are not given ids")
	assert.True(t, items[1].Excluded)
}

func TestLoadKeepsPersistedEmptyCollection(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.SetItem(storage.KeyItems, `[]`))

	s := NewStore(mem)
	assert.Equal(t, LoadedPersisted, s.Load([]model.Item{{Date: "2023-05-01", Title: "seed"}}))
	assert.Zero(t, s.Len())
}

func TestLoadFallsBackOnCorruptData(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":   `[{"id":`,
		"wrong type": `{"items":[]}`,
	} {
		raw := raw
		t.Run(name, func(t *testing.T) {
			mem := storage.NewMemory()
			require.NoError(t, mem.SetItem(storage.KeyItems, raw))

			s := NewStore(mem)
			src := s.Load([]model.Item{{Date: "2023-05-01", Title: "seed"}, {ID: "kept", Date: "2022-01-01", Title: "seed 2"}})
			assert.Equal(t, LoadedFallback, src)

			items := s.Items()
			require.Len(t, items, 2)
			assert.Equal(t, "initial-0", items[0].ID)
			assert.Equal(t, "kept", items[1].ID)
		})
	}
}

func TestLoadFallsBackOnReadFailure(t *testing.T) {
	mem := storage.NewMemory()
	mem.FailReads = true

	s := NewStore(mem)
	assert.Equal(t, LoadedFallback, s.Load([]model.Item{{Date: "2023-05-01", Title: "seed"}}))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "initial-0", s.Items()[0].ID)
}

// Data that could not be read is still the user's data and must survive.
func TestLoadReadFailureKeepsStoredItems(t *testing.T) {
	mem := storage.NewMemory()
	persisted := `[{"id":"mine","date":"2024-02-02","title":"user entry","excluded":false}]`
	require.NoError(t, mem.SetItem(storage.KeyItems, persisted))
	writes := mem.Writes[storage.KeyItems]

	mem.FailReads = true
	s := NewStore(mem)
	assert.Equal(t, LoadedFallback, s.Load([]model.Item{{Date: "2023-05-01", Title: "Launched product"}}))
	mem.FailReads = false

	raw, ok, err := mem.GetItem(storage.KeyItems)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, persisted, raw)
	assert.Equal(t, writes, mem.Writes[storage.KeyItems])
}

func TestSeedFallbackIDsFollowSeedOrder(t *testing.T) {
	seed := make([]model.Item, 5)
	for i := range seed {
		seed[i] = model.Item{Date: fmt.Sprintf("202%d-01-01", i), Title: fmt.Sprint(i)}
	}
	seed[2].ID = "custom"

	s := NewStore(storage.NewMemory())
	s.Load(seed)

	items := s.Items()
	require.Len(t, items, len(seed))
	for i, it := range items {
		want := FallbackID(i)
		if i == 2 {
			want = "custom"
		}
		assert.Equal(t, want, it.ID)
		assert.Equal(t, seed[i].Title, it.Title)
	}
	assert.Empty(t, seed[0].ID, "seed slice must not be mutated")
}

func TestPersistenceFailureIsNotFatal(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem)
	s.Load(nil)
	mem.FailWrites = true

	added, err := s.Add(model.NewItem{Title: "still works", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.True(t, mustUpdate(t, s, added.ID, model.ItemPatch{Title: strp("edited")}))

	it, ok := s.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "edited", it.Title)
	assert.True(t, s.Delete(added.ID))
	assert.Zero(t, s.Len())
}

func TestEveryMutationPersists(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem)
	s.Load(nil)

	added, err := s.Add(model.NewItem{Title: "a", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Len(t, stored(t, mem), 1)

	mustUpdate(t, s, added.ID, model.ItemPatch{Title: strp("b")})
	assert.Equal(t, "b", stored(t, mem)[0].Title)

	s.ReplaceAll([]model.Item{{ID: "r1", Date: "2020-01-01", Title: "r"}, {ID: "r2", Date: "2021-01-01", Title: "s"}})
	got := stored(t, mem)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID, "ReplaceAll keeps the given order")

	s.Delete("r1")
	assert.Len(t, stored(t, mem), 1)

	s.Clear()
	raw, _, err := mem.GetItem(storage.KeyItems)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestItemsReturnsCopy(t *testing.T) {
	s := NewStore(storage.NewMemory())
	s.Load([]model.Item{{Date: "2023-05-01", Title: "orig"}})

	items := s.Items()
	items[0].Title = "mutated"
	it, _ := s.Get("initial-0")
	assert.Equal(t, "orig", it.Title)
}

func TestStoreCustomKey(t *testing.T) {
	mem := storage.NewMemory()
	s := NewStore(mem, WithKey("other"))
	s.Load([]model.Item{{Date: "2023-05-01", Title: "orig"}})

	_, ok, err := mem.GetItem("other")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = mem.GetItem(storage.KeyItems)
	require.NoError(t, err)
	assert.False(t, ok)
}
