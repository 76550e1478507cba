package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/timelinekit/timeline/pkg/backup"
	"github.com/timelinekit/timeline/pkg/enhance"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/schema"
	"github.com/timelinekit/timeline/pkg/timeline"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ID: "a", Date: "2024-01-10", Title: "Wrote a retro", Action: "Wrote"},
		{ID: "b", Date: "2023-11-18", Title: "Spoke at a meetup", Emoji: "🎤", Excluded: true},
		{ID: "c", Date: "2023-05-01", Title: "Launched product", Description: "First public release."},
	}
}

func TestVisibleItems(t *testing.T) {
	items := sampleItems()

	got := visibleItems(items, false)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected visible items: %#v", got)
	}
	if all := visibleItems(items, true); !reflect.DeepEqual(all, items) {
		t.Fatalf("--all should keep every item.\nwant: %#v\ngot:  %#v", items, all)
	}
}

func TestWriteGrouped(t *testing.T) {
	var buf bytes.Buffer
	if err := writeGrouped(&buf, timeline.GroupByYear(sampleItems())); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"2024\n", "2023\n", "01-10", "🎤 Spoke at a meetup (excluded)", "First public release."} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "2024") > strings.Index(out, "2023") {
		t.Errorf("years out of order:\n%s", out)
	}
}

func TestWriteItemsHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := writeItems(&buf, sampleItems()[:1]); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "DATE") || !strings.HasPrefix(lines[1], "2024-01-10") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestStatsByYear(t *testing.T) {
	got := statsByYear(sampleItems())
	expect := []yearStat{
		{Year: "2024", Items: 1},
		{Year: "2023", Items: 2, Excluded: 1},
	}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("unexpected stats.\nwant: %#v\ngot:  %#v", expect, got)
	}

	var buf bytes.Buffer
	if err := writeStats(&buf, got, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "TOTAL") {
		t.Fatalf("missing total row:\n%s", buf.String())
	}
}

func TestShortIcon(t *testing.T) {
	tests := map[string]string{
		"/icon.png":                         "/icon.png",
		"https://example.com/me.png":        "https://example.com/me.png",
		"data:image/png;base64,iVBORw0KGgo": "data:image/png;base64,... (33 bytes)",
	}
	for in, want := range tests {
		if got := shortIcon(in); got != want {
			t.Errorf("shortIcon(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		if got := confirm(strings.NewReader(tc.input), &out, "Continue?"); got != tc.want {
			t.Errorf("confirm(%q) = %v, want %v", tc.input, got, tc.want)
		}
		if !strings.HasPrefix(out.String(), "Continue? [y/N]: ") {
			t.Errorf("unexpected prompt %q", out.String())
		}
	}
}

func TestImportErrorMessages(t *testing.T) {
	_, jsonErr := backup.Validate([]byte("{nope"))
	_, shapeErr := backup.Validate([]byte(`{"profile":{}}`))

	if msg := importError(jsonErr).Error(); !strings.Contains(msg, "not valid JSON") {
		t.Errorf("unexpected message for invalid JSON: %s", msg)
	}
	if msg := importError(shapeErr).Error(); !strings.Contains(msg, "not a timeline backup") {
		t.Errorf("unexpected message for wrong shape: %s", msg)
	}
	if !errors.Is(shapeErr, schema.ErrInvalidShape) {
		t.Errorf("expected a shape error, got %v", shapeErr)
	}
}

func TestImportPrompt(t *testing.T) {
	p := backup.Pending{Items: make([]model.Item, 3)}
	if got := importPrompt(p); !strings.Contains(got, "3 items from the file") {
		t.Errorf("unexpected prompt %q", got)
	}
	p.Profile = &model.Profile{}
	if got := importPrompt(p); !strings.Contains(got, "3 items and the profile") {
		t.Errorf("unexpected prompt %q", got)
	}
}

// recordingEnhancer tags every text it is asked about and remembers the context.
type recordingEnhancer struct {
	calls []string
}

func (r *recordingEnhancer) Enhance(_ context.Context, text string, kind enhance.Kind, tc *enhance.Context) string {
	r.calls = append(r.calls, fmt.Sprintf("%s|%s|%s", kind, text, tc.Title))
	if text == "" {
		return text
	}
	return "[" + text + "]"
}

func TestEnhancePatchOnlyTouchesChangedFields(t *testing.T) {
	title := "new title"
	patch := model.ItemPatch{Title: &title}
	current := model.Item{ID: "a", Date: "2024-01-10", Title: "old", Action: "Wrote"}

	r := &recordingEnhancer{}
	enhancePatch(context.Background(), r, patch.Apply(current), &patch)

	if *patch.Title != "[new title]" {
		t.Fatalf("title not enhanced: %q", *patch.Title)
	}
	if patch.Action != nil || patch.Description != nil {
		t.Fatalf("untouched fields must stay unset: %#v", patch)
	}
	expect := []string{"title|new title|new title"}
	if !reflect.DeepEqual(r.calls, expect) {
		t.Fatalf("unexpected calls.\nwant: %#v\ngot:  %#v", expect, r.calls)
	}
}

func TestEnhanceNewItem(t *testing.T) {
	in := model.NewItem{Date: "2024-01-10", Title: "retro", Action: "wrote"}
	enhanceNewItem(context.Background(), &recordingEnhancer{}, &in)

	expect := model.NewItem{Date: "2024-01-10", Title: "[retro]", Action: "[wrote]"}
	if in != expect {
		t.Fatalf("unexpected item.\nwant: %#v\ngot:  %#v", expect, in)
	}
}
