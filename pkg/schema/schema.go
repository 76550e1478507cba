// Package schema is the parse-or-reject boundary for every piece of
// external JSON: the bundled seed, data read back from storage, and
// user-supplied backup files.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/timelinekit/timeline/pkg/model"
)

var (
	// ErrInvalidJSON means the input is not JSON at all.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrInvalidShape means the input is JSON but not the expected structure.
	ErrInvalidShape = errors.New("invalid data shape")
)

// ValidationError describes why a record was rejected. Index is -1 when the
// problem is not tied to a single record.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Index >= 0 {
		fmt.Fprintf(&b, "record %d", e.Index)
	}
	if e.Field != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		fmt.Fprintf(&b, "field %q", e.Field)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrInvalidShape }

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ParseItems accepts a JSON array of item-shaped objects. Only the field
// types are checked; see CheckItem for content rules.
func ParseItems(raw []byte) ([]model.Item, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return ItemsFromResult(gjson.ParseBytes(raw))
}

// ParseSeed accepts the bundled seed: ParseItems plus CheckItem on every
// record. The first failing record aborts the parse.
func ParseSeed(raw []byte) ([]model.Item, error) {
	items, err := ParseItems(raw)
	if err != nil {
		return nil, err
	}
	for i, it := range items {
		if err := CheckItem(it); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Index = i
			}
			return nil, err
		}
	}
	return items, nil
}

// CheckItem enforces the content rules of an item: a non-blank title and a
// well-formed date.
func CheckItem(it model.Item) error {
	if strings.TrimSpace(it.Title) == "" {
		return &ValidationError{Index: -1, Field: "title", Reason: "must not be empty"}
	}
	if !ValidDate(it.Date) {
		return &ValidationError{Index: -1, Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", it.Date)}
	}
	return nil
}

// ItemsFromResult decodes an already-parsed JSON value as an item array.
func ItemsFromResult(r gjson.Result) ([]model.Item, error) {
	if !r.IsArray() {
		return nil, &ValidationError{Index: -1, Reason: "expected an array of items"}
	}
	items := []model.Item{}
	var err error
	r.ForEach(func(_, value gjson.Result) bool {
		var it model.Item
		it, err = itemFromResult(len(items), value)
		if err != nil {
			return false
		}
		items = append(items, it)
		return true
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func itemFromResult(idx int, r gjson.Result) (model.Item, error) {
	if !r.IsObject() {
		return model.Item{}, &ValidationError{Index: idx, Reason: "expected an object"}
	}
	var it model.Item
	required := []struct {
		name string
		dst  *string
	}{
		{"date", &it.Date},
		{"title", &it.Title},
	}
	for _, f := range required {
		v := r.Get(f.name)
		if !v.Exists() || v.Type != gjson.String {
			return model.Item{}, &ValidationError{Index: idx, Field: f.name, Reason: "required string"}
		}
		*f.dst = v.Str
	}

	optional := []struct {
		name string
		dst  *string
	}{
		{"id", &it.ID},
		{"action", &it.Action},
		{"description", &it.Description},
		{"url", &it.URL},
		{"imageUrl", &it.ImageURL},
		{"emoji", &it.Emoji},
	}
	for _, f := range optional {
		v := r.Get(f.name)
		switch {
		case !v.Exists() || v.Type == gjson.Null:
		case v.Type == gjson.String:
			*f.dst = v.Str
		default:
			return model.Item{}, &ValidationError{Index: idx, Field: f.name, Reason: "must be a string"}
		}
	}

	switch v := r.Get("excluded"); v.Type {
	case gjson.True:
		it.Excluded = true
	case gjson.False, gjson.Null:
	default:
		return model.Item{}, &ValidationError{Index: idx, Field: "excluded", Reason: "must be a boolean"}
	}
	return it, nil
}

// MergeProfile overlays the string fields present in raw onto base.
// Fields raw does not mention keep the base value.
func MergeProfile(base model.Profile, raw []byte) (model.Profile, error) {
	if !gjson.ValidBytes(raw) {
		return base, ErrInvalidJSON
	}
	return MergeProfileResult(base, gjson.ParseBytes(raw))
}

// MergeProfileResult is MergeProfile for an already-parsed JSON value.
func MergeProfileResult(base model.Profile, r gjson.Result) (model.Profile, error) {
	if !r.IsObject() {
		return base, &ValidationError{Index: -1, Reason: "expected a profile object"}
	}
	out := base
	fields := []struct {
		name string
		dst  *string
	}{
		{"title", &out.Title},
		{"description", &out.Description},
		{"iconUrl", &out.IconURL},
	}
	for _, f := range fields {
		v := r.Get(f.name)
		switch {
		case !v.Exists() || v.Type == gjson.Null:
		case v.Type == gjson.String:
			*f.dst = v.Str
		default:
			return base, &ValidationError{Index: -1, Field: f.name, Reason: "must be a string"}
		}
	}
	return out, nil
}
