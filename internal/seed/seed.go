// Package seed provides the items a fresh timeline starts with.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/schema"
)

//go:embed items.json
var embedded []byte

// Embedded returns the raw bundled seed.
func Embedded() []byte {
	return embedded
}

// Load reads and validates the seed at path, or the bundled seed when path
// is empty. Any invalid record fails the whole seed.
func Load(path string) ([]model.Item, error) {
	raw := embedded
	name := "bundled seed"
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		raw, err = os.ReadFile(expanded)
		if err != nil {
			return nil, fmt.Errorf("reading seed: %w", err)
		}
		name = expanded
	}

	items, err := schema.ParseSeed(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return items, nil
}
