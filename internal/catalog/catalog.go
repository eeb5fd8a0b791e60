// Package catalog reads the trick catalog from YAML files.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/justestif/skate-sessions/internal/db"
)

// ErrInvalidCatalog is returned when a catalog file has a malformed entry.
var ErrInvalidCatalog = errors.New("invalid catalog")

// File is the top-level structure of a catalog file.
type File struct {
	Tricks []Entry `yaml:"tricks"`
}

// Entry is one trick in a catalog file.
type Entry struct {
	Name       string `yaml:"name"`
	Obstacle   string `yaml:"obstacle"`
	Stance     string `yaml:"stance"`
	Difficulty int    `yaml:"difficulty"`
}

// Load reads and parses the catalog file at path.
func Load(path string) ([]db.Trick, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML into tricks. Fields are trimmed and every
// entry needs a name, obstacle and stance plus a positive difficulty.
// When the same (name, obstacle, stance) appears more than once the last
// entry wins, keeping the position of the first.
func Parse(data []byte) ([]db.Trick, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	tricks := make([]db.Trick, 0, len(file.Tricks))
	seen := make(map[string]int, len(file.Tricks))

	for i, entry := range file.Tricks {
		trick := db.Trick{
			Name:       strings.TrimSpace(entry.Name),
			Obstacle:   strings.TrimSpace(entry.Obstacle),
			Stance:     strings.TrimSpace(entry.Stance),
			Difficulty: entry.Difficulty,
		}

		switch {
		case trick.Name == "":
			return nil, fmt.Errorf("%w: trick %d has no name", ErrInvalidCatalog, i+1)
		case trick.Obstacle == "":
			return nil, fmt.Errorf("%w: %s has no obstacle", ErrInvalidCatalog, trick.Name)
		case trick.Stance == "":
			return nil, fmt.Errorf("%w: %s has no stance", ErrInvalidCatalog, trick.Name)
		case trick.Difficulty < 1:
			return nil, fmt.Errorf("%w: %s has difficulty %d", ErrInvalidCatalog, trick.Name, trick.Difficulty)
		}

		key := trick.Name + "\x00" + trick.Obstacle + "\x00" + trick.Stance
		if at, ok := seen[key]; ok {
			tricks[at] = trick
			continue
		}
		seen[key] = len(tricks)
		tricks = append(tricks, trick)
	}

	return tricks, nil
}
