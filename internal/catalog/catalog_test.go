package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/justestif/skate-sessions/internal/db"
)

func TestParse(t *testing.T) {
	data := []byte(`
tricks:
  - name: " Ollie "
    obstacle: flat
    stance: regular
    difficulty: 1
  - name: Kickflip
    obstacle: flat
    stance: regular
    difficulty: 3
  - name: 50-50
    obstacle: ledge
    stance: regular
    difficulty: 2
  - name: Kickflip
    obstacle: flat
    stance: regular
    difficulty: 4
  - name: Kickflip
    obstacle: flat
    stance: switch
    difficulty: 5
`)

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []db.Trick{
		{Name: "Ollie", Obstacle: "flat", Stance: "regular", Difficulty: 1},
		{Name: "Kickflip", Obstacle: "flat", Stance: "regular", Difficulty: 4},
		{Name: "50-50", Obstacle: "ledge", Stance: "regular", Difficulty: 2},
		{Name: "Kickflip", Obstacle: "flat", Stance: "switch", Difficulty: 5},
	}
	if len(got) != len(want) {
		t.Fatalf("Parse() returned %d tricks, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("trick %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse([]byte("tricks: []\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Parse() = %+v, want empty", got)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name:    "missing name",
			data:    "tricks:\n  - obstacle: flat\n    stance: regular\n    difficulty: 1\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "blank obstacle",
			data:    "tricks:\n  - name: Ollie\n    obstacle: '  '\n    stance: regular\n    difficulty: 1\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "missing stance",
			data:    "tricks:\n  - name: Ollie\n    obstacle: flat\n    difficulty: 1\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "zero difficulty",
			data:    "tricks:\n  - name: Ollie\n    obstacle: flat\n    stance: regular\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "malformed yaml",
			data: "tricks: [name: Ollie\n",
		},
		{
			name: "difficulty not a number",
			data: "tricks:\n  - name: Ollie\n    obstacle: flat\n    stance: regular\n    difficulty: easy\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tricks.yaml")
	if err := os.WriteFile(path, []byte("tricks:\n  - name: Ollie\n    obstacle: flat\n    stance: regular\n    difficulty: 1\n"), 0o644); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ollie" {
		t.Errorf("Load() = %+v", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() missing file error = %v, want os.ErrNotExist", err)
	}
}
