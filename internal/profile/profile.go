// Package profile persists saved defaults for invocation flags.
package profile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Profile holds saveable CLI options. Scalar fields are pointers so a
// saved false or empty string is distinguishable from "not set".
type Profile struct {
	Streams []string `toml:"streams,omitempty"`
	Arch    *string  `toml:"arch,omitempty"`
	Type    *string  `toml:"type,omitempty"`
	DryRun  *bool    `toml:"dry-run,omitempty"`
	Verbose *bool    `toml:"verbose,omitempty"`
	LogFile *string  `toml:"log-file,omitempty"`
}

// Dir returns the profiles directory under the per-user config dir.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "temurin-updater", "profiles")
}

// Load reads a named profile from the profiles directory.
func Load(name string) (*Profile, error) {
	return loadFrom(Dir(), name)
}

// Save writes a profile to the profiles directory, creating it if needed.
func Save(name string, p *Profile) error {
	return saveTo(Dir(), name, p)
}

// List returns the names of all saved profiles.
func List() ([]string, error) {
	return listIn(Dir())
}

// Delete removes a named profile.
func Delete(name string) error {
	return deleteFrom(Dir(), name)
}

func loadFrom(dir, name string) (*Profile, error) {
	path := filepath.Join(dir, name+".toml")
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("loading profile %q: %w", name, err)
	}
	return &p, nil
}

func saveTo(dir, name string, p *Profile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profiles directory: %w", err)
	}
	path := filepath.Join(dir, name+".toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating profile file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return nil
}

func listIn(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		if strings.HasSuffix(d.Name(), ".toml") {
			names = append(names, strings.TrimSuffix(d.Name(), ".toml"))
		}
		return nil
	})
	if err != nil && os.IsNotExist(err) {
		return nil, nil
	}
	return names, err
}

func deleteFrom(dir, name string) error {
	path := filepath.Join(dir, name+".toml")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting profile %q: %w", name, err)
	}
	return nil
}
