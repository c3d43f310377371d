package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// overlayPaths returns the files that make up a config named `name`, in order
// of increasing priority.
// ex. config.json5 -> config.json5, config.local.json5
func overlayPaths(name string) []string {
	dirname := filepath.Dir(name)
	basename := filepath.Base(name)

	prefix, ext := basename, ""
	if i := strings.LastIndex(basename, "."); i >= 0 {
		prefix, ext = basename[:i], basename[i+1:]
	}

	local := fmt.Sprintf("%s.local", prefix)
	if ext != "" {
		local = fmt.Sprintf("%s.%s", local, ext)
	}
	return []string{name, filepath.Join(dirname, local)}
}

// ReadConfig reads a json5 configuration file, `name` should come with a file extension.
// the following files are merged, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// os.ErrNotExist is returned if neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	for _, path := range overlayPaths(name) {
		contents, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return out, err
		}
		if len(contents) == 0 {
			continue
		}

		if !found {
			err = json5.Unmarshal(contents, &out)
			if err != nil {
				return out, fmt.Errorf("parse %s: %w", path, err)
			}
			found = true
			continue
		}

		var override T
		err = json5.Unmarshal(contents, &override)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", path, err)
		}
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", path)
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it goes up the filesystem from the cwd
// until the root to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return defaultOut, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return defaultOut, os.ErrNotExist
		}
		current = parent
	}
}
