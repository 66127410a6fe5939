package scene

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed scenes/*.yaml scenes/scripts/*.tengo
var ScenesFS embed.FS

// Source reads scenes and scripts from Dir when present, falling back to the
// embedded copies.
type Source struct {
	Dir string
}

// Load returns the raw YAML for a scene name such as "kitchen".
func (s Source) Load(name string) ([]byte, error) {
	clean := cleanScenePath(name)
	if s.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return ScenesFS.ReadFile(path.Join("scenes", clean))
}

func (s Source) LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if s.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return ScenesFS.ReadFile(path.Join("scenes", clean))
}

// LoadSpec loads and parses a scene.
func (s Source) LoadSpec(name string) (Spec, error) {
	data, err := s.Load(name)
	if err != nil {
		return Spec{}, fmt.Errorf("scene: load %s: %w", name, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return Spec{}, fmt.Errorf("%s: %w", name, err)
	}
	return spec, nil
}

// ModTime reports the disk override's modification time.
func (s Source) ModTime(name string) (time.Time, bool) {
	if s.Dir == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(filepath.Join(s.Dir, filepath.FromSlash(cleanScenePath(name))))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// List names every available scene, disk and embedded, sorted.
func (s Source) List() ([]string, error) {
	seen := map[string]bool{}
	entries, err := fs.ReadDir(ScenesFS, "scenes")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() && isSpecFile(e.Name()) {
			seen[sceneName(e.Name())] = true
		}
	}
	if s.Dir != "" {
		disk, err := os.ReadDir(s.Dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		for _, e := range disk {
			if !e.IsDir() && isSpecFile(e.Name()) {
				seen[sceneName(e.Name())] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func sceneName(file string) string {
	return strings.TrimSuffix(strings.TrimSuffix(file, ".yaml"), ".yml")
}

func cleanScenePath(p string) string {
	if p == "" {
		return ""
	}
	s := filepath.ToSlash(p)
	if after, ok := strings.CutPrefix(s, "scenes/"); ok {
		s = after
	}
	if !isSpecFile(s) {
		s += ".yaml"
	}
	return s
}

func cleanScriptPath(p string) string {
	if p == "" {
		return ""
	}
	s := filepath.ToSlash(p)
	if after, ok := strings.CutPrefix(s, "scenes/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}
