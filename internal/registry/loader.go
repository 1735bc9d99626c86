package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"providerd/internal/common/fsutil"
	"providerd/pkg/types"
)

// manifestExts lists the manifest file extensions recognized by LoadDir.
var manifestExts = map[string]bool{".yaml": true, ".yml": true, ".json": true, ".toml": true}

// IsManifest reports whether name has a recognized manifest extension.
func IsManifest(name string) bool {
	return manifestExts[strings.ToLower(filepath.Ext(name))]
}

// LoadDir scans a directory for component manifests (*.yaml, *.yml, *.json, *.toml).
// Hidden files are skipped. A manifest without an id uses its file name without extension.
// Components in the uninstalled phase are omitted. The result is sorted by ID.
func LoadDir(dir string) ([]types.Component, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	seen := make(map[string]string)
	var comps []types.Component
	for _, e := range entries {
		if e.IsDir() { continue }
		name := e.Name()
		if strings.HasPrefix(name, ".") || !IsManifest(name) { continue }
		p := filepath.Join(abs, name)
		c, err := LoadManifest(p)
		if err != nil {
			return nil, err
		}
		if c.Phase == types.PhaseUninstalled { continue }
		if prev, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("duplicate component id %q in %s and %s", c.ID, prev, p)
		}
		seen[c.ID] = p
		comps = append(comps, c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })
	return comps, nil
}

// LoadManifest decodes one manifest file based on its extension.
func LoadManifest(path string) (types.Component, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Component{}, err
	}
	var m types.Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &m)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	case ".toml":
		err = toml.Unmarshal(b, &m)
	default:
		return types.Component{}, fmt.Errorf("unsupported manifest extension: %s", ext)
	}
	if err != nil {
		return types.Component{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if strings.TrimSpace(m.ID) == "" {
		m.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m.Component(path), nil
}
