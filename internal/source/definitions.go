package source

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mapgrid/tileserv/internal/config"
	"github.com/mapgrid/tileserv/internal/logger"
)

// Definitions derives the logical sources and composite requests declared by
// the configuration.
//
// Explicit `data` entries bind their own id. A style referencing an archive
// with no explicit entry creates an implicit source whose id is derived from
// the archive basename, suffixed with "_" until unique. Iteration is in
// sorted order so the assigned ids are deterministic for a given config.
func Definitions(cfg *config.Config) (defs []Definition, composites [][]string) {
	taken := make(map[string]struct{})
	byPath := make(map[string]string) // archive path -> logical id

	for _, id := range sortedKeys(cfg.Data) {
		d := cfg.Data[id]
		if d.MBTiles == "" {
			logger.Errorf("Skipping data source %q: no mbtiles path configured", id)
			continue
		}
		path := cfg.ResolveMBTilesPath(d.MBTiles)
		defs = append(defs, Definition{ID: id, Path: path, Overrides: d.TileJSON})
		taken[id] = struct{}{}
		byPath[path] = id
	}

	for _, name := range sortedKeys(cfg.Styles) {
		s := cfg.Styles[name]
		if len(s.Composite) > 1 {
			composites = append(composites, s.Composite)
		}
		if s.MBTiles == "" {
			continue
		}
		path := cfg.ResolveMBTilesPath(s.MBTiles)
		if _, ok := byPath[path]; ok {
			// Archive already bound to a logical source.
			continue
		}
		id := assignID(baseID(path), taken)
		defs = append(defs, Definition{ID: id, Path: path})
		taken[id] = struct{}{}
		byPath[path] = id
	}

	composites = append(composites, cfg.Composites...)
	return defs, dedupeComposites(composites)
}

// baseID derives a logical id from an archive path: the basename with its
// extension stripped.
func baseID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// assignID disambiguates id against already-assigned ids by appending "_"
// until unique.
func assignID(id string, taken map[string]struct{}) string {
	for {
		if _, ok := taken[id]; !ok {
			return id
		}
		id += "_"
	}
}

func dedupeComposites(in [][]string) [][]string {
	seen := make(map[string]struct{})
	var out [][]string
	for _, members := range in {
		key := CompositeID(members)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, members)
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
