package source_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/tileserv/internal/config"
	"github.com/mapgrid/tileserv/internal/source"
)

func defByID(t *testing.T, defs []source.Definition, id string) source.Definition {
	t.Helper()
	for _, d := range defs {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("no definition with id %q", id)
	return source.Definition{}
}

func TestDefinitionsExplicitData(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Options: config.Options{Paths: config.Paths{MBTiles: "/srv/tiles"}},
		Data: map[string]config.DataConfig{
			"osm":    {MBTiles: "osm.mbtiles", TileJSON: &config.MetadataOverrides{Name: "OSM"}},
			"broken": {},
		},
	}

	defs, composites := source.Definitions(cfg)
	require.Len(t, defs, 1)
	assert.Empty(t, composites)

	osm := defByID(t, defs, "osm")
	assert.Equal(t, filepath.Join("/srv/tiles", "osm.mbtiles"), osm.Path)
	require.NotNil(t, osm.Overrides)
	assert.Equal(t, "OSM", osm.Overrides.Name)
}

func TestDefinitionsImplicitStyleSource(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Styles: map[string]config.StyleConfig{
			"style1": {Style: "styles/style1.json", MBTiles: "a.mbtiles"},
		},
	}

	defs, _ := source.Definitions(cfg)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].ID)
	assert.Equal(t, "a.mbtiles", defs[0].Path)
}

func TestDefinitionsAutoIDDisambiguation(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Data: map[string]config.DataConfig{
			"myset": {MBTiles: "explicit/myset.mbtiles"},
		},
		Styles: map[string]config.StyleConfig{
			// Sorted style order: s1 before s2.
			"s1": {Style: "s1.json", MBTiles: "one/myset.mbtiles"},
			"s2": {Style: "s2.json", MBTiles: "two/myset.mbtiles"},
		},
	}

	defs, _ := source.Definitions(cfg)
	require.Len(t, defs, 3)

	assert.Equal(t, "explicit/myset.mbtiles", defByID(t, defs, "myset").Path)
	assert.Equal(t, "one/myset.mbtiles", defByID(t, defs, "myset_").Path)
	assert.Equal(t, "two/myset.mbtiles", defByID(t, defs, "myset__").Path)
}

func TestDefinitionsSharedArchiveNotDuplicated(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Data: map[string]config.DataConfig{
			"osm": {MBTiles: "osm.mbtiles"},
		},
		Styles: map[string]config.StyleConfig{
			"s": {Style: "s.json", MBTiles: "osm.mbtiles"},
		},
	}

	defs, _ := source.Definitions(cfg)
	require.Len(t, defs, 1)
	assert.Equal(t, "osm", defs[0].ID)
}

func TestDefinitionsComposites(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Data: map[string]config.DataConfig{
			"a": {MBTiles: "a.mbtiles"},
			"b": {MBTiles: "b.mbtiles"},
		},
		Styles: map[string]config.StyleConfig{
			"combined": {Style: "c.json", Composite: []string{"a", "b"}},
		},
		Composites: [][]string{
			{"a", "b"}, // duplicate of the style request
			{"b", "a"}, // different order is a different composite
		},
	}

	_, composites := source.Definitions(cfg)
	assert.Equal(t, [][]string{{"a", "b"}, {"b", "a"}}, composites)
}
