package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/tileserv/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
options:
  paths:
    mbtiles: ./tiles
domains:
  - tiles.example.com
styles:
  basic:
    style: styles/basic.json
    mbtiles: planet.mbtiles
  combined:
    style: styles/combined.json
    composite: [osm, contours]
data:
  osm:
    mbtiles: osm.mbtiles
    tilejson:
      name: OpenStreetMap
      attribution: "© OSM contributors"
  contours:
    mbtiles: /data/contours.mbtiles
composites:
  - [osm, contours]
`)

	cfg, err := config.NewLoader().LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "./tiles", cfg.Options.Paths.MBTiles)
	assert.Equal(t, []string{"tiles.example.com"}, cfg.Domains)
	assert.Equal(t, "planet.mbtiles", cfg.Styles["basic"].MBTiles)
	assert.Equal(t, []string{"osm", "contours"}, cfg.Styles["combined"].Composite)
	require.NotNil(t, cfg.Data["osm"].TileJSON)
	assert.Equal(t, "OpenStreetMap", cfg.Data["osm"].TileJSON.Name)
	assert.Equal(t, [][]string{{"osm", "contours"}}, cfg.Composites)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := config.NewLoader().LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "styles: [not: a: map")
		_, err := config.NewLoader().LoadConfig(path)
		assert.ErrorContains(t, err, "failed to parse YAML config")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cfg           config.Config
		expectedError string
	}{
		{
			name: "valid empty config",
			cfg:  config.Config{},
		},
		{
			name:          "empty domain",
			cfg:           config.Config{Domains: []string{""}},
			expectedError: "domains[0] is empty",
		},
		{
			name: "style without path",
			cfg: config.Config{
				Styles: map[string]config.StyleConfig{"bad": {}},
			},
			expectedError: `style "bad": style path is required`,
		},
		{
			name: "single member style composite",
			cfg: config.Config{
				Styles: map[string]config.StyleConfig{
					"bad": {Style: "s.json", Composite: []string{"only"}},
				},
			},
			expectedError: `style "bad": composite needs at least two members`,
		},
		{
			name: "single member composite",
			cfg: config.Config{
				Composites: [][]string{{"only"}},
			},
			expectedError: "composites[0]: at least two members required",
		},
		{
			name: "empty composite member",
			cfg: config.Config{
				Composites: [][]string{{"a", ""}},
			},
			expectedError: "composites[0]: empty member id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveMBTilesPath(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Options: config.Options{Paths: config.Paths{MBTiles: "/srv/tiles"}}}

	assert.Equal(t, filepath.Join("/srv/tiles", "osm.mbtiles"), cfg.ResolveMBTilesPath("osm.mbtiles"))
	assert.Equal(t, "/abs/osm.mbtiles", cfg.ResolveMBTilesPath("/abs/osm.mbtiles"))
	assert.Equal(t, "", cfg.ResolveMBTilesPath(""))

	noBase := config.Config{}
	assert.Equal(t, "osm.mbtiles", noBase.ResolveMBTilesPath("osm.mbtiles"))
}
