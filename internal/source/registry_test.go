package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/tileserv/internal/source"
	"github.com/mapgrid/tileserv/internal/tilejson"
)

func TestRegistryPutFirstWriteWins(t *testing.T) {
	t.Parallel()

	reg := source.NewRegistry()

	first := &source.Entry{ID: "osm", Metadata: &tilejson.TileJSON{Name: "first"}}
	second := &source.Entry{ID: "osm", Metadata: &tilejson.TileJSON{Name: "second"}}

	assert.True(t, reg.Put(first))
	assert.False(t, reg.Put(second))

	got, ok := reg.Get("osm")
	require.True(t, ok)
	assert.Equal(t, "first", got.Metadata.Name)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGetAbsent(t *testing.T) {
	t.Parallel()

	reg := source.NewRegistry()
	_, ok := reg.Get("nope")
	assert.False(t, ok)
}

func TestRegistryListSorted(t *testing.T) {
	t.Parallel()

	reg := source.NewRegistry()
	for _, id := range []string{"zebra", "alpha", "osm"} {
		reg.Put(&source.Entry{ID: id, Metadata: &tilejson.TileJSON{}})
	}

	entries := reg.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].ID)
	assert.Equal(t, "osm", entries[1].ID)
	assert.Equal(t, "zebra", entries[2].ID)
}
