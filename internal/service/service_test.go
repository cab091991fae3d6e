package service_test

import (
	"context"
	"crypto/md5" // #nosec G501 -- verifying the content-addressing property
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mapgrid/tileserv/internal/service"
	"github.com/mapgrid/tileserv/internal/service/mocks"
	"github.com/mapgrid/tileserv/internal/source"
	"github.com/mapgrid/tileserv/internal/tilejson"
)

// fakeStore is an in-memory TileStore.
type fakeStore struct {
	meta      *tilejson.TileJSON
	tiles     map[string][]byte
	tileErr   error
	tileCalls atomic.Int64
}

func (f *fakeStore) TileJSON(_ context.Context) (*tilejson.TileJSON, error) {
	return f.meta.Clone(), nil
}

func (f *fakeStore) Tile(_ context.Context, z, x, y int) ([]byte, error) {
	f.tileCalls.Add(1)
	if f.tileErr != nil {
		return nil, f.tileErr
	}
	key := fmt.Sprintf("%d/%d/%d", z, x, y)
	data, ok := f.tiles[key]
	if !ok {
		return nil, fmt.Errorf("tile does not exist: %s", key)
	}
	return data, nil
}

func (f *fakeStore) ContentHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/x-protobuf")
	h.Set("Content-Encoding", "gzip")
	return h
}

func (f *fakeStore) Close() error { return nil }

// newTestRegistry resolves one source "osm" (zoom 2..14) backed by store.
func newTestRegistry(t *testing.T, store *fakeStore) *source.Registry {
	t.Helper()

	reg := source.NewRegistry()
	resolver := source.NewResolver(reg, func(string) (source.TileStore, error) {
		return store, nil
	})
	require.NoError(t, resolver.Resolve(context.Background(), source.Definition{
		ID: "osm", Path: "osm.mbtiles",
	}))
	return reg
}

func newOSMStore() *fakeStore {
	return &fakeStore{
		meta: &tilejson.TileJSON{
			Name:    "OpenStreetMap",
			MinZoom: 2,
			MaxZoom: 14,
			Bounds:  []float64{-10, -10, 10, 10},
		},
		tiles: map[string][]byte{
			"5/4/7": []byte("tile-bytes"),
		},
	}
}

func TestGetTile(t *testing.T) {
	t.Parallel()

	store := newOSMStore()
	svc := service.NewService(newTestRegistry(t, store))

	data, headers, err := svc.GetTile(context.Background(), "osm", 5, 4, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("tile-bytes"), data)

	assert.Equal(t, "application/x-protobuf", headers.Get("Content-Type"))
	assert.Equal(t, "gzip", headers.Get("Content-Encoding"))

	sum := md5.Sum(data) // #nosec G401
	assert.Equal(t, base64.StdEncoding.EncodeToString(sum[:]), headers.Get("Content-MD5"))
}

func TestGetTileOutOfBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		z, x, y int
	}{
		{name: "below minzoom", z: 1, x: 0, y: 0},
		{name: "above maxzoom", z: 15, x: 0, y: 0},
		{name: "negative x", z: 5, x: -1, y: 0},
		{name: "negative y", z: 5, x: 0, y: -1},
		{name: "x past grid", z: 5, x: 32, y: 0},
		{name: "y past grid", z: 5, x: 0, y: 32},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newOSMStore()
			svc := service.NewService(newTestRegistry(t, store))

			_, _, err := svc.GetTile(context.Background(), "osm", tt.z, tt.x, tt.y)
			assert.ErrorIs(t, err, service.ErrOutOfBounds)
			// The storage adapter must never be consulted for rejected coordinates.
			assert.Equal(t, int64(0), store.tileCalls.Load())
		})
	}
}

func TestGetTileUnknownSource(t *testing.T) {
	t.Parallel()

	store := newOSMStore()
	svc := service.NewService(newTestRegistry(t, store))

	_, _, err := svc.GetTile(context.Background(), "ghost", 5, 4, 7)
	assert.ErrorIs(t, err, service.ErrSourceNotFound)
	assert.Equal(t, int64(0), store.tileCalls.Load())
}

func TestGetTileNotFound(t *testing.T) {
	t.Parallel()

	store := newOSMStore()
	svc := service.NewService(newTestRegistry(t, store))

	_, _, err := svc.GetTile(context.Background(), "osm", 6, 1, 1)
	assert.ErrorIs(t, err, service.ErrTileNotFound)
	// The adapter's message survives for the response body.
	assert.EqualError(t, err, "tile does not exist: 6/1/1")
}

func TestGetTileEmptyBlob(t *testing.T) {
	t.Parallel()

	store := newOSMStore()
	store.tiles["6/2/2"] = nil
	svc := service.NewService(newTestRegistry(t, store))

	_, _, err := svc.GetTile(context.Background(), "osm", 6, 2, 2)
	assert.ErrorIs(t, err, service.ErrTileNotFound)
	assert.EqualError(t, err, "Not found")
}

func TestGetTileStorageError(t *testing.T) {
	t.Parallel()

	store := newOSMStore()
	store.tileErr = errors.New("database is locked")
	svc := service.NewService(newTestRegistry(t, store))

	_, _, err := svc.GetTile(context.Background(), "osm", 5, 4, 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrTileNotFound)
	assert.EqualError(t, err, "database is locked")
}

func TestGetTileJSON(t *testing.T) {
	t.Parallel()

	store := newOSMStore()
	reg := newTestRegistry(t, store)
	svc := service.NewService(reg)

	req := service.RequestHost{Scheme: "https", Host: "maps.example.com"}
	doc, err := svc.GetTileJSON(context.Background(), "osm", req)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://maps.example.com/vector/osm/{z}/{x}/{y}.pbf"}, doc.Tiles)
	assert.Equal(t, "OpenStreetMap", doc.Name)

	// The returned document is a deep copy of the registry's canonical one.
	doc.Name = "mutated"
	doc.Bounds[0] = -999
	entry, ok := reg.Get("osm")
	require.True(t, ok)
	assert.Equal(t, "OpenStreetMap", entry.Metadata.Name)
	assert.Equal(t, float64(-10), entry.Metadata.Bounds[0])
}

func TestGetTileJSONDomains(t *testing.T) {
	t.Parallel()

	svc := service.NewService(newTestRegistry(t, newOSMStore()),
		service.WithDomains([]string{"a.tiles.example.com", "b.tiles.example.com"}))

	doc, err := svc.GetTileJSON(context.Background(), "osm",
		service.RequestHost{Scheme: "http", Host: "ignored.example.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"http://a.tiles.example.com/vector/osm/{z}/{x}/{y}.pbf",
		"http://b.tiles.example.com/vector/osm/{z}/{x}/{y}.pbf",
	}, doc.Tiles)
}

func TestGetTileJSONUnknownSource(t *testing.T) {
	t.Parallel()

	svc := service.NewService(newTestRegistry(t, newOSMStore()))
	_, err := svc.GetTileJSON(context.Background(), "ghost", service.RequestHost{Scheme: "http", Host: "h"})
	assert.ErrorIs(t, err, service.ErrSourceNotFound)
}

func TestListTileJSON(t *testing.T) {
	t.Parallel()

	reg := source.NewRegistry()
	resolver := source.NewResolver(reg, func(string) (source.TileStore, error) {
		return newOSMStore(), nil
	})
	resolver.ResolveAll(context.Background(), []source.Definition{
		{ID: "beta", Path: "beta.mbtiles"},
		{ID: "alpha", Path: "alpha.mbtiles"},
	})

	svc := service.NewService(reg)
	docs, err := svc.ListTileJSON(context.Background(), service.RequestHost{Scheme: "http", Host: "localhost"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].ID)
	assert.Equal(t, "beta", docs[1].ID)
	assert.Equal(t, []string{"http://localhost/vector/alpha/{z}/{x}/{y}.pbf"}, docs[0].Tiles)
}

func TestListCatalog(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	raster := mocks.NewMockRasterCatalog(ctrl)
	raster.EXPECT().ListTileJSON(gomock.Any(), gomock.Any()).Return([]*tilejson.TileJSON{
		{ID: "satellite", Format: "png"},
	}, nil)

	svc := service.NewService(newTestRegistry(t, newOSMStore()),
		service.WithRasterCatalog(raster))

	docs, err := svc.ListCatalog(context.Background(), service.RequestHost{Scheme: "http", Host: "localhost"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "osm", docs[0].ID)
	assert.Equal(t, "satellite", docs[1].ID)
}

func TestListCatalogWithoutRaster(t *testing.T) {
	t.Parallel()

	svc := service.NewService(newTestRegistry(t, newOSMStore()))
	docs, err := svc.ListCatalog(context.Background(), service.RequestHost{Scheme: "http", Host: "localhost"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	svc := service.NewService(newTestRegistry(t, newOSMStore()))
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	empty := service.NewService(source.NewRegistry())
	assert.ErrorContains(t, empty.CheckReadiness(context.Background()), "no tile sources resolved")
}
