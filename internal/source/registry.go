// Package source implements tile source resolution: discovering logical
// sources from configuration, opening their backing archives, deriving
// TileJSON metadata, and publishing the results into a registry read by the
// request handlers.
package source

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/mapgrid/tileserv/internal/tilejson"
)

// TileStore is the read interface onto one backing tile archive. It is
// implemented by the mbtiles reader; implementations must be safe for
// concurrent tile reads.
type TileStore interface {
	// TileJSON derives a metadata document from the archive's native metadata.
	TileJSON(ctx context.Context) (*tilejson.TileJSON, error)

	// Tile returns the blob at the given XYZ coordinate. A coordinate with no
	// data yields an error whose message contains "does not exist".
	Tile(ctx context.Context, z, x, y int) ([]byte, error)

	// ContentHeaders returns the HTTP headers for tiles from this archive.
	ContentHeaders() http.Header

	// Close releases the archive.
	Close() error
}

// Entry is a resolved logical source: its metadata plus the stores backing
// it. Entries are immutable once published to the registry.
type Entry struct {
	// ID is the logical identifier the entry is addressed by.
	ID string
	// Members lists the member ids in declaration order; length 1 for simple
	// sources, >1 for composites.
	Members []string
	// Metadata is the canonical TileJSON document. Readers must Clone it
	// before rewriting tile URLs.
	Metadata *tilejson.TileJSON

	stores []TileStore
}

// Tile reads the tile at z/x/y. For a composite entry the members are
// queried in declaration order and the non-empty blobs concatenated;
// concatenated gzip streams remain valid gzip and vector tile layers combine
// by concatenation. A member with no data at the coordinate is skipped.
func (e *Entry) Tile(ctx context.Context, z, x, y int) ([]byte, error) {
	if len(e.stores) == 1 {
		return e.stores[0].Tile(ctx, z, x, y)
	}

	var buf bytes.Buffer
	found := false
	for _, s := range e.stores {
		data, err := s.Tile(ctx, z, x, y)
		if err != nil {
			if IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		buf.Write(data)
		found = true
	}
	if !found {
		return nil, nil
	}
	return buf.Bytes(), nil
}

// ContentHeaders returns the tile headers for this entry. Composite members
// all share the vector format, so the first store's headers apply.
func (e *Entry) ContentHeaders() http.Header {
	if len(e.stores) == 0 {
		return http.Header{}
	}
	return e.stores[0].ContentHeaders()
}

// IsNotExist reports whether err signals a coordinate with no tile data, as
// opposed to a storage failure.
func IsNotExist(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

// Registry maps logical ids to resolved entries. Each key is written exactly
// once, during the startup resolution phase; afterwards it is only read,
// concurrently, by request handlers. Keys are never deleted.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Put publishes a fully-resolved entry. The first write for an id wins;
// Put reports whether the entry was stored, so re-resolution of an already
// published id is an observable no-op.
func (r *Registry) Put(e *Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.ID]; ok {
		return false
	}
	r.entries[e.ID] = e
	return true
}

// Get returns the entry for id, if resolved. It never blocks on in-flight
// resolution; an unpublished id is simply absent.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return e, ok
}

// List returns all resolved entries sorted by id.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of resolved entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
