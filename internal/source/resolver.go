package source

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mapgrid/tileserv/internal/config"
	"github.com/mapgrid/tileserv/internal/logger"
	"github.com/mapgrid/tileserv/internal/tilejson"
)

// minResolveWorkers is the floor for the resolution fan-out, so small hosts
// still open a few archives in parallel.
const minResolveWorkers = 4

// Opener opens the backing archive at path. Supplied by the storage engine;
// injected so resolution is testable without sqlite files.
type Opener func(path string) (TileStore, error)

// Definition describes one logical source to resolve.
type Definition struct {
	ID        string
	Path      string
	Overrides *config.MetadataOverrides
}

// Resolver opens backing archives, derives metadata, and publishes entries
// into the registry. Each backing archive is opened at most once, with
// concurrent opens of the same path deduplicated.
type Resolver struct {
	registry *Registry
	opener   Opener
	workers  int

	group  singleflight.Group
	mu     sync.Mutex
	stores map[string]TileStore
}

// NewResolver returns a resolver publishing into reg and opening archives
// via opener.
func NewResolver(reg *Registry, opener Opener) *Resolver {
	workers := runtime.NumCPU()
	if workers < minResolveWorkers {
		workers = minResolveWorkers
	}
	return &Resolver{
		registry: reg,
		opener:   opener,
		workers:  workers,
		stores:   make(map[string]TileStore),
	}
}

// ResolveAll resolves every definition with bounded parallelism and returns
// once all resolutions have completed. A failure is logged and isolates to
// its own entry; other entries keep resolving. Composite aggregation must be
// scheduled strictly after this returns.
func (r *Resolver) ResolveAll(ctx context.Context, defs []Definition) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, def := range defs {
		def := def
		g.Go(func() error {
			if err := r.Resolve(ctx, def); err != nil {
				logger.Errorf("Failed to resolve source %q (%s): %v", def.ID, def.Path, err)
			}
			// Resolution errors never abort sibling entries.
			return nil
		})
	}
	_ = g.Wait()
}

// Resolve opens the definition's archive, derives its metadata, and
// publishes the entry. Resolving an id that is already published is a no-op,
// so re-invocation is idempotent.
func (r *Resolver) Resolve(ctx context.Context, def Definition) error {
	if def.Path == "" {
		return fmt.Errorf("no mbtiles path configured")
	}

	store, err := r.openStore(def.Path)
	if err != nil {
		return err
	}

	meta, err := store.TileJSON(ctx)
	if err != nil {
		return fmt.Errorf("failed to derive metadata: %w", err)
	}

	applyForcedFields(meta, def.ID)
	applyOverrides(meta, def.Overrides)
	meta.EnsureCenter()

	entry := &Entry{
		ID:       def.ID,
		Members:  []string{def.ID},
		Metadata: meta,
		stores:   []TileStore{store},
	}
	if !r.registry.Put(entry) {
		logger.Debugf("Source %q already resolved, keeping existing entry", def.ID)
	}
	return nil
}

// openStore opens the archive at path exactly once. Concurrent callers for
// the same path share a single open; later callers get the cached store.
func (r *Resolver) openStore(path string) (TileStore, error) {
	v, err, _ := r.group.Do(path, func() (any, error) {
		r.mu.Lock()
		store, ok := r.stores[path]
		r.mu.Unlock()
		if ok {
			return store, nil
		}

		store, err := r.opener(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}

		r.mu.Lock()
		r.stores[path] = store
		r.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(TileStore), nil
}

// RegisterComposite publishes one composite entry combining the given member
// ids, which must all be resolved already. A member set of one is already
// served by its simple entry, so nothing is registered for it.
func (r *Resolver) RegisterComposite(members []string) error {
	if len(members) <= 1 {
		return nil
	}

	id := CompositeID(members)
	if existing, ok := r.registry.Get(id); ok {
		if len(existing.Members) > 1 {
			// Same member set declared twice resolves to the same entry.
			return nil
		}
		return fmt.Errorf("composite id %q collides with an existing source", id)
	}

	var (
		stores []TileStore
		docs   []*tilejson.TileJSON
	)
	for _, m := range members {
		e, ok := r.registry.Get(m)
		if !ok {
			return fmt.Errorf("composite %q: member %q is not resolved", id, m)
		}
		stores = append(stores, e.stores...)
		docs = append(docs, e.Metadata)
	}

	entry := &Entry{
		ID:       id,
		Members:  append([]string(nil), members...),
		Metadata: tilejson.Merge(id, docs...),
		stores:   stores,
	}
	r.registry.Put(entry)
	return nil
}

// RegisterComposites registers each composite request, logging and skipping
// the ones that fail. Call only after ResolveAll has returned.
func (r *Resolver) RegisterComposites(composites [][]string) {
	for _, members := range composites {
		if err := r.RegisterComposite(members); err != nil {
			logger.Errorf("Skipping composite %v: %v", members, err)
		}
	}
}

// Close closes every opened store.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for path, s := range r.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", path, err)
		}
	}
	return firstErr
}

// CompositeID derives the stable identifier for a member set: the member ids
// joined in declaration order.
func CompositeID(members []string) string {
	return strings.Join(members, ",")
}

func applyForcedFields(meta *tilejson.TileJSON, id string) {
	meta.TileJSON = tilejson.SpecVersion
	meta.Format = tilejson.FormatPBF
	meta.ID = id
	meta.Basename = id
	if meta.Name == "" {
		meta.Name = id
	}
}

func applyOverrides(meta *tilejson.TileJSON, o *config.MetadataOverrides) {
	if o == nil {
		return
	}
	if o.Name != "" {
		meta.Name = o.Name
	}
	if o.Description != "" {
		meta.Description = o.Description
	}
	if o.Attribution != "" {
		meta.Attribution = o.Attribution
	}
	if o.Version != "" {
		meta.Version = o.Version
	}
}
