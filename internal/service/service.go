// Package service provides the business logic for the tile API: registry
// lookups, coordinate validation, content addressing, and per-request
// TileJSON URL templating.
package service

import (
	"context"
	"crypto/md5" // #nosec G501 -- content addressing per TileJSON convention, not cryptographic
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/mapgrid/tileserv/internal/source"
	"github.com/mapgrid/tileserv/internal/tilejson"
)

var (
	// ErrSourceNotFound is returned when no logical source is registered
	// under the requested id.
	ErrSourceNotFound = errors.New("source not found")
	// ErrOutOfBounds is returned when a tile coordinate falls outside the
	// source's zoom range or the tile grid.
	ErrOutOfBounds = errors.New("tile out of bounds")
	// ErrTileNotFound is returned when a coordinate is in range but has no
	// data.
	ErrTileNotFound = errors.New("tile not found")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go TileService,RasterCatalog

// RequestHost carries the scheme and host observed on an inbound request,
// used to template tile URLs in TileJSON responses.
type RequestHost struct {
	Scheme string
	Host   string
}

// TileService defines the operations the tile API exposes.
type TileService interface {
	// GetTile returns the tile blob and response headers for id at z/x/y.
	GetTile(ctx context.Context, id string, z, x, y int) ([]byte, http.Header, error)

	// GetTileJSON returns the TileJSON for id with tile URLs templated for
	// the requesting client.
	GetTileJSON(ctx context.Context, id string, req RequestHost) (*tilejson.TileJSON, error)

	// ListTileJSON returns the TileJSON of every resolved vector source.
	ListTileJSON(ctx context.Context, req RequestHost) ([]*tilejson.TileJSON, error)

	// ListCatalog returns the vector catalog merged with the raster catalog,
	// when one is configured.
	ListCatalog(ctx context.Context, req RequestHost) ([]*tilejson.TileJSON, error)

	// CheckReadiness reports whether the service is ready to serve requests.
	CheckReadiness(ctx context.Context) error
}

// RasterCatalog abstracts the raster tile subsystem, which lives outside
// this service. It only contributes entries to the combined catalog.
type RasterCatalog interface {
	ListTileJSON(ctx context.Context, req RequestHost) ([]*tilejson.TileJSON, error)
}

// Option configures the tile service.
type Option func(*tileService)

// WithDomains sets the hosts used in tile URL templates instead of the
// request's observed host.
func WithDomains(domains []string) Option {
	return func(s *tileService) {
		s.domains = domains
	}
}

// WithRasterCatalog attaches a raster catalog for the combined index.
func WithRasterCatalog(rc RasterCatalog) Option {
	return func(s *tileService) {
		s.raster = rc
	}
}

type tileService struct {
	registry *source.Registry
	domains  []string
	raster   RasterCatalog
}

// NewService creates a TileService over an already-populated registry.
func NewService(reg *source.Registry, opts ...Option) TileService {
	s := &tileService{registry: reg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tileNotFoundError preserves the adapter's message while matching
// ErrTileNotFound, so handlers can map it without losing the body text.
type tileNotFoundError struct {
	msg string
}

func (e *tileNotFoundError) Error() string { return e.msg }

func (*tileNotFoundError) Is(target error) bool { return target == ErrTileNotFound }

// GetTile implements TileService.GetTile.
func (s *tileService) GetTile(ctx context.Context, id string, z, x, y int) ([]byte, http.Header, error) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return nil, nil, ErrSourceNotFound
	}

	if err := checkBounds(entry.Metadata, z, x, y); err != nil {
		return nil, nil, err
	}

	data, err := entry.Tile(ctx, z, x, y)
	if err != nil {
		if source.IsNotExist(err) {
			return nil, nil, &tileNotFoundError{msg: err.Error()}
		}
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, &tileNotFoundError{msg: "Not found"}
	}

	headers := entry.ContentHeaders().Clone()
	headers.Set("Content-Type", "application/x-protobuf")
	headers.Set("Content-Encoding", "gzip")
	sum := md5.Sum(data) // #nosec G401
	headers.Set("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))

	return data, headers, nil
}

// checkBounds validates z/x/y against the source's declared zoom range and
// the tile grid for zoom z. Evaluation order is fixed; any failure is an
// out-of-bounds condition, never a storage access.
func checkBounds(meta *tilejson.TileJSON, z, x, y int) error {
	switch {
	case z < meta.MinZoom:
		return ErrOutOfBounds
	case x < 0:
		return ErrOutOfBounds
	case y < 0:
		return ErrOutOfBounds
	case z > meta.MaxZoom:
		return ErrOutOfBounds
	case x >= 1<<uint(z):
		return ErrOutOfBounds
	case y >= 1<<uint(z):
		return ErrOutOfBounds
	}
	return nil
}

// GetTileJSON implements TileService.GetTileJSON.
func (s *tileService) GetTileJSON(_ context.Context, id string, req RequestHost) (*tilejson.TileJSON, error) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return nil, ErrSourceNotFound
	}
	return s.templated(entry, req), nil
}

// ListTileJSON implements TileService.ListTileJSON.
func (s *tileService) ListTileJSON(_ context.Context, req RequestHost) ([]*tilejson.TileJSON, error) {
	entries := s.registry.List()
	out := make([]*tilejson.TileJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.templated(e, req))
	}
	return out, nil
}

// ListCatalog implements TileService.ListCatalog.
func (s *tileService) ListCatalog(ctx context.Context, req RequestHost) ([]*tilejson.TileJSON, error) {
	out, err := s.ListTileJSON(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.raster != nil {
		raster, err := s.raster.ListTileJSON(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list raster catalog: %w", err)
		}
		out = append(out, raster...)
	}
	return out, nil
}

// CheckReadiness implements TileService.CheckReadiness.
func (s *tileService) CheckReadiness(_ context.Context) error {
	if s.registry.Len() == 0 {
		return errors.New("no tile sources resolved")
	}
	return nil
}

// templated deep-copies the entry's metadata and rewrites the tiles list for
// the requesting client. Configured domains take precedence over the
// observed host.
func (s *tileService) templated(entry *source.Entry, req RequestHost) *tilejson.TileJSON {
	doc := entry.Metadata.Clone()

	format := doc.Format
	if format == "" {
		format = tilejson.FormatPBF
	}

	hosts := s.domains
	if len(hosts) == 0 {
		hosts = []string{req.Host}
	}
	tiles := make([]string, 0, len(hosts))
	for _, host := range hosts {
		tiles = append(tiles, fmt.Sprintf("%s://%s/vector/%s/{z}/{x}/{y}.%s", req.Scheme, host, entry.ID, format))
	}
	doc.Tiles = tiles
	return doc
}
