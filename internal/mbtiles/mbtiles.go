// Package mbtiles implements the storage source adapter for MBTiles
// archives. An MBTiles file is a sqlite database with a `metadata` key/value
// table and a `tiles` table keyed by zoom/column/row in TMS row order.
package mbtiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	// sqlite driver, registered as "sqlite3"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mapgrid/tileserv/internal/tilejson"
)

// Reader provides read-only access to one MBTiles archive. It is safe for
// concurrent use; database/sql manages its own connection pool.
type Reader struct {
	path   string
	db     *sql.DB
	format string
}

// Open opens the archive at path for reading. The file must already exist;
// a missing or unreadable archive is a hard error for the source that
// references it.
func Open(path string) (*Reader, error) {
	if path == "" {
		return nil, fmt.Errorf("mbtiles path not configured")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("mbtiles archive not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("cannot access mbtiles archive at %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_query_only=true", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open mbtiles archive at %s: %w", path, err)
	}

	r := &Reader{path: path, db: db}

	meta, err := r.Metadata(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read metadata from %s: %w", path, err)
	}
	r.format = meta["format"]

	return r, nil
}

// Path returns the archive path the reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// Metadata returns the raw key/value metadata table.
func (r *Reader) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata table: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		meta[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata table: %w", err)
	}
	return meta, nil
}

// TileJSON derives a TileJSON document from the archive's native metadata.
// Forced fields (spec version, format, id, basename) are the resolver's
// responsibility; this only reflects what the archive declares.
func (r *Reader) TileJSON(ctx context.Context) (*tilejson.TileJSON, error) {
	meta, err := r.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	doc := &tilejson.TileJSON{
		Name:        meta["name"],
		Description: meta["description"],
		Version:     meta["version"],
		Attribution: meta["attribution"],
		Format:      meta["format"],
	}
	if v, err := strconv.Atoi(meta["minzoom"]); err == nil {
		doc.MinZoom = v
	}
	if v, err := strconv.Atoi(meta["maxzoom"]); err == nil {
		doc.MaxZoom = v
	}
	if b := parseFloats(meta["bounds"], 4); b != nil {
		doc.Bounds = b
	}
	if c := parseFloats(meta["center"], 3); c != nil {
		doc.Center = c
	}

	// Vector archives carry their layer declarations in the "json" key.
	if raw := meta["json"]; raw != "" {
		var extra struct {
			VectorLayers []tilejson.VectorLayer `json:"vector_layers"`
		}
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return nil, fmt.Errorf("failed to parse vector layer metadata in %s: %w", r.path, err)
		}
		doc.VectorLayers = extra.VectorLayers
	}

	return doc, nil
}

// Tile returns the tile blob at the given XYZ coordinate. MBTiles stores
// rows in TMS order, so the row index is flipped before lookup.
func (r *Reader) Tile(ctx context.Context, z, x, y int) ([]byte, error) {
	row := (int(1) << uint(z)) - 1 - y

	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		z, x, row,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tile does not exist: %d/%d/%d", z, x, y)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tile %d/%d/%d from %s: %w", z, x, y, r.path, err)
	}
	return data, nil
}

// ContentHeaders returns the HTTP headers appropriate for tiles from this
// archive. Vector tiles are stored gzip-compressed protobuf.
func (r *Reader) ContentHeaders() http.Header {
	h := http.Header{}
	switch r.format {
	case tilejson.FormatPBF, "":
		h.Set("Content-Type", "application/x-protobuf")
		h.Set("Content-Encoding", "gzip")
	case "png":
		h.Set("Content-Type", "image/png")
	case "jpg", "jpeg":
		h.Set("Content-Type", "image/jpeg")
	case "webp":
		h.Set("Content-Type", "image/webp")
	default:
		h.Set("Content-Type", "application/octet-stream")
	}
	return h
}

// Close releases the underlying database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

func parseFloats(s string, n int) []float64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		out[i] = v
	}
	return out
}
