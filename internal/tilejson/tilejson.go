// Package tilejson defines the TileJSON metadata document served for each
// tile source and the operations used to derive and combine documents.
package tilejson

import (
	"strings"

	"github.com/paulmach/orb"
)

// SpecVersion is the TileJSON spec version stamped on every served document.
const SpecVersion = "2.0.0"

// FormatPBF is the tile format for vector sources.
const FormatPBF = "pbf"

// VectorLayer describes one layer of a vector tile source, as declared in
// the source's native metadata.
type VectorLayer struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	MinZoom     int               `json:"minzoom,omitempty"`
	MaxZoom     int               `json:"maxzoom,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// TileJSON is the metadata document for a logical tile source. Bounds are
// [west, south, east, north]; Center is [lon, lat, zoom].
type TileJSON struct {
	TileJSON     string        `json:"tilejson"`
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Version      string        `json:"version,omitempty"`
	Attribution  string        `json:"attribution,omitempty"`
	Basename     string        `json:"basename,omitempty"`
	Format       string        `json:"format,omitempty"`
	MinZoom      int           `json:"minzoom"`
	MaxZoom      int           `json:"maxzoom"`
	Bounds       []float64     `json:"bounds,omitempty"`
	Center       []float64     `json:"center,omitempty"`
	Tiles        []string      `json:"tiles,omitempty"`
	VectorLayers []VectorLayer `json:"vector_layers,omitempty"`
}

// Clone returns a deep copy. Handlers rewrite the tiles list per request, so
// the registry's canonical document must never be handed out directly.
func (t *TileJSON) Clone() *TileJSON {
	if t == nil {
		return nil
	}
	out := *t
	out.Bounds = append([]float64(nil), t.Bounds...)
	out.Center = append([]float64(nil), t.Center...)
	out.Tiles = append([]string(nil), t.Tiles...)
	if t.VectorLayers != nil {
		out.VectorLayers = make([]VectorLayer, len(t.VectorLayers))
		for i, vl := range t.VectorLayers {
			out.VectorLayers[i] = vl
			if vl.Fields != nil {
				fields := make(map[string]string, len(vl.Fields))
				for k, v := range vl.Fields {
					fields[k] = v
				}
				out.VectorLayers[i].Fields = fields
			}
		}
	}
	return &out
}

// Bound returns the document's bounds as an orb.Bound, or false when no
// valid bounds are declared.
func (t *TileJSON) Bound() (orb.Bound, bool) {
	if len(t.Bounds) != 4 {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{t.Bounds[0], t.Bounds[1]},
		Max: orb.Point{t.Bounds[2], t.Bounds[3]},
	}, true
}

// SetBound stores b as the document's bounds.
func (t *TileJSON) SetBound(b orb.Bound) {
	t.Bounds = []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// EnsureCenter derives a center from the bounds when none is declared.
// The derived zoom is the middle of the declared zoom range. A document with
// neither center nor bounds is left without a center.
func (t *TileJSON) EnsureCenter() {
	if len(t.Center) == 3 {
		return
	}
	b, ok := t.Bound()
	if !ok {
		t.Center = nil
		return
	}
	c := b.Center()
	zoom := (t.MinZoom + t.MaxZoom) / 2
	t.Center = []float64{c[0], c[1], float64(zoom)}
}

// Merge combines the documents of already-resolved member sources into the
// document for a composite source identified by id. The zoom range spans all
// members, the bounds are the union, and the tiles list is left empty for
// the caller to template onto the composite's own endpoint.
func Merge(id string, members ...*TileJSON) *TileJSON {
	out := &TileJSON{
		TileJSON: SpecVersion,
		ID:       id,
		Basename: id,
		Format:   FormatPBF,
	}

	var (
		names []string
		bound orb.Bound
		haveB bool
	)
	for i, m := range members {
		if m.Name != "" {
			names = append(names, m.Name)
		}
		if i == 0 || m.MinZoom < out.MinZoom {
			out.MinZoom = m.MinZoom
		}
		if m.MaxZoom > out.MaxZoom {
			out.MaxZoom = m.MaxZoom
		}
		if b, ok := m.Bound(); ok {
			if !haveB {
				bound, haveB = b, true
			} else {
				bound = bound.Union(b)
			}
		}
		out.VectorLayers = append(out.VectorLayers, m.Clone().VectorLayers...)
	}
	out.Name = strings.Join(names, ", ")
	if haveB {
		out.SetBound(bound)
	}
	out.EnsureCenter()
	return out
}
