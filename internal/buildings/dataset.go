// Package buildings loads and writes the building footprint dataset that the
// map displays and the harvester produces.
package buildings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Building is one footprint polygon.
type Building struct {
	ID       string
	Geometry orb.Geometry
}

// Dataset is a loaded FeatureCollection indexed by building id.
type Dataset struct {
	Path       string
	Collection *geojson.FeatureCollection

	ids   []string
	index map[string]*geojson.Feature
}

// Load reads a GeoJSON FeatureCollection from path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read buildings: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse buildings %s: %w", path, err)
	}
	return New(path, fc), nil
}

// New indexes fc. Features without an identifier are kept in the collection
// but cannot be prospected.
func New(path string, fc *geojson.FeatureCollection) *Dataset {
	d := &Dataset{
		Path:       path,
		Collection: fc,
		index:      make(map[string]*geojson.Feature, len(fc.Features)),
	}
	for _, f := range fc.Features {
		id := FeatureID(f)
		if id == "" {
			continue
		}
		if _, dup := d.index[id]; dup {
			continue
		}
		d.index[id] = f
		d.ids = append(d.ids, id)
	}
	return d
}

// IDs returns the building ids in file order, each once.
func (d *Dataset) IDs() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Building looks up a footprint by id.
func (d *Dataset) Building(id string) (Building, bool) {
	if d == nil {
		return Building{}, false
	}
	f, ok := d.index[id]
	if !ok {
		return Building{}, false
	}
	return Building{ID: id, Geometry: f.Geometry}, true
}

// FeatureID returns the identifier of a feature: the top-level id when set,
// otherwise the "@id" or "id" property.
func FeatureID(f *geojson.Feature) string {
	if f == nil {
		return ""
	}
	if id := stringify(f.ID); id != "" {
		return id
	}
	for _, key := range []string{"@id", "id"} {
		if id := stringify(f.Properties[key]); id != "" {
			return id
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// WriteCollection writes fc to path atomically (temp file + rename).
func WriteCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode buildings: %w", err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
