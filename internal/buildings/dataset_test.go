package buildings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "way/1",
     "geometry": {"type": "Polygon", "coordinates": [[[2.29,48.84],[2.291,48.84],[2.291,48.841],[2.29,48.84]]]},
     "properties": {"building": "yes"}},
    {"type": "Feature",
     "geometry": {"type": "Polygon", "coordinates": [[[2.30,48.85],[2.301,48.85],[2.301,48.851],[2.30,48.85]]]},
     "properties": {"@id": "way/2"}},
    {"type": "Feature", "id": "way/1",
     "geometry": {"type": "Polygon", "coordinates": [[[2.29,48.84],[2.291,48.84],[2.291,48.841],[2.29,48.84]]]},
     "properties": {}},
    {"type": "Feature",
     "geometry": {"type": "Point", "coordinates": [2.3, 48.8]},
     "properties": {}}
  ]
}`

func TestLoad_IndexesIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.geojson")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	d, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, d.Collection.Features, 4, "collection is kept as-is")
	assert.Equal(t, []string{"way/1", "way/2"}, d.IDs())

	b, ok := d.Building("way/2")
	require.True(t, ok)
	assert.Equal(t, "Polygon", b.Geometry.GeoJSONType())

	_, ok = d.Building("way/3")
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.geojson"))
	assert.Error(t, err)
}

func TestFeatureID_NumericProperty(t *testing.T) {
	f := geojson.NewFeature(orb.Point{2.3, 48.8})
	f.Properties["id"] = float64(1234)
	assert.Equal(t, "1234", FeatureID(f))

	assert.Equal(t, "", FeatureID(geojson.NewFeature(orb.Point{0, 0})))
	assert.Equal(t, "", FeatureID(nil))
}

func TestWriteCollection_RoundTrip(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Polygon{{{2.29, 48.84}, {2.291, 48.84}, {2.291, 48.841}, {2.29, 48.84}}})
	f.ID = "way/7"
	fc.Append(f)

	path := filepath.Join(t.TempDir(), "out.geojson")
	require.NoError(t, WriteCollection(path, fc))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"way/7"}, d.IDs())

	var nilSet *Dataset
	assert.Nil(t, nilSet.IDs())
}
