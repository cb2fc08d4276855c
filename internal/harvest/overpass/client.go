// Package overpass queries an Overpass API instance for building footprints.
package overpass

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmgeojson"
	"github.com/sirupsen/logrus"
)

const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Client is an Overpass API client. It implements harvest.Source.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given interpreter URL.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BuildingQuery returns the Overpass QL for every way tagged building inside
// b, with the nodes needed to rebuild their geometry. Overpass wants the box
// as (south, west, north, east).
func BuildingQuery(b orb.Bound) string {
	return fmt.Sprintf(
		`[out:xml][timeout:25];(way["building"](%.7f,%.7f,%.7f,%.7f););out body;>;out skel qt;`,
		b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon(),
	)
}

// FetchBuildings runs BuildingQuery for b and converts the answer to GeoJSON.
// Feature ids come out as "way/<osm id>".
func (c *Client) FetchBuildings(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error) {
	start := time.Now()
	query := BuildingQuery(b)
	logging.LogRequest("overpass", http.MethodPost, c.endpoint, logrus.Fields{
		"south": b.Min.Lat(),
		"west":  b.Min.Lon(),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.LogError("overpass", "fetch", err)
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		err := fmt.Errorf("overpass status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		logging.LogError("overpass", "fetch", err)
		return nil, err
	}

	var data osm.OSM
	if err := xml.NewDecoder(resp.Body).Decode(&data); err != nil {
		logging.LogError("overpass", "decode", err)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	fc, err := osmgeojson.Convert(&data)
	if err != nil {
		logging.LogError("overpass", "convert", err)
		return nil, fmt.Errorf("convert to geojson: %w", err)
	}

	logging.LogResponse("overpass", resp.StatusCode, time.Since(start), len(fc.Features))
	return fc, nil
}
