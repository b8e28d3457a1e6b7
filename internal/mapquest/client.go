package mapquest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Address is a real, complete US street address. The provider never
// fabricates one: every Address traces back to a MapQuest geocode or POI
// result.
type Address struct {
	Line1       string
	City        string
	State       string
	ZipCode     string
	FullAddress string
	Latitude    *float64
	Longitude   *float64

	Source        string
	BusinessName  string
	BusinessType  string
	DistanceMiles float64
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

func NewClient(apiKey, baseURL string, log logrus.FieldLogger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// metro areas used by the nationwide fallback when no usable business
// turns up near the requested origin.
var metroAreas = []struct {
	City  string
	State string
	Lat   float64
	Lng   float64
}{
	{"New York", "NY", 40.7128, -74.0060},
	{"Los Angeles", "CA", 34.0522, -118.2437},
	{"Chicago", "IL", 41.8781, -87.6298},
	{"Houston", "TX", 29.7604, -95.3698},
	{"Phoenix", "AZ", 33.4484, -112.0740},
	{"Philadelphia", "PA", 39.9526, -75.1652},
	{"San Antonio", "TX", 29.4241, -98.4936},
	{"San Diego", "CA", 32.7157, -117.1611},
	{"Dallas", "TX", 32.7767, -96.7970},
	{"San Jose", "CA", 37.3382, -121.8863},
	{"Austin", "TX", 30.2672, -97.7431},
	{"Jacksonville", "FL", 30.3322, -81.6557},
	{"San Francisco", "CA", 37.7749, -122.4194},
	{"Indianapolis", "IN", 39.7684, -86.1581},
	{"Columbus", "OH", 39.9612, -82.9988},
	{"Fort Worth", "TX", 32.7555, -97.3308},
}

// ValidateAddress geocodes a specific address and returns it normalized,
// or an error when MapQuest cannot resolve it to a street address.
func (c *Client) ValidateAddress(ctx context.Context, address string) (*Address, error) {
	locations, err := c.geocode(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("address not found: %s", address)
	}

	loc := locations[0]
	if loc.Street == "" || loc.City == "" || loc.State == "" {
		return nil, fmt.Errorf("address incomplete: %s", address)
	}

	out := loc.toAddress("mapquest_validated")
	return &out, nil
}

// RandomAddressNear returns a real business address near origin. The
// fallback chain widens rather than fabricating: radius search, then the
// doubled radius, then nationwide metro areas.
func (c *Client) RandomAddressNear(ctx context.Context, origin string, radiusMiles float64) (*Address, error) {
	locations, err := c.geocode(ctx, origin, 1)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 || locations[0].Lat == nil || locations[0].Lng == nil {
		return nil, fmt.Errorf("could not geocode origin: %s", origin)
	}
	lat, lng := *locations[0].Lat, *locations[0].Lng

	if addr, err := c.searchPOI(ctx, lat, lng, radiusMiles); err == nil && addr != nil {
		addr.Source = "mapquest_near_location"
		return addr, nil
	}

	c.log.WithField("origin", origin).Info("widening address search radius")
	if addr, err := c.searchPOI(ctx, lat, lng, radiusMiles*2); err == nil && addr != nil {
		addr.Source = "mapquest_near_location"
		return addr, nil
	}

	c.log.Info("falling back to nationwide business search")
	return c.RandomUSAddress(ctx)
}

// RandomUSAddress returns a real business address from a random major
// metro area.
func (c *Client) RandomUSAddress(ctx context.Context) (*Address, error) {
	order := rand.Perm(len(metroAreas))
	for _, i := range order[:3] {
		metro := metroAreas[i]
		addr, err := c.searchPOI(ctx, metro.Lat, metro.Lng, 10)
		if err != nil {
			c.log.WithError(err).WithField("metro", metro.City).Warn("metro search failed")
			continue
		}
		if addr != nil {
			addr.Source = "mapquest_random"
			return addr, nil
		}
	}
	return nil, fmt.Errorf("no business addresses found in any metro area")
}

// SearchAddresses geocodes a free-form query into up to max candidates.
func (c *Client) SearchAddresses(ctx context.Context, query string, max int) ([]Address, error) {
	if max <= 0 {
		max = 10
	}
	locations, err := c.geocode(ctx, query, max)
	if err != nil {
		return nil, err
	}

	var out []Address
	for _, loc := range locations {
		if loc.City == "" || loc.State == "" {
			continue
		}
		out = append(out, loc.toAddress("mapquest_search"))
	}
	return out, nil
}

// Ping verifies API key and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.geocode(ctx, "New York, NY", 1)
	return err
}

type location struct {
	Street     string   `json:"street"`
	City       string   `json:"adminArea5"`
	State      string   `json:"adminArea3"`
	PostalCode string   `json:"postalCode"`
	Lat        *float64 `json:"-"`
	Lng        *float64 `json:"-"`
	LatLng     struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"latLng"`
}

func (l location) toAddress(source string) Address {
	zip := l.PostalCode
	if i := strings.Index(zip, "-"); i > 0 {
		zip = zip[:i]
	}
	return Address{
		Line1:       l.Street,
		City:        l.City,
		State:       l.State,
		ZipCode:     zip,
		FullAddress: fmt.Sprintf("%s, %s, %s %s", l.Street, l.City, l.State, zip),
		Latitude:    l.LatLng.Lat,
		Longitude:   l.LatLng.Lng,
		Source:      source,
	}
}

func (c *Client) geocode(ctx context.Context, address string, maxResults int) ([]location, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("location", address)
	q.Set("outFormat", "json")
	q.Set("maxResults", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geocoding/v1/address?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			Locations []location `json:"locations"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	locs := payload.Results[0].Locations
	for i := range locs {
		locs[i].Lat = locs[i].LatLng.Lat
		locs[i].Lng = locs[i].LatLng.Lng
	}
	return locs, nil
}

// searchPOI queries the hosted POI dataset around a coordinate and picks
// a random business with a complete address at least 0.3 miles out.
// Returns (nil, nil) when nothing usable is in range.
func (c *Client) searchPOI(ctx context.Context, lat, lng, radiusMiles float64) (*Address, error) {
	body := map[string]any{
		"origin": map[string]any{
			"latLng": map[string]float64{"lat": lat, "lng": lng},
		},
		"hostedDataList": []map[string]string{
			{"tableName": "mqap.ntpois"},
		},
		"options": map[string]any{
			"radius":     radiusMiles,
			"units":      "m",
			"maxMatches": 100,
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/search/v2/radius?key="+url.QueryEscape(c.apiKey), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poi search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poi search failed with status %d", resp.StatusCode)
	}

	var payload struct {
		SearchResults []struct {
			Distance float64 `json:"distance"`
			Fields   struct {
				Name       string   `json:"name"`
				Address    string   `json:"address"`
				City       string   `json:"city"`
				State      string   `json:"state"`
				PostalCode string   `json:"postal_code"`
				Lat        *float64 `json:"lat"`
				Lng        *float64 `json:"lng"`
				GroupName  string   `json:"group_sic_code_name"`
			} `json:"fields"`
		} `json:"searchResults"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode poi response: %w", err)
	}

	type candidate struct {
		addr Address
	}
	var candidates []candidate
	for _, r := range payload.SearchResults {
		f := r.Fields
		if f.Name == "" || f.Address == "" || f.City == "" || f.State == "" {
			continue
		}
		// Too close to the origin reads as the origin itself.
		if r.Distance < 0.3 {
			continue
		}
		zip := f.PostalCode
		if zip == "" {
			zip = "00000"
		}
		candidates = append(candidates, candidate{Address{
			Line1:         f.Address,
			City:          f.City,
			State:         f.State,
			ZipCode:       zip,
			FullAddress:   fmt.Sprintf("%s, %s, %s %s", f.Address, f.City, f.State, zip),
			Latitude:      f.Lat,
			Longitude:     f.Lng,
			BusinessName:  f.Name,
			BusinessType:  f.GroupName,
			DistanceMiles: r.Distance,
		}})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	picked := candidates[rand.Intn(len(candidates))].addr
	c.log.WithFields(logrus.Fields{
		"business": picked.BusinessName,
		"address":  picked.FullAddress,
	}).Info("found business address")
	return &picked, nil
}
