// Package world looks up the caller's approximate location and current weather.
package world

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/easeaico/senior-acido/internal/types"
)

// Unavailable is returned in place of world data whenever a lookup fails.
const Unavailable = "dados do mundo indisponíveis"

const (
	DefaultGeoURL     = "http://ip-api.com/json/"
	DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"
)

// Location is the subset of the geolocation reply we use.
type Location struct {
	Status  string  `json:"status"`
	City    string  `json:"city"`
	Region  string  `json:"regionName"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Weather is the current_weather block of the forecast reply.
type Weather struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windspeed"`
	WeatherCode int     `json:"weathercode"`
	Time        string  `json:"time"`
}

// Lookup queries the geolocation and forecast services.
type Lookup struct {
	client     *http.Client
	geoURL     string
	weatherURL string
	timeout    time.Duration
	now        func() time.Time
}

// Option customizes a Lookup.
type Option func(*Lookup)

// WithEndpoints overrides the service URLs.
func WithEndpoints(geoURL, weatherURL string) Option {
	return func(l *Lookup) {
		l.geoURL = geoURL
		l.weatherURL = weatherURL
	}
}

// NewLookup returns a Lookup that bounds each call by timeout.
func NewLookup(timeout time.Duration, opts ...Option) *Lookup {
	l := &Lookup{
		client:     &http.Client{},
		geoURL:     DefaultGeoURL,
		weatherURL: DefaultWeatherURL,
		timeout:    timeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Describe returns a one-line Portuguese summary for clientIP, or Unavailable.
func (l *Lookup) Describe(ctx context.Context, clientIP string) string {
	loc, err := l.Locate(ctx, clientIP)
	if err != nil {
		return Unavailable
	}
	weather, err := l.Current(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return Unavailable
	}
	return fmt.Sprintf("Local aproximado: %s, %s, %s. Temperatura atual: %.1f°C, vento %.1f km/h. Data/hora do servidor: %s.",
		loc.City, loc.Region, loc.Country, weather.Temperature, weather.WindSpeed,
		l.now().Format("02/01/2006 15:04"))
}

// Locate resolves clientIP to a location. Private or empty addresses let the service use the caller's egress IP.
func (l *Lookup) Locate(ctx context.Context, clientIP string) (Location, error) {
	target := l.geoURL
	if ip := net.ParseIP(clientIP); ip != nil && !ip.IsLoopback() && !ip.IsPrivate() {
		target += url.PathEscape(clientIP)
	}

	var loc Location
	if err := l.getJSON(ctx, "world.locate", target, &loc); err != nil {
		return Location{}, err
	}
	if loc.Status != "" && loc.Status != "success" {
		return Location{}, types.TransientError("world.locate", fmt.Errorf("geolocation status %q", loc.Status))
	}
	return loc, nil
}

// Current returns the current weather at the given coordinates.
func (l *Lookup) Current(ctx context.Context, lat, lon float64) (Weather, error) {
	u, err := url.Parse(l.weatherURL)
	if err != nil {
		return Weather{}, types.ConfigError("world.current", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current_weather", "true")
	u.RawQuery = q.Encode()

	var body struct {
		Current *Weather `json:"current_weather"`
	}
	if err := l.getJSON(ctx, "world.current", u.String(), &body); err != nil {
		return Weather{}, err
	}
	if body.Current == nil {
		return Weather{}, types.ParseError("world.current", fmt.Errorf("missing current_weather"))
	}
	return *body.Current, nil
}

func (l *Lookup) getJSON(ctx context.Context, op, target string, v any) error {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.ConfigError(op, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return types.TransientError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.TransientError(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return types.ParseError(op, err)
	}
	return nil
}
