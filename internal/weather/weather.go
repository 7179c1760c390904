// Package weather fetches current conditions and icons from OpenWeatherMap
// and keeps a local file cache of the icons.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultLocation is used when no location was supplied.
	DefaultLocation = "Colorado Springs"

	// DefaultIconCode is shown before the first successful refresh.
	DefaultIconCode = "10n"

	defaultConditionsURL = "http://api.openweathermap.org/data/2.5/weather"
	defaultIconURL       = "https://openweathermap.org/img/wn"
)

// ErrDisabled marks a refresh skipped because no API key is configured.
var ErrDisabled = errors.New("weather updates disabled: no API key")

// Conditions is one complete weather readout. Temperature and icon always
// come from the same report, never mixed across refreshes.
type Conditions struct {
	Temperature string
	Icon        image.Image
}

// Client talks to the weather provider. The URL fields exist so tests can
// point it at a local server; zero values mean the real endpoints.
type Client struct {
	APIKey   string
	Location string
	Metric   bool
	IconDir  string

	ConditionsURL string
	IconURL       string
	HTTPClient    *http.Client
	Log           *slog.Logger
}

// NewClient returns a client against the real OpenWeatherMap endpoints.
func NewClient(apiKey, location string, metric bool, iconDir string, log *slog.Logger) *Client {
	return &Client{
		APIKey:        apiKey,
		Location:      location,
		Metric:        metric,
		IconDir:       iconDir,
		ConditionsURL: defaultConditionsURL,
		IconURL:       defaultIconURL,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
		Log:           log,
	}
}

// Default returns the conditions shown before the first refresh: zero
// degrees and the stock icon. A failed icon download falls back to a
// generated placeholder so the window can still come up offline.
func (c *Client) Default() Conditions {
	icon, err := c.icon(DefaultIconCode)
	if err != nil {
		c.Log.Warn("default weather icon unavailable", "error", err)
		icon = placeholderIcon()
	}
	return Conditions{Temperature: "0" + c.unitSuffix(), Icon: icon}
}

// Refresh fetches the current conditions. On any failure the caller keeps
// its previous Conditions; the next scheduled refresh retries.
func (c *Client) Refresh(ctx context.Context) (Conditions, error) {
	if c.Location == "" {
		c.Log.Info("no location set, using default for weather updates",
			"default", DefaultLocation, "flag", "--location")
		c.Location = DefaultLocation
	}
	if c.APIKey == "" {
		c.Log.Info("no OpenWeatherMap API key set, weather updates disabled",
			"flag", "--apikey")
		return Conditions{}, ErrDisabled
	}

	units := "imperial"
	if c.Metric {
		units = "metric"
	}
	q := url.Values{}
	q.Set("q", c.Location)
	q.Set("units", units)
	q.Set("appid", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ConditionsURL+"?"+q.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("build conditions request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("fetch conditions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("fetch conditions: unexpected status %s", resp.Status)
	}

	report, err := decodeReport(resp.Body)
	if err != nil {
		return Conditions{}, err
	}

	icon, err := c.icon(report.iconCode)
	if err != nil {
		return Conditions{}, err
	}

	return Conditions{
		Temperature: strconv.Itoa(int(report.temperature)) + c.unitSuffix(),
		Icon:        icon,
	}, nil
}

func (c *Client) unitSuffix() string {
	if c.Metric {
		return "°C"
	}
	return "°F"
}

type report struct {
	temperature float64
	iconCode    string
}

func decodeReport(r io.Reader) (report, error) {
	var payload struct {
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Icon string `json:"icon"`
		} `json:"weather"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return report{}, fmt.Errorf("decode conditions: %w", err)
	}
	if payload.Main == nil {
		return report{}, errors.New("decode conditions: report has no temperature")
	}
	if len(payload.Weather) == 0 || payload.Weather[0].Icon == "" {
		return report{}, errors.New("decode conditions: report has no icon code")
	}
	return report{temperature: payload.Main.Temp, iconCode: payload.Weather[0].Icon}, nil
}

// icon returns the image for an icon code, downloading it into the cache
// directory on first sight. The cache is keyed by code alone.
func (c *Client) icon(code string) (image.Image, error) {
	path := filepath.Join(c.IconDir, code+".png")
	if _, err := os.Stat(path); err != nil {
		if err := c.downloadIcon(code, path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cached icon: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %q: %w", code, err)
	}
	return img, nil
}

func (c *Client) downloadIcon(code, path string) error {
	if err := os.MkdirAll(c.IconDir, 0o755); err != nil {
		return fmt.Errorf("create icon cache dir: %w", err)
	}

	resp, err := c.HTTPClient.Get(c.IconURL + "/" + code + ".png")
	if err != nil {
		return fmt.Errorf("fetch icon %q: %w", code, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch icon %q: unexpected status %s", code, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read icon %q: %w", code, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cache icon %q: %w", code, err)
	}
	return nil
}

// placeholderIcon is a translucent grey square matching the stock icon size.
func placeholderIcon() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 96
		img.Pix[i+1] = 96
		img.Pix[i+2] = 96
		img.Pix[i+3] = 128
	}
	return img
}
