package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"simtl/internal/model"
	"simtl/internal/timeline"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// ID is an internal identifier used in records and logs.
	ID string `yaml:"id" json:"id" validate:"required"`
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url" validate:"required,url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" validate:"required"`
	Password string `yaml:"password" json:"password" validate:"required"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=console json"`
}

// WidgetConfig is the YAML form of timeline.Options plus its bands.
type WidgetConfig struct {
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	// Height is a pixel count, a CSS length or false.
	Height any `yaml:"height,omitempty" json:"height,omitempty"`

	// TimeZone is the UTC offset in hours handed to the bands.
	TimeZone *float64 `yaml:"time_zone,omitempty" json:"time_zone,omitempty"`

	// Location is the IANA zone used for date strings without an offset.
	Location string `yaml:"location,omitempty" json:"location,omitempty"`

	Start  any `yaml:"start,omitempty" json:"start,omitempty"`
	End    any `yaml:"end,omitempty" json:"end,omitempty"`
	Center any `yaml:"center,omitempty" json:"center,omitempty"`

	// Attributes maps timeline attributes to record attributes.
	Attributes  map[string]string `yaml:"attributes" json:"attributes" validate:"required,min=1"`
	HTMLOptions map[string]string `yaml:"html_options,omitempty" json:"html_options,omitempty"`
	Sanitize    bool              `yaml:"sanitize" json:"sanitize"`

	// Bands are kept as raw maps: known keys are decoded by BandOptions and
	// everything else is handed to Simile untouched.
	Bands []map[string]any `yaml:"bands,omitempty" json:"bands,omitempty"`
}

// SourceConfig selects and configures the data provider.
type SourceConfig struct {
	Type string `yaml:"type" json:"type" validate:"oneof=file ics postgres"`

	// file
	File     string `yaml:"file,omitempty" json:"file,omitempty" validate:"required_if=Type file"`
	PageSize int    `yaml:"page_size,omitempty" json:"page_size,omitempty" validate:"gte=0"`
	Page     int    `yaml:"page,omitempty" json:"page,omitempty" validate:"gte=0"`

	// ics
	ICS          []ICSConfig `yaml:"ics,omitempty" json:"ics,omitempty" validate:"dive"`
	CacheDir     string      `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	BackfillDays int         `yaml:"backfill_days,omitempty" json:"backfill_days,omitempty" validate:"gte=0"`
	HorizonDays  int         `yaml:"horizon_days,omitempty" json:"horizon_days,omitempty" validate:"gte=0"`

	// postgres
	DSN   string `yaml:"dsn,omitempty" json:"dsn,omitempty" validate:"required_if=Type postgres"`
	Query string `yaml:"query,omitempty" json:"query,omitempty" validate:"required_if=Type postgres"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// RefreshCron is the schedule on which rendered output is dropped and
	// rebuilt from the source.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// CacheTTL bounds how long a rendered widget is served from memory.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl" validate:"gte=0"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Widget WidgetConfig `yaml:"widget" json:"widget"`
	Source SourceConfig `yaml:"source" json:"source"`
}

// DefaultConfig returns an in-memory default configuration: an ICS backed
// widget with a daily band over a monthly overview.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		RefreshCron: "*/15 * * * *",
		CacheTTL:    30 * time.Second,
		Logging:     LoggingConfig{Level: "info", Format: "console"},
		Widget: WidgetConfig{
			Attributes: map[string]string{
				"title":       "summary",
				"start":       "start",
				"end":         "end",
				"description": "description",
				"link":        "url",
			},
			Sanitize: true,
			Bands: []map[string]any{
				{"width": "70%", "interval_unit": "day", "interval_pixels": 100},
				{"width": "30%", "interval_unit": "month", "interval_pixels": 200, "layout": "overview"},
			},
		},
		Source: SourceConfig{
			Type:         "ics",
			ICS:          []ICSConfig{},
			BackfillDays: 7,
			HorizonDays:  90,
		},
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if len(c.Widget.Attributes) == 0 {
		c.Widget.Attributes = def.Widget.Attributes
	}
	if c.Source.Type == "" {
		c.Source.Type = def.Source.Type
	}
	if c.Source.Type == "ics" {
		if c.Source.BackfillDays == 0 {
			c.Source.BackfillDays = def.Source.BackfillDays
		}
		if c.Source.HorizonDays == 0 {
			c.Source.HorizonDays = def.Source.HorizonDays
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags and that every band decodes.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Widget.BandOptions(); err != nil {
		return err
	}
	if _, err := c.Widget.LoadLocation(); err != nil {
		return err
	}
	if _, err := timeline.ParseHeight(c.Widget.Height); err != nil {
		return fmt.Errorf("config: widget height: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path. A missing file is
// replaced by the default configuration, written with 0600 permissions.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := model.DecodeYAML(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".simtl-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

type bandConfig struct {
	Width          string         `mapstructure:"width"`
	Layout         string         `mapstructure:"layout"`
	IntervalUnit   timeline.Unit  `mapstructure:"interval_unit"`
	IntervalPixels int            `mapstructure:"interval_pixels"`
	SyncWith       *int           `mapstructure:"sync_with"`
	Highlight      *bool          `mapstructure:"highlight"`
	TimeZone       *float64       `mapstructure:"time_zone"`
	Date           any            `mapstructure:"date"`
	Zones          []zoneConfig   `mapstructure:"zones"`
	Extra          map[string]any `mapstructure:",remain"`
}

type zoneConfig struct {
	Start    any            `mapstructure:"start"`
	End      any            `mapstructure:"end"`
	Magnify  float64        `mapstructure:"magnify"`
	Unit     timeline.Unit  `mapstructure:"unit"`
	Multiple int            `mapstructure:"multiple"`
	Extra    map[string]any `mapstructure:",remain"`
}

var unitType = reflect.TypeOf(timeline.Unit(0))

// unitHook accepts unit names ("day") as well as ordinals.
func unitHook(from, to reflect.Type, data any) (any, error) {
	if to != unitType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return timeline.ParseUnit(v)
	case int:
		u := timeline.Unit(v)
		if !u.Valid() {
			return nil, fmt.Errorf("timeline: unknown interval unit %d", v)
		}
		return u, nil
	}
	return data, nil
}

// BandOptions decodes the configured bands. interval_unit is required; keys
// other than the known ones end up in Extra.
func (w WidgetConfig) BandOptions() ([]timeline.BandOptions, error) {
	out := make([]timeline.BandOptions, 0, len(w.Bands))
	for i, raw := range w.Bands {
		if _, ok := raw["interval_unit"]; !ok {
			return nil, fmt.Errorf("config: band %d: interval_unit is required", i)
		}

		var bc bandConfig
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.DecodeHookFuncType(unitHook),
			WeaklyTypedInput: true,
			Result:           &bc,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("config: band %d: %w", i, err)
		}

		opts := timeline.BandOptions{
			Width:          bc.Width,
			Layout:         bc.Layout,
			IntervalUnit:   bc.IntervalUnit,
			IntervalPixels: bc.IntervalPixels,
			SyncWith:       bc.SyncWith,
			Highlight:      bc.Highlight,
			TimeZone:       bc.TimeZone,
			Date:           bc.Date,
			Extra:          bc.Extra,
		}
		if bc.Zones != nil {
			opts.Zones = make([]timeline.Zone, len(bc.Zones))
			for j, z := range bc.Zones {
				opts.Zones[j] = timeline.Zone{
					Start:    z.Start,
					End:      z.End,
					Magnify:  z.Magnify,
					Unit:     z.Unit,
					Multiple: z.Multiple,
					Extra:    z.Extra,
				}
			}
		}
		out = append(out, opts)
	}
	return out, nil
}

// LoadLocation resolves Location, UTC when empty.
func (w WidgetConfig) LoadLocation() (*time.Location, error) {
	if w.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(w.Location)
	if err != nil {
		return nil, fmt.Errorf("config: widget location: %w", err)
	}
	return loc, nil
}

// Options converts the widget section into timeline options for provider.
func (w WidgetConfig) Options(provider timeline.DataProvider) (timeline.Options, error) {
	loc, err := w.LoadLocation()
	if err != nil {
		return timeline.Options{}, err
	}
	height, err := timeline.ParseHeight(w.Height)
	if err != nil {
		return timeline.Options{}, fmt.Errorf("config: widget height: %w", err)
	}
	return timeline.Options{
		Provider:    provider,
		Attributes:  w.Attributes,
		ID:          w.ID,
		HTMLOptions: w.HTMLOptions,
		Height:      height,
		TimeZone:    w.TimeZone,
		Start:       w.Start,
		End:         w.End,
		Center:      w.Center,
		Sanitize:    w.Sanitize,
		Location:    loc,
	}, nil
}

// NewWidget builds a widget from the configuration with all bands added.
func (w WidgetConfig) NewWidget(provider timeline.DataProvider) (*timeline.Widget, error) {
	opts, err := w.Options(provider)
	if err != nil {
		return nil, err
	}
	bands, err := w.BandOptions()
	if err != nil {
		return nil, err
	}
	widget, err := timeline.New(opts)
	if err != nil {
		return nil, err
	}
	for _, b := range bands {
		widget.Band(b)
	}
	return widget, nil
}

// Window returns the ICS backfill and horizon.
func (s SourceConfig) Window() (backfill, horizon time.Duration) {
	return time.Duration(s.BackfillDays) * 24 * time.Hour, time.Duration(s.HorizonDays) * 24 * time.Hour
}
