package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"invtracker/internal/catalog"
	"invtracker/internal/chrono"
	"invtracker/internal/db"
	"invtracker/internal/notify"
	"invtracker/internal/scrapers/specs"
	"invtracker/internal/snapshot"
	"invtracker/internal/telemetry"
	"invtracker/internal/tracker"
	"invtracker/lib/configutil"
	"invtracker/lib/util/serviceutil"
)

type LocationConfig struct {
	PostalCode string `json:"postal_code"`
	// the channel (or email address) that receives the reports with changes
	// of this location, defaults to $CHANNEL_ID
	ChannelId string `json:"channel_id"`
}

type FetcherConfig struct {
	BaseUrl string `json:"base_url"`
	Radius  int    `json:"radius"`
	// one of "static", "once" or "request"
	NoncePolicy       string  `json:"nonce_policy"`
	Nonce             string  `json:"nonce"`
	NoncePage         string  `json:"nonce_page"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	// a directory that receives a copy of every response, for debugging
	DumpDir string `json:"dump_dir"`
}

type StorageConfig struct {
	// path of the json snapshot, used when database is empty
	Path string `json:"path"`
	// a sqlite path or a libsql:// url
	Database string `json:"database"`
	// the location a single location snapshot document belongs to
	LegacyLocation string `json:"legacy_location"`
	Timezone       string `json:"timezone"`
}

type DiscordConfig struct {
	BaseUrl string `json:"base_url"`
}

type Config struct {
	// either "discord" or "email"
	Notifier          string            `json:"notifier"`
	Locations         []LocationConfig  `json:"locations"`
	NoChangeChannelId string            `json:"no_change_channel_id"`
	Products          []catalog.Product `json:"products"`
	MaxMessageLength  int               `json:"max_message_length"`

	Fetcher FetcherConfig     `json:"fetcher"`
	Storage StorageConfig     `json:"storage"`
	Discord DiscordConfig     `json:"discord"`
	Smtp    notify.SmtpConfig `json:"smtp"`

	DiscordToken string `json:"-"`
}

// LoadConfig reads the config file and fills in the values that come from
// the environment.
func LoadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, err
	}

	config.DiscordToken = os.Getenv("DISCORD_TOKEN")
	config.Smtp.Password = serviceutil.Getenv("SMTP_PASSWORD", config.Smtp.Password)
	config.NoChangeChannelId = serviceutil.Getenv("NO_CHANGE_CHANNEL_ID", config.NoChangeChannelId)

	defaultChannel := os.Getenv("CHANNEL_ID")
	for i := range config.Locations {
		if config.Locations[i].ChannelId == "" {
			config.Locations[i].ChannelId = defaultChannel
		}
	}
	if config.Storage.Path == "" {
		config.Storage.Path = "inventory.json"
	}
	if config.Storage.LegacyLocation == "" && len(config.Locations) > 0 {
		config.Storage.LegacyLocation = config.Locations[0].PostalCode
	}
	return config, nil
}

func (c Config) Catalog() catalog.Catalog {
	return catalog.New(c.Products)
}

func (c Config) TrackerConfig() tracker.Config {
	locations := make([]tracker.Location, len(c.Locations))
	for i, loc := range c.Locations {
		locations[i] = tracker.Location{
			PostalCode:  loc.PostalCode,
			Destination: loc.ChannelId,
		}
	}
	return tracker.Config{
		Locations:           locations,
		NoChangeDestination: c.NoChangeChannelId,
		Catalog:             c.Catalog(),
		MaxLength:           c.MaxMessageLength,
	}
}

// OpenStore returns the configured snapshot store and a function that
// releases it.
func (c Config) OpenStore(ctx context.Context, tel telemetry.API) (snapshot.Store, func(), error) {
	if c.Storage.Database == "" {
		return snapshot.NewFileStore(c.Storage.Path, c.Storage.LegacyLocation, tel), func() {}, nil
	}

	loc := time.UTC
	if c.Storage.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(c.Storage.Timezone)
		if err != nil {
			return nil, nil, err
		}
	}

	database, err := db.Open(ctx, c.Storage.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	store := snapshot.NewSQLStore(database, chrono.NewStandardTime(loc), tel)
	return store, func() { closeDB(database) }, nil
}

func closeDB(database *sql.DB) {
	err := database.Close()
	if err != nil {
		telemetry.SlogAPI{}.ReportWarning("db.close", err)
	}
}

func (c Config) NewFetcher(tel telemetry.API) (*specs.Client, error) {
	nonce, err := specs.NewNonceSource(c.Fetcher.NoncePolicy, c.Fetcher.Nonce)
	if err != nil {
		return nil, err
	}
	return specs.NewClient(specs.Options{
		BaseURL:           c.Fetcher.BaseUrl,
		Radius:            c.Fetcher.Radius,
		Nonce:             nonce,
		NoncePage:         c.Fetcher.NoncePage,
		RequestsPerSecond: c.Fetcher.RequestsPerSecond,
		Timeout:           time.Duration(c.Fetcher.TimeoutSeconds) * time.Second,
		DumpDir:           c.Fetcher.DumpDir,
	}, tel)
}

// NewNotifier returns the configured notifier, a missing credential is a
// tracker.ErrMissingConfig.
func (c Config) NewNotifier(tel telemetry.API) (notify.Notifier, error) {
	switch c.Notifier {
	case "", "discord":
		if c.DiscordToken == "" {
			return nil, fmt.Errorf("%w: DISCORD_TOKEN is not set", tracker.ErrMissingConfig)
		}
		return notify.NewDiscord(c.Discord.BaseUrl, c.DiscordToken, tel), nil
	case "email":
		if c.Smtp.Server == "" || c.Smtp.EmailAddress == "" {
			return nil, fmt.Errorf("%w: smtp server and email address are required", tracker.ErrMissingConfig)
		}
		return notify.NewEmail(c.Smtp, "", tel), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", c.Notifier)
	}
}
