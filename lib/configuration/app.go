package configuration

import (
	"fmt"

	"hkexwatch/lib/timezone"
	"hkexwatch/services/diff"
	"hkexwatch/services/digest"
	"hkexwatch/services/monitor"
	"hkexwatch/services/notify"
	"hkexwatch/services/report"
)

// main-table column holding the holder name on the DI site
const holderField = "Name"

// App is the whole config.json5 file.
type App struct {
	// cron expression for the daily run, evaluated in Hong Kong time
	Schedule string `json:"schedule"`
	// first day of the disclosure search window, YYYY-MM-DD
	SearchStart string `json:"search_start"`

	Store    Store             `json:"store"`
	Fetch    Fetch             `json:"fetch"`
	Smtp     notify.SmtpConfig `json:"smtp"`
	Subjects []monitor.Subject `json:"subjects"`

	// optional email extras
	News    *digest.NewsConfig    `json:"news"`
	Weather *digest.WeatherConfig `json:"weather"`
}

// Monitor wires the full pipeline described by the config.
func (c App) Monitor() (monitor.Service, error) {
	if len(c.Subjects) == 0 {
		return monitor.Service{}, fmt.Errorf("no subjects configured")
	}

	searchStart, err := timezone.ParseDate(c.SearchStart)
	if err != nil {
		return monitor.Service{}, fmt.Errorf("bad search_start: %w", err)
	}

	store, err := c.Store.Open()
	if err != nil {
		return monitor.Service{}, err
	}
	fetcher, err := c.Fetch.Open()
	if err != nil {
		return monitor.Service{}, err
	}

	var digests []digest.Source
	if c.News != nil {
		digests = append(digests, digest.NewNewsSource(*c.News))
	}
	if c.Weather != nil {
		digests = append(digests, digest.NewWeatherSource(*c.Weather))
	}

	return monitor.NewService(monitor.Options{
		Store:       store,
		Fetcher:     fetcher,
		Notifier:    notify.NewService(c.Smtp),
		Renderer:    report.NewRenderer(holderField),
		Differ:      diff.NewDiffer(holderField),
		Digests:     digests,
		SearchStart: searchStart,
		Subjects:    c.Subjects,
	}), nil
}
