package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"

	"hkexwatch/lib/telemetry"
)

const defaultWeatherBaseUrl = "https://api.openweathermap.org"

type WeatherConfig struct {
	City   string `json:"city"`
	ApiKey string `json:"api_key"`
	// forecast entries included, the API reports in 3 hour steps
	Limit int `json:"limit"`
	// overridable for tests
	BaseUrl string `json:"base_url"`
}

type WeatherSource struct {
	http   *resty.Client
	config WeatherConfig
}

func NewWeatherSource(config WeatherConfig) WeatherSource {
	if config.Limit <= 0 {
		config.Limit = 8
	}
	if config.BaseUrl == "" {
		config.BaseUrl = defaultWeatherBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(config.BaseUrl)
	telemetry.InstrumentResty(client, "digest/weather/http")

	return WeatherSource{http: client, config: config}
}

type weatherEntry struct {
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type weatherResponse struct {
	// the API reports cod as a string on success and a number on some
	// errors, message is only set on failure
	Message any            `json:"message"`
	List    []weatherEntry `json:"list"`
}

func (s WeatherSource) Section(ctx context.Context) (Section, error) {
	ctx, span := tracer.Start(ctx, "weather:Section")
	defer span.End()

	var body weatherResponse
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("q", s.config.City).
		SetQueryParam("appid", s.config.ApiKey).
		SetQueryParam("units", "metric").
		SetResult(&body).
		SetError(&body).
		Get("/data/2.5/forecast")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch forecast")
		return Section{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("weather api returned %s: %v", res.Status(), body.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather api error")
		return Section{}, err
	}

	entries := body.List
	if len(entries) > s.config.Limit {
		entries = entries[:s.config.Limit]
	}

	var html strings.Builder
	var text strings.Builder
	html.WriteString("<ul>\n")
	for _, e := range entries {
		desc := ""
		if len(e.Weather) > 0 {
			desc = e.Weather[0].Description
		}
		line := fmt.Sprintf("%s: %.1f°C, %s", e.DtTxt, e.Main.Temp, desc)
		html.WriteString(fmt.Sprintf("<li>%s</li>\n", line))
		text.WriteString(fmt.Sprintf("- %s\n", line))
	}
	html.WriteString("</ul>\n")

	return Section{
		Title: fmt.Sprintf("Weather: %s", s.config.City),
		HTML:  html.String(),
		Text:  text.String(),
	}, nil
}
