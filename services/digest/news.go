package digest

import (
	"context"
	"fmt"
	"strings"

	"hkexwatch/lib/timezone"

	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/codes"

	"hkexwatch/lib/telemetry"
)

const defaultNewsBaseUrl = "https://newsapi.org"

type NewsConfig struct {
	// search phrase matched against article titles
	Topic    string `json:"topic"`
	Language string `json:"language"`
	ApiKey   string `json:"api_key"`
	// maximum headlines included in the section
	Limit int `json:"limit"`
	// overridable for tests
	BaseUrl string `json:"base_url"`
}

type NewsSource struct {
	http   *resty.Client
	config NewsConfig
	policy *bluemonday.Policy
}

func NewNewsSource(config NewsConfig) NewsSource {
	if config.Language == "" {
		config.Language = "en"
	}
	if config.Limit <= 0 {
		config.Limit = 5
	}
	if config.BaseUrl == "" {
		config.BaseUrl = defaultNewsBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(config.BaseUrl)
	telemetry.InstrumentResty(client, "digest/news/http")

	return NewsSource{
		http:   client,
		config: config,
		policy: bluemonday.StrictPolicy(),
	}
}

type newsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Url         string `json:"url"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type newsResponse struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Articles []newsArticle `json:"articles"`
}

func (s NewsSource) Section(ctx context.Context) (Section, error) {
	ctx, span := tracer.Start(ctx, "news:Section")
	defer span.End()

	today := timezone.Today()
	var body newsResponse
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("qInTitle", s.config.Topic).
		SetQueryParam("from", today.AddDays(-1).String()).
		SetQueryParam("to", today.String()).
		SetQueryParam("sortBy", "popularity").
		SetQueryParam("language", s.config.Language).
		SetQueryParam("apiKey", s.config.ApiKey).
		SetResult(&body).
		SetError(&body).
		Get("/v2/everything")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch news")
		return Section{}, err
	}
	if res.IsError() || body.Status == "error" {
		err := fmt.Errorf("news api returned %s: %s", res.Status(), body.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, "news api error")
		return Section{}, err
	}

	articles := body.Articles
	if len(articles) > s.config.Limit {
		articles = articles[:s.config.Limit]
	}

	var html strings.Builder
	var text strings.Builder
	html.WriteString("<ul>\n")
	for _, a := range articles {
		html.WriteString(fmt.Sprintf(
			"<li><b>%s</b> (%s)<br>%s</li>\n",
			s.policy.Sanitize(a.Title),
			s.policy.Sanitize(a.Source.Name),
			s.policy.Sanitize(a.Description),
		))
		text.WriteString(fmt.Sprintf("- %s (%s)\n", a.Title, a.Source.Name))
	}
	html.WriteString("</ul>\n")

	return Section{
		Title: fmt.Sprintf("News: %s", s.config.Topic),
		HTML:  html.String(),
		Text:  text.String(),
	}, nil
}
