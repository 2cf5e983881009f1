package digest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewsSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/everything", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "hong kong stocks", q.Get("qInTitle"))
		require.Equal(t, "en", q.Get("language"))
		require.Equal(t, "popularity", q.Get("sortBy"))
		require.Equal(t, "k", q.Get("apiKey"))
		require.NotEmpty(t, q.Get("from"))
		require.NotEmpty(t, q.Get("to"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"title": "Markets <b>rally</b>",
					"description": "A very good day.",
					"url": "https://example.com/a",
					"source": {"name": "Example Times"}
				},
				{
					"title": "Second story",
					"description": "",
					"url": "https://example.com/b",
					"source": {"name": "Example Post"}
				}
			]
		}`))
	}))
	defer srv.Close()

	src := NewNewsSource(NewsConfig{
		Topic:   "hong kong stocks",
		ApiKey:  "k",
		Limit:   1,
		BaseUrl: srv.URL,
	})

	section, err := src.Section(context.Background())
	require.NoError(t, err)
	require.Equal(t, "News: hong kong stocks", section.Title)
	// limit trims to one article
	require.Contains(t, section.HTML, "Markets")
	require.NotContains(t, section.HTML, "Second story")
	require.NotContains(t, section.HTML, "<b>rally</b>")
	require.Contains(t, section.Text, "Example Times")
}

func TestNewsApiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": "error", "message": "bad key"}`))
	}))
	defer srv.Close()

	src := NewNewsSource(NewsConfig{Topic: "x", ApiKey: "bad", BaseUrl: srv.URL})
	_, err := src.Section(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad key")
}

func TestWeatherSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/2.5/forecast", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "Hong Kong", q.Get("q"))
		require.Equal(t, "metric", q.Get("units"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"cod": "200",
			"list": [
				{
					"dt_txt": "2025-01-02 09:00:00",
					"main": {"temp": 18.4},
					"weather": [{"description": "light rain"}]
				}
			]
		}`))
	}))
	defer srv.Close()

	src := NewWeatherSource(WeatherConfig{
		City:    "Hong Kong",
		ApiKey:  "k",
		BaseUrl: srv.URL,
	})

	section, err := src.Section(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Weather: Hong Kong", section.Title)
	require.Contains(t, section.Text, "18.4")
	require.Contains(t, section.Text, "light rain")
}

type fakeSource struct {
	section Section
	err     error
}

func (f fakeSource) Section(ctx context.Context) (Section, error) {
	return f.section, f.err
}

func TestCollectKeepsGoingPastFailures(t *testing.T) {
	sources := []Source{
		fakeSource{err: errors.New("boom")},
		fakeSource{section: Section{Title: "Weather: HK", Text: "sunny\n"}},
	}

	sections, errs := Collect(context.Background(), sources)
	require.Len(t, sections, 1)
	require.Len(t, errs, 1)

	body := AppendText("report body\n", sections)
	require.Contains(t, body, "report body")
	require.Contains(t, body, "Weather: HK")
	require.Contains(t, body, "sunny")
}
