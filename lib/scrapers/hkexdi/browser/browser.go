// Package browser fetches the DI site through a real Chrome instance
// for when the plain HTTP client gets challenged. It shares the parse
// layer with hkexdi, only the transport differs.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"hkexwatch/lib/scrapers/hkexdi"
	"hkexwatch/lib/table"
	"hkexwatch/services/snapshot"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/hkexdi/browser")

type Options struct {
	// websocket URL of an external Chrome, empty launches a local
	// headless one
	ControlUrl string
	// defaults to the production DI site
	BaseUrl string
}

type Fetcher struct {
	baseUrl  *url.URL
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = hkexdi.DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{baseUrl: baseUrl}

	controlUrl := opts.ControlUrl
	if controlUrl == "" {
		f.launcher = launcher.New()
		controlUrl, err = f.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch chrome: %w", err)
		}
	}

	f.browser = rod.New().ControlURL(controlUrl)
	err = f.browser.Connect()
	if err != nil {
		if f.launcher != nil {
			f.launcher.Cleanup()
		}
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	return f, nil
}

func (f *Fetcher) Close() error {
	err := f.browser.Close()
	if f.launcher != nil {
		f.launcher.Cleanup()
	}
	return err
}

func (f *Fetcher) getDocument(ctx context.Context, target string) (*goquery.Document, error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	err = page.Navigate(target)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	err = page.WaitLoad()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", target, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *Fetcher) pageUrl(path string, query url.Values) string {
	target := *f.baseUrl
	target.Path = path
	target.RawQuery = query.Encode()
	return target.String()
}

func (f *Fetcher) fetchDetails(ctx context.Context, link hkexdi.DetailLink) (table.Table, error) {
	ctx, span := tracer.Start(ctx, "fetchDetails")
	defer span.End()

	href, err := url.Parse(link.Href)
	if err != nil {
		return table.Table{}, err
	}
	doc, err := f.getDocument(ctx, f.baseUrl.ResolveReference(href).String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return table.Table{}, err
	}
	return hkexdi.ParseDetailTable(doc)
}

func (f *Fetcher) Fetch(ctx context.Context, subject hkexdi.Subject, dates hkexdi.DateRange) (*snapshot.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	doc, err := f.getDocument(ctx, f.pageUrl("/di/NSAllFormList.aspx", hkexdi.ListQuery(subject, dates)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch disclosure list")
		return nil, fmt.Errorf("%w: %w", hkexdi.ErrFetch, err)
	}

	main, links, err := hkexdi.ParseList(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse disclosure list")
		return nil, fmt.Errorf("%w: %w", hkexdi.ErrFetch, err)
	}

	snap := &snapshot.Snapshot{
		Subject: subject.StockCode,
		Date:    dates.End,
		Main:    main,
	}
	seen := map[string]struct{}{}
	for _, link := range links {
		if _, dup := seen[link.Holder]; dup {
			continue
		}
		seen[link.Holder] = struct{}{}

		details, err := f.fetchDetails(ctx, link)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch holder details")
			return nil, fmt.Errorf("%w: details for %q: %w", hkexdi.ErrFetch, link.Holder, err)
		}
		snap.Details = append(snap.Details, snapshot.HolderDetails{
			Holder: link.Holder,
			Table:  details,
		})
	}

	return snap, nil
}
