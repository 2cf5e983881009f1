package hkexdi

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"hkexwatch/lib/restyutil"
	"hkexwatch/lib/table"
	"hkexwatch/lib/telemetry"
	"hkexwatch/services/snapshot"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const DefaultBaseUrl = "https://di.hkex.com.hk"

// the site formats dates as dd/mm/yyyy in its query strings
const siteDateFormat = "02/01/2006"

type ClientOptions struct {
	// defaults to the production DI site
	BaseUrl string
	// optional raw HTTP transcript sink for debugging scrape failures
	Output restyutil.InstrumentOutput
}

type Client struct {
	baseUrl *url.URL
	http    *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/hkexdi/http")
	restyutil.InstrumentClient(client, tracer, opts.Output)

	return &Client{baseUrl: baseUrl, http: client}, nil
}

func (c *Client) getDocument(ctx context.Context, path string, query url.Values) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(path)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET %s: %s", path, res.Status())
	}
	return goquery.NewDocumentFromReader(strings.NewReader(res.String()))
}

// CompanyName looks up the display name of a stock code on the
// corporation search page.
func (c *Client) CompanyName(ctx context.Context, stockCode string) (string, error) {
	ctx, span := tracer.Start(ctx, "CompanyName")
	defer span.End()

	query := url.Values{}
	query.Set("sc", stockCode)
	query.Set("src", "MAIN")
	query.Set("lang", "EN")
	query.Set("g_lang", "en")

	doc, err := c.getDocument(ctx, "/di/NSSrchCorp.aspx", query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch search page")
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	name := ParseCorpName(doc)
	if name == "" {
		err := fmt.Errorf("no company name for stock code %s", stockCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "company not found")
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return name, nil
}

// ListQuery builds the NSAllFormList.aspx query string for a subject
// and search range. Shared with the browser fetcher, which navigates
// to the same URL instead of GETting it.
func ListQuery(subject Subject, dates DateRange) url.Values {
	sd := dates.Start.Time().Format(siteDateFormat)
	ed := dates.End.Time().Format(siteDateFormat)

	query := url.Values{}
	query.Set("sa2", "an")
	query.Set("sid", subject.SID)
	query.Set("corpn", subject.CorpName)
	query.Set("sd", sd)
	query.Set("ed", ed)
	query.Set("cid", "0")
	query.Set("sa1", "cl")
	query.Set("scsd", sd)
	query.Set("sced", ed)
	query.Set("sc", subject.StockCode)
	query.Set("src", "MAIN")
	query.Set("lang", "EN")
	query.Set("g_lang", "en")
	return query
}

func (c *Client) fetchDetails(ctx context.Context, link DetailLink) (table.Table, error) {
	ctx, span := tracer.Start(ctx, "fetchDetails")
	defer span.End()

	href, err := url.Parse(link.Href)
	if err != nil {
		return table.Table{}, err
	}
	target := c.baseUrl.ResolveReference(href)

	res, err := c.http.R().
		SetContext(ctx).
		Get(target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return table.Table{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("GET %s: %s", link.Href, res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail page error status")
		return table.Table{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse detail page")
		return table.Table{}, err
	}
	return ParseDetailTable(doc)
}

// Fetch retrieves the disclosure list for the subject and follows
// every debenture detail link, assembling one snapshot dated at the
// end of the search range.
func (c *Client) Fetch(ctx context.Context, subject Subject, dates DateRange) (*snapshot.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	doc, err := c.getDocument(ctx, "/di/NSAllFormList.aspx", ListQuery(subject, dates))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch disclosure list")
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	main, links, err := ParseList(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse disclosure list")
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	snap := &snapshot.Snapshot{
		Subject: subject.StockCode,
		Date:    dates.End,
		Main:    main,
	}
	// holder order follows the main table, one detail table per holder
	seen := map[string]struct{}{}
	for _, link := range links {
		if _, dup := seen[link.Holder]; dup {
			continue
		}
		seen[link.Holder] = struct{}{}

		details, err := c.fetchDetails(ctx, link)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch holder details")
			return nil, fmt.Errorf("%w: details for %q: %w", ErrFetch, link.Holder, err)
		}
		snap.Details = append(snap.Details, snapshot.HolderDetails{
			Holder: link.Holder,
			Table:  details,
		})
	}

	return snap, nil
}
