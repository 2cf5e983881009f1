// Package hkexdi scrapes debenture holdings from the HKEX Disclosure
// of Interests search site.
package hkexdi

import (
	"context"
	"errors"

	"hkexwatch/lib/timezone"
	"hkexwatch/services/snapshot"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/hkexdi")

// ErrFetch wraps any failure to produce a snapshot, transport and
// parse problems alike.
var ErrFetch = errors.New("failed to fetch disclosures")

// Subject identifies one listed company on the DI site.
type Subject struct {
	// stock code, e.g. "488"
	StockCode string `json:"stock_code"`
	// the site's internal corporation id, found in search result links
	SID string `json:"sid"`
	// corporation name as the search form expects it
	CorpName string `json:"corp_name"`
}

// DateRange bounds the disclosure search, inclusive on both ends.
type DateRange struct {
	Start timezone.Date
	End   timezone.Date
}

// Fetcher produces the current snapshot for a subject. The plain HTTP
// client and the browser variant are interchangeable behind it.
type Fetcher interface {
	Fetch(ctx context.Context, subject Subject, dates DateRange) (*snapshot.Snapshot, error)
}
