package hkexdi

import (
	"fmt"
	"strings"

	"hkexwatch/lib/htmlutil"
	"hkexwatch/lib/table"

	"github.com/PuerkitoBio/goquery"
)

// DetailLink points at the per-holder debenture detail page linked
// from a main table row.
type DetailLink struct {
	Holder string
	Href   string
}

// the site renders its result grid under either id depending on
// whether paging kicked in
func findListTable(doc *goquery.Document) *goquery.Selection {
	sel := doc.Find("table#grdPaging")
	if sel.Length() == 0 {
		sel = doc.Find("table#tblList")
	}
	return sel
}

// ParseCorpName extracts the company name from a NSSrchCorp.aspx page.
func ParseCorpName(doc *goquery.Document) string {
	return htmlutil.CleanText(doc.Find("span#lblCorpName").Text())
}

// ParseList extracts the main holdings table from a NSAllFormList.aspx
// page, along with the detail page links found in the debenture
// interest column. Column headers become the table's columns.
func ParseList(doc *goquery.Document) (table.Table, []DetailLink, error) {
	sel := findListTable(doc)
	if sel.Length() == 0 {
		return table.Table{}, nil, fmt.Errorf("no result table in page")
	}

	headers, rows := htmlutil.TableCells(sel)
	if len(headers) == 0 {
		return table.Table{}, nil, fmt.Errorf("result table has no header row")
	}

	nameCol := -1
	debCol := -1
	for i, h := range headers {
		switch {
		case strings.EqualFold(h, "Name"):
			nameCol = i
		case strings.Contains(h, "Debenture"):
			debCol = i
		}
	}
	if nameCol < 0 {
		return table.Table{}, nil, fmt.Errorf("result table has no Name column")
	}

	main := table.NewTable(headers...)
	for _, cells := range rows {
		rec := table.NewRecord()
		for i, v := range cells {
			if i >= len(headers) {
				break
			}
			rec.Set(headers[i], v)
		}
		main.Append(rec)
	}

	var links []DetailLink
	if debCol >= 0 {
		sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return
			}
			href := htmlutil.CellHref(tr, debCol)
			if href == "" {
				return
			}
			holder := htmlutil.CleanText(tr.Find("td").Eq(nameCol).Text())
			if holder == "" {
				return
			}
			links = append(links, DetailLink{Holder: holder, Href: href})
		})
	}

	return main, links, nil
}

// ParseDetailTable extracts the debenture detail table from a detail
// page reached through a DetailLink.
func ParseDetailTable(doc *goquery.Document) (table.Table, error) {
	sel := findListTable(doc)
	if sel.Length() == 0 {
		return table.Table{}, fmt.Errorf("no detail table in page")
	}

	headers, rows := htmlutil.TableCells(sel)
	if len(headers) == 0 {
		return table.Table{}, fmt.Errorf("detail table has no header row")
	}

	details := table.NewTable(headers...)
	for _, cells := range rows {
		rec := table.NewRecord()
		for i, v := range cells {
			if i >= len(headers) {
				break
			}
			rec.Set(headers[i], v)
		}
		details.Append(rec)
	}
	return details, nil
}
