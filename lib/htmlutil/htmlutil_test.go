package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Lai Sun Development", CleanText("  Lai Sun \n\n  Development \t"))
	require.Equal(t, "", CleanText(" \n\t "))
}

func TestTableCells(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<table id="grdPaging">
			<tr><th>Name</th><th> Capacity </th></tr>
			<tr><td>Chan Tai Man</td><td>Director</td></tr>
			<tr><td>Wong Siu Ming</td><td>Chief&nbsp;Executive</td></tr>
		</table>`))
	require.NoError(t, err)

	headers, rows := TableCells(doc.Find("table#grdPaging"))
	require.Equal(t, []string{"Name", "Capacity"}, headers)
	require.Equal(t, [][]string{
		{"Chan Tai Man", "Director"},
		{"Wong Siu Ming", "Chief Executive"},
	}, rows)
}

func TestCellHref(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<table><tr>
			<td>plain</td>
			<td><a href="NSDetail.aspx?fn=123"> Yes </a></td>
		</tr></table>`))
	require.NoError(t, err)

	tr := doc.Find("tr").First()
	require.Equal(t, "", CellHref(tr, 0))
	require.Equal(t, "NSDetail.aspx?fn=123", CellHref(tr, 1))
}
