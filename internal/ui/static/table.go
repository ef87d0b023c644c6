// Package static provides non-interactive terminal output components.
//
// This package renders the tables printed by tp list, tp show and
// tp resolve.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/ui/styles"
)

// BundleHeaders are the columns of BundleRow.
var BundleHeaders = []string{"", "BUNDLE", "VERSION", "KIND", "LOCATION"}

// RenderTable creates a formatted table with proper column alignment.
// Headers and rows are rendered using lipgloss/table which automatically
// calculates column widths based on content. No borders are rendered.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var output strings.Builder

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	output.WriteString(t.String())
	output.WriteString("\n")

	return output.String()
}

// BundleRow returns the table row for a resolved bundle. Bundles with a
// problem show the status message instead of the location.
func BundleRow(b bundle.Resolved) []string {
	loc := styles.MutedStyle.Render(b.Info.Location)
	if !b.Status.IsOK() {
		style := styles.ErrorStyle
		if b.Status.Severity != bundle.SeverityError {
			style = styles.WarningStyle
		}
		loc = style.Render(b.Status.Message)
	}
	return []string{
		styles.StatusSymbol(b.Status),
		b.Info.SymbolicName,
		b.Info.Version,
		styles.Kind(b),
		loc,
	}
}

// RenderBundles renders resolved bundles as a table.
func RenderBundles(bundles []bundle.Resolved) string {
	rows := make([][]string, len(bundles))
	for i, b := range bundles {
		rows[i] = BundleRow(b)
	}
	return RenderTable(BundleHeaders, rows)
}
