// Package render writes recommendation results to a terminal: an
// attacked-host banner, a discovery summary, and a table of ranked hosts
// with multi-line cells for extra domains, contacts and warnings.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/recommend"
)

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Align(lipgloss.Center).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Align(lipgloss.Center).Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Printer renders results for one recommendation run.
type Printer struct {
	w       io.Writer
	limit   int // 0 = print everything
	verbose bool
}

// NewPrinter creates a printer. limit caps how many ranked hosts are shown;
// verbose adds the similarities column with per-host warnings.
func NewPrinter(w io.Writer, limit int, verbose bool) *Printer {
	return &Printer{w: w, limit: limit, verbose: verbose}
}

// PrintResult renders the full output: banner, summary, table.
func (p *Printer) PrintResult(res *recommend.Result) {
	p.PrintAttackedHost(res.Reference)
	p.PrintSummary(res.TotalCandidates, res.MaxDistance)
	p.PrintHosts(res.Hosts)
}

// PrintAttackedHost renders the reference host banner.
func (p *Printer) PrintAttackedHost(h *inventory.Host) {
	fmt.Fprintln(p.w, bannerStyle.Render("ATTACKED HOST:"))
	fmt.Fprintln(p.w, h.String())
	fmt.Fprintln(p.w)
}

// PrintSummary reports how many hosts were found, and how many are shown
// when the display limit truncates the list.
func (p *Printer) PrintSummary(totalCandidates, maxDistance int) {
	fmt.Fprintln(p.w, infoStyle.Render(
		fmt.Sprintf("Found %d hosts to maximum distance of %d:", totalCandidates, maxDistance)))
	if p.limit > 0 && p.limit < totalCandidates {
		fmt.Fprintln(p.w, infoStyle.Render(fmt.Sprintf("Displaying %d hosts.", p.limit)))
	}
	fmt.Fprintln(p.w)
}

// PrintHosts renders the ranked host table. Hosts with several domains,
// contacts or warnings get multi-line cells.
func (p *Printer) PrintHosts(hosts []*inventory.Host) {
	shown := hosts
	if p.limit > 0 && len(shown) > p.limit {
		shown = shown[:p.limit]
	}

	headers := []string{"IP ADDRESS", "DOMAIN(S)", "CONTACT(S)", "RISK"}
	if p.verbose {
		headers = append(headers, "SIMILARITIES")
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		BorderRow(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)

	for _, h := range shown {
		row := []string{
			h.IP,
			strings.Join(h.Domains, "\n"),
			strings.Join(h.Contacts, "\n"),
			fmt.Sprintf("%.4f", h.Risk),
		}
		if p.verbose {
			row = append(row, warningsCell(h.Warnings))
		}
		tbl.Row(row...)
	}

	fmt.Fprintln(p.w, tbl.Render())
}

func warningsCell(warnings []inventory.Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
