package report

import (
	"io"
	"strconv"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
	"github.com/olekukonko/tablewriter"
)

// Summary holds the figures shown in the summary table.
type Summary struct {
	Binary   string
	Strategy privilege.Strategy
	Graph    callgraph.Stats
	Engine   privilege.Stats

	Violations int
	Warnings   int

	// Accepted counts findings suppressed by a baseline.
	Accepted int
}

// WriteSummary renders s as a two-column table.
func WriteSummary(w io.Writer, s Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	rows := [][]string{
		{"Binary", s.Binary},
		{"Strategy", string(s.Strategy)},
		{"Functions", strconv.Itoa(s.Graph.Functions)},
		{"Call edges", strconv.Itoa(s.Graph.Edges)},
		{"Call sites", strconv.Itoa(s.Graph.CallSites)},
		{"Roots", strconv.Itoa(s.Graph.Roots)},
		{"Orphan seeds", strconv.Itoa(s.Engine.OrphanSeeds)},
		{"Visited", strconv.Itoa(s.Engine.Visited)},
		{"Violations", strconv.Itoa(s.Violations)},
		{"Warnings", strconv.Itoa(s.Warnings)},
		{"Accepted", strconv.Itoa(s.Accepted)},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
