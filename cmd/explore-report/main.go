// Command explore-report renders an offline HTML report from a recorded
// exploration session's CSV status log (internal/telemetry.StatusRecorder
// output): explored area, frontier count, and distance-from-start over
// elapsed time, as go-echarts line charts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/skywave-robotics/groundstation/internal/telemetry"
)

func main() {
	input := flag.String("input", "", "path to a CSV status session log written by the explorer binary")
	output := flag.String("output", "explore-report.html", "path to write the HTML report")
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}

	rows, err := telemetry.ReadStatusLog(*input)
	if err != nil {
		log.Fatalf("reading status log: %v", err)
	}
	if len(rows) == 0 {
		log.Fatal("status log has no rows")
	}

	page := components.NewPage()
	page.AddCharts(
		exploredAreaChart(rows),
		frontierCountChart(rows),
		distanceFromStartChart(rows),
	)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("creating report file: %v", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		log.Fatalf("rendering report: %v", err)
	}
	log.Printf("wrote report to %s (%d samples)", *output, len(rows))
}

func elapsedLabels(rows []telemetry.StatusRow) []string {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = fmt.Sprintf("%.0fs", r.ElapsedSeconds)
	}
	return labels
}

func exploredAreaChart(rows []telemetry.StatusRow) *charts.Line {
	area := make([]opts.LineData, len(rows))
	pct := make([]opts.LineData, len(rows))
	for i, r := range rows {
		area[i] = opts.LineData{Value: r.ExploredArea}
		pct[i] = opts.LineData{Value: r.ExploredPercentage}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Explored area over time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m^2 / %"}),
	)
	line.SetXAxis(elapsedLabels(rows)).
		AddSeries("explored area (m^2)", area).
		AddSeries("explored percentage", pct)
	return line
}

func frontierCountChart(rows []telemetry.StatusRow) *charts.Line {
	counts := make([]opts.LineData, len(rows))
	for i, r := range rows {
		counts[i] = opts.LineData{Value: r.FrontiersCount}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Frontier count over time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "frontiers"}),
	)
	line.SetXAxis(elapsedLabels(rows)).
		AddSeries("frontier count", counts)
	return line
}

func distanceFromStartChart(rows []telemetry.StatusRow) *charts.Line {
	dist := make([]opts.LineData, len(rows))
	for i, r := range rows {
		dist[i] = opts.LineData{Value: r.DistanceFromStart}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Distance from start over time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "meters"}),
	)
	line.SetXAxis(elapsedLabels(rows)).
		AddSeries("distance from start (m)", dist)
	return line
}
