package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"
)

const chartHeight = "500px"

// NewRenderCommand renders a query's per-round chart-points file (produced
// by graph/tpch's --output flag) as a standalone HTML line chart.
func NewRenderCommand() *cobra.Command {
	var (
		input  string
		output string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a query's per-round results as an HTML line chart",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRender(input, output, title)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "path to a chart-points JSON file (required)")
	cmd.Flags().StringVar(&output, "output", "chart.html", "path to write the rendered HTML chart")
	cmd.Flags().StringVar(&title, "title", "differo results", "chart title")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runRender(input, output, title string) error {
	points, err := readChartPoints(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	line := buildLineChart(title, points)

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func readChartPoints(path string) ([]ChartPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var points []ChartPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}

	return points, nil
}

func buildLineChart(title string, points []ChartPoint) *charts.Line {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Round"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Value"}),
	)

	labels := make([]string, len(points))
	data := make([]opts.LineData, len(points))

	for i, p := range points {
		labels[i] = strconv.Itoa(p.Round)
		data[i] = opts.LineData{Value: p.Value}
	}

	line.SetXAxis(labels)
	line.AddSeries("value", data)

	return line
}
