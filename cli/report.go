package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/GreatValueCreamSoda/goflashdetect/detector"
)

func printReport(report *detector.Report) {
	fmt.Fprintln(os.Stderr)

	if len(report.Intervals) == 0 {
		fmt.Fprintln(os.Stderr, "No dangerous flashing detected")
	} else {
		fmt.Fprintln(os.Stderr, "Dangerous flashing intervals")
		fmt.Fprintln(os.Stderr, "============================")
		for _, interval := range report.Intervals {
			fmt.Fprintf(os.Stderr, "  %8.2fs - %8.2fs\n", interval.Start,
				interval.End)
		}
	}

	printFlashCountSummary(report.FlashCounts)

	if len(report.RedFlashes) > 0 {
		fmt.Fprintf(os.Stderr, "\nRed flash events: %d\n",
			len(report.RedFlashes))
	}

	if settings.showRedFlashes {
		for _, ev := range report.RedFlashes {
			fmt.Fprintf(os.Stderr, "  %8.2fs region (%d, %d)\n", ev.Time,
				ev.Row, ev.Col)
		}
	}
}

// printFlashCountSummary summarizes the per-window opposing-transition
// counts the detector recorded while sliding over the stream.
func printFlashCountSummary(counts []int) {
	if len(counts) == 0 {
		return
	}

	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}

	mean, std := stat.MeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, sorted, nil)

	name := "Window flash counts"
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, name)
	fmt.Fprintln(os.Stderr, strings.Repeat("-", len(name)))
	fmt.Fprintf(os.Stderr, "  windows : %d\n", len(counts))
	fmt.Fprintf(os.Stderr, "  mean    : %.3f\n", mean)
	fmt.Fprintf(os.Stderr, "  median  : %.3f\n", median)
	fmt.Fprintf(os.Stderr, "  p95     : %.3f\n", p95)
	fmt.Fprintf(os.Stderr, "  stddev  : %.3f\n", std)
	fmt.Fprintf(os.Stderr, "  max     : %.0f\n", sorted[len(sorted)-1])
}
