// Package compare turns the agent's cost versus peak report into a typed
// table. The report is free text; Parser isolates that format so a
// structured response can replace it without touching chart code.
package compare

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kilianp07/chargeboard/core/model"
)

// Marker substrings identifying the two summary lines.
const (
	CostMarker = "Cost objective"
	PeakMarker = "Peak objective"
)

// Parser converts a comparison report into a table. It returns nil when the
// report holds no usable comparison.
type Parser interface {
	Parse(text string) *model.ComparisonTable
}

var (
	costRe   = regexp.MustCompile(`\$(\d+\.\d+)`)
	peakRe   = regexp.MustCompile(`peak (\d+\.\d+)kW`)
	onTimeRe = regexp.MustCompile(`on-time (\d+\.\d+)%`)
)

// TextParser reads the agent's line-oriented report. It is stateless and
// safe for concurrent use.
type TextParser struct{}

// Parse returns nil when text has fewer than three non-empty lines or lacks
// either marker line. Otherwise both rows are extracted; a figure missing
// from its line is 0.
func (TextParser) Parse(text string) *model.ComparisonTable {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 3 {
		return nil
	}
	costLine, ok := findLine(lines, CostMarker)
	if !ok {
		return nil
	}
	peakLine, ok := findLine(lines, PeakMarker)
	if !ok {
		return nil
	}
	return &model.ComparisonTable{
		CostStrategy: extract(costLine),
		PeakStrategy: extract(peakLine),
	}
}

func findLine(lines []string, marker string) (string, bool) {
	for _, l := range lines {
		if strings.Contains(l, marker) {
			return l, true
		}
	}
	return "", false
}

func extract(line string) model.StrategyKPIs {
	return model.StrategyKPIs{
		Cost:   firstNumber(costRe, line),
		Peak:   firstNumber(peakRe, line),
		OnTime: firstNumber(onTimeRe, line),
	}
}

func firstNumber(re *regexp.Regexp, line string) float64 {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}
