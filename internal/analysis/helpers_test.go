package analysis

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"salarycli/internal/survey"
)

const syntheticRows = 60

type syntheticColumn struct {
	name  string
	value func(i int) float64
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// syntheticColumns describes a 60 respondent survey with a clear React and
// Europe premium, a seniority ladder and no gender effect
var syntheticColumns = []syntheticColumn{
	{survey.ColSalary, func(i int) float64 {
		level := float64(i%4 + 1)
		react := flag((i/3)%2 == 0)
		europe := flag((i/4)%3 == 0)
		return 40 + 12*level + 15*react + 25*europe + 3*float64(i%7)
	}},
	{survey.ColGender, func(i int) float64 { return flag(i%5 == 0) }},
	{survey.ColExperience, func(i int) float64 { return float64(i%4 + 1 + i%3) }},
	{survey.ColSeniority, func(i int) float64 { return float64(i%4 + 1) }},
	{survey.ColManager, func(i int) float64 { return flag(i%10 == 0) }},
	{survey.ColRemote, func(i int) float64 { return flag(i%3 == 0) }},
	{survey.ColOffice, func(i int) float64 { return flag(i%3 == 1) }},
	{survey.ColHybrid, func(i int) float64 { return flag(i%3 == 2) }},
	{survey.ColEurope, func(i int) float64 { return flag((i/4)%3 == 0) }},
	{survey.ColTurkey, func(i int) float64 { return flag((i/4)%3 != 0) }},
	{survey.ColReact, func(i int) float64 { return flag((i/3)%2 == 0) }},
	{survey.ColNoFrontend, func(i int) float64 { return flag((i/3)%2 != 0) }},
	{survey.ColPython, func(i int) float64 { return flag(i%2 == 1) }},
	{"programming_Go", func(i int) float64 { return flag(i%3 == 0) }},
	{survey.ColNoLanguage, func(i int) float64 { return 0 }},
	{"role_Backend_Developer", func(i int) float64 { return flag(i%2 == 0) }},
	{"role_Frontend_Developer", func(i int) float64 { return flag(i%2 == 1) }},
	{"role_Data_Scientist", func(i int) float64 { return flag(i < 4) }},
}

// syntheticDataset builds the first n rows of the synthetic survey
func syntheticDataset(t *testing.T, n int) *survey.Dataset {
	t.Helper()
	header := []string{survey.ColTimestamp}
	for _, c := range syntheticColumns {
		header = append(header, c.name)
	}
	records := make([][]string, n)
	for i := range records {
		row := []string{fmt.Sprintf("2025-06-%02d %02d:15:00", i%28+1, 9+i%12)}
		for _, c := range syntheticColumns {
			row = append(row, strconv.FormatFloat(c.value(i), 'f', -1, 64))
		}
		records[i] = row
	}
	table, err := survey.NewTable(header, records)
	require.NoError(t, err)
	return survey.FromTable(table)
}

func testAnalyzer() *Analyzer {
	return NewAnalyzer(slog.New(slog.NewTextHandler(io.Discard, nil)), DefaultOptions())
}
