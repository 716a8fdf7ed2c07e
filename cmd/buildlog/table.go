package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"buildlog/internal/correlation"
	"buildlog/internal/engine"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary prints the build header followed by a count table.
func renderSummary(sum engine.Summary) string {
	title := cases.Title(language.English)

	var b strings.Builder
	buildID := sum.BuildID
	if buildID == "" {
		buildID = "(none)"
	}
	fmt.Fprintf(&b, "Build:   %s\n", buildID)
	fmt.Fprintf(&b, "State:   %s\n", title.String(sum.State.String()))
	result := "failed"
	if sum.Succeeded {
		result = "succeeded"
	}
	fmt.Fprintf(&b, "Result:  %s in %s\n", result, sum.Elapsed.Round(time.Millisecond))
	if sum.Err != nil {
		fmt.Fprintf(&b, "Error:   %v\n", sum.Err)
	}

	rows := [][]string{
		{title.String(correlation.KindProject.String()) + "s", strconv.Itoa(sum.Projects)},
		{title.String(correlation.KindTarget.String()) + "s", strconv.Itoa(sum.Targets)},
		{title.String(correlation.KindTask.String()) + "s", strconv.Itoa(sum.Tasks)},
		{"Warnings", strconv.Itoa(sum.Warnings)},
		{"Errors", strconv.Itoa(sum.Errors)},
		{"Messages", strconv.Itoa(sum.Messages)},
	}
	if sum.Depth > 0 {
		rows = append(rows, []string{"Open scopes", strconv.Itoa(sum.Depth)})
	}
	b.WriteString(renderTable([]string{"Count", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	return b.String()
}
