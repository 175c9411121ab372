package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

func printTable(w io.Writer, headers []string, rows [][]string) {
	styled := make([]string, 0, len(headers))
	for _, h := range headers {
		styled = append(styled, headerStyle.Render(h))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(styled...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}
