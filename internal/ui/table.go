package ui

import (
	"fmt"
	"strconv"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const stateColumn = 4

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(1)
)

// stateStyle highlights listeners and dims sockets that are shutting down.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "LISTEN":
		return cellStyle.Foreground(lipgloss.Color("10"))
	case "ESTABLISHED":
		return cellStyle.Foreground(lipgloss.Color("14"))
	case "TIME_WAIT", "CLOSE_WAIT", "FIN_WAIT1", "FIN_WAIT2", "LAST_ACK", "CLOSING":
		return cellStyle.Foreground(lipgloss.Color("240"))
	}
	return cellStyle
}

func RenderTable(records []inventory.Record, verbose bool) string {
	headers := []string{"Proto", "Local Address", "Port", "Remote Address", "State", "PID", "Process"}
	if verbose {
		headers = append(headers, "Path")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := recordRow(r)
		if verbose {
			row = append(row, truncate(r.Process.Path, 60))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == stateColumn:
				return stateStyle(rows[row][col])
			}
			return cellStyle
		})

	return t.Render()
}

func RenderCounts(c inventory.Counts) string {
	return fmt.Sprintf("%d sockets · %d TCP · %d UDP", c.Total, c.TCP, c.UDP)
}

func recordRow(r inventory.Record) []string {
	return []string{
		r.Protocol.String(),
		r.LocalAddress,
		strconv.FormatUint(uint64(r.LocalPort), 10),
		remote(r),
		orDash(r.State),
		pidString(r.PID),
		r.Process.Name,
	}
}

func remote(r inventory.Record) string {
	if r.RemoteAddress == "" && r.RemotePort == 0 {
		return "*"
	}
	return fmt.Sprintf("%s:%d", r.RemoteAddress, r.RemotePort)
}

func pidString(pid int32) string {
	if pid == inventory.UnknownPID {
		return "-"
	}
	return strconv.Itoa(int(pid))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
