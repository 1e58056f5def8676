package ui

import (
	"strings"
	"testing"

	"github.com/aiomayo/portwatch/internal/finder"
	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRecordRow(t *testing.T) {
	listen := inventory.Record{
		Endpoint: inventory.Endpoint{Protocol: inventory.TCP, LocalAddress: "0.0.0.0", LocalPort: 8080, State: "LISTEN", PID: 42},
		Process:  inventory.ProcessInfo{PID: 42, Name: "node"},
	}
	assert.Equal(t, []string{"TCP", "0.0.0.0", "8080", "*", "LISTEN", "42", "node"}, recordRow(listen))

	orphan := inventory.Record{
		Endpoint: inventory.Endpoint{Protocol: inventory.UDP, LocalAddress: "::", LocalPort: 53, RemoteAddress: "::1", RemotePort: 5000},
		Process:  inventory.ProcessInfo{Name: inventory.UnknownName},
	}
	assert.Equal(t, []string{"UDP", "::", "53", "::1:5000", "-", "-", "unknown"}, recordRow(orphan))
}

func TestRenderTable(t *testing.T) {
	records := []inventory.Record{{
		Endpoint: inventory.Endpoint{Protocol: inventory.TCP, LocalAddress: "127.0.0.1", LocalPort: 5432, State: "LISTEN", PID: 7},
		Process:  inventory.ProcessInfo{PID: 7, Name: "postgres", Path: "/usr/bin/postgres"},
	}}

	out := RenderTable(records, false)
	assert.Contains(t, out, "postgres")
	assert.Contains(t, out, "5432")
	assert.NotContains(t, out, "/usr/bin/postgres")

	verbose := RenderTable(records, true)
	assert.Contains(t, verbose, "Path")
	assert.Contains(t, verbose, "/usr/bin/postgres")
}

func TestRenderCounts(t *testing.T) {
	assert.Equal(t, "5 sockets · 3 TCP · 2 UDP", RenderCounts(inventory.Counts{Total: 5, TCP: 3, UDP: 2}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("a", 20)
	assert.Equal(t, "aaaaaaa...", truncate(long, 10))
}

func TestTargetLabel(t *testing.T) {
	label := TargetLabel(finder.Target{PID: 100, Name: "node", Ports: []uint32{3000, 3001}})
	assert.True(t, strings.HasPrefix(label, "100"))
	assert.Contains(t, label, "node")
	assert.True(t, strings.HasSuffix(label, ":3000 :3001"))

	assert.Contains(t, TargetLabel(finder.Target{PID: 5}), "?")
}

func TestStateStyle(t *testing.T) {
	assert.Equal(t, lipgloss.Color("10"), stateStyle("LISTEN").GetForeground())
	assert.Equal(t, lipgloss.Color("240"), stateStyle("TIME_WAIT").GetForeground())
	assert.Equal(t, cellStyle.GetForeground(), stateStyle("-").GetForeground())
}
