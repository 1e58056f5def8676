package finder

import (
	"testing"
	"time"

	"github.com/aiomayo/portwatch/internal/detect"
	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(proto inventory.Protocol, addr string, port uint32, pid int32, name, path string) inventory.Record {
	return inventory.Record{
		Endpoint: inventory.Endpoint{Protocol: proto, LocalAddress: addr, LocalPort: port, PID: pid},
		Process:  inventory.ProcessInfo{PID: pid, Name: name, Path: path},
	}
}

func snapshot() *inventory.Snapshot {
	return inventory.NewSnapshot([]inventory.Record{
		rec(inventory.TCP, "0.0.0.0", 3000, 100, "node", "/usr/local/bin/node"),
		rec(inventory.TCP, "::", 3000, 100, "node", "/usr/local/bin/node"),
		rec(inventory.TCP, "127.0.0.1", 3001, 100, "node", "/usr/local/bin/node"),
		rec(inventory.TCP, "127.0.0.1", 5432, 200, "postgres", "/usr/lib/postgresql/16/bin/postgres"),
		rec(inventory.UDP, "0.0.0.0", 5432, 300, "statsd", ""),
		rec(inventory.TCP, "192.168.1.10", 8080, 400, "python3", "/usr/bin/python3.12"),
		rec(inventory.TCP, "0.0.0.0", 22, inventory.UnknownPID, inventory.UnknownName, ""),
	}, time.Now())
}

func pids(targets []Target) []int32 {
	out := make([]int32, len(targets))
	for i, t := range targets {
		out[i] = t.PID
	}
	return out
}

func TestFindByPortGroupsByProcess(t *testing.T) {
	targets, err := New().Find(snapshot(), detect.Classify("3000"))
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, Target{PID: 100, Name: "node", Ports: []uint32{3000}}, targets[0])
}

func TestFindByPortAcrossProtocols(t *testing.T) {
	targets, err := New().Find(snapshot(), detect.Classify("5432"))
	require.NoError(t, err)
	assert.Equal(t, []int32{200, 300}, pids(targets))

	targets, err = New().Find(snapshot(), detect.Classify("5432/udp"))
	require.NoError(t, err)
	assert.Equal(t, []int32{300}, pids(targets))
}

func TestFindSkipsUnknownOwners(t *testing.T) {
	targets, err := New().Find(snapshot(), detect.Classify("22"))
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestFindByHostPort(t *testing.T) {
	tests := []struct {
		query string
		want  []int32
	}{
		{"localhost:5432", []int32{200, 300}},
		{"127.0.0.1:3000", []int32{100}},
		{"192.168.1.10:8080", []int32{400}},
		{"10.0.0.1:8080", nil},
		{"localhost:8080", nil},
		{":8080", []int32{400}},
	}
	for _, tt := range tests {
		targets, err := New().Find(snapshot(), detect.Classify(tt.query))
		require.NoError(t, err, tt.query)
		if tt.want == nil {
			assert.Empty(t, targets, tt.query)
			continue
		}
		assert.Equal(t, tt.want, pids(targets), tt.query)
	}
}

func TestFindByName(t *testing.T) {
	targets, err := New().Find(snapshot(), detect.Classify("Postgres"))
	require.NoError(t, err)
	assert.Equal(t, []int32{200}, pids(targets))

	// matched against the executable base name
	targets, err = New().Find(snapshot(), detect.Classify("python3.12"))
	require.NoError(t, err)
	assert.Equal(t, []int32{400}, pids(targets))

	targets, err = New().Find(snapshot(), detect.Classify("unknown"))
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestFindByGlob(t *testing.T) {
	targets, err := New().Find(snapshot(), detect.Classify("py*"))
	require.NoError(t, err)
	assert.Equal(t, []int32{400}, pids(targets))

	targets, err = New().Find(snapshot(), detect.Classify("/usr/bin/*"))
	require.NoError(t, err)
	assert.Equal(t, []int32{400}, pids(targets))

	targets, err = New().Find(snapshot(), detect.Classify("*s*"))
	require.NoError(t, err)
	assert.Equal(t, []int32{200, 300}, pids(targets))

	node, err := New().Find(snapshot(), detect.Classify("no?e"))
	require.NoError(t, err)
	require.Len(t, node, 1)
	assert.Equal(t, []uint32{3000, 3001}, node[0].Ports)
}

func TestFindByPID(t *testing.T) {
	targets, err := New().Find(snapshot(), detect.Classify("pid:200"))
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, Target{PID: 200, Name: "postgres", Ports: []uint32{5432}}, targets[0])

	// a pid without sockets is still a target
	targets, err = New().Find(snapshot(), detect.Classify("pid:777"))
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, Target{PID: 777}, targets[0])
}

func TestFindUnsupportedQuery(t *testing.T) {
	_, err := New().Find(snapshot(), detect.Query{Type: detect.QueryType(99)})
	assert.Error(t, err)
}
