package inventory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCounts(t *testing.T) {
	s := NewSnapshot([]Record{
		tcpRecord(80, 10),
		tcpRecord(443, 10),
		{Endpoint: Endpoint{Protocol: UDP, LocalAddress: "0.0.0.0", LocalPort: 53, PID: 20}},
	}, time.Now())

	assert.Equal(t, Counts{Total: 3, TCP: 2, UDP: 1}, s.Counts())
	assert.Equal(t, Counts{}, NewSnapshot(nil, time.Now()).Counts())
}

func TestSnapshotFindAndOwners(t *testing.T) {
	s := NewSnapshot([]Record{
		tcpRecord(80, 10),
		tcpRecord(8080, UnknownPID),
		tcpRecord(443, 10),
		tcpRecord(5432, 30),
	}, time.Now())

	found := s.Find(10)
	require.Len(t, found, 2)
	assert.Equal(t, uint32(80), found[0].LocalPort)
	assert.Equal(t, uint32(443), found[1].LocalPort)
	assert.Empty(t, s.Find(99))

	assert.Equal(t, []int32{10, 30}, s.Owners())
}

func TestSnapshotAge(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewSnapshot(nil, at)
	assert.Equal(t, 5*time.Second, s.Age(at.Add(5*time.Second)))
}

func TestRecordJSONShape(t *testing.T) {
	r := Record{
		Endpoint: Endpoint{Protocol: TCP, LocalAddress: "127.0.0.1", LocalPort: 8080, State: "LISTEN", PID: 4242},
		Process:  ProcessInfo{PID: 4242, Name: "node", Path: "/usr/bin/node"},
	}

	b, err := r.MarshalJSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, sonic.Unmarshal(b, &raw))
	assert.Equal(t, "TCP", raw["protocol"])
	assert.Equal(t, "127.0.0.1", raw["localAddress"])
	assert.EqualValues(t, 8080, raw["port"])
	assert.Equal(t, "", raw["remoteAddress"])
	assert.EqualValues(t, 0, raw["remotePort"])
	assert.Equal(t, "LISTEN", raw["state"])
	assert.EqualValues(t, 4242, raw["pid"])
	assert.Equal(t, "node", raw["processName"])
	assert.Equal(t, "/usr/bin/node", raw["processPath"])
}

func TestUDPRecordOmitsState(t *testing.T) {
	r := Record{
		Endpoint: Endpoint{Protocol: UDP, LocalAddress: "0.0.0.0", LocalPort: 5353, PID: 7},
		Process:  ProcessInfo{PID: 7, Name: "mdns"},
	}
	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"state"`)
	assert.NotContains(t, string(b), `"processPath"`)
}

func TestDecodeSnapshotRestoresProcess(t *testing.T) {
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	in := NewSnapshot([]Record{tcpRecord(3000, 55)}, at)

	b, err := EncodeSnapshot(in)
	require.NoError(t, err)
	out, err := DecodeSnapshot(b)
	require.NoError(t, err)

	require.Len(t, out.Records, 1)
	assert.Equal(t, in.Records[0], out.Records[0])
	assert.True(t, at.Equal(out.CapturedAt))
}

func TestDecodeSnapshotRejectsBadProtocol(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"records":[{"protocol":"SCTP","port":1}],"capturedAt":"2026-01-01T00:00:00Z"}`))
	assert.Error(t, err)
}

func TestProtocolText(t *testing.T) {
	p, err := ParseProtocol(" udp ")
	require.NoError(t, err)
	assert.Equal(t, UDP, p)

	_, err = ParseProtocol("icmp")
	assert.Error(t, err)

	_, err = Protocol(0).MarshalText()
	assert.Error(t, err)
}

func TestCollectionErrorKinds(t *testing.T) {
	cause := errors.New("boom")

	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(cause))
	assert.True(t, IsTransient(TransientError(cause)))
	assert.False(t, IsTransient(Unsupported(cause)))

	wrapped := fmt.Errorf("list: %w", Unsupported(cause))
	assert.True(t, IsPlatformUnsupported(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "platform unsupported")
}
