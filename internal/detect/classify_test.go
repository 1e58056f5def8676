package detect

import (
	"testing"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Query
	}{
		{"8080", Query{Type: TypePort, Raw: "8080", Port: 8080}},
		{" 443 ", Query{Type: TypePort, Raw: "443", Port: 443}},
		{"65535", Query{Type: TypePort, Raw: "65535", Port: 65535}},
		{"65536", Query{Type: TypePID, Raw: "65536", PID: 65536}},
		{"pid:80", Query{Type: TypePID, Raw: "pid:80", PID: 80}},
		{"PID:1234", Query{Type: TypePID, Raw: "PID:1234", PID: 1234}},
		{"53/udp", Query{Type: TypePort, Raw: "53/udp", Port: 53, Protocol: inventory.UDP}},
		{"22/TCP", Query{Type: TypePort, Raw: "22/TCP", Port: 22, Protocol: inventory.TCP}},
		{"localhost:3000", Query{Type: TypeHostPort, Raw: "localhost:3000", Port: 3000, Host: "localhost"}},
		{"[::1]:5432", Query{Type: TypeHostPort, Raw: "[::1]:5432", Port: 5432, Host: "::1"}},
		{":9090", Query{Type: TypeHostPort, Raw: ":9090", Port: 9090}},
		{"node*", Query{Type: TypeGlob, Raw: "node*", Name: "node*"}},
		{"py?hon", Query{Type: TypeGlob, Raw: "py?hon", Name: "py?hon"}},
		{"nginx", Query{Type: TypeName, Raw: "nginx", Name: "nginx"}},
		{"0", Query{Type: TypeName, Raw: "0", Name: "0"}},
		{"pid:-3", Query{Type: TypeName, Raw: "pid:-3", Name: "pid:-3"}},
		{"99999999999", Query{Type: TypeName, Raw: "99999999999", Name: "99999999999"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.input), tt.input)
	}
}

func TestQueryTypeString(t *testing.T) {
	assert.Equal(t, "host:port", TypeHostPort.String())
	assert.Equal(t, "unknown", QueryType(42).String())
}

func TestQueryString(t *testing.T) {
	for input, want := range map[string]string{
		"8080":           "port 8080",
		"53/UDP":         "port 53/udp",
		"pid:80":         "pid 80",
		"localhost:3000": "localhost:3000",
		"[::1]:5432":     "[::1]:5432",
		"node*":          `glob "node*"`,
		"nginx":          `name "nginx"`,
	} {
		assert.Equal(t, want, Classify(input).String(), input)
	}
}
