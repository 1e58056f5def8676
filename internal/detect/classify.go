package detect

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/aiomayo/portwatch/internal/inventory"
)

type QueryType int

const (
	TypePort QueryType = iota
	TypePID
	TypeHostPort
	TypeGlob
	TypeName
)

var typeNames = [...]string{
	TypePort:     "port",
	TypePID:      "pid",
	TypeHostPort: "host:port",
	TypeGlob:     "glob",
	TypeName:     "name",
}

func (t QueryType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

type Query struct {
	Type QueryType
	Raw  string
	Port uint32
	PID  int32
	Host string
	Name string
	// Protocol restricts port queries; zero means any.
	Protocol inventory.Protocol
}

// String describes what the query selects, e.g. "port 5432/udp".
func (q Query) String() string {
	switch q.Type {
	case TypePort:
		if q.Protocol != 0 {
			return fmt.Sprintf("port %d/%s", q.Port, strings.ToLower(q.Protocol.String()))
		}
		return fmt.Sprintf("port %d", q.Port)
	case TypePID:
		return fmt.Sprintf("pid %d", q.PID)
	case TypeHostPort:
		return net.JoinHostPort(q.Host, strconv.FormatUint(uint64(q.Port), 10))
	case TypeGlob, TypeName:
		return fmt.Sprintf("%s %q", q.Type, q.Name)
	}
	return q.Raw
}

// Classify interprets a kill target. Bare numbers in the port range are
// ports, larger numbers are pids. "pid:N" forces a pid, "N/tcp" and "N/udp"
// restrict a port to one protocol.
func Classify(input string) Query {
	input = strings.TrimSpace(input)
	q := Query{Raw: input}

	if rest, ok := strings.CutPrefix(strings.ToLower(input), "pid:"); ok {
		if pid, err := strconv.ParseInt(rest, 10, 32); err == nil && pid > 0 {
			q.Type = TypePID
			q.PID = int32(pid)
			return q
		}
	}

	if portStr, proto, ok := strings.Cut(input, "/"); ok {
		if p, err := inventory.ParseProtocol(proto); err == nil {
			if port, ok := parsePort(portStr); ok {
				q.Type = TypePort
				q.Port = port
				q.Protocol = p
				return q
			}
		}
	}

	if num, err := strconv.ParseUint(input, 10, 32); err == nil {
		if num >= 1 && num <= 65535 {
			q.Type = TypePort
			q.Port = uint32(num)
			return q
		}
		if num > 65535 && num <= 1<<31-1 {
			q.Type = TypePID
			q.PID = int32(num)
			return q
		}
	}

	if strings.Contains(input, ":") {
		host, portStr, err := net.SplitHostPort(input)
		if err == nil {
			if port, ok := parsePort(portStr); ok {
				q.Type = TypeHostPort
				q.Port = port
				q.Host = host
				return q
			}
		}
	}

	if strings.ContainsAny(input, "*?") {
		q.Type = TypeGlob
		q.Name = input
		return q
	}

	q.Type = TypeName
	q.Name = input
	return q
}

func parsePort(s string) (uint32, bool) {
	port, err := strconv.ParseUint(s, 10, 32)
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return uint32(port), true
}
