package query

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aiomayo/portwatch/internal/inventory"
)

// ProtocolFilter selects records by protocol. Any matches both.
type ProtocolFilter int

const (
	Any ProtocolFilter = iota
	TCP
	UDP
)

func (p ProtocolFilter) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	default:
		return "all"
	}
}

func ParseProtocol(s string) (ProtocolFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return Any, nil
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return Any, fmt.Errorf("invalid protocol %q: must be one of: all, tcp, udp", s)
	}
}

func (p ProtocolFilter) matches(proto inventory.Protocol) bool {
	switch p {
	case TCP:
		return proto == inventory.TCP
	case UDP:
		return proto == inventory.UDP
	default:
		return true
	}
}

type Filter struct {
	Protocol ProtocolFilter
	// Text is matched case-insensitively as a substring of addresses, local
	// port, pid, process name and state. Empty matches everything.
	Text string
}

func (f Filter) Match(r inventory.Record) bool {
	if !f.Protocol.matches(r.Protocol) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Text))
	if term == "" {
		return true
	}
	fields := []string{
		strconv.FormatUint(uint64(r.LocalPort), 10),
		r.Process.Name,
		r.LocalAddress,
		r.RemoteAddress,
		r.State,
		strconv.FormatInt(int64(r.PID), 10),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func Apply(records []inventory.Record, f Filter) []inventory.Record {
	result := make([]inventory.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			result = append(result, r)
		}
	}
	return result
}

type SortKey int

const (
	SortNone SortKey = iota
	SortPort
	SortProcess
	SortState
)

func (k SortKey) String() string {
	switch k {
	case SortPort:
		return "port"
	case SortProcess:
		return "process"
	case SortState:
		return "state"
	default:
		return "none"
	}
}

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "port":
		return SortPort, nil
	case "process", "name":
		return SortProcess, nil
	case "state":
		return SortState, nil
	default:
		return SortNone, fmt.Errorf("invalid sort %q: must be one of: port, process, state", s)
	}
}

// Sort orders records in place. It is stable, so ties keep snapshot order.
// With SortState an empty state sorts before every non-empty one.
func Sort(records []inventory.Record, key SortKey) {
	var compare func(a, b inventory.Record) int
	switch key {
	case SortPort:
		compare = func(a, b inventory.Record) int { return cmp.Compare(a.LocalPort, b.LocalPort) }
	case SortProcess:
		compare = func(a, b inventory.Record) int {
			return strings.Compare(strings.ToLower(a.Process.Name), strings.ToLower(b.Process.Name))
		}
	case SortState:
		compare = func(a, b inventory.Record) int { return strings.Compare(a.State, b.State) }
	default:
		return
	}
	slices.SortStableFunc(records, compare)
}
