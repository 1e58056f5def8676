package inventory

import (
	"fmt"
	"strings"
	"time"
)

// UnknownPID marks a socket whose owning process could not be determined.
const UnknownPID int32 = 0

// UnknownName is reported when a process name cannot be resolved.
const UnknownName = "unknown"

type Protocol int

const (
	TCP Protocol = iota + 1
	UDP
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return "unknown"
	}
}

func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return 0, fmt.Errorf("invalid protocol %q: must be tcp or udp", s)
	}
}

func (p Protocol) MarshalText() ([]byte, error) {
	if p != TCP && p != UDP {
		return nil, fmt.Errorf("invalid protocol %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Protocol) UnmarshalText(b []byte) error {
	v, err := ParseProtocol(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Endpoint is one socket observed on the host. State is only set for TCP.
type Endpoint struct {
	Protocol      Protocol `json:"protocol"`
	LocalAddress  string   `json:"localAddress"`
	LocalPort     uint32   `json:"port"`
	RemoteAddress string   `json:"remoteAddress"`
	RemotePort    uint32   `json:"remotePort"`
	State         string   `json:"state,omitempty"`
	PID           int32    `json:"pid"`
}

type ProcessInfo struct {
	PID  int32  `json:"-"`
	Name string `json:"processName"`
	Path string `json:"processPath,omitempty"`
}

// Record joins an endpoint with the process that owns it.
type Record struct {
	Endpoint
	Process ProcessInfo `json:"-"`
}

// recordJSON flattens Record into the shape the dashboard consumes.
type recordJSON struct {
	Endpoint
	ProcessName string `json:"processName"`
	ProcessPath string `json:"processPath,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return marshalJSON(recordJSON{Endpoint: r.Endpoint, ProcessName: r.Process.Name, ProcessPath: r.Process.Path})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := unmarshalJSON(b, &raw); err != nil {
		return err
	}
	r.Endpoint = raw.Endpoint
	r.Process = ProcessInfo{PID: raw.PID, Name: raw.ProcessName, Path: raw.ProcessPath}
	return nil
}

// Snapshot is an immutable capture of every endpoint on the host. It is
// replaced wholesale and never modified after construction.
type Snapshot struct {
	Records    []Record  `json:"records"`
	CapturedAt time.Time `json:"capturedAt"`
}

func NewSnapshot(records []Record, capturedAt time.Time) *Snapshot {
	return &Snapshot{Records: records, CapturedAt: capturedAt}
}

func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}

type Counts struct {
	Total int `json:"total"`
	TCP   int `json:"tcp"`
	UDP   int `json:"udp"`
}

func (s *Snapshot) Counts() Counts {
	var c Counts
	for _, r := range s.Records {
		c.Total++
		switch r.Protocol {
		case TCP:
			c.TCP++
		case UDP:
			c.UDP++
		}
	}
	return c
}

// Find returns the records owned by pid.
func (s *Snapshot) Find(pid int32) []Record {
	var result []Record
	for _, r := range s.Records {
		if r.PID == pid {
			result = append(result, r)
		}
	}
	return result
}

// Owners returns the distinct known owning pids in record order.
func (s *Snapshot) Owners() []int32 {
	seen := make(map[int32]bool)
	var pids []int32
	for _, r := range s.Records {
		if r.PID == UnknownPID || seen[r.PID] {
			continue
		}
		seen[r.PID] = true
		pids = append(pids, r.PID)
	}
	return pids
}
