package collector

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/aiomayo/portwatch/internal/process"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru"
)

const nameCacheSize = 4096

// owner identifies one process instance. Pids are reused by the OS, the
// start time tells the instances apart.
type owner struct {
	pid     int32
	started int64
}

// Collector builds snapshots from the provider's socket and process tables.
// Names are cached across snapshots per owner.
type Collector struct {
	provider process.Provider
	names    *lru.Cache
	now      func() time.Time
}

func New(provider process.Provider) *Collector {
	names, _ := lru.New(nameCacheSize)
	return &Collector{
		provider: provider,
		names:    names,
		now:      time.Now,
	}
}

func (c *Collector) Collect(ctx context.Context) (*inventory.Snapshot, error) {
	start := c.now()

	conns, err := c.provider.Connections(ctx)
	if err != nil {
		if errors.Is(err, process.ErrUnsupported) {
			return nil, inventory.Unsupported(err)
		}
		return nil, inventory.TransientError(err)
	}

	seen := make(map[int32]inventory.ProcessInfo)
	records := make([]inventory.Record, 0, len(conns))
	for _, conn := range conns {
		ep, ok := toEndpoint(conn)
		if !ok {
			continue
		}
		records = append(records, inventory.Record{
			Endpoint: ep,
			Process:  c.resolve(ctx, ep.PID, seen),
		})
	}
	sortRecords(records)
	c.prune(seen)

	log.Debug("collected snapshot", "records", len(records), "owners", len(seen), "took", time.Since(start))
	return inventory.NewSnapshot(records, start), nil
}

func (c *Collector) resolve(ctx context.Context, pid int32, seen map[int32]inventory.ProcessInfo) inventory.ProcessInfo {
	if pid == inventory.UnknownPID {
		return inventory.ProcessInfo{PID: pid, Name: inventory.UnknownName}
	}
	if info, ok := seen[pid]; ok {
		return info
	}

	key := owner{pid: pid}
	started, err := c.provider.StartTime(ctx, pid)
	cacheable := err == nil
	if cacheable {
		key.started = started
		if v, ok := c.names.Get(key); ok {
			info := v.(inventory.ProcessInfo)
			seen[pid] = info
			return info
		}
	}

	info := inventory.ProcessInfo{PID: pid, Name: inventory.UnknownName}
	p, err := c.provider.Lookup(ctx, pid)
	if err != nil {
		// the process may have exited since enumeration; keep the socket
		log.Debug("process lookup failed", "pid", pid, "err", err)
		seen[pid] = info
		return info
	}
	if p.Name != "" {
		info.Name = p.Name
	}
	info.Path = p.Path
	seen[pid] = info
	if cacheable {
		c.names.Add(key, info)
	}
	return info
}

// prune evicts owners that no longer hold any socket.
func (c *Collector) prune(seen map[int32]inventory.ProcessInfo) {
	for _, k := range c.names.Keys() {
		if _, ok := seen[k.(owner).pid]; !ok {
			c.names.Remove(k)
		}
	}
}

func toEndpoint(conn process.Conn) (inventory.Endpoint, bool) {
	ep := inventory.Endpoint{
		LocalAddress:  conn.LocalIP,
		LocalPort:     conn.LocalPort,
		RemoteAddress: conn.RemoteIP,
		RemotePort:    conn.RemotePort,
		PID:           conn.PID,
	}
	switch conn.Type {
	case process.SockStream:
		ep.Protocol = inventory.TCP
		ep.State = normalizeState(conn.Status)
	case process.SockDgram:
		ep.Protocol = inventory.UDP
	default:
		return inventory.Endpoint{}, false
	}
	if ep.PID < 0 {
		ep.PID = inventory.UnknownPID
	}
	return ep, true
}

func normalizeState(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "NONE":
		return ""
	case "LISTENING":
		return "LISTEN"
	}
	return strings.ReplaceAll(s, "-", "_")
}

func sortRecords(records []inventory.Record) {
	slices.SortStableFunc(records, func(a, b inventory.Record) int {
		return cmp.Or(
			cmp.Compare(a.Protocol, b.Protocol),
			cmp.Compare(a.LocalPort, b.LocalPort),
			strings.Compare(a.LocalAddress, b.LocalAddress),
			cmp.Compare(a.PID, b.PID),
			strings.Compare(a.RemoteAddress, b.RemoteAddress),
			cmp.Compare(a.RemotePort, b.RemotePort),
		)
	})
}
