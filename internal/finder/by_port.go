package finder

import (
	"net"

	"github.com/aiomayo/portwatch/internal/detect"
	"github.com/aiomayo/portwatch/internal/inventory"
)

type portStrategy struct{}

func (s *portStrategy) Match(r inventory.Record, query detect.Query) bool {
	if r.LocalPort != query.Port {
		return false
	}
	if query.Protocol != 0 && r.Protocol != query.Protocol {
		return false
	}
	if query.Type == detect.TypeHostPort && !matchHost(r.LocalAddress, query.Host) {
		return false
	}
	return true
}

// matchHost treats wildcard listeners as bound to every host.
func matchHost(addr, host string) bool {
	if host == "" || host == "*" || addr == host {
		return true
	}
	ip := net.ParseIP(addr)
	if ip != nil && ip.IsUnspecified() {
		return true
	}
	if host == "localhost" && ip != nil && ip.IsLoopback() {
		return true
	}
	want := net.ParseIP(host)
	return ip != nil && want != nil && ip.Equal(want)
}
