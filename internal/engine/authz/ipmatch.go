package authz

import (
	"net/netip"
	"strings"
)

// ipAllowed tests a client IP against a whitelist of literal addresses and
// CIDR ranges. An empty whitelist allows everything. Malformed whitelist
// entries are skipped rather than failing the check.
func ipAllowed(clientIP string, whitelist []string) bool {
	if len(whitelist) == 0 {
		return true
	}

	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}

	for _, entry := range whitelist {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				continue
			}
			if prefix.Contains(addr) {
				return true
			}
			continue
		}

		allowed, err := netip.ParseAddr(entry)
		if err != nil {
			continue
		}
		if allowed == addr {
			return true
		}
	}

	return false
}
