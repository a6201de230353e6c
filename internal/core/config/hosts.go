package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/publicsuffix"
)

// NormalizeHosts lowercases allow-list entries, strips schemes, ports, paths
// and a leading "www.", and removes duplicates while keeping order.
func NormalizeHosts(hosts []string) []string {
	normalized := lo.FilterMap(hosts, func(h string, _ int) (string, bool) {
		h = NormalizeHost(h)
		return h, h != ""
	})
	return lo.Uniq(normalized)
}

// NormalizeHost reduces a host entry to its bare lowercase domain
func NormalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if i := strings.LastIndex(h, ":"); i >= 0 {
		h = h[:i]
	}
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}

// ValidateHosts rejects an empty allow-list and entries that are bare public
// suffixes ("com", "co.uk"), which would accept every site beneath them.
func ValidateHosts(hosts []string) error {
	if len(hosts) == 0 {
		return fmt.Errorf("hosts allow-list is empty")
	}
	for _, h := range hosts {
		if _, err := publicsuffix.EffectiveTLDPlusOne(h); err != nil {
			return fmt.Errorf("host %q is not a registrable domain: %w", h, err)
		}
	}
	return nil
}
