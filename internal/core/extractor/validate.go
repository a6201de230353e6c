package extractor

import (
	"net/url"
	"strings"

	"github.com/guiyumin/teradl/internal/core/config"
)

// Validator accepts share URLs whose host is on the allow-list. It never
// touches the network.
type Validator struct {
	hosts map[string]bool
}

// NewValidator builds a validator over the given hosts. Entries are
// normalized the same way config entries are.
func NewValidator(hosts []string) *Validator {
	v := &Validator{hosts: make(map[string]bool)}
	for _, h := range config.NormalizeHosts(hosts) {
		v.hosts[h] = true
	}
	return v
}

// Validate parses raw and checks it is an absolute https URL on an allowed
// host or one of its subdomains.
func (v *Validator) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalidInput(raw, "url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalidInput(raw, "malformed url: %w", err)
	}
	if !u.IsAbs() || !strings.EqualFold(u.Scheme, "https") {
		return nil, invalidInput(raw, "url must be absolute https")
	}
	if u.User != nil {
		return nil, invalidInput(raw, "url must not carry credentials")
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return nil, invalidInput(raw, "url has no host")
	}
	if !v.allowed(host) {
		return nil, invalidInput(raw, "host %q is not supported", host)
	}
	return u, nil
}

// allowed walks up the labels of host so "www.terabox.com" matches
// "terabox.com".
func (v *Validator) allowed(host string) bool {
	for {
		if v.hosts[host] {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}
