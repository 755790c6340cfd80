// Package identity derives the stable device key that correlates reports from
// the same machine over time.
package identity

import "strings"

// SentinelDomain is stored when a device reports no domain or workgroup, so
// standalone machines stay distinct from any literal domain string.
const SentinelDomain = "_standalone"

// SentinelHostname is stored when a device reports no hostname at all. The
// ingest validator rejects such payloads before this matters; the resolver
// itself never fails.
const SentinelHostname = "unknown"

// Key is the normalized (hostname, domain) device identity.
type Key struct {
	Hostname string
	Domain   string
}

// Resolve normalizes raw identity fields into a Key. Hostname is trimmed and
// lowercased; an empty domain maps to SentinelDomain. Resolve is total:
// malformed input yields sentinel values, never an error.
func Resolve(hostname, domain string) Key {
	h := strings.ToLower(strings.TrimSpace(hostname))
	if h == "" {
		h = SentinelHostname
	}
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		d = SentinelDomain
	}
	return Key{Hostname: h, Domain: d}
}

// String renders the key as "hostname@domain", the form used in URLs and as
// the storage key.
func (k Key) String() string {
	return k.Hostname + "@" + k.Domain
}

// ParseKey splits a "hostname@domain" string back into a Key. Strings without
// a separator resolve as a bare hostname.
func ParseKey(s string) Key {
	if i := strings.LastIndex(s, "@"); i >= 0 {
		return Resolve(s[:i], s[i+1:])
	}
	return Resolve(s, "")
}
