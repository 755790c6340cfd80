package domain

import "time"

// Device is the current state of one fleet machine, keyed by its normalized
// (hostname, domain) identity. The row always mirrors the most recently
// collected report accepted for that key.
type Device struct {
	Key       string
	Hostname  string
	Domain    string
	LastSeen  time.Time
	OSName    string
	OSVersion string
	RiskScore int
}
