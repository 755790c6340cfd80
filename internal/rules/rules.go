// Package rules evaluates a fact snapshot against the fixed rule catalog.
// The catalog is an immutable ordered list of declarative descriptors; the
// evaluator walks it in declaration order, so output order is stable and each
// rule contributes at most one finding.
package rules

import (
	"fmt"
	"strings"

	"it-snapshot-inventory/internal/risk"
	"it-snapshot-inventory/internal/snapshot"
)

// Descriptor is one catalog entry: a rule id plus the predicate that decides
// whether the rule fires and with which severity.
type Descriptor struct {
	ID string
	// Check returns the finding and true when the rule fires. It must be a
	// pure function of the snapshot.
	Check func(s *snapshot.Snapshot) (risk.Finding, bool)
}

// Evaluator applies the catalog to snapshots.
type Evaluator struct {
	catalog []Descriptor
}

// NewEvaluator builds an evaluator over the fixed catalog, with the given
// unwanted-software patterns feeding SWU-001. Pass DefaultPatterns() for the
// shipped list.
func NewEvaluator(patterns []UnwantedPattern) *Evaluator {
	return &Evaluator{catalog: buildCatalog(patterns)}
}

// Evaluate returns the findings for the snapshot in catalog declaration order.
// It is total: absent or unknown facts never trigger a finding (except where
// absence is itself the condition, as with SEC-001) and never produce an error.
func (e *Evaluator) Evaluate(s *snapshot.Snapshot) []risk.Finding {
	findings := make([]risk.Finding, 0, len(e.catalog))
	for _, d := range e.catalog {
		if f, ok := d.Check(s); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// Catalog returns the rule ids in declaration order.
func (e *Evaluator) Catalog() []string {
	ids := make([]string, len(e.catalog))
	for i, d := range e.catalog {
		ids[i] = d.ID
	}
	return ids
}

// SYS-001 / SYS-002 tier thresholds. Elevation is strict greater-than: a value
// exactly on the boundary stays in the band below it.
const (
	uptimeMediumDays = 30
	uptimeHighDays   = 60
	diskMediumPct    = 90
	diskHighPct      = 95
	failedLoginsMed  = 5
	failedLoginsHigh = 10
)

func buildCatalog(patterns []UnwantedPattern) []Descriptor {
	return []Descriptor{
		{ID: "SEC-001", Check: checkAntivirus},
		{ID: "SEC-002", Check: checkUAC},
		{ID: "SEC-003", Check: checkPublicFirewall},
		{ID: "SEC-004", Check: checkEncryption},
		{ID: "SEC-005", Check: checkFailedLogins},
		{ID: "SYS-001", Check: checkUptime},
		{ID: "SWU-001", Check: checkUnwantedSoftware(patterns)},
		{ID: "SYS-002", Check: checkDiskUsage},
	}
}

func checkAntivirus(s *snapshot.Snapshot) (risk.Finding, bool) {
	if s.AntivirusActive() {
		return risk.Finding{}, false
	}
	return risk.Finding{
		ID:       "SEC-001",
		Severity: risk.SeverityHigh,
		Title:    "No active antivirus detected",
		Detail:   "No enabled antivirus product was reported by the snapshot.",
	}, true
}

func checkUAC(s *snapshot.Snapshot) (risk.Finding, bool) {
	enabled := s.UACEnabled()
	if enabled == nil || *enabled {
		return risk.Finding{}, false
	}
	return risk.Finding{
		ID:       "SEC-002",
		Severity: risk.SeverityHigh,
		Title:    "UAC is disabled",
		Detail:   "User Account Control is turned off on this device.",
	}, true
}

func checkPublicFirewall(s *snapshot.Snapshot) (risk.Finding, bool) {
	enabled := s.PublicFirewallEnabled()
	if enabled == nil || *enabled {
		return risk.Finding{}, false
	}
	return risk.Finding{
		ID:       "SEC-003",
		Severity: risk.SeverityHigh,
		Title:    "Public firewall profile is disabled",
		Detail:   "The firewall public profile is not active.",
	}, true
}

func checkEncryption(s *snapshot.Snapshot) (risk.Finding, bool) {
	volumes := s.EncryptionVolumes()
	if len(volumes) == 0 {
		return risk.Finding{}, false
	}
	unprotected := 0
	for _, v := range volumes {
		if v.ProtectionStatus == nil || *v.ProtectionStatus != 1 {
			unprotected++
		}
	}
	if unprotected == 0 {
		return risk.Finding{}, false
	}
	return risk.Finding{
		ID:       "SEC-004",
		Severity: risk.SeverityMedium,
		Title:    "Volume encryption not active on all volumes",
		Detail:   fmt.Sprintf("%d volume(s) lack active encryption protection.", unprotected),
	}, true
}

func checkFailedLogins(s *snapshot.Snapshot) (risk.Finding, bool) {
	count := s.FailedLoginCount()
	if count < failedLoginsMed {
		return risk.Finding{}, false
	}
	sev := risk.SeverityMedium
	if count >= failedLoginsHigh {
		sev = risk.SeverityHigh
	}
	return risk.Finding{
		ID:       "SEC-005",
		Severity: sev,
		Title:    "Multiple failed login attempts detected",
		Detail:   fmt.Sprintf("%d failed login event(s) found in the security log.", count),
	}, true
}

func checkUptime(s *snapshot.Snapshot) (risk.Finding, bool) {
	days := s.UptimeDays()
	switch {
	case days > uptimeHighDays:
		return risk.Finding{
			ID:       "SYS-001",
			Severity: risk.SeverityHigh,
			Title:    fmt.Sprintf("System uptime exceeds %d days", uptimeHighDays),
			Detail:   fmt.Sprintf("System has been running for %.0f days without a reboot.", days),
		}, true
	case days > uptimeMediumDays:
		return risk.Finding{
			ID:       "SYS-001",
			Severity: risk.SeverityMedium,
			Title:    fmt.Sprintf("System uptime exceeds %d days", uptimeMediumDays),
			Detail:   fmt.Sprintf("System has been running for %.0f days without a reboot.", days),
		}, true
	}
	return risk.Finding{}, false
}

func checkUnwantedSoftware(patterns []UnwantedPattern) func(*snapshot.Snapshot) (risk.Finding, bool) {
	return func(s *snapshot.Snapshot) (risk.Finding, bool) {
		matches := matchInstalled(s.InstalledSoftware(), patterns)
		if len(matches) == 0 {
			return risk.Finding{}, false
		}
		// One finding for the rule; severity is the worst matched pattern's.
		worst := risk.SeverityLow
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s [%s]", m.installedName, m.pattern.Category))
			if m.pattern.Severity.Weight() > worst.Weight() {
				worst = m.pattern.Severity
			}
		}
		return risk.Finding{
			ID:       "SWU-001",
			Severity: worst,
			Title:    fmt.Sprintf("Unwanted software detected (%d match(es))", len(matches)),
			Detail:   strings.Join(names, "; "),
		}, true
	}
}

func checkDiskUsage(s *snapshot.Snapshot) (risk.Finding, bool) {
	var critical, nearly []string
	for _, vol := range s.Storage {
		if vol.PercentUsed == nil {
			continue
		}
		mp := vol.MountPoint
		if mp == "" {
			mp = "?"
		}
		pct := *vol.PercentUsed
		switch {
		case pct > diskHighPct:
			critical = append(critical, fmt.Sprintf("%s is %.1f%% full", mp, pct))
		case pct > diskMediumPct:
			nearly = append(nearly, fmt.Sprintf("%s is %.1f%% full", mp, pct))
		}
	}
	switch {
	case len(critical) > 0:
		return risk.Finding{
			ID:       "SYS-002",
			Severity: risk.SeverityHigh,
			Title:    "Disk critically full",
			Detail:   strings.Join(critical, "; ") + fmt.Sprintf(" (>%d%%).", diskHighPct),
		}, true
	case len(nearly) > 0:
		return risk.Finding{
			ID:       "SYS-002",
			Severity: risk.SeverityMedium,
			Title:    "Disk nearly full",
			Detail:   strings.Join(nearly, "; ") + fmt.Sprintf(" (>%d%%).", diskMediumPct),
		}, true
	}
	return risk.Finding{}, false
}
