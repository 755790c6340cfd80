// Package snapshot models the machine-fact snapshot produced by it-snapshot
// agents (payload schema v2, with v1 compatibility fields). The rules engine
// reads only the scalar fact view exposed by the accessor methods; everything
// else rides along as opaque payload.
package snapshot

import "encoding/json"

// Snapshot is one periodic machine-fact collection. Optional sections are nil
// when the collector did not produce them; absence means "no evidence", never
// an error.
type Snapshot struct {
	SchemaVersion string `json:"schema_version"`
	CollectedAt   string `json:"collected_at"`
	AgentVersion  string `json:"agent_version,omitempty"`
	RunID         string `json:"run_id,omitempty"`

	DeviceIdentity *DeviceIdentity `json:"device_identity,omitempty"`
	OSDetail       *OSDetail       `json:"os_detail,omitempty"`
	LegacyOS       *LegacyOS       `json:"os,omitempty"`

	Security *SecuritySection `json:"security,omitempty"`
	Logs     *LogsSection     `json:"logs,omitempty"`
	Reboot   *RebootSection   `json:"reboot,omitempty"`
	Storage  []StorageVolume  `json:"storage,omitempty"`
	Software *SoftwareSection `json:"software,omitempty"`

	// Hardware and network are collected but never read by rules; kept raw so
	// the stored payload stays lossless.
	Hardware json.RawMessage `json:"hardware,omitempty"`
	Network  json.RawMessage `json:"network,omitempty"`
}

// DeviceIdentity is the agent-reported identity block.
type DeviceIdentity struct {
	Hostname  string `json:"hostname,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Workgroup string `json:"workgroup,omitempty"`
}

// OSDetail is the v2 OS block.
type OSDetail struct {
	Caption string `json:"caption,omitempty"`
	Edition string `json:"edition,omitempty"`
	Version string `json:"version,omitempty"`
	Build   string `json:"build,omitempty"`
}

// LegacyOS is the v1 OS block, kept for agents that have not upgraded.
type LegacyOS struct {
	Hostname string `json:"hostname,omitempty"`
	OS       struct {
		Name    string `json:"name,omitempty"`
		Release string `json:"release,omitempty"`
	} `json:"os"`
}

// AntivirusProduct is one registered antivirus product. Enabled is nil when
// the product state could not be decoded.
type AntivirusProduct struct {
	Name         string `json:"name,omitempty"`
	Enabled      *bool  `json:"enabled,omitempty"`
	UpToDate     *bool  `json:"up_to_date,omitempty"`
	ProductState *int   `json:"product_state,omitempty"`
}

// FirewallStatus reports per-profile firewall state; nil means unknown.
type FirewallStatus struct {
	DomainEnabled  *bool `json:"domain_enabled,omitempty"`
	PrivateEnabled *bool `json:"private_enabled,omitempty"`
	PublicEnabled  *bool `json:"public_enabled,omitempty"`
}

// EncryptionVolume is one BitLocker-managed volume. ProtectionStatus 1 means
// protection is on.
type EncryptionVolume struct {
	MountPoint       string `json:"mount_point,omitempty"`
	ProtectionStatus *int   `json:"protection_status,omitempty"`
}

// EncryptionStatus holds volume encryption state.
type EncryptionStatus struct {
	BitlockerVolumes []EncryptionVolume `json:"bitlocker_volumes,omitempty"`
	FilevaultEnabled *bool              `json:"filevault_enabled,omitempty"`
}

// SecuritySection groups the security posture facts.
type SecuritySection struct {
	Antivirus  []AntivirusProduct `json:"antivirus,omitempty"`
	Firewall   *FirewallStatus    `json:"firewall,omitempty"`
	UACEnabled *bool              `json:"uac_enabled,omitempty"`
	Encryption *EncryptionStatus  `json:"encryption,omitempty"`
}

// LogsSection carries collected log evidence. Entries stay raw; only the
// failed-login count is read by rules.
type LogsSection struct {
	FailedLogins []json.RawMessage `json:"failed_logins,omitempty"`
}

// Uptime is the time since last boot.
type Uptime struct {
	Days    float64 `json:"days"`
	Hours   int     `json:"hours,omitempty"`
	Minutes int     `json:"minutes,omitempty"`
	Seconds int     `json:"seconds,omitempty"`
}

// RebootSection holds boot/uptime facts.
type RebootSection struct {
	Uptime       *Uptime `json:"uptime,omitempty"`
	LastBootTime string  `json:"last_boot_time,omitempty"`
}

// StorageVolume is one mounted volume.
type StorageVolume struct {
	Device      string   `json:"device,omitempty"`
	MountPoint  string   `json:"mountpoint,omitempty"`
	FSType      string   `json:"fstype,omitempty"`
	TotalGB     float64  `json:"total_gb,omitempty"`
	UsedGB      float64  `json:"used_gb,omitempty"`
	FreeGB      float64  `json:"free_gb,omitempty"`
	PercentUsed *float64 `json:"percent_used,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// SoftwareItem is one installed application.
type SoftwareItem struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	InstallDate string `json:"install_date,omitempty"`
}

// SoftwareSection lists installed software.
type SoftwareSection struct {
	Installed []SoftwareItem `json:"installed,omitempty"`
	Count     int            `json:"count,omitempty"`
}

// AntivirusActive reports whether any product in the antivirus list is enabled.
// False with an empty, missing, or all-disabled list: unlike the other facts,
// the absence of an antivirus product is itself positive evidence.
func (s *Snapshot) AntivirusActive() bool {
	if s.Security == nil {
		return false
	}
	for _, av := range s.Security.Antivirus {
		if av.Enabled != nil && *av.Enabled {
			return true
		}
	}
	return false
}

// UACEnabled returns the UAC state, or nil when unknown.
func (s *Snapshot) UACEnabled() *bool {
	if s.Security == nil {
		return nil
	}
	return s.Security.UACEnabled
}

// PublicFirewallEnabled returns the public firewall profile state, or nil when unknown.
func (s *Snapshot) PublicFirewallEnabled() *bool {
	if s.Security == nil || s.Security.Firewall == nil {
		return nil
	}
	return s.Security.Firewall.PublicEnabled
}

// EncryptionVolumes returns the BitLocker volume list, or nil when none were collected.
func (s *Snapshot) EncryptionVolumes() []EncryptionVolume {
	if s.Security == nil || s.Security.Encryption == nil {
		return nil
	}
	return s.Security.Encryption.BitlockerVolumes
}

// FailedLoginCount returns the number of collected failed-login events.
func (s *Snapshot) FailedLoginCount() int {
	if s.Logs == nil {
		return 0
	}
	return len(s.Logs.FailedLogins)
}

// UptimeDays returns the uptime in days, or 0 when not collected.
func (s *Snapshot) UptimeDays() float64 {
	if s.Reboot == nil || s.Reboot.Uptime == nil {
		return 0
	}
	return s.Reboot.Uptime.Days
}

// InstalledSoftware returns the installed software list, or nil when not collected.
func (s *Snapshot) InstalledSoftware() []SoftwareItem {
	if s.Software == nil {
		return nil
	}
	return s.Software.Installed
}

// OSInfo returns (name, version) preferring the v2 os_detail block and falling
// back to the legacy v1 os block. Empty strings when neither is present.
func (s *Snapshot) OSInfo() (name, version string) {
	if s.OSDetail != nil {
		if s.OSDetail.Edition != "" {
			name = s.OSDetail.Edition
		} else {
			name = s.OSDetail.Caption
		}
		version = s.OSDetail.Version
	}
	if s.LegacyOS != nil {
		if name == "" {
			name = s.LegacyOS.OS.Name
		}
		if version == "" {
			version = s.LegacyOS.OS.Release
		}
	}
	return name, version
}

// IdentityFields returns (hostname, domain) raw from the payload, preferring
// the device_identity block and falling back to the legacy os hostname, with
// workgroup standing in for a missing domain.
func (s *Snapshot) IdentityFields() (hostname, domain string) {
	if s.DeviceIdentity != nil {
		hostname = s.DeviceIdentity.Hostname
		domain = s.DeviceIdentity.Domain
		if domain == "" {
			domain = s.DeviceIdentity.Workgroup
		}
	}
	if hostname == "" && s.LegacyOS != nil {
		hostname = s.LegacyOS.Hostname
	}
	return hostname, domain
}

// Parse decodes a raw agent payload into a Snapshot. Unknown fields are
// tolerated; they remain in the raw payload the caller stores.
func Parse(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
