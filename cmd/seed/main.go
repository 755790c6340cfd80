// seed ingests development sample snapshots for local testing.
// Idempotent: skips when the first seed device is already present.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"it-snapshot-inventory/internal/config"
	"it-snapshot-inventory/internal/db"
	"it-snapshot-inventory/internal/ingest"
	"it-snapshot-inventory/internal/inventory"
	boltstore "it-snapshot-inventory/internal/inventory/bolt"
	pgstore "it-snapshot-inventory/internal/inventory/postgres"
	"it-snapshot-inventory/internal/rules"
)

const firstSeedKey = "dev-ws-01@corp.example"

// seedSnapshots are handed to the regular ingest pipeline, so findings and
// scores come from the live rule catalog rather than hardcoded values.
var seedSnapshots = []string{
	`{
		"schema_version": "2.0",
		"collected_at": "%s",
		"device_identity": {"hostname": "DEV-WS-01", "domain": "corp.example"},
		"os_detail": {"edition": "Windows 11 Pro", "version": "10.0.26100"},
		"security": {
			"antivirus": [{"name": "Defender", "enabled": true, "up_to_date": true}],
			"uac_enabled": true,
			"firewall": {"public_enabled": true, "private_enabled": true},
			"encryption": {"bitlocker_volumes": [{"mount_point": "C:", "protection_status": 1}]}
		},
		"reboot": {"uptime": {"days": 1.2}},
		"software": {"installed": [{"name": "7-Zip", "version": "24.08"}]}
	}`,
	`{
		"schema_version": "2.0",
		"collected_at": "%s",
		"device_identity": {"hostname": "DEV-WS-02", "domain": "corp.example"},
		"os_detail": {"edition": "Windows 10 Pro", "version": "10.0.19045"},
		"security": {
			"antivirus": [],
			"uac_enabled": false,
			"firewall": {"public_enabled": false}
		},
		"reboot": {"uptime": {"days": 52.0}},
		"software": {"installed": [{"name": "uTorrent", "version": "3.6"}]}
	}`,
	`{
		"schema_version": "1.0",
		"collected_at": "%s",
		"os": {"hostname": "dev-legacy-01", "os": {"name": "Windows 8.1", "release": "6.3.9600"}},
		"security": {"antivirus": [{"name": "Defender", "enabled": true, "up_to_date": false}]}
	}`,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "store:", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	devices, err := store.ListDevices(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list devices:", err)
		os.Exit(1)
	}
	for _, d := range devices {
		if d.Key == firstSeedKey {
			log.Printf("seed data already present (%s), nothing to do", firstSeedKey)
			return
		}
	}

	svc := ingest.NewService(store, rules.NewEvaluator(rules.DefaultPatterns()), nil)
	collectedAt := time.Now().UTC().Format(time.RFC3339)
	for _, tmpl := range seedSnapshots {
		payload := fmt.Sprintf(tmpl, collectedAt)
		res, err := svc.Ingest(ctx, []byte(payload))
		if err != nil {
			fmt.Fprintln(os.Stderr, "ingest:", err)
			os.Exit(1)
		}
		log.Printf("seeded %s (report %d)", res.DeviceKey, res.ReportID)
	}
	log.Printf("seeded %d snapshots", len(seedSnapshots))
}

func openStore(cfg *config.Config) (inventory.Store, error) {
	if cfg.UsePostgres() {
		pool, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pgstore.NewStore(pool), nil
	}
	return boltstore.Open(cfg.BoltPath)
}
