package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"it-snapshot-inventory/internal/identity"
	"it-snapshot-inventory/internal/risk"
	"it-snapshot-inventory/internal/rules"
	"it-snapshot-inventory/internal/snapshot"
)

// evaluationReport is the local scoring output: the same findings and score a
// server would compute, plus run metadata.
type evaluationReport struct {
	SchemaVersion string         `json:"schema_version"`
	RunID         string         `json:"run_id"`
	GeneratedAt   string         `json:"generated_at"`
	DeviceKey     string         `json:"device_key"`
	CollectedAt   string         `json:"collected_at"`
	Findings      []risk.Finding `json:"findings"`
	Risk          risk.Score     `json:"risk"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <snapshot.json>",
	Short: "Score a snapshot file locally, without a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		snap, err := snapshot.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse snapshot: %w", err)
		}

		patterns := rules.DefaultPatterns()
		if cfg.UnwantedPatternsFile != "" {
			patterns, err = rules.LoadPatternsFile(cfg.UnwantedPatternsFile)
			if err != nil {
				return fmt.Errorf("unwanted patterns: %w", err)
			}
		}

		findings := rules.NewEvaluator(patterns).Evaluate(snap)
		hostname, domain := snap.IdentityFields()

		report := evaluationReport{
			SchemaVersion: snap.SchemaVersion,
			RunID:         uuid.NewString(),
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			DeviceKey:     identity.Resolve(hostname, domain).String(),
			CollectedAt:   snap.CollectedAt,
			Findings:      findings,
			Risk:          risk.Aggregate(findings),
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
