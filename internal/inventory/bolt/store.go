// Package bolt implements the inventory store on an embedded bbolt file, the
// single-node deployment mode. One Update transaction per ingest gives the
// upsert+append pair its atomicity; report ids come from the reports bucket
// sequence, which only ever increases.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"it-snapshot-inventory/internal/inventory"
	"it-snapshot-inventory/internal/inventory/domain"
	"it-snapshot-inventory/internal/risk"
)

var (
	bucketDevices     = []byte("devices")
	bucketReports     = []byte("reports")
	bucketReportIndex = []byte("reports_by_device")
)

// indexSep separates device key and report id in index keys. Device keys are
// "hostname@domain" with both halves lowercased and non-empty, so NUL never
// appears in them.
const indexSep = "\x00"

// Store is a bbolt-backed inventory store.
type Store struct {
	db *bbolt.DB
}

type storedDevice struct {
	Key       string    `json:"key"`
	Hostname  string    `json:"hostname"`
	Domain    string    `json:"domain"`
	LastSeen  time.Time `json:"last_seen"`
	OSName    string    `json:"os_name,omitempty"`
	OSVersion string    `json:"os_version,omitempty"`
	RiskScore int       `json:"risk_score"`
}

type storedReport struct {
	ID          int64           `json:"id"`
	DeviceKey   string          `json:"device_key"`
	CollectedAt time.Time       `json:"collected_at"`
	IngestedAt  time.Time       `json:"ingested_at"`
	RiskScore   risk.Score      `json:"risk_score"`
	Findings    []risk.Finding  `json:"findings"`
	Raw         json.RawMessage `json:"raw"`
}

// Open opens (or creates) the store file at path. Call Close when done.
func Open(path string) (*Store, error) {
	opts := &bbolt.Options{Timeout: 1 * time.Second}
	db, err := bbolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", inventory.ErrUnavailable, path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketDevices, bucketReports, bucketReportIndex} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create buckets: %v", inventory.ErrUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Ingest upserts the device and appends the report inside one Update
// transaction.
func (s *Store) Ingest(ctx context.Context, dev domain.Device, rep domain.NewReport) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := upsertDeviceTx(tx, dev); err != nil {
			return err
		}
		var err error
		id, err = appendReportTx(tx, rep)
		return err
	})
	if err != nil {
		return 0, wrapUnavailable("ingest", err)
	}
	return id, nil
}

// UpsertDevice creates or overwrites the device row.
func (s *Store) UpsertDevice(ctx context.Context, dev domain.Device) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return upsertDeviceTx(tx, dev)
	})
	return wrapUnavailable("upsert device", err)
}

// AppendReport inserts a new report row and returns its id.
func (s *Store) AppendReport(ctx context.Context, rep domain.NewReport) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		id, err = appendReportTx(tx, rep)
		return err
	})
	if err != nil {
		return 0, wrapUnavailable("append report", err)
	}
	return id, nil
}

func upsertDeviceTx(tx *bbolt.Tx, dev domain.Device) error {
	bucket := tx.Bucket(bucketDevices)
	// Keep the stored state only when the incoming report is at least as
	// recent; equal timestamps favor the arriving call.
	if existing := bucket.Get([]byte(dev.Key)); existing != nil {
		var cur storedDevice
		if err := json.Unmarshal(existing, &cur); err == nil && dev.LastSeen.Before(cur.LastSeen) {
			return nil
		}
	}
	data, err := json.Marshal(storedDevice{
		Key: dev.Key, Hostname: dev.Hostname, Domain: dev.Domain,
		LastSeen: dev.LastSeen, OSName: dev.OSName, OSVersion: dev.OSVersion,
		RiskScore: dev.RiskScore,
	})
	if err != nil {
		return fmt.Errorf("marshal device: %w", err)
	}
	return bucket.Put([]byte(dev.Key), data)
}

func appendReportTx(tx *bbolt.Tx, rep domain.NewReport) (int64, error) {
	bucket := tx.Bucket(bucketReports)
	seq, err := bucket.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	id := int64(seq)
	findings := rep.Findings
	if findings == nil {
		findings = []risk.Finding{}
	}
	raw := rep.Raw
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	stored := storedReport{
		ID:          id,
		DeviceKey:   rep.DeviceKey,
		CollectedAt: rep.CollectedAt,
		IngestedAt:  time.Now().UTC(),
		RiskScore:   rep.RiskScore,
		Findings:    findings,
		Raw:         raw,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}
	if err := bucket.Put(reportKey(id), data); err != nil {
		return 0, err
	}
	index := tx.Bucket(bucketReportIndex)
	if err := index.Put(indexKey(rep.DeviceKey, id), nil); err != nil {
		return 0, err
	}
	return id, nil
}

// ListDevices returns all devices, most recently seen first.
func (s *Store) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var out []domain.Device
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDevices).ForEach(func(_, v []byte) error {
			var d storedDevice
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("decode device: %w", err)
			}
			out = append(out, domain.Device{
				Key: d.Key, Hostname: d.Hostname, Domain: d.Domain,
				LastSeen: d.LastSeen, OSName: d.OSName, OSVersion: d.OSVersion,
				RiskScore: d.RiskScore,
			})
			return nil
		})
	})
	if err != nil {
		return nil, wrapUnavailable("list devices", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

// LatestReport returns the most recently collected report for the key.
func (s *Store) LatestReport(ctx context.Context, key string) (*domain.Report, error) {
	var latest *storedReport
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketDevices).Get([]byte(key)) == nil {
			return inventory.ErrNotFound
		}
		reports := tx.Bucket(bucketReports)
		return forEachDeviceReport(tx, key, func(id int64) error {
			data := reports.Get(reportKey(id))
			if data == nil {
				return fmt.Errorf("%w: report %d indexed but missing", errCorrupt, id)
			}
			var rep storedReport
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("decode report %d: %w", id, err)
			}
			if latest == nil || newerThan(&rep, latest) {
				latest = &rep
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrapUnavailable("latest report", err)
	}
	if latest == nil {
		return nil, inventory.ErrNotFound
	}
	return toDomainReport(latest), nil
}

// ReportHistory returns up to limit summaries for the key, newest first.
func (s *Store) ReportHistory(ctx context.Context, key string, limit int) ([]domain.ReportSummary, error) {
	if limit <= 0 {
		return nil, inventory.ErrInvalidLimit
	}
	var all []storedReport
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketDevices).Get([]byte(key)) == nil {
			return inventory.ErrNotFound
		}
		reports := tx.Bucket(bucketReports)
		return forEachDeviceReport(tx, key, func(id int64) error {
			data := reports.Get(reportKey(id))
			if data == nil {
				return fmt.Errorf("%w: report %d indexed but missing", errCorrupt, id)
			}
			var rep storedReport
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("decode report %d: %w", id, err)
			}
			all = append(all, rep)
			return nil
		})
	})
	if err != nil {
		return nil, wrapUnavailable("report history", err)
	}
	sort.Slice(all, func(i, j int) bool { return newerThan(&all[i], &all[j]) })
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]domain.ReportSummary, len(all))
	for i, rep := range all {
		out[i] = domain.ReportSummary{
			ID:          rep.ID,
			DeviceKey:   rep.DeviceKey,
			CollectedAt: rep.CollectedAt,
			IngestedAt:  rep.IngestedAt,
			Score:       rep.RiskScore.Score,
			Level:       rep.RiskScore.Level,
		}
	}
	return out, nil
}

// Ping verifies the file handle is still usable with a no-op view.
func (s *Store) Ping(ctx context.Context) error {
	err := s.db.View(func(tx *bbolt.Tx) error { return nil })
	return wrapUnavailable("ping", err)
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle so sibling repositories (audit) can share
// the single store file.
func (s *Store) DB() *bbolt.DB {
	return s.db
}

var errCorrupt = errors.New("inventory: index corrupt")

// newerThan orders reports by collected_at, ties broken by id (ingest order).
func newerThan(a, b *storedReport) bool {
	if a.CollectedAt.Equal(b.CollectedAt) {
		return a.ID > b.ID
	}
	return a.CollectedAt.After(b.CollectedAt)
}

func forEachDeviceReport(tx *bbolt.Tx, key string, fn func(id int64) error) error {
	prefix := []byte(key + indexSep)
	c := tx.Bucket(bucketReportIndex).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		id := int64(binary.BigEndian.Uint64(k[len(prefix):]))
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func reportKey(id int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func indexKey(deviceKey string, id int64) []byte {
	return append([]byte(deviceKey+indexSep), reportKey(id)...)
}

func toDomainReport(rep *storedReport) *domain.Report {
	return &domain.Report{
		ID:          rep.ID,
		DeviceKey:   rep.DeviceKey,
		CollectedAt: rep.CollectedAt,
		IngestedAt:  rep.IngestedAt,
		RiskScore:   rep.RiskScore,
		Findings:    rep.Findings,
		Raw:         rep.Raw,
	}
}

// wrapUnavailable passes through the store's own typed errors and wraps
// anything else as retryable.
func wrapUnavailable(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, inventory.ErrInvalidLimit),
		errors.Is(err, inventory.ErrUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %s: %v", inventory.ErrUnavailable, op, err)
	}
}
