// Package handler exposes the device query endpoints over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"it-snapshot-inventory/internal/inventory"
	"it-snapshot-inventory/internal/inventory/domain"
	"it-snapshot-inventory/internal/risk"
	"it-snapshot-inventory/internal/server/httpx"
)

// History limits: used when the query omits limit, and as the hard cap.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Server handles the read-side endpoints.
type Server struct {
	store inventory.Store
}

// NewServer returns a query HTTP server over the store.
func NewServer(store inventory.Store) *Server {
	return &Server{store: store}
}

type deviceSummary struct {
	Key       string    `json:"key"`
	Hostname  string    `json:"hostname"`
	Domain    string    `json:"domain"`
	LastSeen  time.Time `json:"last_seen"`
	OSName    string    `json:"os_name,omitempty"`
	OSVersion string    `json:"os_version,omitempty"`
	RiskScore int       `json:"risk_score"`
}

type reportDocument struct {
	ReportID    int64           `json:"report_id"`
	DeviceKey   string          `json:"device_key"`
	CollectedAt time.Time       `json:"collected_at"`
	IngestedAt  time.Time       `json:"ingested_at"`
	RiskScore   risk.Score      `json:"risk_score"`
	Findings    []risk.Finding  `json:"findings"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

type reportSummary struct {
	ReportID    int64     `json:"report_id"`
	DeviceKey   string    `json:"device_key"`
	CollectedAt time.Time `json:"collected_at"`
	IngestedAt  time.Time `json:"ingested_at"`
	Score       int       `json:"score"`
	Level       string    `json:"level"`
}

// ListDevices returns device summaries, most recently seen first.
func (s *Server) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]deviceSummary, len(devices))
	for i, d := range devices {
		out[i] = deviceSummary{
			Key: d.Key, Hostname: d.Hostname, Domain: d.Domain,
			LastSeen: d.LastSeen, OSName: d.OSName, OSVersion: d.OSVersion,
			RiskScore: d.RiskScore,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"devices": out, "count": len(out)})
}

// LatestReport returns the full latest report document for a device key.
func (s *Server) LatestReport(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	rep, err := s.store.LatestReport(r.Context(), key)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDocument(rep))
}

// ReportHistory returns report summaries for a device key, newest first,
// bounded by the limit query parameter.
func (s *Server) ReportHistory(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	history, err := s.store.ReportHistory(r.Context(), key, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]reportSummary, len(history))
	for i, h := range history {
		out[i] = reportSummary{
			ReportID: h.ID, DeviceKey: h.DeviceKey,
			CollectedAt: h.CollectedAt, IngestedAt: h.IngestedAt,
			Score: h.Score, Level: string(h.Level),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"reports": out, "count": len(out)})
}

func toDocument(rep *domain.Report) reportDocument {
	findings := rep.Findings
	if findings == nil {
		findings = []risk.Finding{}
	}
	return reportDocument{
		ReportID:    rep.ID,
		DeviceKey:   rep.DeviceKey,
		CollectedAt: rep.CollectedAt,
		IngestedAt:  rep.IngestedAt,
		RiskScore:   rep.RiskScore,
		Findings:    findings,
		Raw:         rep.Raw,
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "unknown device")
	case errors.Is(err, inventory.ErrInvalidLimit):
		httpx.Error(w, http.StatusBadRequest, "limit must be a positive integer")
	case errors.Is(err, inventory.ErrUnavailable):
		httpx.Error(w, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		log.Printf("query: unexpected error: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}
