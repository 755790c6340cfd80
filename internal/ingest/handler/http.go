// Package handler exposes the ingest endpoint over HTTP.
package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"it-snapshot-inventory/internal/ingest"
	"it-snapshot-inventory/internal/inventory"
	"it-snapshot-inventory/internal/server/httpx"
)

// maxPayloadBytes bounds an agent report body. Full snapshots with software
// inventories run to a few hundred KB; 5 MB leaves ample slack.
const maxPayloadBytes = 5 << 20

// Server handles POST /ingest.
type Server struct {
	service *ingest.Service
}

// NewServer returns an ingest HTTP server.
func NewServer(service *ingest.Service) *Server {
	return &Server{service: service}
}

type ingestResponse struct {
	OK        bool   `json:"ok"`
	DeviceKey string `json:"device_key"`
	ReportID  int64  `json:"report_id"`
	Hostname  string `json:"hostname"`
}

// Ingest accepts one agent report payload. Status codes: 201 on commit,
// 400 validation, 422 unsupported schema, 503 store unavailable.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(raw) > maxPayloadBytes {
		httpx.Error(w, http.StatusRequestEntityTooLarge, "payload exceeds size limit")
		return
	}

	res, err := s.service.Ingest(r.Context(), raw)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ingestResponse{
		OK:        true,
		DeviceKey: res.DeviceKey,
		ReportID:  res.ReportID,
		Hostname:  res.Hostname,
	})
}

func writeIngestError(w http.ResponseWriter, err error) {
	var verr *ingest.ValidationError
	var serr *ingest.UnsupportedSchemaError
	switch {
	case errors.As(err, &verr):
		httpx.Error(w, http.StatusBadRequest, verr.Reason)
	case errors.As(err, &serr):
		httpx.Error(w, http.StatusUnprocessableEntity, serr.Error())
	case errors.Is(err, inventory.ErrUnavailable):
		httpx.Error(w, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		log.Printf("ingest: unexpected error: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}
