package web

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fileimport/internal/core"
	"github.com/JonMunkholm/fileimport/internal/logging"
	"github.com/JonMunkholm/fileimport/internal/web/templates"
)

// recordTypeResponse describes a registered record type to API clients.
type recordTypeResponse struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Columns []string `json:"columns"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	types := core.All()
	options := make([]templates.RecordTypeOption, len(types))
	for i, rt := range types {
		options[i] = templates.RecordTypeOption{Key: rt.Key, Label: rt.Label, Columns: rt.Columns}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.UploadPage(options, s.importer.Formats(), s.importer.MaxFileSize())
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleListRecordTypes returns every registered record type.
func (s *Server) handleListRecordTypes(w http.ResponseWriter, r *http.Request) {
	types := core.All()
	resp := make([]recordTypeResponse, len(types))
	for i, rt := range types {
		resp[i] = recordTypeResponse{Key: rt.Key, Label: rt.Label, Columns: rt.Columns}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleDownloadTemplate returns a CSV file holding only the header row.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.csv"`, rt.Key))

	csvWriter := csv.NewWriter(w)
	csvWriter.Write(rt.Columns)
	csvWriter.Flush()
}

// handleHealth reports import capacity for load balancers and dashboards.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "ok",
		"imports":     s.limiter.Status(),
		"recordTypes": core.Count(),
		"formats":     s.importer.Formats(),
	})
}

// recordType resolves the {recordType} route parameter, writing a 404 when
// it is not registered.
func (s *Server) recordType(w http.ResponseWriter, r *http.Request) (core.RecordType, bool) {
	key := chi.URLParam(r, "recordType")
	rt, ok := core.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %q", errUnknownRecordType, key), http.StatusNotFound)
	}
	return rt, ok
}
