package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/JonMunkholm/fileimport/internal/core"
	"github.com/JonMunkholm/fileimport/internal/logging"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

const (
	contentTypeMsgpack = "application/msgpack"
	contentTypeNDJSON  = "application/x-ndjson"
)

// streamErrorLine terminates an NDJSON stream that stopped early.
type streamErrorLine struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Rows  int    `json:"rows"`
}

// handleImport reads an uploaded file whole and returns every record and
// row error in one response.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}

	ctx, cancel, ok := s.beginImport(w, r)
	if !ok {
		return
	}
	defer cancel()
	defer s.limiter.Release()
	defer r.MultipartForm.RemoveAll()

	logger := logging.WithFields(ctx, "record_type", rt.Key)
	file, opts := uploadedFile(r)

	summary, err := rt.ReadAll(ctx, s.importer, file, opts...)
	if err != nil {
		respondError(w, r.WithContext(ctx), err, statusFor(err))
		return
	}

	logger.Info("import completed",
		"file", summary.FileName,
		"rows", summary.TotalRows,
		"succeeded", summary.SuccessCount,
		"failed", summary.FailureCount,
	)

	if strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack) {
		body, err := msgpack.Marshal(summary)
		if err != nil {
			respondError(w, r, fmt.Errorf("encode result: %w", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// handleImportStream writes one NDJSON line per data row, flushing at the
// estimator's yield cadence so large files show progress.
func (s *Server) handleImportStream(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.recordType(w, r)
	if !ok {
		return
	}

	ctx, cancel, ok := s.beginImport(w, r)
	if !ok {
		return
	}
	defer cancel()
	defer s.limiter.Release()
	defer r.MultipartForm.RemoveAll()

	logger := logging.WithFields(ctx, "record_type", rt.Key)
	file, opts := uploadedFile(r)

	stream, err := rt.Stream(ctx, s.importer, file, opts...)
	if err != nil {
		respondError(w, r.WithContext(ctx), err, statusFor(err))
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", contentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)

	rows, failed := 0, 0
	for o := range stream.All() {
		if err := enc.Encode(o); err != nil {
			logger.Warn("stream write failed", "error", err, "rows", rows)
			return
		}
		rows++
		if !o.OK {
			failed++
		}
		if core.ShouldYield(rows, stream.Estimated()) {
			rc.Flush()
		}
	}

	if err := stream.Err(); err != nil {
		msg := core.MapError(err)
		logger.Warn("import stream stopped", "error", err, "code", msg.Code, "rows", rows)
		enc.Encode(streamErrorLine{Error: msg.Message, Code: msg.Code, Rows: rows})
	} else {
		logger.Info("import stream completed", "rows", rows, "failed", failed)
	}
	rc.Flush()
}

// beginImport applies the import deadline, takes a limiter slot and parses
// the multipart body. On false a response has already been written. On true
// the caller must cancel, release the slot and remove the form files.
func (s *Server) beginImport(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, bool) {
	ctx := withImportID(w, r)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Import.Timeout)

	if err := s.limiter.Acquire(ctx); err != nil {
		cancel()
		respondError(w, r.WithContext(ctx), err, statusFor(err))
		return nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.limiter.Release()
		cancel()

		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig), strings.Contains(err.Error(), "request body too large"):
			err = fmt.Errorf("%w: upload exceeds %d bytes", core.ErrFileTooLarge, s.cfg.Import.MaxUploadSize)
		case errors.Is(err, http.ErrNotMultipart):
			err = core.ErrNoFile
		default:
			err = fmt.Errorf("invalid upload form: %w", err)
		}
		respondError(w, r.WithContext(ctx), err, statusFor(err))
		return nil, nil, false
	}

	return ctx, cancel, true
}

// uploadedFile returns the "file" form part and the read options taken from
// the remaining form values.
func uploadedFile(r *http.Request) (core.File, []core.ReadOption) {
	var opts []core.ReadOption
	if sheet := r.FormValue("sheet"); sheet != "" {
		opts = append(opts, core.WithSheet(sheet))
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil, opts
	}
	return core.NewMultipartFile(files[0]), opts
}
