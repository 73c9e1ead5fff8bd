package web

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fileimport/internal/logging"
	"github.com/JonMunkholm/fileimport/internal/web/middleware"
)

// withImportID assigns a fresh import ID to the request context and echoes
// it in the response headers so clients can quote it to support.
func withImportID(w http.ResponseWriter, r *http.Request) context.Context {
	id := uuid.NewString()
	w.Header().Set(middleware.ImportIDHeader, id)
	return logging.WithImportID(r.Context(), id)
}

// hostOnly strips the port from a host:port address.
func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return host
}
