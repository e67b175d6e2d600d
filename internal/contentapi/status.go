package contentapi

import (
	"encoding/json"
	"net/http"

	"github.com/keithlinneman/zuga-web/internal/bundle"
	"github.com/keithlinneman/zuga-web/internal/content"
)

// StatusResponse is the ops view of the content root: where it came from
// and what the start-up check found.
type StatusResponse struct {
	Bundle bundle.Meta    `json:"bundle"`
	OK     bool           `json:"ok"`
	Check  content.Report `json:"check"`
}

// StatusHandler serves the start-up check report. It is meant for the ops
// listener, not the public site.
func StatusHandler(meta bundle.Meta, rep content.Report) http.Handler {
	body, err := json.Marshal(StatusResponse{Bundle: meta, OK: rep.OK(), Check: rep})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"status unavailable"}`))
			return
		}
		_, _ = w.Write(body)
	})
}
