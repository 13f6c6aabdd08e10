package api

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/m3rciful/cardbot/core/logger"
	"github.com/m3rciful/cardbot/internal/store"
)

//go:embed static/index.html
var indexPage []byte

type handler struct {
	records RecordLister
	version string
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type peoplesResponse struct {
	Data []store.Record `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) page(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.version})
}

func (h *handler) listPeoples(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListAll(r.Context())
	if err != nil {
		logger.Error(r.Context(), "http", "peoples.list_failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list records"})
		return
	}
	writeJSON(w, http.StatusOK, peoplesResponse{Data: records})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
