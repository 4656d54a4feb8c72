package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/generations"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type renderRequest struct {
	Markup string `json:"markup"`
	Format string `json:"format"`
}

type renderResponse struct {
	URL      string          `json:"url"`
	Format   diagrams.Format `json:"format"`
	Filename string          `json:"filename"`
}

type categoriesResponse struct {
	Categories []conversation.Category `json:"categories"`
}

type generationsResponse struct {
	Generations []generations.Generation `json:"generations"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

func (d *Dashboard) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: conversation.Categories})
}

func (d *Dashboard) handleRender(w http.ResponseWriter, r *http.Request) {
	req, format, ok := d.decodeRender(w, r)
	if !ok {
		return
	}
	url, err := d.cfg.Renderer.URL(req.Markup, format)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{URL: url, Format: format, Filename: diagrams.Filename(format)})
}

func (d *Dashboard) handleDownload(w http.ResponseWriter, r *http.Request) {
	req, format, ok := d.decodeRender(w, r)
	if !ok {
		return
	}
	img, err := d.cfg.Renderer.Fetch(r.Context(), req.Markup, format)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			d.logger.Warn("download failed", "error", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.Format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+diagrams.Filename(img.Format))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

func (d *Dashboard) handleGenerations(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	resp := generationsResponse{Generations: []generations.Generation{}}
	if d.cfg.Generations == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	list, err := d.cfg.Generations.List(r.Context(), generations.ListOptions{
		SessionID: r.URL.Query().Get("session"),
		Limit:     limit,
	})
	if err != nil {
		d.logger.Error("listing generations", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if list != nil {
		resp.Generations = list
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRender reads a render request and resolves its format, writing the
// error response itself when it returns false.
func (d *Dashboard) decodeRender(w http.ResponseWriter, r *http.Request) (renderRequest, diagrams.Format, bool) {
	var req renderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return req, "", false
	}
	format := d.cfg.Format
	if req.Format != "" {
		f, err := diagrams.ParseFormat(req.Format)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return req, "", false
		}
		format = f
	}
	if d.cfg.Renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "rendering is not configured"})
		return req, "", false
	}
	return req, format, true
}

func writeAppError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, apperr.HTTPStatus(e.Kind), errorResponse{Error: apperr.UserMessage(e), Kind: e.Kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ServeIndex serves the embedded chat page.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(indexHTML)
}
