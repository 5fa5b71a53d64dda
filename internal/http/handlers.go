package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"caption-timeline-service/internal/caption"
	"caption-timeline-service/internal/models"
	"caption-timeline-service/internal/project"
	"caption-timeline-service/internal/schema"
	"caption-timeline-service/internal/service/captions"
	"caption-timeline-service/internal/service/session"
	"caption-timeline-service/internal/service/stt"
	"caption-timeline-service/internal/style"
)

const maxBodyBytes = 32 << 20

var errBadRequest = errors.New("bad request")

type handler struct {
	svc *captions.Service
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
	Field  string `json:"field,omitempty"`
}

type transcribeRequest struct {
	VideoURI string `json:"videoUri"`
}

type phrasesResponse struct {
	Revision uint64                `json:"revision"`
	Phrases  []captions.PhraseView `json:"phrases"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Status: statusFor(err)}

	var ve *caption.ValidationError
	switch {
	case errors.As(err, &ve):
		body.Field = ve.Field
	case errors.Is(err, stt.ErrEmptyVideoURI):
		body.Field = "videoUri"
	case errors.Is(err, style.ErrInvalidColor), errors.Is(err, style.ErrInvalidTextCase), errors.Is(err, style.ErrOutOfRange):
		body.Field = "style"
	}
	if body.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", body.Status).Msg("Request failed")
	}
	writeJSON(w, body.Status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, captions.ErrTranscriber):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrLimitExceeded), errors.Is(err, schema.ErrTooManyWords):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrTranscriptionInProgress):
		return http.StatusConflict
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, caption.ErrValidation),
		errors.Is(err, stt.ErrEmptyVideoURI),
		errors.Is(err, schema.ErrFailedTranscription),
		errors.Is(err, style.ErrInvalidColor),
		errors.Is(err, style.ErrInvalidTextCase),
		errors.Is(err, style.ErrOutOfRange),
		errors.Is(err, project.ErrUnknownFormat),
		errors.Is(err, project.ErrUnsupportedVersion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched and
// reports false.
func decode(w http.ResponseWriter, r *http.Request, v any) (bool, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return false, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return true, nil
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.List())
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var payload models.TranscriptionResult
	ok, err := decode(w, r, &payload)
	if err != nil {
		writeError(w, err)
		return
	}
	var p *models.TranscriptionResult
	if ok {
		p = &payload
	}
	sum, err := h.svc.Create(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+sum.ID)
	writeJSON(w, http.StatusCreated, sum)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if _, err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	sum, err := h.svc.Transcribe(r.Context(), chi.URLParam(r, "id"), req.VideoURI)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) loadWords(w http.ResponseWriter, r *http.Request) {
	var payload models.TranscriptionResult
	if _, err := decode(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sum, err := h.svc.LoadWords(r.Context(), chi.URLParam(r, "id"), &payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) getPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Policy(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) putPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.Policy(id)
	if err != nil {
		writeError(w, err)
		return
	}
	// fields absent from the body keep their current value
	if _, err := decode(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	sum, err := h.svc.SetPolicy(r.Context(), id, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) getStyle(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Style(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) putStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.svc.Style(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := decode(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	sum, err := h.svc.SetStyle(id, c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum.Style)
}

func (h *handler) phrases(w http.ResponseWriter, r *http.Request) {
	phrases, rev, err := h.svc.Phrases(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phrasesResponse{Revision: rev, Phrases: phrases})
}

func (h *handler) active(w http.ResponseWriter, r *http.Request) {
	t, err := parseTime(r.URL.Query().Get("t"))
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.svc.Active(chi.URLParam(r, "id"), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// parseTime accepts seconds ("3.25") or a timecode ("00:00:03,250").
func parseTime(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, &caption.ValidationError{Field: "t", Position: -1, Reason: "query parameter is required"}
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &caption.ValidationError{Field: "t", Position: -1, Reason: "must be finite"}
		}
		return f, nil
	}
	return caption.ParseTimecode(v)
}

func (h *handler) exportSRT(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.svc.ExportSRT(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="captions.srt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *handler) exportWords(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportWords(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="words.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) exportProject(w http.ResponseWriter, r *http.Request) {
	f, err := project.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.svc.ExportProject(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) importProject(w http.ResponseWriter, r *http.Request) {
	f, err := project.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	sum, err := h.svc.ImportProject(r.Context(), chi.URLParam(r, "id"), data, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
