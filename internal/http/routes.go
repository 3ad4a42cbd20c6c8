package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cesargomez89/radioqueue/internal/app"
	"github.com/cesargomez89/radioqueue/internal/constants"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/http/dto"
	"github.com/cesargomez89/radioqueue/internal/musicbrainz"
)

func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Queue.ListPending(r.Context())
	if err != nil {
		h.Logger.Error("Failed to list queue", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to list queue")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) AddToQueue(w http.ResponseWriter, r *http.Request) {
	var req dto.QueueEntryRequest
	body := http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.Queue.EnqueueUserRequest(r.Context(), req.ToSubmission())
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			writeMessage(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.Logger.Error("Failed to enqueue track", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to add track")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Liquidsoap answers the encoder poll with one annotated URI per line.
func (h *Handler) Liquidsoap(w http.ResponseWriter, r *http.Request) {
	d, err := h.Queue.DeliverNext(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		status := deliveryStatus(err)
		h.Logger.Error("Delivery failed", "status", status, "error", err)
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, "error: %s\n", oneLine(err.Error()))
		return
	}
	_, _ = io.WriteString(w, constants.EncoderSchemePrefix+d.Entry.PlayableURL+"\n")
}

// deliveryStatus maps recommendation-source failures to 502 and everything
// else to 500.
func deliveryStatus(err error) int {
	if app.IsUpstreamFailure(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Queue.NowPlaying(r.Context())
	if err != nil {
		h.Logger.Error("Failed to read now playing", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to read now playing")
		return
	}
	if entry == nil {
		writeMessage(w, http.StatusNotFound, "nothing has been played yet")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) SearchSongs(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeMessage(w, http.StatusBadRequest, "q is required")
		return
	}

	songs, err := h.Search.SearchSongs(r.Context(), q)
	if err != nil {
		h.Logger.Warn("Song search failed", "query", q, "error", err)
		writeMessage(w, http.StatusBadGateway, "search failed")
		return
	}
	limit := dto.ParseLimit(r.URL.Query().Get("limit"), constants.MaxSearchResults, constants.MaxSearchResults)
	writeJSON(w, http.StatusOK, dto.SongResults(songs, limit))
}

func (h *Handler) SearchRecordings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p := musicbrainz.SearchParams{
		Query:         strings.TrimSpace(query.Get("q")),
		Artist:        strings.TrimSpace(query.Get("artist")),
		Limit:         dto.ParseLimit(query.Get("limit"), constants.MaxRecordingResults, constants.MaxRecordingResults),
		ExpandURLs:    query.Get("expand") == "urls" || dto.ParseFlag(query.Get("expand")),
		StreamingOnly: dto.ParseFlag(query.Get("streaming")),
	}
	if p.Query == "" && p.Artist == "" {
		writeMessage(w, http.StatusBadRequest, "q or artist is required")
		return
	}

	recs, err := h.MusicBrainz.SearchRecordings(r.Context(), p)
	if err != nil {
		h.Logger.Warn("Recording search failed", "query", p.Query, "error", err)
		writeMessage(w, http.StatusBadGateway, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) LookupRecording(w http.ResponseWriter, r *http.Request) {
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	recording := strings.TrimSpace(r.URL.Query().Get("recording"))
	if artist == "" || recording == "" {
		writeMessage(w, http.StatusBadRequest, "artist and recording are required")
		return
	}

	match, err := h.ListenBrainz.LookupRecording(r.Context(), artist, recording)
	if err != nil {
		h.Logger.Warn("Metadata lookup failed", "artist", artist, "recording", recording, "error", err)
		writeMessage(w, http.StatusBadGateway, "lookup failed")
		return
	}
	if match == nil {
		writeMessage(w, http.StatusNotFound, "no match")
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.MessageResponse{Message: msg})
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
