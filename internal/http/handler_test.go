package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/radioqueue/internal/app"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/listenbrainz"
	"github.com/cesargomez89/radioqueue/internal/logger"
	"github.com/cesargomez89/radioqueue/internal/musicbrainz"
	"github.com/cesargomez89/radioqueue/internal/store"
	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

type fakeQueue struct {
	deliverErr error
	enqueueErr error
	delivery   *app.Delivery
	playing    *domain.QueueEntry
	pending    []*domain.QueueEntry
	submitted  []app.TrackSubmission
}

func (f *fakeQueue) ListPending(context.Context) ([]*domain.QueueEntry, error) {
	return f.pending, nil
}

func (f *fakeQueue) NowPlaying(context.Context) (*domain.QueueEntry, error) {
	return f.playing, nil
}

func (f *fakeQueue) EnqueueUserRequest(_ context.Context, in app.TrackSubmission) (*domain.QueueEntry, error) {
	f.submitted = append(f.submitted, in)
	if f.enqueueErr != nil {
		return nil, f.enqueueErr
	}
	return &domain.QueueEntry{ID: "new", TrackName: in.TrackName, PlayableURL: in.PlayableURL, Origin: "user"}, nil
}

func (f *fakeQueue) DeliverNext(context.Context) (*app.Delivery, error) {
	return f.delivery, f.deliverErr
}

type fakeSearch struct {
	err   error
	songs []ytmusic.Song
}

func (f *fakeSearch) SearchSongs(context.Context, string) ([]ytmusic.Song, error) {
	return f.songs, f.err
}

func (f *fakeSearch) GetSong(context.Context, string) (*ytmusic.Song, error) {
	return nil, nil
}

type fakeMB struct {
	got  musicbrainz.SearchParams
	recs []musicbrainz.Recording
}

func (f *fakeMB) SearchRecordings(_ context.Context, p musicbrainz.SearchParams) ([]musicbrainz.Recording, error) {
	f.got = p
	return f.recs, nil
}

type fakeLB struct {
	match *listenbrainz.RecordingMatch
}

func (f *fakeLB) LookupRecording(context.Context, string, string) (*listenbrainz.RecordingMatch, error) {
	return f.match, nil
}

func newRouter(q *fakeQueue, s *fakeSearch, mb *fakeMB, lb *fakeLB) http.Handler {
	if s == nil {
		s = &fakeSearch{}
	}
	if mb == nil {
		mb = &fakeMB{}
	}
	if lb == nil {
		lb = &fakeLB{}
	}
	r := chi.NewRouter()
	NewHandler(q, s, mb, lb, logger.Discard()).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLiquidsoap_Success(t *testing.T) {
	q := &fakeQueue{delivery: &app.Delivery{
		Entry:  &domain.QueueEntry{PlayableURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		Marked: true,
	}}
	rec := do(t, newRouter(q, nil, nil, nil), http.MethodGet, "/api/liquidsoap", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "youtube-dl:https://www.youtube.com/watch?v=dQw4w9WgXcQ\n" {
		t.Errorf("unexpected body %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("expected no-store, got %q", cc)
	}
	if rec.Header().Get("Pragma") != "no-cache" {
		t.Error("expected Pragma: no-cache")
	}
}

func TestLiquidsoap_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		name   string
		status int
	}{
		{name: "network", err: &domain.RecommendationNetworkError{Err: errors.New("reset"), Attempts: 3}, status: http.StatusBadGateway},
		{name: "empty pipeline", err: fmt.Errorf("%w: %w", domain.ErrNoPendingTracks, domain.ErrRecommendationEmpty), status: http.StatusBadGateway},
		{name: "empty prompt", err: domain.ErrEmptyPrompt, status: http.StatusInternalServerError},
		{name: "no pending", err: domain.ErrNoPendingTracks, status: http.StatusInternalServerError},
		{name: "contention", err: domain.ErrDeliveryContention, status: http.StatusInternalServerError},
		{name: "persistence", err: domain.NewPersistenceError("claim head", errors.New("locked")), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(&fakeQueue{deliverErr: tt.err}, nil, nil, nil), http.MethodGet, "/api/liquidsoap", "")
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			body := rec.Body.String()
			if body == "" || strings.Count(body, "\n") != 1 || !strings.HasSuffix(body, "\n") {
				t.Errorf("expected one-line diagnostic, got %q", body)
			}
			if strings.HasPrefix(body, "youtube-dl:") {
				t.Error("error response must not look like a track")
			}
		})
	}
}

func TestQueue_List(t *testing.T) {
	q := &fakeQueue{pending: []*domain.QueueEntry{{ID: "a", TrackName: "A"}, {ID: "b", TrackName: "B"}}}
	rec := do(t, newRouter(q, nil, nil, nil), http.MethodGet, "/api/queue", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []domain.QueueEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" {
		t.Errorf("unexpected list %+v", got)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "no-store") {
		t.Error("expected no-store on queue list")
	}
}

func TestQueue_Add(t *testing.T) {
	q := &fakeQueue{}
	body := `{"externalTrackId":"dQw4w9WgXcQ","trackName":"Song","artistName":"Artist","playableUrl":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","durationText":"3:33"}`
	rec := do(t, newRouter(q, nil, nil, nil), http.MethodPost, "/api/queue", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.submitted) != 1 || q.submitted[0].PlayableURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected submission %+v", q.submitted)
	}
	if q.submitted[0].DurationText != "3:33" {
		t.Errorf("duration text not forwarded: %+v", q.submitted[0])
	}
}

func TestQueue_AddValidationError(t *testing.T) {
	q := &fakeQueue{enqueueErr: &domain.ValidationError{Field: "playableUrl", Message: "is not a recognised media link"}}
	rec := do(t, newRouter(q, nil, nil, nil), http.MethodPost, "/api/queue", `{"playableUrl":"https://notyoutube.com/x"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil || !strings.Contains(msg.Message, "playableUrl") {
		t.Errorf("expected message naming the field, got %q (%v)", rec.Body.String(), err)
	}
}

type noRecommendations struct{}

func (noRecommendations) Recommend(context.Context, string, string) ([]domain.RecommendationCandidate, error) {
	return nil, nil
}

type noMatches struct{}

func (noMatches) Resolve(context.Context, string, string) (*domain.ResolvedTrack, error) {
	return nil, nil
}

func TestQueue_AddRequiresPlayableURL(t *testing.T) {
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()

	svc := app.NewQueueService(db, noRecommendations{}, noMatches{}, logger.Discard(), app.QueueOptions{})
	r := chi.NewRouter()
	NewHandler(svc, &fakeSearch{}, &fakeMB{}, &fakeLB{}, logger.Discard()).RegisterRoutes(r)

	rec := do(t, r, http.MethodPost, "/api/queue", `{"externalTrackId":"dQw4w9WgXcQ","trackName":"Song","artistName":"Artist"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "playableUrl") {
		t.Errorf("expected message naming playableUrl, got %s", rec.Body.String())
	}

	full := `{"externalTrackId":"dQw4w9WgXcQ","trackName":"Song","artistName":"Artist","playableUrl":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`
	if rec = do(t, r, http.MethodPost, "/api/queue", full); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = do(t, r, http.MethodPost, "/api/queue", full); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an already queued URL, got %d", rec.Code)
	}

	if count, _ := db.CountPending(context.Background()); count != 1 {
		t.Errorf("expected 1 pending row, got %d", count)
	}
}

func TestQueue_AddMalformedJSON(t *testing.T) {
	rec := do(t, newRouter(&fakeQueue{}, nil, nil, nil), http.MethodPost, "/api/queue", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestQueue_AddPersistenceError(t *testing.T) {
	q := &fakeQueue{enqueueErr: domain.NewPersistenceError("insert", errors.New("disk full"))}
	rec := do(t, newRouter(q, nil, nil, nil), http.MethodPost, "/api/queue", `{"trackName":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk full") {
		t.Error("internal error details must not leak")
	}
}

func TestNowPlaying(t *testing.T) {
	rec := do(t, newRouter(&fakeQueue{}, nil, nil, nil), http.MethodGet, "/api/nowplaying", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 with nothing played, got %d", rec.Code)
	}

	q := &fakeQueue{playing: &domain.QueueEntry{ID: "p", TrackName: "Playing"}}
	rec = do(t, newRouter(q, nil, nil, nil), http.MethodGet, "/api/nowplaying", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Playing") {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSearchSongs(t *testing.T) {
	s := &fakeSearch{songs: []ytmusic.Song{{VideoID: "dQw4w9WgXcQ", Title: "Song", Artists: []string{"Artist"}}}}
	rec := do(t, newRouter(&fakeQueue{}, s, nil, nil), http.MethodGet, "/api/search?q=song", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"youtubeUrl":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = do(t, newRouter(&fakeQueue{}, s, nil, nil), http.MethodGet, "/api/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", rec.Code)
	}

	failing := &fakeSearch{err: errors.New("proxy down")}
	rec = do(t, newRouter(&fakeQueue{}, failing, nil, nil), http.MethodGet, "/api/search?q=x", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on upstream failure, got %d", rec.Code)
	}
}

func TestSearchRecordings(t *testing.T) {
	mb := &fakeMB{recs: []musicbrainz.Recording{{ID: "r1", Title: "Song"}}}
	rec := do(t, newRouter(&fakeQueue{}, nil, mb, nil), http.MethodGet,
		"/api/musicbrainz/recordings?q=Song&artist=Band&expand=urls&streaming=1&limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := musicbrainz.SearchParams{Query: "Song", Artist: "Band", Limit: 3, ExpandURLs: true, StreamingOnly: true}
	if mb.got != want {
		t.Errorf("expected params %+v, got %+v", want, mb.got)
	}

	rec = do(t, newRouter(&fakeQueue{}, nil, mb, nil), http.MethodGet, "/api/musicbrainz/recordings", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without query, got %d", rec.Code)
	}
}

func TestLookupRecording(t *testing.T) {
	rec := do(t, newRouter(&fakeQueue{}, nil, nil, &fakeLB{}), http.MethodGet, "/api/listenbrainz/lookup?artist=a&recording=b", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on miss, got %d", rec.Code)
	}

	lb := &fakeLB{match: &listenbrainz.RecordingMatch{RecordingMBID: "m", RecordingName: "b"}}
	rec = do(t, newRouter(&fakeQueue{}, nil, nil, lb), http.MethodGet, "/api/listenbrainz/lookup?artist=a&recording=b", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"recording_mbid":"m"`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, newRouter(&fakeQueue{}, nil, nil, lb), http.MethodGet, "/api/listenbrainz/lookup?artist=a", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without recording, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, newRouter(&fakeQueue{}, nil, nil, nil), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}
