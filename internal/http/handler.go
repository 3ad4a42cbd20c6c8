package httpapp

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/radioqueue/internal/app"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/listenbrainz"
	"github.com/cesargomez89/radioqueue/internal/logger"
	"github.com/cesargomez89/radioqueue/internal/musicbrainz"
	"github.com/cesargomez89/radioqueue/internal/telemetry"
	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

// QueueService is the queue surface the handlers need.
type QueueService interface {
	ListPending(ctx context.Context) ([]*domain.QueueEntry, error)
	NowPlaying(ctx context.Context) (*domain.QueueEntry, error)
	EnqueueUserRequest(ctx context.Context, in app.TrackSubmission) (*domain.QueueEntry, error)
	DeliverNext(ctx context.Context) (*app.Delivery, error)
}

var _ QueueService = (*app.QueueService)(nil)

type Handler struct {
	Queue        QueueService
	Search       ytmusic.Searcher
	MusicBrainz  musicbrainz.ClientInterface
	ListenBrainz listenbrainz.MetadataLookup
	Logger       *logger.Logger
}

func NewHandler(queue QueueService, search ytmusic.Searcher, mb musicbrainz.ClientInterface, lb listenbrainz.MetadataLookup, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Queue:        queue,
		Search:       search,
		MusicBrainz:  mb,
		ListenBrainz: lb,
		Logger:       log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(noStore)

		r.Get("/queue", h.ListQueue)
		r.Post("/queue", h.AddToQueue)
		r.Get("/liquidsoap", h.Liquidsoap)
		r.Get("/nowplaying", h.NowPlaying)

		r.Get("/search", h.SearchSongs)
		r.Get("/musicbrainz/recordings", h.SearchRecordings)
		r.Get("/listenbrainz/lookup", h.LookupRecording)
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
