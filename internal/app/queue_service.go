package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/radioqueue/internal/constants"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/listenbrainz"
	"github.com/cesargomez89/radioqueue/internal/logger"
	"github.com/cesargomez89/radioqueue/internal/telemetry"
	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

// Recommender yields radio candidates for a seed prompt.
type Recommender interface {
	Recommend(ctx context.Context, prompt, mode string) ([]domain.RecommendationCandidate, error)
}

// Resolver matches a candidate to a playable track; nil means no match.
type Resolver interface {
	Resolve(ctx context.Context, artist, title string) (*domain.ResolvedTrack, error)
}

type QueueOptions struct {
	Now              func() time.Time
	RadioMode        string
	SeedPrompt       string
	QuarantineWindow time.Duration
	AutofillCooldown time.Duration
	TargetBuffer     int
}

// Delivery is the row handed to the encoder. Marked is false when the row was
// returned provisionally and stays pending.
type Delivery struct {
	Entry  *domain.QueueEntry
	Marked bool
}

// QueueService owns the request queue: user submissions, encoder delivery
// and autofill from the recommender.
type QueueService struct {
	repo        domain.QueueRepository
	recommender Recommender
	resolver    Resolver
	logger      *logger.Logger
	now         func() time.Time

	lastAutofill time.Time
	opts         QueueOptions

	cooldownMu sync.Mutex
	fillMu     sync.Mutex
	deliverMu  sync.Mutex
}

func NewQueueService(repo domain.QueueRepository, rec Recommender, res Resolver, log *logger.Logger, opts QueueOptions) *QueueService {
	if log == nil {
		log = logger.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RadioMode == "" {
		opts.RadioMode = constants.DefaultRadioMode
	}
	if opts.SeedPrompt == "" {
		opts.SeedPrompt = constants.DefaultSeedPrompt
	}
	if opts.QuarantineWindow <= 0 {
		opts.QuarantineWindow = constants.DefaultQuarantineWindow
	}
	if opts.AutofillCooldown < 0 {
		opts.AutofillCooldown = 0
	}
	if opts.TargetBuffer < constants.MinDeliverableBuffer {
		opts.TargetBuffer = constants.MinDeliverableBuffer
	}
	return &QueueService{
		repo:        repo,
		recommender: rec,
		resolver:    res,
		logger:      log.WithComponent("queue"),
		now:         opts.Now,
		opts:        opts,
	}
}

// ListPending returns undelivered entries, oldest first.
func (s *QueueService) ListPending(ctx context.Context) ([]*domain.QueueEntry, error) {
	entries, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("list pending", err)
	}
	telemetry.PendingTracks.Set(float64(len(entries)))
	return entries, nil
}

// NowPlaying returns the most recently delivered entry, or nil.
func (s *QueueService) NowPlaying(ctx context.Context) (*domain.QueueEntry, error) {
	entry, err := s.repo.LatestDelivered(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("latest delivered", err)
	}
	return entry, nil
}

// TrackSubmission is a user add-to-queue request.
type TrackSubmission struct {
	DurationSeconds *int
	DurationText    string
	ExternalTrackID string
	TrackName       string
	ArtistName      string
	ReleaseName     string
	CoverURL        string
	PlayableURL     string
}

// EnqueueUserRequest validates a submission and stores it as a pending row.
func (s *QueueService) EnqueueUserRequest(ctx context.Context, in TrackSubmission) (*domain.QueueEntry, error) {
	entry, err := s.buildUserEntry(in)
	if err != nil {
		return nil, err
	}

	var duplicate bool
	err = s.repo.WithTx(ctx, func(tx domain.QueueRepository) error {
		exists, err := tx.ExistsByPlayableURL(ctx, entry.PlayableURL)
		if err != nil {
			return err
		}
		if exists {
			duplicate = true
			return nil
		}
		return tx.InsertEntry(ctx, entry)
	})
	if err != nil {
		return nil, domain.NewPersistenceError("insert", err)
	}
	if duplicate {
		return nil, &domain.ValidationError{Field: "playableUrl", Message: "is already queued"}
	}
	s.logger.WithEntry(entry.ID, entry.TrackName).Info("Track requested", "artist", entry.ArtistName)
	return entry, nil
}

func (s *QueueService) buildUserEntry(in TrackSubmission) (*domain.QueueEntry, error) {
	id := strings.TrimSpace(in.ExternalTrackID)
	track := strings.TrimSpace(in.TrackName)
	artist := strings.TrimSpace(in.ArtistName)
	playable := strings.TrimSpace(in.PlayableURL)

	switch {
	case !domain.IsExternalTrackID(id):
		return nil, &domain.ValidationError{Field: "externalTrackId", Message: "must be an 11 character video id"}
	case track == "":
		return nil, &domain.ValidationError{Field: "trackName", Message: "is required"}
	case len(track) > constants.MaxTrackNameLength:
		return nil, &domain.ValidationError{Field: "trackName", Message: "is too long"}
	case artist == "":
		return nil, &domain.ValidationError{Field: "artistName", Message: "is required"}
	case len(artist) > constants.MaxTrackNameLength:
		return nil, &domain.ValidationError{Field: "artistName", Message: "is too long"}
	case playable == "":
		return nil, &domain.ValidationError{Field: "playableUrl", Message: "is required"}
	case !domain.IsPlayableURL(playable):
		return nil, &domain.ValidationError{Field: "playableUrl", Message: "is not a recognised media link"}
	}

	duration, err := resolveDuration(in.DurationSeconds, in.DurationText)
	if err != nil {
		return nil, err
	}

	return &domain.QueueEntry{
		ID:              newEntryID(),
		ExternalTrackID: id,
		TrackName:       track,
		ArtistName:      artist,
		ReleaseName:     domain.StringPtr(strings.TrimSpace(in.ReleaseName)),
		CoverURL:        domain.StringPtr(strings.TrimSpace(in.CoverURL)),
		PlayableURL:     playable,
		DurationSeconds: duration,
		Origin:          constants.OriginUser,
		CreatedAt:       s.now().UTC(),
	}, nil
}

// resolveDuration prefers the structured value and falls back to "m:ss" text.
func resolveDuration(seconds *int, text string) (*int, error) {
	if seconds != nil {
		if *seconds < 0 || *seconds > constants.MaxDurationSeconds {
			return nil, &domain.ValidationError{Field: "durationSeconds", Message: "out of range"}
		}
		v := *seconds
		return &v, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	v, ok := ytmusic.ParseDuration(text)
	if !ok || v > constants.MaxDurationSeconds {
		return nil, &domain.ValidationError{Field: "durationText", Message: "must look like m:ss or h:mm:ss"}
	}
	return &v, nil
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// DeliverNext hands the oldest pending entry to the encoder. The entry is
// marked delivered only when another pending entry remains behind it.
func (s *QueueService) DeliverNext(ctx context.Context) (*Delivery, error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	d, err := s.deliverNext(ctx)
	switch {
	case err != nil:
		telemetry.DeliveriesTotal.WithLabelValues("error").Inc()
	case d.Marked:
		telemetry.DeliveriesTotal.WithLabelValues("delivered").Inc()
	default:
		telemetry.DeliveriesTotal.WithLabelValues("provisional").Inc()
	}
	return d, err
}

func (s *QueueService) deliverNext(ctx context.Context) (*Delivery, error) {
	s.sweep(ctx)

	if err := s.autofill(ctx, false); err != nil {
		if domain.IsFatalAutofillError(err) {
			return nil, err
		}
		s.logger.Debug("Opportunistic autofill failed", "error", err)
	}

	for attempt := 0; attempt < constants.MaxDeliverAttempts; attempt++ {
		head := s.peek(ctx)
		if head == nil {
			fillErr := s.autofill(ctx, true)
			if domain.IsFatalAutofillError(fillErr) {
				return nil, fillErr
			}
			if head = s.peek(ctx); head == nil {
				if fillErr != nil {
					return nil, fmt.Errorf("%w: %w", domain.ErrNoPendingTracks, fillErr)
				}
				return nil, domain.ErrNoPendingTracks
			}
		}

		count, err := s.repo.CountPending(ctx)
		if err != nil {
			return nil, domain.NewPersistenceError("count pending", err)
		}
		if count < constants.MinDeliverableBuffer {
			if fillErr := s.autofill(ctx, true); fillErr != nil {
				s.logger.Warn("Replenish before delivery failed", "error", fillErr)
			}
		}

		d, err := s.claim(ctx, head.ID)
		if err != nil {
			return nil, err
		}
		if d != nil {
			log := s.logger.WithEntry(d.Entry.ID, d.Entry.TrackName)
			if d.Marked {
				log.Info("Track delivered", "delete_at", d.Entry.DeleteAt)
			} else {
				log.Warn("Track returned without marking; buffer below minimum")
			}
			return d, nil
		}
		s.logger.Debug("Queue head changed during delivery, retrying", "attempt", attempt+1)
	}
	return nil, domain.ErrDeliveryContention
}

// claim re-reads the head inside one transaction and marks it delivered with
// a compare-and-set. A nil Delivery means another poller won the row.
func (s *QueueService) claim(ctx context.Context, expectedID string) (*Delivery, error) {
	var d *Delivery
	err := s.repo.WithTx(ctx, func(tx domain.QueueRepository) error {
		head, err := tx.PeekOldestPending(ctx)
		if err != nil {
			return err
		}
		if head == nil || head.ID != expectedID {
			return nil
		}

		count, err := tx.CountPending(ctx)
		if err != nil {
			return err
		}
		telemetry.PendingTracks.Set(float64(count))
		if count < constants.MinDeliverableBuffer {
			d = &Delivery{Entry: head}
			return nil
		}

		until := s.now().Add(s.opts.QuarantineWindow).UTC()
		ok, err := tx.MarkDelivered(ctx, head.ID, until)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		head.DeleteAt = &until
		d = &Delivery{Entry: head, Marked: true}
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("claim head", err)
	}
	return d, nil
}

func (s *QueueService) peek(ctx context.Context) *domain.QueueEntry {
	head, err := s.repo.PeekOldestPending(ctx)
	if err != nil {
		s.logger.Warn("Reading queue head failed", "error", err)
		return nil
	}
	return head
}

func (s *QueueService) sweep(ctx context.Context) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Warn("Expired sweep failed", "error", err)
		return
	}
	if n > 0 {
		telemetry.SweptTotal.Add(float64(n))
		s.logger.Debug("Expired rows removed", "count", n)
	}
}

// Autofill tops up the queue. Unless force is set it is a no-op inside the
// cooldown window.
func (s *QueueService) Autofill(ctx context.Context, force bool) error {
	return s.autofill(ctx, force)
}

func (s *QueueService) autofill(ctx context.Context, force bool) error {
	if !s.claimCooldown(force) {
		return nil
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	inserted, err := s.fill(ctx)
	switch {
	case err != nil:
		telemetry.AutofillRunsTotal.WithLabelValues("error").Inc()
	case inserted > 0:
		telemetry.AutofillRunsTotal.WithLabelValues("inserted").Inc()
	default:
		telemetry.AutofillRunsTotal.WithLabelValues("noop").Inc()
	}
	return err
}

// claimCooldown records this run and reports whether it may proceed.
func (s *QueueService) claimCooldown(force bool) bool {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	now := s.now()
	if !force && !s.lastAutofill.IsZero() && now.Sub(s.lastAutofill) < s.opts.AutofillCooldown {
		return false
	}
	s.lastAutofill = now
	return true
}

func (s *QueueService) fill(ctx context.Context) (int, error) {
	pending, err := s.repo.CountPending(ctx)
	if err != nil {
		return 0, domain.NewPersistenceError("count pending", err)
	}
	need := s.opts.TargetBuffer - pending
	if need <= 0 {
		return 0, nil
	}

	prompt, err := s.seedPrompt(ctx)
	if err != nil {
		return 0, err
	}
	log := s.logger.WithPrompt(prompt)

	candidates, err := s.recommend(ctx, prompt)
	if err != nil {
		return 0, err
	}
	log.Debug("Recommendations received", "count", len(candidates), "need", need)

	lastTitle := ""
	if last, lastErr := s.repo.LatestDelivered(ctx); lastErr != nil {
		log.Warn("Reading last delivered track failed", "error", lastErr)
	} else if last != nil {
		lastTitle = listenbrainz.NormalizeTrackName(last.TrackName)
	}

	inserted := 0
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if inserted >= need {
			break
		}

		title := listenbrainz.NormalizeTrackName(c.Title)
		if title == "" {
			continue
		}
		if title == lastTitle {
			telemetry.CandidatesTotal.WithLabelValues("repeat").Inc()
			continue
		}
		key := title + "|" + listenbrainz.NormalizeTrackName(c.Artist)
		if _, dup := seen[key]; dup {
			telemetry.CandidatesTotal.WithLabelValues("duplicate").Inc()
			continue
		}
		seen[key] = struct{}{}

		track, resErr := s.resolver.Resolve(ctx, c.Artist, c.Title)
		if resErr != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("Resolve failed", "title", c.Title, "error", resErr)
			continue
		}
		if track == nil {
			telemetry.CandidatesTotal.WithLabelValues("unresolved").Inc()
			continue
		}

		exists, existsErr := s.repo.ExistsByPlayableURL(ctx, track.PlayableURL)
		if existsErr != nil {
			return inserted, domain.NewPersistenceError("dedupe lookup", existsErr)
		}
		if exists {
			telemetry.CandidatesTotal.WithLabelValues("exists").Inc()
			continue
		}

		entry := entryFromTrack(track, s.now().UTC())
		if err := s.repo.InsertEntry(ctx, entry); err != nil {
			return inserted, domain.NewPersistenceError("insert", err)
		}
		telemetry.CandidatesTotal.WithLabelValues("inserted").Inc()
		inserted++
		log.WithEntry(entry.ID, entry.TrackName).Info("Autofill queued track", "artist", entry.ArtistName)
	}

	if pending == 0 && inserted == 0 {
		return 0, domain.ErrRecommendationEmpty
	}
	return inserted, nil
}

// recommend bounds the recommender call by its retry budget. Resolving the
// candidates afterwards runs under the caller's context.
func (s *QueueService) recommend(ctx context.Context, prompt string) ([]domain.RecommendationCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RecommendationTimeout*time.Duration(constants.DefaultRetryCount+1))
	defer cancel()
	return s.recommender.Recommend(ctx, prompt, s.opts.RadioMode)
}

// seedPrompt derives the radio prompt from the newest row, falling back to
// the configured seed when the queue has no history.
func (s *QueueService) seedPrompt(ctx context.Context) (string, error) {
	latest, err := s.repo.LatestEntry(ctx)
	if err != nil {
		s.logger.Warn("Reading latest entry failed", "error", err)
	}
	if latest != nil {
		if p := listenbrainz.ArtistPrompt(latest.ArtistName); p != "" {
			return p, nil
		}
		if t := strings.TrimSpace(latest.TrackName); t != "" {
			return t, nil
		}
	}
	if p := strings.TrimSpace(s.opts.SeedPrompt); p != "" {
		return p, nil
	}
	return "", domain.ErrEmptyPrompt
}

func entryFromTrack(t *domain.ResolvedTrack, createdAt time.Time) *domain.QueueEntry {
	return &domain.QueueEntry{
		ID:              newEntryID(),
		ExternalTrackID: t.ExternalID,
		TrackName:       t.Title,
		ArtistName:      t.ArtistName,
		ReleaseName:     domain.StringPtr(t.AlbumName),
		CoverURL:        domain.StringPtr(t.CoverURL),
		PlayableURL:     t.PlayableURL,
		DurationSeconds: t.DurationSeconds,
		Origin:          constants.OriginAutofill,
		CreatedAt:       createdAt,
	}
}

// IsUpstreamFailure reports errors caused by the recommendation source
// rather than by this service.
func IsUpstreamFailure(err error) bool {
	var netErr *domain.RecommendationNetworkError
	return errors.As(err, &netErr) || errors.Is(err, domain.ErrRecommendationEmpty)
}
