// Package listenbrainz talks to the ListenBrainz API: LB Radio for
// recommendations and the metadata lookup endpoint.
package listenbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/cesargomez89/radioqueue/internal/constants"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/extract"
	"github.com/cesargomez89/radioqueue/internal/logger"
)

const DefaultUserAgent = "radioqueue/1.0 (https://github.com/cesargomez89/radioqueue)"

var (
	trackListRules = []extract.Path{
		extract.P("payload.jspf.playlist.track"),
		extract.P("jspf.playlist.track"),
		extract.P("playlist.track"),
	}
	trackTitleRules  = []extract.Path{extract.P("title"), extract.P("recording_name")}
	trackArtistRules = []extract.Path{extract.P("creator"), extract.P("artist_credit_name"), extract.P("artist")}
	trackAlbumRules  = []extract.Path{extract.P("album"), extract.P("release_name")}
)

type RadioOptions struct {
	HTTPClient  *http.Client
	Logger      *logger.Logger
	Timeout     time.Duration
	BackoffBase time.Duration
	Attempts    int
	Strict      bool
}

// Radio fetches LB Radio playlists. The lenient variant turns every failure
// into an empty result; the strict variant retries transient network errors
// and reports them once the attempt budget is spent.
type Radio struct {
	httpClient  *http.Client
	logger      *logger.Logger
	baseURL     string
	timeout     time.Duration
	backoffBase time.Duration
	attempts    int
	strict      bool
}

func NewRadio(baseURL string, opts RadioOptions) *Radio {
	r := &Radio{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		timeout:     opts.Timeout,
		backoffBase: opts.BackoffBase,
		attempts:    opts.Attempts,
		strict:      opts.Strict,
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{}
	}
	if r.logger == nil {
		r.logger = logger.Default()
	}
	r.logger = r.logger.WithComponent("listenbrainz")
	if r.timeout <= 0 {
		r.timeout = constants.RecommendationTimeout
	}
	if r.backoffBase <= 0 {
		r.backoffBase = constants.DefaultRetryBase
	}
	if r.attempts <= 0 {
		r.attempts = constants.DefaultRetryCount
	}
	return r
}

// Recommend returns candidates for prompt in the given mode.
func (r *Radio) Recommend(ctx context.Context, prompt, mode string) ([]domain.RecommendationCandidate, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}
	if mode == "" {
		mode = constants.DefaultRadioMode
	}
	log := r.logger.WithPrompt(prompt)

	if !r.strict {
		cands, err := r.fetch(ctx, prompt, mode)
		if err != nil {
			log.Warn("Recommendation request failed", "error", err)
			return []domain.RecommendationCandidate{}, nil
		}
		return cands, nil
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		cands, err := r.fetch(ctx, prompt, mode)
		if err == nil {
			return cands, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var statusErr *statusError
		if errors.As(err, &statusErr) || !IsTransient(err) {
			log.Warn("Recommendation request rejected", "error", err)
			return []domain.RecommendationCandidate{}, nil
		}

		lastErr = err
		log.Warn("Transient recommendation failure", "attempt", attempt, "error", err)
		if attempt == r.attempts {
			break
		}

		wait := r.backoffBase << (attempt - 1)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &domain.RecommendationNetworkError{Err: lastErr, Attempts: r.attempts}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("listenbrainz returned status %d", e.code)
}

// fetch performs one bounded request. Malformed bodies yield an empty list.
func (r *Radio) fetch(ctx context.Context, prompt, mode string) ([]domain.RecommendationCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("prompt", prompt)
	q.Set("mode", mode)
	u := r.baseURL + "/1/explore/lb-radio?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		r.logger.Debug("Malformed radio payload", "error", err)
		return []domain.RecommendationCandidate{}, nil
	}
	return ParseCandidates(raw), nil
}

// ParseCandidates extracts title/artist/album triples from a JSPF payload.
// Tracks missing a title or artist are dropped.
func ParseCandidates(raw interface{}) []domain.RecommendationCandidate {
	tracks := extract.FirstList(raw, trackListRules...)
	out := make([]domain.RecommendationCandidate, 0, len(tracks))
	for _, t := range tracks {
		c := domain.RecommendationCandidate{
			Title:  extract.FirstString(t, trackTitleRules...),
			Artist: extract.FirstString(t, trackArtistRules...),
			Album:  extract.FirstString(t, trackAlbumRules...),
		}
		if c.Title == "" || c.Artist == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsTransient reports network failures worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
