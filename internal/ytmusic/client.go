package ytmusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/cesargomez89/radioqueue/internal/constants"
	"github.com/cesargomez89/radioqueue/internal/extract"
)

// Searcher is the subset of the proxy the resolver depends on.
type Searcher interface {
	SearchSongs(ctx context.Context, query string) ([]Song, error)
	GetSong(ctx context.Context, videoID string) (*Song, error)
}

var _ Searcher = (*Client)(nil)

// Client talks to a ytmusicapi HTTP proxy.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

func NewClient(baseURL string, rps float64, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.SearchTimeout}
	}
	if rps <= 0 {
		rps = constants.DefaultYTMusicRPS
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

var (
	idRules = []extract.Path{
		extract.P("videoId"), extract.P("video_id"), extract.P("id"),
		extract.P("videoDetails.videoId"),
	}
	titleRules = []extract.Path{
		extract.P("title"), extract.P("name"), extract.P("videoDetails.title"),
	}
	artistListRules = []extract.Path{
		extract.P("artists"), extract.P("authors"),
	}
	artistRules = []extract.Path{
		extract.P("artist"), extract.P("author"), extract.P("videoDetails.author"),
	}
	albumRules = []extract.Path{
		extract.P("album.name"), extract.P("album"), extract.P("albumName"),
	}
	durationTextRules = []extract.Path{
		extract.P("duration"), extract.P("durationText"), extract.P("length"),
	}
	durationSecondsRules = []extract.Path{
		extract.P("duration_seconds"), extract.P("durationSeconds"),
		extract.P("lengthSeconds"), extract.P("videoDetails.lengthSeconds"),
	}
	thumbnailRules = []extract.Path{
		extract.P("thumbnails"), extract.P("thumbnail.thumbnails"),
		extract.P("videoDetails.thumbnail.thumbnails"),
		extract.P("microformat.microformatDataRenderer.thumbnail.thumbnails"),
	}
	resultListRules = []extract.Path{
		extract.P("results"), extract.P("items"), extract.P("data"),
	}
)

// SearchSongs runs a song-filtered search. Items are returned in ranked order.
func (c *Client) SearchSongs(ctx context.Context, query string) ([]Song, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("filter", "songs")

	var raw interface{}
	if err := c.getJSON(ctx, "/api/search?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	items, ok := raw.([]interface{})
	if !ok {
		items = extract.FirstList(raw, resultListRules...)
	}

	songs := make([]Song, 0, len(items))
	for _, item := range items {
		songs = append(songs, parseSong(item))
	}
	return songs, nil
}

// GetSong fetches full metadata for one video. Returns nil when not found.
func (c *Client) GetSong(ctx context.Context, videoID string) (*Song, error) {
	var raw interface{}
	err := c.getJSON(ctx, "/api/song/"+url.PathEscape(videoID), &raw)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	song := parseSong(raw)
	if song.VideoID == "" {
		song.VideoID = videoID
	}
	return &song, nil
}

// StatusError reports a non-2xx proxy response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ytmusic proxy returned status %d", e.Code)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.SearchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseSong(item interface{}) Song {
	s := Song{
		VideoID:      extract.FirstString(item, idRules...),
		Title:        extract.FirstString(item, titleRules...),
		Album:        extract.FirstString(item, albumRules...),
		DurationText: extract.FirstString(item, durationTextRules...),
		Artists:      extract.Strings(extract.FirstList(item, artistListRules...), "name"),
	}
	if len(s.Artists) == 0 {
		if a := extract.FirstString(item, artistRules...); a != "" {
			s.Artists = []string{a}
		}
	}

	if n, ok := extract.FirstInt(item, durationSecondsRules...); ok && n >= 0 {
		s.DurationSeconds = &n
	} else if n, ok := ParseDuration(s.DurationText); ok {
		s.DurationSeconds = &n
	}

	for _, t := range extract.FirstList(item, thumbnailRules...) {
		u := extract.FirstString(t, extract.P("url"))
		if u == "" {
			continue
		}
		w, _ := extract.FirstInt(t, extract.P("width"))
		h, _ := extract.FirstInt(t, extract.P("height"))
		s.Thumbnails = append(s.Thumbnails, Thumbnail{URL: u, Width: w, Height: h})
	}
	return s
}
