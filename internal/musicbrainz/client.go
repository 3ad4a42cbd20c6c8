package musicbrainz

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cesargomez89/radioqueue/internal/constants"
	"github.com/cesargomez89/radioqueue/internal/httpclient"
)

const DefaultUserAgent = "radioqueue/1.0 (https://github.com/cesargomez89/radioqueue)"

// streamingHosts are link targets treated as playable streams.
var streamingHosts = []string{
	"youtube.com", "youtu.be", "music.youtube.com", "spotify.com", "deezer.com",
	"tidal.com", "music.apple.com", "soundcloud.com", "bandcamp.com", "music.amazon.",
}

type Client struct {
	http    *httpclient.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpclient.NewClient(nil, constants.MusicBrainzMinRequest, DefaultUserAgent),
	}
}

// NewClientWithHTTP is used by tests to point at a local server without pacing.
func NewClientWithHTTP(baseURL string, hc *httpclient.Client) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: hc}
}

type SearchParams struct {
	Query         string `json:"query"`
	Artist        string `json:"artist,omitempty"`
	Limit         int    `json:"limit"`
	ExpandURLs    bool   `json:"expand_urls"`
	StreamingOnly bool   `json:"streaming_only"`
}

type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Recording struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Release     string   `json:"release,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Links       []Link   `json:"links,omitempty"`
	DurationMs  int      `json:"durationMs,omitempty"`
	Score       int      `json:"score"`
}

// SearchRecordings runs a recording search. With ExpandURLs the top results
// get their URL relationships fetched; StreamingOnly implies expansion and
// keeps only recordings with at least one streaming link.
func (c *Client) SearchRecordings(ctx context.Context, p SearchParams) ([]Recording, error) {
	q := buildQuery(p.Query, p.Artist)
	if q == "" {
		return []Recording{}, nil
	}

	limit := p.Limit
	if limit <= 0 || limit > constants.MaxRecordingResults {
		limit = constants.MaxRecordingResults
	}

	u := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=%d", c.baseURL, url.QueryEscape(q), limit)

	var result searchResponse
	if err := c.http.GetJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("musicbrainz search: %w", err)
	}

	recs := make([]Recording, 0, len(result.Recordings))
	for i := range result.Recordings {
		recs = append(recs, convertRecording(&result.Recordings[i]))
	}

	if !p.ExpandURLs && !p.StreamingOnly {
		return recs, nil
	}

	for i := range recs {
		if i >= constants.MaxURLExpansions {
			break
		}
		links, err := c.recordingLinks(ctx, recs[i].ID)
		if err != nil {
			return nil, err
		}
		recs[i].Links = links
	}

	if p.StreamingOnly {
		recs = filterStreaming(recs)
	}
	return recs, nil
}

func (c *Client) recordingLinks(ctx context.Context, mbid string) ([]Link, error) {
	u := fmt.Sprintf("%s/recording/%s?inc=url-rels&fmt=json", c.baseURL, url.PathEscape(mbid))

	var rec recording
	if err := c.http.GetJSON(ctx, u, &rec); err != nil {
		return nil, fmt.Errorf("musicbrainz url-rels %s: %w", mbid, err)
	}

	links := make([]Link, 0, len(rec.Relations))
	for _, rel := range rec.Relations {
		if rel.URL.Resource == "" {
			continue
		}
		links = append(links, Link{Type: rel.Type, URL: rel.URL.Resource})
	}
	return links, nil
}

// IsStreamingLink reports whether a relationship points at a streaming service.
func IsStreamingLink(l Link) bool {
	if strings.Contains(strings.ToLower(l.Type), "streaming") {
		return true
	}
	lower := strings.ToLower(l.URL)
	for _, h := range streamingHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func filterStreaming(recs []Recording) []Recording {
	out := make([]Recording, 0, len(recs))
	for _, r := range recs {
		var kept []Link
		for _, l := range r.Links {
			if IsStreamingLink(l) {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			continue
		}
		r.Links = kept
		out = append(out, r)
	}
	return out
}

// buildQuery renders a Lucene query over recording and artist fields.
func buildQuery(recordingName, artistName string) string {
	var parts []string
	if s := strings.TrimSpace(recordingName); s != "" {
		parts = append(parts, `recording:"`+escapeLucene(s)+`"`)
	}
	if s := strings.TrimSpace(artistName); s != "" {
		parts = append(parts, `artist:"`+escapeLucene(s)+`"`)
	}
	return strings.Join(parts, " AND ")
}

func escapeLucene(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func convertRecording(rec *recording) Recording {
	r := Recording{
		ID:         rec.ID,
		Title:      rec.Title,
		DurationMs: rec.Length,
		Score:      rec.Score,
	}
	for _, ac := range rec.ArtistCredit {
		r.Artists = append(r.Artists, ac.Artist.Name)
	}
	r.Artist = joinCredits(rec.ArtistCredit)
	if len(rec.Releases) > 0 {
		r.Release = rec.Releases[0].Title
		r.ReleaseDate = rec.Releases[0].Date
	}
	for _, t := range rec.Tags {
		if t.Count > 0 && strings.TrimSpace(t.Name) != "" {
			r.Tags = append(r.Tags, strings.TrimSpace(t.Name))
		}
	}
	return r
}

// joinCredits renders an artist credit the way MusicBrainz displays it.
func joinCredits(credits []artistCredit) string {
	var b strings.Builder
	for _, ac := range credits {
		name := ac.Name
		if name == "" {
			name = ac.Artist.Name
		}
		b.WriteString(name)
		b.WriteString(ac.JoinPhrase)
	}
	return strings.TrimSpace(b.String())
}

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Tags         []tag          `json:"tags"`
	Releases     []release      `json:"releases"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Relations    []relation     `json:"relations"`
	Length       int            `json:"length"`
	Score        int            `json:"score"`
}

type release struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

type artistCredit struct {
	Name       string `json:"name"`
	Artist     artist `json:"artist"`
	JoinPhrase string `json:"joinphrase"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type relation struct {
	Type string      `json:"type"`
	URL  relationURL `json:"url"`
}

type relationURL struct {
	Resource string `json:"resource"`
}
