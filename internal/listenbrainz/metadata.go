package listenbrainz

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cesargomez89/radioqueue/internal/httpclient"
)

// RecordingMatch is the metadata lookup result for an artist/recording pair.
type RecordingMatch struct {
	ArtistCreditName string   `json:"artist_credit_name"`
	RecordingMBID    string   `json:"recording_mbid"`
	RecordingName    string   `json:"recording_name"`
	ReleaseMBID      string   `json:"release_mbid,omitempty"`
	ReleaseName      string   `json:"release_name,omitempty"`
	ArtistMBIDs      []string `json:"artist_mbids,omitempty"`
}

type MetadataLookup interface {
	LookupRecording(ctx context.Context, artist, recording string) (*RecordingMatch, error)
}

var _ MetadataLookup = (*MetadataClient)(nil)
var _ MetadataLookup = (*CachedMetadataClient)(nil)

type MetadataClient struct {
	http    *httpclient.Client
	baseURL string
}

func NewMetadataClient(baseURL string, hc *httpclient.Client) *MetadataClient {
	if hc == nil {
		hc = httpclient.NewClient(nil, 0, DefaultUserAgent)
	}
	return &MetadataClient{baseURL: strings.TrimSuffix(baseURL, "/"), http: hc}
}

// LookupRecording returns nil when ListenBrainz has no match.
func (c *MetadataClient) LookupRecording(ctx context.Context, artist, recording string) (*RecordingMatch, error) {
	artist, recording = strings.TrimSpace(artist), strings.TrimSpace(recording)
	if artist == "" || recording == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("artist_name", artist)
	q.Set("recording_name", recording)
	u := c.baseURL + "/1/metadata/lookup/?" + q.Encode()

	var match RecordingMatch
	if err := c.http.GetJSON(ctx, u, &match); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("listenbrainz lookup: %w", err)
	}
	if match.RecordingMBID == "" {
		return nil, nil
	}
	return &match, nil
}

type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

type CachedMetadataClient struct {
	client MetadataLookup
	cache  Cache
	ttl    time.Duration
}

func NewCachedMetadataClient(client MetadataLookup, cache Cache, ttl time.Duration) *CachedMetadataClient {
	return &CachedMetadataClient{client: client, cache: cache, ttl: ttl}
}

type cachedMatch struct {
	Match    *RecordingMatch `json:"match"`
	NotFound bool            `json:"not_found"`
}

func (c *CachedMetadataClient) LookupRecording(ctx context.Context, artist, recording string) (*RecordingMatch, error) {
	key := lookupKey(artist, recording)

	data, err := c.cache.GetCache(key)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var cached cachedMatch
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached.Match, nil
		}
	}

	match, err := c.client.LookupRecording(ctx, artist, recording)
	if err != nil {
		return nil, err
	}

	cached := cachedMatch{Match: match, NotFound: match == nil}
	if data, marshalErr := json.Marshal(cached); marshalErr == nil {
		_ = c.cache.SetCache(key, data, c.ttl)
	}
	return match, nil
}

func lookupKey(artist, recording string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(artist)) + "\x00" + strings.ToLower(strings.TrimSpace(recording))))
	return "lb:lookup:" + hex.EncodeToString(sum[:])
}
