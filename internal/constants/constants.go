// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort            = "8080"
	DefaultDBPath          = "radioqueue.db"
	DefaultYTMusicURL      = "http://127.0.0.1:8000"
	DefaultYTMusicRPS      = 5.0
	DefaultListenBrainzURL = "https://api.listenbrainz.org"
	DefaultMusicBrainzURL  = "https://musicbrainz.org/ws/2"
	DefaultRadioMode       = RadioModeEasy
	DefaultSeedPrompt      = "tag:(rock)"
	DefaultCacheTTL        = 12 * time.Hour
	DefaultRetryCount      = 3
	DefaultRetryBase       = 500 * time.Millisecond
)

// Queue behaviour
const (
	DefaultQuarantineWindow = 30 * time.Minute
	DefaultAutofillCooldown = 10 * time.Second
	DefaultTargetBuffer     = 2
	MinDeliverableBuffer    = 2
	MaxDeliverAttempts      = 3
)

// Timeouts
const (
	RecommendationTimeout = 10 * time.Second
	SearchTimeout         = 10 * time.Second
	ShutdownTimeout       = 5 * time.Second
)

// LB Radio modes
const (
	RadioModeEasy   = "easy"
	RadioModeMedium = "medium"
	RadioModeHard   = "hard"
)

// Entry origins
const (
	OriginUser     = "user"
	OriginAutofill = "autofill"
)

// Media links
const (
	WatchURLPrefix      = "https://www.youtube.com/watch?v="
	EncoderSchemePrefix = "youtube-dl:"
	CoverTargetSize     = 1080
)

// Limits
const (
	MaxSearchResults      = 20
	MaxRecordingResults   = 25
	MaxURLExpansions      = 5
	MaxTrackNameLength    = 500
	MaxDurationSeconds    = 24 * 60 * 60
	MaxRequestBodyBytes   = 64 * 1024
	MusicBrainzMinRequest = 1050 * time.Millisecond
)
