package lyrics

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
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"karolbroda.com/lyroverlay/internal/cache"
)

var (
	ErrNoLyrics         = errors.New("no lyrics found")
	ErrDurationMismatch = errors.New("lyrics duration does not match track")
)

type LrclibResponse struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
	SyncOffset   float64 `json:"-"`
}

type TrackParams struct {
	Title        string
	Artist       string
	Album        string
	DurationSecs int64
}

// Cache is the subset of cache.Store the client reads and fills.
type Cache interface {
	Get(artist, title string) (*cache.LyricEntry, error)
	Set(artist, title string, entry *cache.LyricEntry) error
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond paces lookups across search strategies.
	RequestsPerSecond float64
	// LengthToleration rejects results whose duration differs from the
	// track by more than this. Zero disables the check.
	LengthToleration time.Duration
	Cache            Cache
	HTTPClient       *http.Client
}

type Client struct {
	baseURL    *url.URL
	timeout    time.Duration
	tolerance  time.Duration
	limiter    *rate.Limiter
	cache      Cache
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("lrclib base url is empty")
	}

	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   2 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     60 * time.Second,
				TLSHandshakeTimeout: 2 * time.Second,
			},
			Timeout: timeout,
		}
	}

	return &Client{
		baseURL:    parsedURL,
		timeout:    timeout,
		tolerance:  cfg.LengthToleration,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cfg.Cache,
		httpClient: httpClient,
	}, nil
}

type searchStrategy struct {
	artist   string
	title    string
	album    string
	duration int64
}

// normalizeString cleans and normalizes track/artist names for better matching
func normalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripVersionInfo removes text in parentheses and brackets (remixes, versions, etc)
func stripVersionInfo(s string) string {
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}} {
		for {
			start := strings.Index(s, pair[0])
			end := strings.Index(s, pair[1])
			if start < 0 || end <= start {
				break
			}
			s = s[:start] + " " + s[end+1:]
		}
	}
	return normalizeString(s)
}

func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func buildStrategies(track *TrackParams) []searchStrategy {
	artist := normalizeString(track.Artist)
	title := normalizeString(track.Title)

	candidates := []searchStrategy{
		{artist, title, track.Album, track.DurationSecs},
		{artist, title, "", track.DurationSecs},
		{artist, title, "", 0},
		{stripVersionInfo(track.Artist), stripVersionInfo(track.Title), "", 0},
		{strings.ToUpper(artist), strings.ToUpper(title), "", 0},
		{strings.ToLower(artist), strings.ToLower(title), "", 0},
		{toTitleCase(artist), toTitleCase(title), "", 0},
		{track.Artist, track.Title, "", 0},
	}

	seen := make(map[string]bool)
	var unique []searchStrategy
	for _, strategy := range candidates {
		if strategy.artist == "" || strategy.title == "" {
			continue
		}
		key := fmt.Sprintf("%s|%s|%s|%d", strategy.artist, strategy.title, strategy.album, strategy.duration)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, strategy)
		}
	}

	return unique
}

// Fetch returns lyrics for track, consulting the cache first and trying
// several name variations against lrclib.
func (c *Client) Fetch(ctx context.Context, track *TrackParams) (*LrclibResponse, error) {
	if track == nil {
		return nil, errors.New("nil track info")
	}
	if normalizeString(track.Title) == "" || normalizeString(track.Artist) == "" {
		return nil, errors.New("track title or artist is empty")
	}

	if c.cache != nil {
		cached, err := c.cache.Get(track.Artist, track.Title)
		if err == nil && cached != nil {
			return responseFromEntry(cached), nil
		}
	}

	var lastErr error
	for _, strategy := range buildStrategies(track) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		payload, err := c.doFetchRequest(ctx, c.strategyURL(strategy))
		if err != nil {
			lastErr = err
			if isTimeoutError(err) {
				return nil, errors.New("lyrics server took too long to respond")
			}
			continue
		}

		if payload.PlainLyrics == "" && payload.SyncedLyrics == "" && !payload.Instrumental {
			lastErr = ErrNoLyrics
			continue
		}

		if !c.durationMatches(payload.Duration, track.DurationSecs) {
			log.WithFields(log.Fields{
				"component": "lrclib",
				"track":     track.Artist + " - " + track.Title,
				"got":       payload.Duration,
				"want":      track.DurationSecs,
			}).Debug("skipping lyrics with mismatched duration")
			lastErr = ErrDurationMismatch
			continue
		}

		if c.cache != nil {
			if err := c.cache.Set(track.Artist, track.Title, entryFromResponse(payload)); err != nil {
				log.WithField("component", "lrclib").WithError(err).Warn("failed to cache lyrics")
			}
		}

		return payload, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no lyrics found for %s - %s: %w", track.Artist, track.Title, lastErr)
	}
	return nil, fmt.Errorf("no lyrics found for %s - %s: %w", track.Artist, track.Title, ErrNoLyrics)
}

func (c *Client) strategyURL(strategy searchStrategy) string {
	u := *c.baseURL
	query := u.Query()
	query.Set("artist_name", strategy.artist)
	query.Set("track_name", strategy.title)
	if strategy.album != "" {
		query.Set("album_name", strategy.album)
	}
	if strategy.duration > 0 {
		query.Set("duration", fmt.Sprintf("%d", strategy.duration))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) durationMatches(lyricsSecs float64, trackSecs int64) bool {
	if c.tolerance <= 0 || lyricsSecs <= 0 || trackSecs <= 0 {
		return true
	}
	diff := time.Duration((lyricsSecs - float64(trackSecs)) * float64(time.Second))
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.tolerance
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) doFetchRequest(parentCtx context.Context, requestURL string) (*LrclibResponse, error) {
	ctx, cancel := context.WithTimeout(parentCtx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}

	req.Header.Set("User-Agent", "lyroverlay/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("status 404: %w", ErrNoLyrics)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload LrclibResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib json: %w", err)
	}

	return &payload, nil
}

func responseFromEntry(entry *cache.LyricEntry) *LrclibResponse {
	return &LrclibResponse{
		TrackName:    entry.TrackName,
		ArtistName:   entry.ArtistName,
		AlbumName:    entry.AlbumName,
		Duration:     entry.Duration,
		Instrumental: entry.Instrumental,
		PlainLyrics:  entry.PlainLyrics,
		SyncedLyrics: entry.SyncedLyrics,
		SyncOffset:   entry.SyncOffset,
	}
}

func entryFromResponse(payload *LrclibResponse) *cache.LyricEntry {
	return &cache.LyricEntry{
		TrackName:    payload.TrackName,
		ArtistName:   payload.ArtistName,
		AlbumName:    payload.AlbumName,
		Duration:     payload.Duration,
		Instrumental: payload.Instrumental,
		PlainLyrics:  payload.PlainLyrics,
		SyncedLyrics: payload.SyncedLyrics,
		SyncOffset:   payload.SyncOffset,
	}
}

// Lyric converts the response into the representation the sync engine uses:
// synced text becomes a LineTimestamp, plain text Unsynced, anything else nil.
func (r *LrclibResponse) Lyric() Lyric {
	if r == nil || r.Instrumental {
		return nil
	}
	if lines := ParseLRC(r.SyncedLyrics); lines != nil {
		return lines
	}
	if plain := NewUnsynced(r.PlainLyrics); plain != nil {
		return plain
	}
	return nil
}
