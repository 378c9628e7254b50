// Package status serves a small local HTTP API for scripts and bars: the
// current lyric, playback state and a couple of display controls.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/lyricsync"
	"karolbroda.com/lyroverlay/internal/track"
)

const shutdownTimeout = 2 * time.Second

type Engine interface {
	Current() lyricsync.Frame
	Display() lyricsync.DisplayConfig
	SetDisplayMode(mode lyricsync.Mode)
	SetPrimaryFontSize(size int) lyricsync.DisplayConfig
	SetSecondaryFontSize(size int) lyricsync.DisplayConfig
	Playback() *lyricsync.Playback
}

type TrackSource interface {
	CurrentTrack() *track.Info
}

type State struct {
	Track             *TrackState `json:"track"`
	Mode              string      `json:"mode"`
	PrimaryFontSize   int         `json:"primaryFontSize"`
	SecondaryFontSize int         `json:"secondaryFontSize"`
	ShowLyricOnPause  bool        `json:"showLyricOnPause"`
	SyncOffset        float64     `json:"syncOffset"`
	Paused            bool        `json:"paused"`
	Elapsed           *float64    `json:"elapsed"`
}

type TrackState struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album,omitempty"`
	Duration float64 `json:"duration"`
}

type Server struct {
	engine Engine
	tracks TrackSource
	now    func() time.Time
	logger *log.Entry
	router *mux.Router
}

func NewServer(engine Engine, tracks TrackSource) *Server {
	s := &Server{
		engine: engine,
		tracks: tracks,
		now:    time.Now,
		logger: log.WithField("component", "status"),
		router: mux.NewRouter(),
	}

	s.router.HandleFunc("/lyric", s.getLyric).Methods(http.MethodGet)
	s.router.HandleFunc("/state", s.getState).Methods(http.MethodGet)
	s.router.HandleFunc("/mode/{mode}", s.putMode).Methods(http.MethodPut)
	s.router.HandleFunc("/font-sizes", s.putFontSizes).Methods(http.MethodPut)
	s.router.Use(s.logRequests)

	return s
}

// Handler is the router wrapped in CORS handling for browser widgets.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("addr", listener.Addr().String()).Info("status server listening")
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) getLyric(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Current())
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	cfg := s.engine.Display()
	playback := s.engine.Playback()

	state := State{
		Mode:              cfg.Mode.String(),
		PrimaryFontSize:   cfg.PrimaryFontSize,
		SecondaryFontSize: cfg.SecondaryFontSize,
		ShowLyricOnPause:  cfg.ShowLyricOnPause,
		SyncOffset:        cfg.SyncOffset.Seconds(),
		Paused:            playback.Snapshot().Paused,
	}

	if elapsed, ok := playback.Elapsed(s.now()); ok {
		secs := elapsed.Seconds()
		state.Elapsed = &secs
	}

	if trk := s.tracks.CurrentTrack(); trk != nil {
		state.Track = &TrackState{
			Title:    trk.Title,
			Artist:   trk.Artist,
			Album:    trk.Album,
			Duration: trk.Duration.Seconds(),
		}
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) putMode(w http.ResponseWriter, r *http.Request) {
	mode, err := lyricsync.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.engine.SetDisplayMode(mode)
	writeJSON(w, http.StatusOK, map[string]string{"mode": mode.String()})
}

func (s *Server) putFontSizes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("primary") == "" && query.Get("secondary") == "" {
		writeError(w, http.StatusBadRequest, "primary or secondary is required")
		return
	}

	sizes := make(map[string]int, 2)
	for _, name := range []string{"primary", "secondary"} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			writeError(w, http.StatusBadRequest, name+" must be a positive integer")
			return
		}
		sizes[name] = size
	}

	// each size is set on its own so an omitted one keeps whatever value
	// it has at the time of the update
	cfg := s.engine.Display()
	if size, ok := sizes["primary"]; ok {
		cfg = s.engine.SetPrimaryFontSize(size)
	}
	if size, ok := sizes["secondary"]; ok {
		cfg = s.engine.SetSecondaryFontSize(size)
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"primary":   cfg.PrimaryFontSize,
		"secondary": cfg.SecondaryFontSize,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
