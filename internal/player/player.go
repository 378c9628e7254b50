package player

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyroverlay/internal/track"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"

	// drift between expected and reported position that counts as a seek
	seekThreshold = 2 * time.Second
)

var ErrNoTrack = errors.New("no track loaded")

type Event int

const (
	EventTrackChanged Event = iota
	EventSeeked
	EventPlaybackStateChanged
	EventTrackLost
)

func (e Event) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventSeeked:
		return "seeked"
	case EventPlaybackStateChanged:
		return "playback_state_changed"
	case EventTrackLost:
		return "track_lost"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

type EventData struct {
	Type     Event
	Track    *track.Info
	Position time.Duration
	Playing  bool
	// At is when Position was observed.
	At time.Time
}

type Status string

const (
	StatusPlaying Status = "Playing"
	StatusPaused  Status = "Paused"
	StatusStopped Status = "Stopped"
)

type State struct {
	Track    *track.Info
	Position time.Duration
	Playing  bool

	lastPositionUpdate time.Time
	lastPosition       time.Duration
}

// DetectSeek reports whether newPosition at now is too far from where the
// last known position would have advanced to.
func (s *State) DetectSeek(newPosition time.Duration, now time.Time) bool {
	if s.lastPositionUpdate.IsZero() {
		return false
	}

	expected := s.lastPosition
	if s.Playing {
		expected += now.Sub(s.lastPositionUpdate)
	}

	diff := newPosition - expected
	if diff < 0 {
		diff = -diff
	}

	return diff > seekThreshold
}

func (s *State) UpdatePosition(pos time.Duration, now time.Time) {
	s.Position = pos
	s.lastPosition = pos
	s.lastPositionUpdate = now
}

type propertyGetter interface {
	GetProperty(p string) (dbus.Variant, error)
}

type Service struct {
	bus        *dbus.Conn
	obj        propertyGetter
	service    string
	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	eventChan  chan EventData
	state      *State
	mu         sync.RWMutex
	now        func() time.Time
	logger     *log.Entry
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}

	s := newService(bus.Object(mprisService, mprisPath), mprisService)
	s.bus = bus
	return s, nil
}

func newService(obj propertyGetter, mprisService string) *Service {
	return &Service{
		obj:       obj,
		service:   mprisService,
		eventChan: make(chan EventData, 16),
		state:     &State{},
		now:       time.Now,
		logger:    log.WithFields(log.Fields{"component": "player", "service": mprisService}),
	}
}

func (s *Service) Name() string { return s.service }

func (s *Service) Start() error {
	if s.bus == nil {
		return errors.New("service has no bus connection")
	}

	signalChan := make(chan *dbus.Signal, 10)
	s.signalChan = signalChan
	s.stopChan = make(chan struct{})

	s.bus.Signal(signalChan)

	matchPropertiesChanged := fmt.Sprintf(
		"type='signal',sender='%s',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',path='%s'",
		s.service, mprisPath,
	)
	matchSeeked := fmt.Sprintf(
		"type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
		s.service, mprisPlayerIface, mprisPath,
	)

	err := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchPropertiesChanged).Err
	if err != nil {
		return fmt.Errorf("failed to add properties match: %w", err)
	}

	err = s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchSeeked).Err
	if err != nil {
		return fmt.Errorf("failed to add seeked match: %w", err)
	}

	s.logger.Debug("listening for mpris signals")
	go s.signalLoop()

	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
		}
		if s.bus != nil && s.signalChan != nil {
			s.bus.RemoveSignal(s.signalChan)
		}
	})
}

func (s *Service) Events() <-chan EventData {
	return s.eventChan
}

func (s *Service) GetCurrentTrack() (*track.Info, error) {
	prop, err := s.obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	value := prop.Value()
	if value == nil {
		return nil, ErrNoTrack
	}

	metadata, ok := value.(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", value)
	}

	info := trackFromMetadata(metadata)
	if !info.IsValid() {
		return nil, fmt.Errorf("%w: missing title or artist (title=%q, artist=%q)", ErrNoTrack, info.Title, info.Artist)
	}

	return info, nil
}

func (s *Service) GetCurrentPosition() (time.Duration, error) {
	prop, err := s.obj.GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}

	value := prop.Value()
	if value == nil {
		return 0, errors.New("position value is nil")
	}

	positionMicroseconds, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", value)
	}

	return microseconds(positionMicroseconds), nil
}

func (s *Service) GetPlaybackStatus() (Status, error) {
	prop, err := s.obj.GetProperty(mprisPlayerIface + ".PlaybackStatus")
	if err != nil {
		return "", fmt.Errorf("failed to get playback status: %w", err)
	}

	status, ok := prop.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected playback status type %T", prop.Value())
	}

	return Status(status), nil
}

// Poll reads the player's properties directly and emits whatever changed
// since the last observation. It backs up the signal stream, which players
// do not always deliver reliably.
func (s *Service) Poll() error {
	trk, err := s.GetCurrentTrack()
	if errors.Is(err, ErrNoTrack) {
		s.loseTrack()
		return nil
	}
	if err != nil {
		return err
	}

	status, err := s.GetPlaybackStatus()
	if err != nil {
		return err
	}
	if status == StatusStopped {
		s.loseTrack()
		return nil
	}
	playing := status == StatusPlaying

	pos, err := s.GetCurrentPosition()
	if err != nil {
		return err
	}
	now := s.now()

	s.mu.Lock()
	currentTrack := s.state.Track
	wasPlaying := s.state.Playing
	seekDetected := s.state.DetectSeek(pos, now)
	s.state.UpdatePosition(pos, now)
	s.state.Playing = playing

	if !trk.IsSameTrack(currentTrack) {
		s.state.Track = trk
		s.mu.Unlock()
		s.emitEvent(EventData{Type: EventTrackChanged, Track: trk, Position: pos, Playing: playing, At: now})
		return nil
	}
	s.mu.Unlock()

	if playing != wasPlaying {
		s.emitEvent(EventData{Type: EventPlaybackStateChanged, Position: pos, Playing: playing, At: now})
	}
	if seekDetected {
		s.emitEvent(EventData{Type: EventSeeked, Position: pos, Playing: playing, At: now})
	}

	return nil
}

func (s *Service) signalLoop() {
	for {
		select {
		case sig, ok := <-s.signalChan:
			if !ok {
				return
			}
			s.handleSignal(sig)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}

	switch sig.Name {
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		s.handlePropertiesChanged(sig)
	case mprisPlayerIface + ".Seeked":
		s.handleSeeked(sig)
	}
}

func (s *Service) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	interfaceName, ok := sig.Body[0].(string)
	if !ok || interfaceName != mprisPlayerIface {
		return
	}

	changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	status, hasStatus := "", false
	if playbackVariant, exists := changedProps["PlaybackStatus"]; exists {
		status, hasStatus = playbackVariant.Value().(string)
	}

	if hasStatus && Status(status) == StatusStopped {
		s.loseTrack()
		return
	}

	if metadataVariant, exists := changedProps["Metadata"]; exists {
		metadata, ok := metadataVariant.Value().(map[string]dbus.Variant)
		if !ok {
			return
		}

		info := trackFromMetadata(metadata)
		if !info.IsValid() {
			s.loseTrack()
			return
		}

		s.changeTrack(info, status, hasStatus)
		return
	}

	if hasStatus {
		playing := Status(status) == StatusPlaying
		now := s.now()

		s.mu.Lock()
		changed := s.state.Playing != playing
		if s.state.Playing && !playing {
			s.state.UpdatePosition(s.state.lastPosition+now.Sub(s.state.lastPositionUpdate), now)
		} else {
			s.state.lastPositionUpdate = now
		}
		s.state.Playing = playing
		s.mu.Unlock()

		if changed {
			s.emitEvent(EventData{Type: EventPlaybackStateChanged, Playing: playing, At: now})
		}
	}
}

func (s *Service) changeTrack(info *track.Info, status string, hasStatus bool) {
	s.mu.RLock()
	same := info.IsSameTrack(s.state.Track)
	playing := s.state.Playing
	s.mu.RUnlock()

	// players re-send metadata on art or rating updates
	if same {
		return
	}

	if hasStatus {
		playing = Status(status) == StatusPlaying
	} else if current, err := s.GetPlaybackStatus(); err == nil {
		playing = current == StatusPlaying
	}

	pos, err := s.GetCurrentPosition()
	if err != nil {
		s.logger.WithError(err).Debug("position unavailable on track change, assuming start")
		pos = 0
	}
	now := s.now()

	s.mu.Lock()
	s.state.Track = info
	s.state.Playing = playing
	s.state.UpdatePosition(pos, now)
	s.mu.Unlock()

	s.emitEvent(EventData{Type: EventTrackChanged, Track: info, Position: pos, Playing: playing, At: now})
}

func (s *Service) loseTrack() {
	s.mu.Lock()
	hadTrack := s.state.Track != nil
	s.state.Track = nil
	s.state.Playing = false
	s.state.Position = 0
	s.state.lastPosition = 0
	s.state.lastPositionUpdate = time.Time{}
	s.mu.Unlock()

	if hadTrack {
		s.emitEvent(EventData{Type: EventTrackLost, At: s.now()})
	}
}

func (s *Service) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}

	positionMicroseconds, ok := sig.Body[0].(int64)
	if !ok || positionMicroseconds < 0 {
		return
	}

	pos := microseconds(positionMicroseconds)
	now := s.now()

	s.mu.Lock()
	s.state.UpdatePosition(pos, now)
	playing := s.state.Playing
	s.mu.Unlock()

	s.emitEvent(EventData{Type: EventSeeked, Position: pos, Playing: playing, At: now})
}

func (s *Service) emitEvent(event EventData) {
	select {
	case s.eventChan <- event:
	default:
		s.logger.WithField("event", event.Type).Warn("event channel full, dropping event")
	}
}

func (s *Service) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stateCopy := State{
		Position: s.state.Position,
		Playing:  s.state.Playing,
	}

	if s.state.Track != nil {
		trackCopy := *s.state.Track
		stateCopy.Track = &trackCopy
	}

	return stateCopy
}

// ListPlayers returns every MPRIS service name currently on the bus.
func ListPlayers(bus *dbus.Conn) ([]string, error) {
	var names []string
	err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list dbus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}

	return players, nil
}

// Identity returns the player's human readable name, or "" if it has none.
func Identity(bus *dbus.Conn, serviceName string) string {
	obj := bus.Object(serviceName, mprisPath)
	variant, err := obj.GetProperty(mprisRootIface + ".Identity")
	if err != nil {
		return ""
	}

	identity, _ := variant.Value().(string)
	return identity
}

func trackFromMetadata(metadata map[string]dbus.Variant) *track.Info {
	return &track.Info{
		Title:      extractString(metadata, "xesam:title"),
		Artist:     extractArtist(metadata, "xesam:artist"),
		Album:      extractString(metadata, "xesam:album"),
		ArtworkURL: extractString(metadata, "mpris:artUrl"),
		TrackID:    extractTrackID(metadata, "mpris:trackid"),
		Duration:   extractDuration(metadata, "mpris:length"),
	}
}

func microseconds(us int64) time.Duration {
	if us <= 0 {
		return 0
	}
	return time.Duration(us) * time.Microsecond
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	text, _ := variant.Value().(string)
	return text
}

// mpris:trackid should be an object path but plenty of players send a
// plain string.
func extractTrackID(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case dbus.ObjectPath:
		return string(typed)
	case string:
		return typed
	default:
		return ""
	}
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractDuration(metadata map[string]dbus.Variant, key string) time.Duration {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		return microseconds(typed)
	case uint64:
		return microseconds(int64(typed))
	case int32:
		return microseconds(int64(typed))
	default:
		return 0
	}
}
