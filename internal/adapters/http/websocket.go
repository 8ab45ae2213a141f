package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
	"github.com/samirrijal/citydiscover/internal/pkg/metrics"
)

// clientMessage is sent by the map client.
//
//	{"type":"viewport","bounds":{"south":..,"west":..,"north":..,"east":..},"zoom":16.2}
//	{"type":"select","place_id":"node_42","mode":"walking"}
//	{"type":"origin","location":{"latitude":..,"longitude":..}}
//	{"type":"clear"}
type clientMessage struct {
	Type     string              `json:"type"`
	Bounds   *domain.BoundingBox `json:"bounds,omitempty"`
	Zoom     float64             `json:"zoom,omitempty"`
	PlaceID  string              `json:"place_id,omitempty"`
	Mode     string              `json:"mode,omitempty"`
	Location *domain.GeoPoint    `json:"location,omitempty"`
}

// serverMessage is pushed to the client.
type serverMessage struct {
	Type    string `json:"type"` // "hello" | "places" | "route" | "error"
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// placesPayload is the "places" message body. Places holds what should be
// drawn at the current zoom; Total counts everything fetched.
type placesPayload struct {
	Places  []domain.Place      `json:"places"`
	Total   int                 `json:"total"`
	Loading bool                `json:"loading"`
	Bounds  *domain.BoundingBox `json:"bounds,omitempty"`
	Zoom    float64             `json:"zoom"`
	Version uint64              `json:"version"`
}

// session owns one client's viewport controller and selection router.
// State changes are coalesced: the writer only ever sends the newest
// places and route state.
type session struct {
	id         string
	viewport   *usecases.ViewportController
	router     *usecases.SelectionRouter
	visibility domain.VisibilityPolicy
	minZoom    float64
	log        *slog.Logger

	mu     sync.Mutex
	places *usecases.ViewportState
	route  *usecases.RouteState
	notify chan struct{}

	unsubscribe []func()
}

func newSession(deps *Dependencies) *session {
	s := &session{
		id:         uuid.NewString(),
		viewport:   usecases.NewViewportController(deps.Places, deps.Viewport),
		router:     usecases.NewSelectionRouter(deps.Routes, deps.Origin, 0),
		visibility: deps.Visibility,
		minZoom:    deps.Viewport.MinZoom,
		notify:     make(chan struct{}, 1),
	}
	s.log = slog.Default().With("session_id", s.id)
	s.unsubscribe = []func(){
		s.viewport.Subscribe(func(st usecases.ViewportState) {
			s.mu.Lock()
			s.places = &st
			s.mu.Unlock()
			s.wake()
		}),
		s.router.Subscribe(func(st usecases.RouteState) {
			s.mu.Lock()
			s.route = &st
			s.mu.Unlock()
			s.wake()
		}),
	}
	return s
}

func (s *session) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// dispatch applies one client message.
func (s *session) dispatch(raw []byte) error {
	var m clientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("invalid JSON")
	}

	switch m.Type {
	case "viewport":
		if m.Bounds == nil {
			return errors.New("viewport requires bounds")
		}
		// Below the zoom gate the box is never queried, so it is not checked.
		if m.Zoom >= s.minZoom {
			if err := m.Bounds.Validate(); err != nil {
				return err
			}
		}
		s.viewport.OnViewportChanged(*m.Bounds, m.Zoom)

	case "select":
		mode, err := domain.ParseTransportMode(m.Mode)
		if err != nil {
			return err
		}
		place, ok := s.lookup(m.PlaceID)
		if !ok {
			return fmt.Errorf("unknown place %q", m.PlaceID)
		}
		s.router.SelectMode(place, mode)

	case "origin":
		if m.Location == nil {
			return errors.New("origin requires location")
		}
		s.router.SetOrigin(*m.Location)

	case "clear":
		s.router.Clear()

	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// lookup finds a place among those currently published to this client.
func (s *session) lookup(id string) (domain.Place, bool) {
	for _, p := range s.viewport.State().Places {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Place{}, false
}

// flush writes whatever changed since the last flush.
func (s *session) flush(write func(serverMessage) error) error {
	s.mu.Lock()
	places, route := s.places, s.route
	s.places, s.route = nil, nil
	s.mu.Unlock()

	if places != nil {
		visible := domain.VisiblePlaces(places.Places, places.Zoom, s.visibility)
		err := write(serverMessage{Type: "places", Data: placesPayload{
			Places:  visible,
			Total:   len(places.Places),
			Loading: places.Loading,
			Bounds:  places.Bounds,
			Zoom:    places.Zoom,
			Version: places.Version,
		}})
		if err != nil {
			return err
		}
	}
	if route != nil {
		if err := write(serverMessage{Type: "route", Data: route}); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.viewport.Close()
	s.router.Close()
}

// WebSocketHandler returns a handler that runs one map session per
// connection: the client reports viewport changes and selections, the
// server pushes place lists and routes as they become current.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		s := newSession(deps)
		defer s.close()

		metrics.ActiveSessions.Inc()
		defer metrics.ActiveSessions.Dec()

		s.log.Info("ws session started", "remote", c.RemoteAddr().String())

		var writeMu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			_ = c.SetWriteDeadline(time.Now().Add(10 * time.Second))
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeMsg := func(m serverMessage) error { return writeJSON(m) }

		if err := writeMsg(serverMessage{Type: "hello", Data: map[string]any{
			"session_id": s.id,
			"origin":     deps.Origin,
			"min_zoom":   deps.Viewport.MinZoom,
		}}); err != nil {
			return
		}

		// Writer and keep-alive ping
		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-s.notify:
					if err := s.flush(writeMsg); err != nil {
						s.log.Debug("ws write failed", "error", err)
						_ = c.Close()
						return
					}
				case <-ticker.C:
					writeMu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					writeMu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if err := s.dispatch(msg); err != nil {
				_ = writeMsg(serverMessage{Type: "error", Message: err.Error()})
			}
		}

		close(done)
		wg.Wait()
		s.log.Info("ws session ended")
	}
}
