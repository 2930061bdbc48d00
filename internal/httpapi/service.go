// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package httpapi serves the dashboard and the latest readings.
//
// net/http goroutines only queue requests. The scheduler answers them one
// per tick through Pump, so responses are always built on the goroutine
// that owns the application state.
package httpapi

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/climate_panel/internal/env"
)

//go:embed web/index.html
var dashboard []byte

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	Read() env.Snapshot
}

type route int

const (
	routeRoot route = iota
	routeSensorData
)

// Response is what the pump hands back to a waiting handler.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type request struct {
	route route
	reply chan Response
}

// Service answers GET / and GET /sensor-data.
type Service struct {
	store SnapshotReader
	page  []byte
	queue chan request
	wake  chan struct{}
	live  *Hub
}

// NewService creates a service reading from store. queueLen bounds how
// many requests may wait for the pump; further handlers block in the
// transport until there is room.
func NewService(store SnapshotReader, queueLen int) *Service {
	if queueLen < 1 {
		queueLen = 1
	}
	return &Service{
		store: store,
		page:  dashboard,
		queue: make(chan request, queueLen),
		wake:  make(chan struct{}, 1),
	}
}

// WithLive attaches a websocket hub served on /ws.
func (s *Service) WithLive(h *Hub) *Service {
	s.live = h
	return s
}

// Pump answers at most one queued request and reports whether it did.
// It never waits.
func (s *Service) Pump() bool {
	select {
	case req := <-s.queue:
		req.reply <- s.respond(req.route)
		return true
	default:
		return false
	}
}

// Wake is signalled whenever a request is queued.
func (s *Service) Wake() <-chan struct{} { return s.wake }

func (s *Service) respond(rt route) Response {
	switch rt {
	case routeRoot:
		return Response{Status: http.StatusOK, ContentType: "text/html", Body: s.page}
	case routeSensorData:
		body, err := SensorDataJSON(s.store.Read())
		if err != nil {
			log.Printf("web: json encode error: %v", err)
			return Response{Status: http.StatusInternalServerError, ContentType: "text/plain", Body: []byte("encode error")}
		}
		return Response{Status: http.StatusOK, ContentType: "application/json", Body: body}
	default:
		return Response{Status: http.StatusNotFound, ContentType: "text/plain", Body: []byte("not found")}
	}
}

// SensorDataJSON encodes the wire form of snap.
func SensorDataJSON(snap env.Snapshot) ([]byte, error) {
	return json.Marshal(snap.SensorData())
}

// Router returns the HTTP handler with access logging and panic recovery.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.queued(routeRoot)).Methods(http.MethodGet)
	r.HandleFunc("/sensor-data", s.queued(routeSensorData)).Methods(http.MethodGet)
	if s.live != nil {
		r.HandleFunc("/ws", s.live.ServeWS).Methods(http.MethodGet)
	}
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(http.NotFound)

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.LoggingHandler(log.Writer(), r),
	)
}

// queued hands the request to the pump and writes whatever it answers.
func (s *Service) queued(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{route: rt, reply: make(chan Response, 1)}

		select {
		case s.queue <- req:
		case <-r.Context().Done():
			return
		}
		select {
		case s.wake <- struct{}{}:
		default:
		}

		select {
		case resp := <-req.reply:
			w.Header().Set("Content-Type", resp.ContentType)
			w.WriteHeader(resp.Status)
			if _, err := w.Write(resp.Body); err != nil {
				log.Printf("web: write error: %v", err)
			}
		case <-r.Context().Done():
		}
	}
}
