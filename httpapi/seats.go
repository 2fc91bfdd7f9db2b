package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
)

type fetchError struct {
	Kind    string `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

type snapshotResponse struct {
	EventID          string        `json:"event_id"`
	Seats            []seat.Record `json:"seats"`
	Summary          seat.Summary  `json:"summary"`
	Loading          bool          `json:"loading"`
	Error            *fetchError   `json:"error,omitempty"`
	UpdatedAt        *time.Time    `json:"updated_at,omitempty"`
	RateLimitedUntil *time.Time    `json:"rate_limited_until,omitempty"`
}

func newSnapshotResponse(snap cache.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		EventID: snap.Key,
		Seats:   snap.Seats,
		Summary: seat.Summarize(snap.Seats),
		Loading: snap.Loading,
	}
	if resp.Seats == nil {
		resp.Seats = []seat.Record{}
	}
	if !snap.UpdatedAt.IsZero() {
		t := snap.UpdatedAt
		resp.UpdatedAt = &t
	}
	if !snap.RateLimitedUntil.IsZero() {
		t := snap.RateLimitedUntil
		resp.RateLimitedUntil = &t
	}
	if snap.Err != nil {
		resp.Error = &fetchError{
			Kind:    errorKind(snap.Err),
			Status:  seat.StatusCode(snap.Err),
			Message: snap.Err.Error(),
		}
	}
	return resp
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, seat.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, seat.ErrServer):
		return "server"
	case errors.Is(err, seat.ErrNetwork):
		return "network"
	}
	return "error"
}

var eventIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)

// eventID returns the path event id, or writes the error response and
// returns false when the id may not reach the cache.
func (s *Server) eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !eventIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, codeInvalidEventID, "invalid event id")
		return "", false
	}
	if s.config.KnownEventsOnly && !s.cache.Known(id) {
		writeError(w, http.StatusNotFound, codeUnknownEvent, fmt.Sprintf("unknown event %q", id))
		return "", false
	}
	return id, true
}

// handleSeats returns the current snapshot of an event. An event that was
// never fetched is fetched once before answering; ?refresh=true forces a
// fetch and reports a refused refresh as 429 with Retry-After.
func (s *Server) handleSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.eventID(w, r)
	if !ok {
		return
	}
	force := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRefresh, "refresh must be a boolean")
			return
		}
	}

	snap := s.cache.Read(id)
	if force || (snap.UpdatedAt.IsZero() && snap.Err == nil) {
		_, err := s.cache.Refresh(r.Context(), id)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case !force:
			// the failure is part of the snapshot
		case errors.Is(err, seat.ErrRateLimited):
			s.writeRateLimited(w, id, err)
			return
		default:
			writeError(w, http.StatusBadGateway, codeUpstreamError, err.Error())
			return
		}
		snap = s.cache.Read(id)
	}

	writeJSON(w, http.StatusOK, newSnapshotResponse(snap))
}

func (s *Server) writeRateLimited(w http.ResponseWriter, id string, err error) {
	until := s.cache.Read(id).RateLimitedUntil
	var rl *seat.RateLimitedError
	if errors.As(err, &rl) && rl.Local {
		until = rl.Until
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(until.Sub(s.clock.Now()))))
	writeError(w, http.StatusTooManyRequests, codeRateLimited, err.Error())
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// handleStream sends every snapshot of an event as a Server-Sent Event
// until the client goes away. ?interval= polls the event while the stream
// is open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := s.eventID(w, r)
	if !ok {
		return
	}
	interval, err := parseInterval(r.URL.Query().Get("interval"), s.config.MinStreamInterval)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInterval, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeStreamingFailed, "streaming unsupported")
		return
	}

	var opts []cache.SubscribeOption
	if interval > 0 {
		opts = append(opts, cache.WithRefreshInterval(interval))
	}

	ctx, cancel := context.WithCancel(r.Context())
	snaps := s.cache.Watch(ctx, id, opts...)
	defer func() {
		cancel()
		// the watch channel closes after cancel, keep it drained until then
		go func() {
			for range snaps {
			}
		}()
	}()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Debug("seat stream opened", zap.String("event_id", id), zap.Duration("interval", interval))
	heartbeat := time.NewTicker(s.config.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			payload, err := json.Marshal(newSnapshotResponse(snap))
			if err != nil {
				s.logger.Error("failed to encode snapshot", zap.String("event_id", id), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// parseInterval accepts a Go duration ("5s") or whole seconds ("5"). Zero
// disables polling, positive values are raised to floor.
func parseInterval(raw string, floor time.Duration) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, fmt.Errorf("invalid interval %q", raw)
		}
		d = time.Duration(secs) * time.Second
	}
	if d < 0 {
		return 0, fmt.Errorf("interval cannot be negative")
	}
	if d > 0 && d < floor {
		d = floor
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
