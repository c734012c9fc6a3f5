package app

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Service runs the whole pipeline: fetch, decode, filter, serialize. It
// holds no per-request state and is safe for concurrent use.
type Service struct {
	fetcher *Fetcher
	builder *CalendarBuilder
	log     *zap.Logger
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithHTTPClient overrides the client used to reach the league API.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.fetcher.client = client
		}
	}
}

// WithClock overrides the DTSTAMP clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires a Service from cfg.
func NewService(cfg Config, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	var client *http.Client
	if cfg.UpstreamTimeout > 0 {
		client = &http.Client{Timeout: cfg.UpstreamTimeout}
	}

	s := &Service{
		fetcher: NewFetcher(cfg.UpstreamURL, client),
		builder: NewCalendarBuilder(cfg),
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events fetches the schedule and returns the team's events.
func (s *Service) Events(ctx context.Context) ([]CalendarEvent, error) {
	body, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	sched, err := DecodePayload(body)
	if err != nil {
		return nil, err
	}

	events, err := s.builder.Events(sched)
	if err != nil {
		return nil, err
	}

	s.log.Debug("schedule processed",
		zap.Int("rounds", len(sched.Rounds)),
		zap.Int("matches", sched.MatchCount()),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// BuildCalendar returns the complete ICS feed. On error nothing is returned.
func (s *Service) BuildCalendar(ctx context.Context) (string, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return "", err
	}

	return s.Render(events), nil
}

// Render serializes events stamped with the current time.
func (s *Service) Render(events []CalendarEvent) string {
	calendarEvents.Set(float64(len(events)))
	return s.builder.Feed(events, s.now())
}
