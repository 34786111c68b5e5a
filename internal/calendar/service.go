// Package calendar keeps the resolved Hijri calendar up to date: it fetches
// the source calendars, merges overrides and publishes an engine for
// lookups.
package calendar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"hijrical/internal/engine"
	appLog "hijrical/internal/log"
	"hijrical/internal/merge"
	"hijrical/internal/metrics"
	"hijrical/internal/model"
	"hijrical/internal/provider"
)

// DefaultMinInterval is how long a successful refresh stays fresh for
// non-forced refreshes.
const DefaultMinInterval = time.Hour

// OverrideSource supplies authority overrides.
type OverrideSource interface {
	FetchOverrides(ctx context.Context) (provider.AuthorityInfo, []model.Override, error)
}

// ManualSource supplies the stored manual overrides.
type ManualSource interface {
	List() []model.Override
}

// Status describes the last refresh for display.
type Status struct {
	LastRefresh   time.Time               `json:"last_refresh,omitzero"`
	Refreshing    bool                    `json:"refreshing"`
	Error         string                  `json:"error,omitempty"`
	UpdateMessage string                  `json:"update_message,omitempty"`
	Months        int                     `json:"months"`
	Authority     *provider.AuthorityInfo `json:"authority,omitempty"`
}

// Service owns the published calendar. All methods are safe for
// concurrent use.
type Service struct {
	calculated   provider.CalendarProvider
	moonsighting provider.CalendarProvider
	authority    OverrideSource
	manual       ManualSource
	loc          *time.Location
	metrics      *metrics.Metrics
	minInterval  time.Duration
	now          func() time.Time

	refreshing atomic.Bool

	mu            sync.RWMutex
	baseline      []model.MonthDefinition
	sighted       []model.Override
	authOverrides []model.Override
	authInfo      *provider.AuthorityInfo
	defs          []model.MonthDefinition
	engine        *engine.Engine
	lastRefresh   time.Time
	lastError     string
	updateMessage string
}

// Option configures a Service.
type Option func(*Service)

// WithMoonsighting layers a moonsighting provider's month starts over the
// calculated baseline.
func WithMoonsighting(p provider.CalendarProvider) Option {
	return func(s *Service) { s.moonsighting = p }
}

// WithAuthority enables authority overrides.
func WithAuthority(src OverrideSource) Option {
	return func(s *Service) { s.authority = src }
}

// WithManual enables manual overrides.
func WithManual(src ManualSource) Option {
	return func(s *Service) { s.manual = src }
}

// WithLocation sets the civil time zone of the published engine.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMetrics records refreshes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMinInterval overrides DefaultMinInterval.
func WithMinInterval(d time.Duration) Option {
	return func(s *Service) { s.minInterval = d }
}

// New creates a service around the calculated provider.
func New(calculated provider.CalendarProvider, opts ...Option) *Service {
	s := &Service{
		calculated:  calculated,
		loc:         time.Local,
		minInterval: DefaultMinInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the sources and republishes the calendar. Unless force
// is set, a refresh within the minimum interval of the last success is
// skipped. A call made while another refresh runs returns at once. The
// returned bool reports whether a refresh ran.
func (s *Service) Refresh(ctx context.Context, force bool) (bool, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		appLog.Debug("calendar refresh already running")
		s.metrics.ObserveRefresh(metrics.ResultSkipped, 0)
		return false, nil
	}
	defer s.refreshing.Store(false)

	now := s.now()
	s.mu.RLock()
	last := s.lastRefresh
	s.mu.RUnlock()
	if !force && !last.IsZero() && now.Sub(last) < s.minInterval {
		s.metrics.ObserveRefresh(metrics.ResultSkipped, 0)
		return false, nil
	}

	started := time.Now()
	err := s.refresh(ctx, now)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	s.metrics.ObserveRefresh(result, time.Since(started))
	return true, err
}

func (s *Service) refresh(ctx context.Context, now time.Time) error {
	appLog.Info("calendar refresh start")

	baseline, err := s.calculated.FetchMonthDefinitions(ctx)
	if err != nil {
		appLog.Error("calculated calendar fetch failed", err)
		s.mu.Lock()
		s.lastError = "Unable to load the calculated calendar. " + Describe(err)
		s.mu.Unlock()
		return err
	}

	s.mu.RLock()
	sighted := s.sighted
	authOverrides, authInfo := s.authOverrides, s.authInfo
	s.mu.RUnlock()

	// Optional layers keep their last good value when a fetch fails.
	if s.moonsighting != nil {
		defs, err := s.moonsighting.FetchMonthDefinitions(ctx)
		if err != nil {
			appLog.Error("moonsighting fetch failed", err)
		} else {
			sighted = startsOf(defs)
		}
	}
	if s.authority != nil {
		info, overrides, err := s.authority.FetchOverrides(ctx)
		if err != nil {
			appLog.Error("authority feed fetch failed", err)
		} else {
			authOverrides, authInfo = overrides, &info
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = baseline
	s.sighted = sighted
	s.authOverrides = authOverrides
	s.authInfo = authInfo
	s.lastRefresh = now
	s.lastError = ""
	s.publishLocked()
	return nil
}

// Remerge recomputes the calendar from the last fetched sources and the
// current manual overrides, without fetching. It is a no-op before the
// first successful refresh.
func (s *Service) Remerge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseline == nil {
		return
	}
	s.publishLocked()
}

func (s *Service) publishLocked() {
	layers := merge.Layers{
		Calculated:       s.baseline,
		Authority:        s.authOverrides,
		AuthorityEnabled: s.authority != nil,
	}
	if len(s.sighted) > 0 {
		layers.Calculated = merge.ApplyOverrides(s.baseline, s.sighted, model.SourceMoonsighting)
	}
	var manual []model.Override
	if s.manual != nil {
		manual = s.manual.List()
		layers.Manual, layers.ManualEnabled = manual, true
	}

	prev := s.defs
	next := merge.Resolve(layers)
	if len(prev) > 0 {
		s.updateMessage = merge.UpdateMessage(merge.UpdatedMonths(prev, next))
	}
	s.defs = next
	s.engine = engine.New(next, engine.WithLocation(s.loc))
	s.metrics.SetCalendar(next)

	appLog.Info("calendar published",
		"months", len(next),
		"manual_overrides", len(manual),
		"authority_overrides", len(s.authOverrides),
		"update", s.updateMessage,
	)
}

// Engine returns the published engine, or nil before the first
// successful refresh.
func (s *Service) Engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Definitions returns the published month definitions.
func (s *Service) Definitions() []model.MonthDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MonthDefinition(nil), s.defs...)
}

// Status reports the state of the last refresh.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		LastRefresh:   s.lastRefresh,
		Refreshing:    s.refreshing.Load(),
		Error:         s.lastError,
		UpdateMessage: s.updateMessage,
		Months:        len(s.defs),
	}
	if s.authInfo != nil {
		info := *s.authInfo
		st.Authority = &info
	}
	return st
}

// Describe turns an error into a sentence for display.
func Describe(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidResponse):
		return "Received an invalid response."
	case errors.Is(err, model.ErrInvalidData):
		return "Received invalid calendar data."
	case errors.Is(err, model.ErrParsingFailed):
		return "Could not parse calendar data."
	}
	return err.Error()
}

// startsOf turns definitions into overrides carrying only their starts.
func startsOf(defs []model.MonthDefinition) []model.Override {
	out := make([]model.Override, len(defs))
	for i, d := range defs {
		out[i] = model.Override{
			HijriYear:          d.HijriYear,
			HijriMonth:         d.HijriMonth,
			GregorianStartDate: d.GregorianStartDate,
		}
	}
	return out
}
