package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hijrical/internal/metrics"
	"hijrical/internal/model"
	"hijrical/internal/provider"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func def(month int, start time.Time, length int, src model.Source) model.MonthDefinition {
	return model.MonthDefinition{HijriYear: 1447, HijriMonth: month, GregorianStartDate: start, Length: length, Source: src}
}

func baseline() []model.MonthDefinition {
	return []model.MonthDefinition{
		def(7, date(2025, time.December, 21), 30, model.SourceCalculated),
		def(8, date(2026, time.January, 20), 29, model.SourceCalculated),
		def(9, date(2026, time.February, 18), 30, model.SourceCalculated),
		def(10, date(2026, time.March, 20), 29, model.SourceCalculated),
		def(11, date(2026, time.April, 18), 30, model.SourceCalculated),
	}
}

type stubProvider struct {
	mu      sync.Mutex
	source  model.Source
	defs    []model.MonthDefinition
	err     error
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (p *stubProvider) Source() model.Source { return p.source }

func (p *stubProvider) FetchMonthDefinitions(ctx context.Context) ([]model.MonthDefinition, error) {
	p.mu.Lock()
	p.calls++
	defs, err := p.defs, p.err
	p.mu.Unlock()
	if p.entered != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	return defs, err
}

func (p *stubProvider) set(defs []model.MonthDefinition, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defs, p.err = defs, err
}

type stubAuthority struct {
	info      provider.AuthorityInfo
	overrides []model.Override
	err       error
}

func (a *stubAuthority) FetchOverrides(context.Context) (provider.AuthorityInfo, []model.Override, error) {
	return a.info, a.overrides, a.err
}

type manualList []model.Override

func (m *manualList) List() []model.Override { return *m }

func byMonth(defs []model.MonthDefinition) map[int]model.MonthDefinition {
	out := make(map[int]model.MonthDefinition, len(defs))
	for _, d := range defs {
		out[d.HijriMonth] = d
	}
	return out
}

func TestRefreshPublishesEngine(t *testing.T) {
	calc := &stubProvider{source: model.SourceCalculated, defs: baseline()}
	now := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	svc := New(calc, WithLocation(time.UTC))
	svc.now = func() time.Time { return now }

	assert.Nil(t, svc.Engine())

	ran, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, ran)

	eng := svc.Engine()
	require.NotNil(t, eng)
	h, ok := eng.HijriDateFor(date(2026, time.February, 18))
	require.True(t, ok)
	assert.Equal(t, model.HijriDate{Year: 1447, Month: 9, Day: 1}, h)

	st := svc.Status()
	assert.Equal(t, now, st.LastRefresh)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.UpdateMessage, "first load is not an update")
	assert.Equal(t, 5, st.Months)
	assert.Len(t, svc.Definitions(), 5)
}

func TestRefreshHonorsMinInterval(t *testing.T) {
	calc := &stubProvider{source: model.SourceCalculated, defs: baseline()}
	m := metrics.New()
	now := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	svc := New(calc, WithMetrics(m))
	svc.now = func() time.Time { return now }

	_, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	ran, err := svc.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, ran)

	ran, err = svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, ran, "forced")

	now = now.Add(time.Hour)
	ran, _ = svc.Refresh(context.Background(), false)
	assert.True(t, ran)
	assert.Equal(t, 3, calc.calls)

	n, err := testutil.GatherAndCount(m.Registry(), "hijrical_refresh_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "success and skipped series")
}

func TestRefreshFailureKeepsCalendar(t *testing.T) {
	calc := &stubProvider{source: model.SourceCalculated, defs: baseline()}
	svc := New(calc)
	_, err := svc.Refresh(context.Background(), true)
	require.NoError(t, err)

	calc.set(nil, fmt.Errorf("calculated: %w", &model.ResponseError{StatusCode: 503, Status: "503 Service Unavailable"}))
	ran, err := svc.Refresh(context.Background(), true)
	assert.True(t, ran)
	assert.ErrorIs(t, err, model.ErrInvalidResponse)

	st := svc.Status()
	assert.Equal(t, "Unable to load the calculated calendar. Received an invalid response.", st.Error)
	assert.Equal(t, 5, st.Months, "previous calendar still published")
	assert.NotNil(t, svc.Engine())

	calc.set(baseline(), nil)
	_, err = svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, svc.Status().Error)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Received invalid calendar data.", Describe(fmt.Errorf("x: %w", model.ErrInvalidData)))
	assert.Equal(t, "Could not parse calendar data.", Describe(model.ErrParsingFailed))
	assert.Equal(t, "boom", Describe(errors.New("boom")))
}

func TestLayersAndRemerge(t *testing.T) {
	calc := &stubProvider{source: model.SourceCalculated, defs: baseline()}
	sighting := &stubProvider{source: model.SourceMoonsighting, defs: []model.MonthDefinition{
		def(9, date(2026, time.February, 19), 0, model.SourceMoonsighting),
	}}
	manual := &manualList{}
	svc := New(calc, WithMoonsighting(sighting), WithManual(manual), WithLocation(time.UTC))

	_, err := svc.Refresh(context.Background(), true)
	require.NoError(t, err)

	got := byMonth(svc.Definitions())
	assert.Equal(t, model.SourceMoonsighting, got[9].Source)
	assert.Equal(t, 29, got[9].Length)
	assert.Equal(t, model.SourceMoonsighting, got[8].Source, "Sha'ban end confirmed by the sighting")
	assert.Equal(t, 30, got[8].Length)

	*manual = append(*manual, model.NewManualOverride(1447, 10, date(2026, time.March, 21), time.Now()))
	svc.Remerge()

	got = byMonth(svc.Definitions())
	assert.Equal(t, model.SourceManual, got[10].Source)
	assert.Equal(t, date(2026, time.March, 21), got[10].GregorianStartDate)
	assert.Equal(t, model.SourceManual, got[9].Source)
	assert.Equal(t, 30, got[9].Length)
	assert.Equal(t, "Calendar updated for Ramadan 1447, Shawwal 1447.", svc.Status().UpdateMessage)

	// a failing moonsighting fetch keeps the last sighting
	sighting.set(nil, model.ErrParsingFailed)
	_, err = svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.February, 19), byMonth(svc.Definitions())[9].GregorianStartDate)
}

func TestRemergeBeforeRefresh(t *testing.T) {
	svc := New(&stubProvider{})
	svc.Remerge()
	assert.Nil(t, svc.Engine())
	assert.Empty(t, svc.Definitions())
}

func TestAuthorityLayer(t *testing.T) {
	calc := &stubProvider{source: model.SourceCalculated, defs: baseline()}
	auth := &stubAuthority{
		info: provider.AuthorityInfo{Slug: "chc", Name: "Central Hilal Committee"},
		overrides: []model.Override{
			{ID: "chc:1447-11", HijriYear: 1447, HijriMonth: 11, GregorianStartDate: date(2026, time.April, 19)},
		},
	}
	svc := New(calc, WithAuthority(auth), WithLocation(time.UTC))

	_, err := svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	got := byMonth(svc.Definitions())
	assert.Equal(t, model.SourceAuthority, got[11].Source)
	assert.Equal(t, model.SourceAuthority, got[10].Source)
	assert.Equal(t, 30, got[10].Length)

	st := svc.Status()
	require.NotNil(t, st.Authority)
	assert.Equal(t, "Central Hilal Committee", st.Authority.Name)

	auth.err = errors.New("feed down")
	_, err = svc.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, model.SourceAuthority, byMonth(svc.Definitions())[11].Source, "last feed kept")
	assert.Empty(t, svc.Status().UpdateMessage)
}

func TestOverlappingRefreshesCoalesce(t *testing.T) {
	calc := &stubProvider{
		source:  model.SourceCalculated,
		defs:    baseline(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := New(calc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), true)
		done <- err
	}()
	<-calc.entered

	assert.True(t, svc.Status().Refreshing)
	ran, err := svc.Refresh(context.Background(), true)
	assert.NoError(t, err)
	assert.False(t, ran)

	close(calc.release)
	require.NoError(t, <-done)
	assert.False(t, svc.Status().Refreshing)
	assert.Equal(t, 1, calc.calls)
}

func TestScheduler(t *testing.T) {
	svc := New(&stubProvider{defs: baseline()})

	_, err := NewScheduler(context.Background(), svc, "every now and then", time.UTC)
	assert.Error(t, err)

	s, err := NewScheduler(context.Background(), svc, "@hourly", time.UTC)
	require.NoError(t, err)
	s.Start()
	next := s.Next()
	assert.False(t, next.IsZero())
	assert.Zero(t, next.Minute())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
