// Package dashboard holds the dashboard controller: the search and locate
// flows, the saved-city actions and the view state they drive.
package dashboard

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"skyboard/internal/modules/weather/store"
	"skyboard/internal/modules/weather/types"
)

const (
	DefaultErrorTTL = 5 * time.Second
	msgUnexpected   = "Something went wrong. Please try again."
)

type WeatherAPI interface {
	FetchCurrentByName(ctx context.Context, city string) (types.WeatherSnapshot, error)
	FetchCurrentByCoords(ctx context.Context, lat, lon float64) (types.WeatherSnapshot, error)
	FetchForecast(ctx context.Context, lat, lon float64) ([]types.ForecastDay, error)
}

type CityStore interface {
	List() []types.SavedCity
	Contains(key types.CityKey) bool
	Add(ctx context.Context, snapshot types.WeatherSnapshot) error
	Remove(ctx context.Context, index int) error
}

// Renderer turns view models into panel fragments. views.Fragments
// implements it.
type Renderer interface {
	WeatherCard(s types.WeatherSnapshot, alreadySaved bool) (template.HTML, error)
	Loading() (template.HTML, error)
	Forecast(days []types.ForecastDay) (template.HTML, error)
	SavedCities(cities []types.SavedCity) (template.HTML, error)
	ErrorBanner(msg string) (template.HTML, error)
}

// SnapshotPublisher receives every successfully fetched snapshot.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, s types.WeatherSnapshot) error
}

type State int

const (
	StateIdle State = iota
	StateSearching
	StateDisplaying
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateDisplaying:
		return "displaying"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

type Options struct {
	// ErrorTTL is how long the error banner stays up. Zero means DefaultErrorTTL.
	ErrorTTL time.Duration
	// KeepResultOnForecastError leaves the current-weather card on screen
	// when only the forecast fails. The default hides both panels.
	KeepResultOnForecastError bool
	Publisher                 SnapshotPublisher
	Logger                    *slog.Logger
	// AfterFunc schedules banner dismissal; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

// Status is a read-only copy of the controller state.
type Status struct {
	State    State
	Message  string
	Current  *types.WeatherSnapshot
	Forecast []types.ForecastDay
}

// Dashboard is the controller. Overlapping flows are not cancelled or
// sequenced: the last one to touch the surface wins.
type Dashboard struct {
	api     WeatherAPI
	cities  CityStore
	render  Renderer
	surface Surface
	opts    Options
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	message   string
	current   *types.WeatherSnapshot
	forecast  []types.ForecastDay
	bannerGen uint64
}

func New(api WeatherAPI, cities CityStore, render Renderer, surface Surface, opts Options) *Dashboard {
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = DefaultErrorTTL
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		api:     api,
		cities:  cities,
		render:  render,
		surface: surface,
		opts:    opts,
		logger:  logger,
	}
}

// Start renders the saved-city panel once.
func (d *Dashboard) Start() {
	d.RefreshSaved()
}

func (d *Dashboard) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{State: d.state, Message: d.message, Forecast: append([]types.ForecastDay(nil), d.forecast...)}
	if d.current != nil {
		cur := *d.current
		st.Current = &cur
	}
	return st
}

// Search runs the name lookup for the surface's query text. A blank query
// does nothing. The returned error is the one shown to the user, if any.
func (d *Dashboard) Search(ctx context.Context) error {
	query := strings.TrimSpace(d.surface.QueryText())
	if query == "" {
		return nil
	}
	d.logger.Info("search", "query", query)

	d.beginSearching()
	defer d.surface.SetControlsEnabled(true)

	snap, err := d.api.FetchCurrentByName(ctx, query)
	if err != nil {
		d.fail(err)
		return err
	}
	d.showResult(ctx, snap)

	if err := d.loadForecast(ctx, snap.Coord); err != nil {
		return err
	}
	d.surface.ClearQuery()
	return nil
}

// SearchFor puts city into the query field and searches, as the popular
// city buttons do.
func (d *Dashboard) SearchFor(ctx context.Context, city string) error {
	d.surface.SetQueryText(city)
	return d.Search(ctx)
}

// Locate runs the coordinate lookup for the geolocated position. A missing
// capability fails at once, before any state change or network call.
func (d *Dashboard) Locate(ctx context.Context, geo Geolocator) error {
	if geo == nil || !supported(geo) {
		err := &types.LocationLookupError{Unsupported: true}
		d.setError(err.UserMessage())
		return err
	}
	d.logger.Info("locate")

	d.beginSearching()
	defer d.surface.SetControlsEnabled(true)

	pos, err := geo.CurrentPosition(ctx)
	if err != nil {
		var lookupErr *types.LocationLookupError
		if !errors.As(err, &lookupErr) {
			lookupErr = &types.LocationLookupError{
				Unsupported: errors.Is(err, ErrGeolocationUnsupported),
				Reason:      err.Error(),
			}
		}
		d.fail(lookupErr)
		return lookupErr
	}

	snap, err := d.api.FetchCurrentByCoords(ctx, pos.Lat, pos.Lon)
	if err != nil {
		d.fail(err)
		return err
	}
	d.showResult(ctx, snap)

	return d.loadForecast(ctx, pos)
}

// AddCurrent saves the last fetched snapshot. Nothing happens when no
// result is on screen.
func (d *Dashboard) AddCurrent(ctx context.Context) error {
	d.mu.Lock()
	cur := d.current
	d.mu.Unlock()
	if cur == nil {
		return nil
	}

	if err := d.cities.Add(ctx, *cur); err != nil {
		d.logger.Info("add city rejected", "city", cur.Name, "country", cur.Country, "error", err)
		d.showBanner(userMessage(err))
		return err
	}
	d.logger.Info("city added", "city", cur.Name, "country", cur.Country)

	d.RefreshSaved()
	d.renderResultCard(*cur)
	return nil
}

// Remove drops the saved city at index.
func (d *Dashboard) Remove(ctx context.Context, index int) error {
	if err := d.cities.Remove(ctx, index); err != nil {
		msg := userMessage(err)
		if errors.Is(err, store.ErrIndexOutOfRange) {
			msg = types.MsgSavedCityOutOfBounds
		}
		d.logger.Warn("remove city failed", "index", index, "error", err)
		d.showBanner(msg)
		return err
	}
	d.logger.Info("city removed", "index", index)

	d.RefreshSaved()
	d.mu.Lock()
	cur := d.current
	d.mu.Unlock()
	if cur != nil {
		d.renderResultCard(*cur)
	}
	return nil
}

// RefreshSaved re-renders the saved-city panel from the store.
func (d *Dashboard) RefreshSaved() {
	frag, err := d.render.SavedCities(d.cities.List())
	if err != nil {
		d.logger.Error("render saved cities", "error", err)
		return
	}
	d.surface.Render(PanelSaved, frag)
	d.surface.Show(PanelSaved)
}

func (d *Dashboard) loadForecast(ctx context.Context, at types.Coordinates) error {
	days, err := d.api.FetchForecast(ctx, at.Lat, at.Lon)
	if err != nil {
		if d.opts.KeepResultOnForecastError {
			d.setError(userMessage(err))
			d.surface.Hide(PanelForecast)
		} else {
			d.fail(err)
		}
		return err
	}

	frag, err := d.render.Forecast(days)
	if err != nil {
		d.logger.Error("render forecast", "error", err)
		d.fail(err)
		return err
	}
	d.mu.Lock()
	d.forecast = days
	d.mu.Unlock()
	d.surface.Render(PanelForecast, frag)
	d.surface.Show(PanelForecast)
	return nil
}

func (d *Dashboard) beginSearching() {
	d.mu.Lock()
	d.state = StateSearching
	d.message = ""
	d.mu.Unlock()

	d.surface.SetControlsEnabled(false)
	if frag, err := d.render.Loading(); err == nil {
		d.surface.Render(PanelResult, frag)
	} else {
		d.logger.Error("render loading", "error", err)
	}
	d.surface.Show(PanelResult)
	d.surface.Hide(PanelError)
}

func (d *Dashboard) showResult(ctx context.Context, snap types.WeatherSnapshot) {
	d.mu.Lock()
	d.state = StateDisplaying
	d.current = &snap
	d.forecast = nil
	d.mu.Unlock()

	d.renderResultCard(snap)
	d.surface.Show(PanelResult)

	if d.opts.Publisher != nil {
		if err := d.opts.Publisher.PublishSnapshot(ctx, snap); err != nil {
			d.logger.Warn("publish snapshot", "city", snap.Name, "error", err)
		}
	}
}

func (d *Dashboard) renderResultCard(snap types.WeatherSnapshot) {
	frag, err := d.render.WeatherCard(snap, d.cities.Contains(snap.Key()))
	if err != nil {
		d.logger.Error("render weather card", "city", snap.Name, "error", err)
		return
	}
	d.surface.Render(PanelResult, frag)
}

// fail moves to the error state and hides both weather panels.
func (d *Dashboard) fail(err error) {
	d.logger.Warn("flow failed", "error", err)

	d.mu.Lock()
	d.current = nil
	d.forecast = nil
	d.mu.Unlock()

	d.setError(userMessage(err))
	d.surface.Hide(PanelResult)
	d.surface.Hide(PanelForecast)
}

func (d *Dashboard) setError(msg string) {
	d.mu.Lock()
	d.state = StateError
	d.message = msg
	d.mu.Unlock()
	d.showBanner(msg)
}

// showBanner shows msg and schedules its dismissal. A later banner is not
// hidden by an earlier timer.
func (d *Dashboard) showBanner(msg string) {
	frag, err := d.render.ErrorBanner(msg)
	if err != nil {
		d.logger.Error("render error banner", "error", err)
		frag = template.HTML(template.HTMLEscapeString(msg))
	}

	d.mu.Lock()
	d.bannerGen++
	gen := d.bannerGen
	d.mu.Unlock()

	d.surface.Render(PanelError, frag)
	d.surface.Show(PanelError)

	d.opts.AfterFunc(d.opts.ErrorTTL, func() {
		d.mu.Lock()
		current := d.bannerGen == gen
		d.mu.Unlock()
		if current {
			d.surface.Hide(PanelError)
		}
	})
}

func userMessage(err error) string {
	var ue types.UserError
	if errors.As(err, &ue) {
		return ue.UserMessage()
	}
	return msgUnexpected
}

// supported reports whether geo can be asked at all. Geolocators that know
// up front expose a Supported method.
func supported(geo Geolocator) bool {
	if s, ok := geo.(interface{ Supported() bool }); ok {
		return s.Supported()
	}
	return true
}
