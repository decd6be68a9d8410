package dashboard

import (
	"html/template"
	"sync"

	"skyboard/internal/modules/weather/views"
)

// Page is the in-memory Surface behind the HTTP dashboard. Handlers write
// the query into it, run a flow, then render its View.
type Page struct {
	mu               sync.RWMutex
	query            string
	controlsDisabled bool
	panels           map[Panel]*views.Panel
}

func NewPage() *Page {
	return &Page{
		panels: map[Panel]*views.Panel{
			PanelError:    {},
			PanelResult:   {},
			PanelForecast: {},
			PanelSaved:    {},
		},
	}
}

func (p *Page) QueryText() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.query
}

func (p *Page) SetQueryText(q string) {
	p.mu.Lock()
	p.query = q
	p.mu.Unlock()
}

func (p *Page) ClearQuery() { p.SetQueryText("") }

func (p *Page) SetControlsEnabled(enabled bool) {
	p.mu.Lock()
	p.controlsDisabled = !enabled
	p.mu.Unlock()
}

func (p *Page) ControlsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.controlsDisabled
}

func (p *Page) Show(panel Panel) { p.setVisible(panel, true) }
func (p *Page) Hide(panel Panel) { p.setVisible(panel, false) }

func (p *Page) setVisible(panel Panel, v bool) {
	p.mu.Lock()
	if pp, ok := p.panels[panel]; ok {
		pp.Visible = v
	}
	p.mu.Unlock()
}

func (p *Page) Render(panel Panel, fragment template.HTML) {
	p.mu.Lock()
	if pp, ok := p.panels[panel]; ok {
		pp.Content = fragment
	}
	p.mu.Unlock()
}

// Panel returns a copy of one panel's state.
func (p *Page) Panel(panel Panel) views.Panel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if pp, ok := p.panels[panel]; ok {
		return *pp
	}
	return views.Panel{}
}

// View snapshots the page into the full-page view model.
func (p *Page) View() views.DashboardData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return views.DashboardData{
		Query:            p.query,
		ControlsDisabled: p.controlsDisabled,
		Error:            *p.panels[PanelError],
		Result:           *p.panels[PanelResult],
		Forecast:         *p.panels[PanelForecast],
		Saved:            *p.panels[PanelSaved],
	}
}

var _ Surface = (*Page)(nil)
