package views

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"skyboard/internal/modules/weather/types"
)

var dashboardTmpl *template.Template

var funcs = template.FuncMap{
	"round": types.Round,
	// kmh converts m/s to whole km/h.
	"kmh": func(ms float64) int { return types.Round(ms * 3.6) },
	// km converts metres to whole kilometres.
	"km": func(m int) int { return types.Round(float64(m) / 1000) },
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("views").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var errNotLoaded = errors.New("dashboard template not loaded: call views.LoadTemplates during startup")

// Panel is one show/hide region of the page with its current fragment.
type Panel struct {
	Visible bool
	Content template.HTML
}

// DashboardData is the view model for the full page.
type DashboardData struct {
	Query              string
	ControlsDisabled   bool
	PopularCities      []string
	ErrorDismissMillis int64

	Error    Panel
	Result   Panel
	Forecast Panel
	Saved    Panel
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errNotLoaded
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// WeatherCard is the view model for one snapshot card, used both for the
// search result and for saved cities.
type WeatherCard struct {
	Snapshot         types.WeatherSnapshot
	ShowAddButton    bool
	AlreadySaved     bool
	ShowRemoveButton bool
	RemoveIndex      int
}

// Fragments renders panel contents. It holds no state; every method is a
// projection of its arguments.
type Fragments struct{}

// WeatherCard renders the search result card with its add button.
func (Fragments) WeatherCard(s types.WeatherSnapshot, alreadySaved bool) (template.HTML, error) {
	return renderFragment("partials/weather_card.html", WeatherCard{
		Snapshot:      s,
		ShowAddButton: true,
		AlreadySaved:  alreadySaved,
	})
}

func (Fragments) Loading() (template.HTML, error) {
	return renderFragment("partials/loading.html", nil)
}

func (Fragments) Forecast(days []types.ForecastDay) (template.HTML, error) {
	return renderFragment("partials/forecast.html", days)
}

// SavedCities renders the saved grid, or the empty state for no cities.
func (Fragments) SavedCities(cities []types.SavedCity) (template.HTML, error) {
	cards := make([]WeatherCard, 0, len(cities))
	for i, c := range cities {
		cards = append(cards, WeatherCard{
			Snapshot:         types.WeatherSnapshot(c),
			ShowRemoveButton: true,
			RemoveIndex:      i,
		})
	}
	return renderFragment("partials/saved_cities.html", cards)
}

func (Fragments) ErrorBanner(msg string) (template.HTML, error) {
	return renderFragment("partials/error_banner.html", msg)
}

func renderFragment(name string, data any) (template.HTML, error) {
	if dashboardTmpl == nil {
		return "", errNotLoaded
	}
	var buf bytes.Buffer
	if err := dashboardTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	// Output of html/template is already contextually escaped.
	return template.HTML(buf.String()), nil
}
