package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"skyboard/internal/modules/weather/dashboard"
	"skyboard/internal/modules/weather/types"
	"skyboard/internal/modules/weather/views"
	"skyboard/internal/utils"
)

func (c *weatherControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := c.page.View()
	data.PopularCities = c.popularCities
	data.ErrorDismissMillis = c.errorTTL.Milliseconds()

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, &data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *weatherControllerImpl) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	c.page.SetQueryText(r.PostForm.Get("q"))
	if err := c.flows.Search(r.Context()); err != nil {
		slog.Debug("search ended with error", "error", err)
	}
	redirectHome(w, r)
}

func (c *weatherControllerImpl) handlePopularSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	city := strings.TrimSpace(r.PostForm.Get("city"))
	if city == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing city")
		return
	}
	if err := c.flows.SearchFor(r.Context(), city); err != nil {
		slog.Debug("popular search ended with error", "city", city, "error", err)
	}
	redirectHome(w, r)
}

func (c *weatherControllerImpl) handleLocate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	geo := dashboard.FormGeolocator{Values: r.PostForm}
	if err := c.flows.Locate(r.Context(), geo); err != nil {
		slog.Debug("locate ended with error", "error", err)
	}
	redirectHome(w, r)
}

func (c *weatherControllerImpl) handleAddSaved(w http.ResponseWriter, r *http.Request) {
	if err := c.flows.AddCurrent(r.Context()); err != nil {
		slog.Debug("add city ended with error", "error", err)
	}
	redirectHome(w, r)
}

func (c *weatherControllerImpl) handleRemoveSaved(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.flows.Remove(r.Context(), index); err != nil {
		slog.Debug("remove city ended with error", "index", index, "error", err)
	}
	redirectHome(w, r)
}

func (c *weatherControllerImpl) handleSavedCities(w http.ResponseWriter, r *http.Request) {
	cities := c.cities.List()
	if cities == nil {
		cities = []types.SavedCity{}
	}
	utils.WriteJSON(w, http.StatusOK, cities)
}

type weatherResponse struct {
	Current  types.WeatherSnapshot `json:"current"`
	Forecast []types.ForecastDay   `json:"forecast"`
}

func (c *weatherControllerImpl) handleWeather(w http.ResponseWriter, r *http.Request) {
	q, err := parseWeatherQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var current types.WeatherSnapshot
	at := q.coord
	if q.city != "" {
		current, err = c.api.FetchCurrentByName(r.Context(), q.city)
		at = current.Coord
	} else {
		current, err = c.api.FetchCurrentByCoords(r.Context(), at.Lat, at.Lon)
	}
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	days, err := c.api.FetchForecast(r.Context(), at.Lat, at.Lon)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if days == nil {
		days = []types.ForecastDay{}
	}
	utils.WriteJSON(w, http.StatusOK, weatherResponse{Current: current, Forecast: days})
}

// writeUpstreamError maps client errors to 404 for unknown cities and 502
// for everything the weather service failed to answer.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var nf *types.NotFoundError
	if errors.As(err, &nf) {
		utils.WriteError(w, http.StatusNotFound, nf.UserMessage())
		return
	}
	slog.Warn("weather api request failed", "error", err)
	var ue types.UserError
	if errors.As(err, &ue) {
		utils.WriteError(w, http.StatusBadGateway, ue.UserMessage())
		return
	}
	utils.WriteError(w, http.StatusBadGateway, "weather service unavailable")
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
