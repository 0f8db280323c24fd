package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/types"
	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderIndex(&buf, &views.IndexData{Routes: indexRoutes}); err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.repository.GetPrecipitation(r.Context(), c.query.PrecipitationSince)
	if err != nil {
		slog.Error("precipitation: query failed", "since", c.query.PrecipitationSince, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.repository.GetStations(r.Context())
	if err != nil {
		slog.Error("stations: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	station := c.query.TobsStation
	if station == "" {
		var err error
		station, err = c.repository.GetMostActiveStation(r.Context())
		if err != nil {
			slog.Error("tobs: most active station lookup failed", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature observations")
			return
		}
		if station == "" {
			utils.WriteJSON(w, http.StatusOK, []types.TemperatureObservation{})
			return
		}
	}

	observations, err := c.repository.GetTemperatureObservations(r.Context(), station, c.query.TobsSince)
	if err != nil {
		slog.Error("tobs: query failed", "station", station, "since", c.query.TobsSince, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature observations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleTemperatureSince(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start_date")
	if c.query.StrictDates {
		if _, err := parseDate("start_date", start); err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	summary, err := c.repository.GetTemperatureSummary(r.Context(), start)
	if err != nil {
		slog.Error("temperature summary: query failed", "start", start, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, []types.TemperatureSummary{summary})
}

func (c *climateControllerImpl) handleTemperatureRange(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start_date")
	end := r.PathValue("end_date")
	if c.query.StrictDates {
		if err := validateRange(start, end); err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	summary, err := c.repository.GetTemperatureSummaryRange(r.Context(), start, end)
	if err != nil {
		slog.Error("temperature summary: range query failed", "start", start, "end", end, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, []types.TemperatureSummary{summary})
}
