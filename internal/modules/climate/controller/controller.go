package controller

import (
	"net/http"

	"climate-server/internal/config"
	"climate-server/internal/modules/climate/repository"
)

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	repository repository.ClimateRepository
	query      config.Query
}

func NewClimateController(repository repository.ClimateRepository, query config.Query) ClimateController {
	return &climateControllerImpl{repository: repository, query: query}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/start/{start_date}", c.handleTemperatureSince)
	mux.HandleFunc("GET /api/v1.0/{start_date}", c.handleTemperatureSince)
	mux.HandleFunc("GET /api/v1.0/{start_date}/{end_date}", c.handleTemperatureRange)
}
