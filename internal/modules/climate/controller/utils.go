package controller

import (
	"fmt"
	"time"

	"climate-server/internal/config"
	"climate-server/internal/modules/climate/views"
)

var indexRoutes = []views.Route{
	{Path: "/api/v1.0/precipitation", Description: "daily precipitation for the last year of data"},
	{Path: "/api/v1.0/stations", Description: "all station identifiers"},
	{Path: "/api/v1.0/tobs", Description: "temperature observations of the most active station for the last year of data"},
	{Path: "/api/v1.0/<start>", Description: "min, avg and max temperature from a start date"},
	{Path: "/api/v1.0/<start>/<end>", Description: "min, avg and max temperature between two dates, inclusive"},
}

// parseDate checks that s is a calendar date in YYYY-MM-DD form.
func parseDate(name, s string) (time.Time, error) {
	t, err := time.Parse(config.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid '%s' %q (expected YYYY-MM-DD)", name, s)
	}
	return t, nil
}

func validateRange(start, end string) error {
	from, err := parseDate("start_date", start)
	if err != nil {
		return err
	}
	to, err := parseDate("end_date", end)
	if err != nil {
		return err
	}
	if from.After(to) {
		return fmt.Errorf("'start_date' must not be after 'end_date'")
	}
	return nil
}
