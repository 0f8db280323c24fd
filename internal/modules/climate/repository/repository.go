package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-temperature-observations.sql
var getTemperatureObservationsSQL string

//go:embed sql/get-temperature-summary.sql
var getTemperatureSummarySQL string

//go:embed sql/get-temperature-summary-range.sql
var getTemperatureSummaryRangeSQL string

//go:embed sql/verify-measurement.sql
var verifyMeasurementSQL string

//go:embed sql/verify-station.sql
var verifyStationSQL string

type ClimateRepository interface {
	GetPrecipitation(ctx context.Context, since string) ([]types.Precipitation, error)
	GetStations(ctx context.Context) ([]string, error)
	// GetMostActiveStation returns "" when the measurement table is empty.
	GetMostActiveStation(ctx context.Context) (string, error)
	GetTemperatureObservations(ctx context.Context, station string, since string) ([]types.TemperatureObservation, error)
	GetTemperatureSummary(ctx context.Context, start string) (types.TemperatureSummary, error)
	GetTemperatureSummaryRange(ctx context.Context, start string, end string) (types.TemperatureSummary, error)
	VerifySchema(ctx context.Context) error
}

type repositoryImpl struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

// conn checks out a dedicated connection for one operation. Callers must
// release it with closeConn.
func (r *repositoryImpl) conn(ctx context.Context) (*sqlx.Conn, error) {
	c, err := r.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return c, nil
}

func closeConn(c *sqlx.Conn) {
	if err := c.Close(); err != nil {
		slog.Error("release connection", "error", err)
	}
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context, since string) ([]types.Precipitation, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer closeConn(c)

	out := []types.Precipitation{}
	if err := c.SelectContext(ctx, &out, r.db.Rebind(getPrecipitationSQL), since); err != nil {
		return nil, fmt.Errorf("select precipitation: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]string, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer closeConn(c)

	out := []string{}
	if err := c.SelectContext(ctx, &out, getStationsSQL); err != nil {
		return nil, fmt.Errorf("select stations: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) GetMostActiveStation(ctx context.Context) (string, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	var station string
	err = c.GetContext(ctx, &station, getMostActiveStationSQL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select most active station: %w", err)
	}
	return station, nil
}

func (r *repositoryImpl) GetTemperatureObservations(ctx context.Context, station string, since string) ([]types.TemperatureObservation, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer closeConn(c)

	out := []types.TemperatureObservation{}
	if err := c.SelectContext(ctx, &out, r.db.Rebind(getTemperatureObservationsSQL), station, since); err != nil {
		return nil, fmt.Errorf("select temperature observations: %w", err)
	}
	return out, nil
}

func (r *repositoryImpl) GetTemperatureSummary(ctx context.Context, start string) (types.TemperatureSummary, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	defer closeConn(c)

	var s types.TemperatureSummary
	if err := c.GetContext(ctx, &s, r.db.Rebind(getTemperatureSummarySQL), start); err != nil {
		return types.TemperatureSummary{}, fmt.Errorf("select temperature summary: %w", err)
	}
	return s, nil
}

func (r *repositoryImpl) GetTemperatureSummaryRange(ctx context.Context, start string, end string) (types.TemperatureSummary, error) {
	c, err := r.conn(ctx)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	defer closeConn(c)

	var s types.TemperatureSummary
	if err := c.GetContext(ctx, &s, r.db.Rebind(getTemperatureSummaryRangeSQL), start, end); err != nil {
		return types.TemperatureSummary{}, fmt.Errorf("select temperature summary range: %w", err)
	}
	return s, nil
}

// VerifySchema fails when either table, or any column the queries rely on,
// is missing from the dataset.
func (r *repositoryImpl) VerifySchema(ctx context.Context) error {
	c, err := r.conn(ctx)
	if err != nil {
		return err
	}
	defer closeConn(c)

	var measurements []types.Measurement
	if err := c.SelectContext(ctx, &measurements, verifyMeasurementSQL); err != nil {
		return fmt.Errorf("measurement table: %w", err)
	}
	var stations []types.Station
	if err := c.SelectContext(ctx, &stations, verifyStationSQL); err != nil {
		return fmt.Errorf("station table: %w", err)
	}
	return nil
}
