package types

// Measurement is one row of the measurement table.
type Measurement struct {
	Station string   `db:"station"`
	Date    string   `db:"date"`
	Prcp    *float64 `db:"prcp"`
	Tobs    *float64 `db:"tobs"`
}

// Station is the part of the station table the service reads. Other columns
// (name, latitude, ...) may exist and are ignored.
type Station struct {
	Station string `db:"station"`
}

type Precipitation struct {
	Date string   `json:"date" db:"date"`
	Prcp *float64 `json:"prcp" db:"prcp"`
}

type TemperatureObservation struct {
	Date string   `json:"date" db:"date"`
	Tobs *float64 `json:"tobs" db:"tobs"`
}

// TemperatureSummary holds min/avg/max of tobs over a date range. All three
// are nil when no measurement matched.
type TemperatureSummary struct {
	MinTemp *float64 `json:"min_temp" db:"min_temp"`
	AvgTemp *float64 `json:"avg_temp" db:"avg_temp"`
	MaxTemp *float64 `json:"max_temp" db:"max_temp"`
}
