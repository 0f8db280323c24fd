package climate

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"

	"climate-server/internal/config"
	"climate-server/internal/modules/climate/controller"
	"climate-server/internal/modules/climate/repository"
)

// VerifyDataset checks that the measurement and station tables carry the
// columns the queries need.
func VerifyDataset(ctx context.Context, db *sqlx.DB) error {
	return repository.NewRepository(db).VerifySchema(ctx)
}

func RegisterFeature(mux *http.ServeMux, db *sqlx.DB, query config.Query) {
	climateRepository := repository.NewRepository(db)
	climateController := controller.NewClimateController(climateRepository, query)
	climateController.RegisterRoutes(mux)
}
