package httpapi

import (
	"net/http"

	"github.com/jmoiron/sqlx"
)

func NewMux(db *sqlx.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
