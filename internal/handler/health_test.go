package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
)

func serveHealth(t *testing.T, db *sql.DB) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/healthz", Health(db))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		status  int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer db.Close()
			mock.ExpectPing().WillReturnError(tt.pingErr)

			if rec := serveHealth(t, db); rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestHealth_NilDB(t *testing.T) {
	var db *sql.DB
	rec := serveHealth(t, db)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("nil db = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}
