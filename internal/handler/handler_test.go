package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateFailureDuplicateKeyIsConflict(t *testing.T) {
	c, rec := newTestContext()

	if err := createFailure(c, gorm.ErrDuplicatedKey, "student code already exists in this school", "student"); err != nil {
		t.Fatalf("createFailure returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateFailureWrappedDuplicateKeyIsConflict(t *testing.T) {
	c, rec := newTestContext()

	wrapped := errors.Join(errors.New("create students"), gorm.ErrDuplicatedKey)
	if err := createFailure(c, wrapped, "duplicate", "student"); err != nil {
		t.Fatalf("createFailure returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateFailureOtherErrorIsServerFailure(t *testing.T) {
	c, rec := newTestContext()

	// A connection failure must not report as a caller conflict
	if err := createFailure(c, errors.New("connection refused"), "duplicate", "student"); err != nil {
		t.Fatalf("createFailure returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
