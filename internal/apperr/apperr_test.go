package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		Validation:     http.StatusBadRequest,
		Conflict:       http.StatusConflict,
		NotFound:       http.StatusNotFound,
		Authentication: http.StatusUnauthorized,
		Authorization:  http.StatusForbidden,
		Internal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind))
	}
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := New(Conflict, "already borrowed")
	wrapped := fmt.Errorf("borrow failed: %w", err)

	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, Conflict))
	assert.False(t, IsKind(wrapped, NotFound))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestWriteTaxonomyError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, New(NotFound, "book not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"book not found"}`, rec.Body.String())
}

func TestWriteHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
