package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/apperr"
)

func TestOKEnvelope(t *testing.T) {
	r := OK(map[string]int{"n": 1})
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, string(b))
	assert.Equal(t, http.StatusOK, r.Status())
}

func TestFailValidation(t *testing.T) {
	r := Fail[any](apperr.Validation(map[string][]string{"page": {"must be at least 1"}}))
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Validation failed","details":{"page":["must be at least 1"]}}}`, string(b))
	assert.Equal(t, http.StatusBadRequest, r.Status())
}

func TestFailMasksInternals(t *testing.T) {
	r := Fail[any](apperr.FromStore("list cases", errors.New("pq: relation \"cases\" does not exist")))
	assert.Equal(t, MessageOf(apperr.KindInternal), r.Error.Message)
	assert.Nil(t, r.Error.Details)
	assert.Equal(t, http.StatusInternalServerError, r.Status())

	r = Fail[any](errors.New("raw driver text"))
	assert.NotContains(t, r.Error.Message, "driver")

	r = Fail[any](apperr.Transient("x", errors.New("dial tcp: i/o timeout")))
	assert.Equal(t, http.StatusServiceUnavailable, r.Status())
	assert.NotContains(t, r.Error.Message, "tcp")
}

func TestFailStatuses(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, Fail[any](apperr.NotFound("Case")).Status())
	assert.Equal(t, http.StatusConflict, Fail[any](apperr.Duplicate("dup")).Status())
	assert.Equal(t, http.StatusUnprocessableEntity, Fail[any](apperr.Reference("ref")).Status())
	assert.Equal(t, "Case not found", Fail[any](apperr.NotFound("Case")).Error.Message)
}

func TestFailOmitsData(t *testing.T) {
	type page struct {
		Items []string `json:"items"`
	}
	b, err := json.Marshal(Fail[page](apperr.NotFound("Court")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Court not found"}}`, string(b))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", OK(1).Outcome())
	assert.Equal(t, "not_found", Fail[int](apperr.NotFound("Case")).Outcome())
	assert.Equal(t, "internal", Fail[int](errors.New("boom")).Outcome())
}
