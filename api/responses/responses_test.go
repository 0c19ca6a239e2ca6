package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Error
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"slug": "sauna"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"slug":"sauna"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"bookingId": "b1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"bookingId":"b1"}}`, rec.Body.String())
}

func TestWriteSuccessStatusUnencodablePayload(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInternal), decodeError(t, rec).Code)
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		code        pkgerrors.Code
		message     string
		hiddenText  string
		wantDetails bool
	}{
		{
			name:        "validation keeps message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "email"}),
			status:      http.StatusBadRequest,
			code:        pkgerrors.CodeValidation,
			message:     "bad input",
			wantDetails: true,
		},
		{
			name:        "capacity exceeded is a conflict",
			err:         pkgerrors.New(pkgerrors.CodeCapacityExceeded, "sauna is fully booked on 2025-08-15").WithDetails(map[string]any{"product": "sauna"}),
			status:      http.StatusConflict,
			code:        pkgerrors.CodeCapacityExceeded,
			message:     "sauna is fully booked on 2025-08-15",
			wantDetails: true,
		},
		{
			name:       "plain error becomes internal",
			err:        errors.New("boom"),
			status:     http.StatusInternalServerError,
			code:       pkgerrors.CodeInternal,
			hiddenText: "boom",
		},
		{
			name:       "dependency hides its message",
			err:        pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp 10.0.0.5:5432"), "load bookings"),
			status:     http.StatusServiceUnavailable,
			code:       pkgerrors.CodeDependency,
			hiddenText: "load bookings",
		},
		{
			name:   "nil error still answers",
			err:    nil,
			status: http.StatusInternalServerError,
			code:   pkgerrors.CodeInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), logger.Nop(), rec, tc.err)

			require.Equal(t, tc.status, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, string(tc.code), got.Code)
			assert.NotEmpty(t, got.Message)
			if tc.message != "" {
				assert.Equal(t, tc.message, got.Message)
			}
			if tc.hiddenText != "" {
				assert.NotContains(t, got.Message, tc.hiddenText)
			}
			if tc.wantDetails {
				assert.NotNil(t, got.Details)
			} else {
				assert.Nil(t, got.Details)
			}
		})
	}
}
