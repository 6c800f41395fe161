package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/internal/interfaces/http/dto"
	"github.com/mfgops/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, shared.CodeNotFound},
		{"validation", shared.NewValidationError("bad"), http.StatusBadRequest, shared.CodeValidation},
		{"privilege", shared.NewPrivilegeError("creator only"), http.StatusForbidden, shared.CodePrivilege},
		{"conflict", shared.ErrConflict, http.StatusConflict, shared.CodeConflict},
		{"duplicate line", shared.NewDuplicateLineError(5), http.StatusUnprocessableEntity, shared.CodeDuplicateLine},
		{"invalid transition", shared.NewInvalidTransitionError("DRAFT", "ship"), http.StatusUnprocessableEntity, shared.CodeInvalidTransition},
		{"state lock", shared.NewStateLockError("APPROVED"), http.StatusUnprocessableEntity, shared.CodeStateLock},
		{"over shipment", shared.NewOverShipmentError(5, "10", "3"), http.StatusUnprocessableEntity, shared.CodeOverShipment},
		{"wrapped domain error", fmt.Errorf("loading: %w", shared.ErrNotFound), http.StatusNotFound, shared.CodeNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(t)
			tc.SetRequestID("req-123")

			h.HandleError(tc.Context, tt.err)

			assert.Equal(t, tt.wantStatus, tc.Recorder.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-123", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	tc := testutil.NewTestContext(t)

	h.Success(tc.Context, map[string]int{"id": 17})

	assert.Equal(t, http.StatusOK, tc.Recorder.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	tc := testutil.NewTestContext(t)

	h.SuccessWithMeta(tc.Context, []int{1, 2, 3}, 45, 2, 20)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
