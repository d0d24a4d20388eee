package model_test

import (
	"testing"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCapacityEventBook(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		available  int
		status     model.SessionStatus
		wantSlots  int
		wantStatus model.SessionStatus
		wantErr    error
	}{
		{
			name:      "decrements free slot",
			total:     3, available: 3, status: model.SessionStatusOpen,
			wantSlots: 2, wantStatus: model.SessionStatusOpen,
		},
		{
			name:      "last slot closes session",
			total:     3, available: 1, status: model.SessionStatusOpen,
			wantSlots: 0, wantStatus: model.SessionStatusClosed,
		},
		{
			name:    "full session rejected",
			total:   3, available: 0, status: model.SessionStatusOpen,
			wantErr: model.ErrSessionFull,
		},
		{
			name:    "tutor-closed session rejected even with slots",
			total:   3, available: 2, status: model.SessionStatusClosed,
			wantErr: model.ErrSessionClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, status, err := model.ApplyCapacityEvent(tt.total, tt.available, tt.status, model.CapacityEventBook)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				// Состояние не должно меняться при отказе
				assert.Equal(t, tt.available, slots)
				assert.Equal(t, tt.status, status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlots, slots)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestApplyCapacityEventCancel(t *testing.T) {
	t.Run("reopens exhausted session", func(t *testing.T) {
		slots, status, err := model.ApplyCapacityEvent(3, 0, model.SessionStatusClosed, model.CapacityEventCancel)
		require.NoError(t, err)
		assert.Equal(t, 1, slots)
		assert.Equal(t, model.SessionStatusOpen, status)
	})

	t.Run("never exceeds total capacity", func(t *testing.T) {
		slots, status, err := model.ApplyCapacityEvent(2, 2, model.SessionStatusOpen, model.CapacityEventCancel)
		require.NoError(t, err)
		assert.Equal(t, 2, slots)
		assert.Equal(t, model.SessionStatusOpen, status)
	})
}

func TestApplyCapacityEventUnknown(t *testing.T) {
	_, _, err := model.ApplyCapacityEvent(1, 1, model.SessionStatusOpen, model.CapacityEvent("expire"))
	require.ErrorIs(t, err, model.ErrValidation)
}
