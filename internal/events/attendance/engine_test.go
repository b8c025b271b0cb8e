package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-events/internal/events/attendance"
	"ms-events/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) JoinEvent(ctx context.Context, eventID, userID string) (models.JoinOutcome, *models.Event, error) {
	args := m.Called(eventID, userID)
	if args.Get(1) == nil {
		return args.Get(0).(models.JoinOutcome), nil, args.Error(2)
	}
	return args.Get(0).(models.JoinOutcome), args.Get(1).(*models.Event), args.Error(2)
}

func (m *MockStore) LeaveEvent(ctx context.Context, eventID, userID string) (models.LeaveOutcome, *models.Event, error) {
	args := m.Called(eventID, userID)
	if args.Get(1) == nil {
		return args.Get(0).(models.LeaveOutcome), nil, args.Error(2)
	}
	return args.Get(0).(models.LeaveOutcome), args.Get(1).(*models.Event), args.Error(2)
}

func (m *MockStore) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockStore) IsAttendee(ctx context.Context, eventID, userID string) (bool, error) {
	args := m.Called(eventID, userID)
	return args.Bool(0), args.Error(1)
}

func TestJoin_MapsOutcomes(t *testing.T) {
	event := &models.Event{ID: "evt-1", Capacity: 2, AttendeeCount: 1, Attendees: []string{"u1"}}

	tests := []struct {
		name    string
		outcome models.JoinOutcome
		event   *models.Event
		wantErr error
	}{
		{name: "accepted", outcome: models.JoinAccepted, event: event},
		{name: "duplicate", outcome: models.JoinDuplicate, wantErr: models.ErrAlreadyJoined},
		{name: "full", outcome: models.JoinFull, wantErr: models.ErrEventFull},
		{name: "missing", outcome: models.JoinEventMissing, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			if tt.event != nil {
				store.On("JoinEvent", "evt-1", "u1").Return(tt.outcome, tt.event, nil)
			} else {
				store.On("JoinEvent", "evt-1", "u1").Return(tt.outcome, nil, nil)
			}
			engine := attendance.NewEngine(store, false, nil)

			got, err := engine.Join(context.Background(), "evt-1", "u1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Same(t, tt.event, got)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestJoin_ConflictsWrapErrConflict(t *testing.T) {
	store := new(MockStore)
	store.On("JoinEvent", "evt-1", "u1").Return(models.JoinFull, nil, nil)
	engine := attendance.NewEngine(store, false, nil)

	_, err := engine.Join(context.Background(), "evt-1", "u1")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestJoin_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("JoinEvent", "evt-1", "u1").Return(models.JoinAccepted, nil, errors.New("db down"))
	engine := attendance.NewEngine(store, false, nil)

	_, err := engine.Join(context.Background(), "evt-1", "u1")
	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, models.ErrConflict)
}

func TestJoin_RequiresUser(t *testing.T) {
	store := new(MockStore)
	engine := attendance.NewEngine(store, false, nil)

	_, err := engine.Join(context.Background(), "evt-1", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	store.AssertNotCalled(t, "JoinEvent", mock.Anything, mock.Anything)
}

func TestLeave_MissingEventPolicy(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		store := new(MockStore)
		store.On("LeaveEvent", "gone", "u1").Return(models.LeaveEventMissing, nil, nil)
		engine := attendance.NewEngine(store, false, nil)

		got, err := engine.Leave(context.Background(), "gone", "u1")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("strict", func(t *testing.T) {
		store := new(MockStore)
		store.On("LeaveEvent", "gone", "u1").Return(models.LeaveEventMissing, nil, nil)
		engine := attendance.NewEngine(store, true, nil)

		_, err := engine.Leave(context.Background(), "gone", "u1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestLeave_NotAttendingIsSuccess(t *testing.T) {
	event := &models.Event{ID: "evt-1", Capacity: 2}
	store := new(MockStore)
	store.On("LeaveEvent", "evt-1", "u1").Return(models.LeaveNotAttending, event, nil)
	engine := attendance.NewEngine(store, true, nil)

	got, err := engine.Leave(context.Background(), "evt-1", "u1")
	require.NoError(t, err)
	assert.Same(t, event, got)
}

func TestAttendance_Summary(t *testing.T) {
	store := new(MockStore)
	store.On("GetEventByID", "evt-1").Return(&models.Event{
		ID: "evt-1", Capacity: 3, AttendeeCount: 3, Attendees: []string{"a", "b", "c"},
	}, nil)
	store.On("GetEventByID", "nope").Return(nil, models.ErrNotFound)
	engine := attendance.NewEngine(store, false, nil)

	summary, err := engine.Attendance(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Remaining)
	assert.True(t, summary.IsFull)
	assert.Len(t, summary.Attendees, 3)

	_, err = engine.Attendance(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestIsAttending(t *testing.T) {
	store := new(MockStore)
	store.On("IsAttendee", "evt-1", "u1").Return(true, nil)
	engine := attendance.NewEngine(store, false, nil)

	ok, err := engine.IsAttending(context.Background(), "evt-1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.IsAttending(context.Background(), "evt-1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
