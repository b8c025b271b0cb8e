package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-events/internal/config"
	"ms-events/internal/events/service"
	"ms-events/internal/models"
)

// Mock implementations
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) CreateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventStore) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) UpdateOwnedEvent(ctx context.Context, event *models.Event) (bool, error) {
	args := m.Called(event)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventStore) DeleteOwnedEvent(ctx context.Context, id, ownerID string) (bool, error) {
	args := m.Called(id, ownerID)
	return args.Bool(0), args.Error(1)
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Join(ctx context.Context, eventID, userID string) (*models.Event, error) {
	args := m.Called(eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEngine) Leave(ctx context.Context, eventID, userID string) (*models.Event, error) {
	args := m.Called(eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEngine) Attendance(ctx context.Context, eventID string) (*models.AttendanceSummary, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceSummary), args.Error(1)
}

func (m *MockEngine) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	args := m.Called(eventID, userID)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context) ([]models.Event, bool, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]models.Event), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, events []models.Event) error {
	return m.Called(events).Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, value any) error {
	return m.Called(topic, key, value).Error(0)
}

type recordingBroadcaster struct {
	updates []models.AttendanceUpdate
}

func (b *recordingBroadcaster) Emit(update models.AttendanceUpdate) {
	b.updates = append(b.updates, update)
}

var testTopics = config.TopicConfig{
	EventCreated:   "events.created",
	EventUpdated:   "events.updated",
	EventDeleted:   "events.deleted",
	AttendeeJoined: "events.attendee.joined",
	AttendeeLeft:   "events.attendee.left",
}

func newService() (*service.EventService, *MockEventStore, *MockEngine) {
	store := new(MockEventStore)
	engine := new(MockEngine)
	svc := service.NewEventService(store, engine, nil)
	svc.Topics = testTopics
	return svc, store, engine
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func validCreate() models.CreateEventRequest {
	return models.CreateEventRequest{
		Title:       "  Go Meetup ",
		Description: "Talks",
		Location:    "Galle",
		DateTime:    "2030-05-01T18:00:00Z",
		Capacity:    20,
	}
}

func TestCreate_PersistsWithOwnerAndNoAttendees(t *testing.T) {
	svc, store, _ := newService()
	pub := new(MockPublisher)
	svc.Publisher = pub

	store.On("CreateEvent", mock.MatchedBy(func(e *models.Event) bool {
		return e.CreatedBy == "owner" && e.Title == "Go Meetup" && e.AttendeeCount == 0 && e.ID != ""
	})).Return(nil)
	pub.On("Publish", "events.created", mock.Anything, mock.MatchedBy(func(v any) bool {
		msg, ok := v.(models.EventMessage)
		return ok && msg.Type == models.MessageEventCreated && msg.UserID == "owner"
	})).Return(nil)

	event, err := svc.Create(context.Background(), "owner", validCreate())
	require.NoError(t, err)
	assert.Equal(t, "owner", event.CreatedBy)
	assert.Empty(t, event.Attendees)
	assert.Equal(t, 2030, event.DateTime.Year())

	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.CreateEventRequest)
		field  string
	}{
		{"blank title", func(r *models.CreateEventRequest) { r.Title = "   " }, "title"},
		{"blank description", func(r *models.CreateEventRequest) { r.Description = "" }, "description"},
		{"blank location", func(r *models.CreateEventRequest) { r.Location = "" }, "location"},
		{"bad date", func(r *models.CreateEventRequest) { r.DateTime = "next tuesday" }, "dateTime"},
		{"zero capacity", func(r *models.CreateEventRequest) { r.Capacity = 0 }, "capacity"},
		{"huge capacity", func(r *models.CreateEventRequest) { r.Capacity = service.MaxCapacity + 1 }, "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService()
			req := validCreate()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), "owner", req)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			store.AssertNotCalled(t, "CreateEvent", mock.Anything)
		})
	}
}

func TestCreate_AcceptsDatetimeLocal(t *testing.T) {
	svc, store, _ := newService()
	store.On("CreateEvent", mock.Anything).Return(nil)

	req := validCreate()
	req.DateTime = "2030-05-01T18:30"
	event, err := svc.Create(context.Background(), "owner", req)
	require.NoError(t, err)
	assert.Equal(t, 30, event.DateTime.Minute())
}

func TestCreate_RequiresOwner(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Create(context.Background(), "", validCreate())
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestList_UsesCache(t *testing.T) {
	svc, store, _ := newService()
	cache := new(MockCache)
	svc.Cache = cache

	events := []models.Event{{ID: "a"}, {ID: "b"}}
	cache.On("Get").Return(nil, false, nil).Once()
	store.On("ListEvents").Return(events, nil).Once()
	cache.On("Set", events).Return(nil).Once()

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, events, got)

	cache.On("Get").Return(events, true, nil).Once()
	got, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, events, got)

	store.AssertNumberOfCalls(t, "ListEvents", 1)
	cache.AssertExpectations(t)
}

func TestList_CacheErrorFallsBackToStore(t *testing.T) {
	svc, store, _ := newService()
	cache := new(MockCache)
	svc.Cache = cache

	cache.On("Get").Return(nil, false, errors.New("redis down"))
	cache.On("Set", mock.Anything).Return(errors.New("redis down"))
	store.On("ListEvents").Return([]models.Event{{ID: "a"}}, nil)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdate_NonOwnerForbidden(t *testing.T) {
	svc, store, _ := newService()
	event := &models.Event{ID: "evt-1", Title: "Original", CreatedBy: "owner", Capacity: 5}
	store.On("GetEventByID", "evt-1").Return(event, nil)

	_, err := svc.Update(context.Background(), "intruder", "evt-1", models.UpdateEventRequest{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, "Original", event.Title)
	store.AssertNotCalled(t, "UpdateOwnedEvent", mock.Anything)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, store, _ := newService()
	store.On("GetEventByID", "missing").Return(nil, models.ErrNotFound)

	_, err := svc.Update(context.Background(), "owner", "missing", models.UpdateEventRequest{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdate_OwnerAppliesFields(t *testing.T) {
	svc, store, _ := newService()
	cache := new(MockCache)
	svc.Cache = cache

	current := &models.Event{ID: "evt-1", Title: "Old", Description: "d", Location: "l", CreatedBy: "owner", Capacity: 5, AttendeeCount: 2}
	updated := &models.Event{ID: "evt-1", Title: "New", Description: "d", Location: "l", CreatedBy: "owner", Capacity: 3, AttendeeCount: 2}
	store.On("GetEventByID", "evt-1").Return(current, nil).Once()
	store.On("UpdateOwnedEvent", mock.MatchedBy(func(e *models.Event) bool {
		return e.Title == "New" && e.Capacity == 3 && e.CreatedBy == "owner"
	})).Return(true, nil)
	store.On("GetEventByID", "evt-1").Return(updated, nil).Once()
	cache.On("Invalidate").Return(nil)

	got, err := svc.Update(context.Background(), "owner", "evt-1", models.UpdateEventRequest{
		Title:    strPtr("New"),
		Capacity: intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	cache.AssertCalled(t, "Invalidate")
}

func TestUpdate_CapacityBelowAttendance(t *testing.T) {
	svc, store, _ := newService()
	store.On("GetEventByID", "evt-1").Return(&models.Event{ID: "evt-1", CreatedBy: "owner", Capacity: 5, AttendeeCount: 4}, nil)

	_, err := svc.Update(context.Background(), "owner", "evt-1", models.UpdateEventRequest{Capacity: intPtr(3)})
	assert.ErrorIs(t, err, models.ErrCapacityBelowAttendance)
	assert.ErrorIs(t, err, models.ErrConflict)
	store.AssertNotCalled(t, "UpdateOwnedEvent", mock.Anything)
}

func TestUpdate_ConditionalWriteLosesRace(t *testing.T) {
	svc, store, _ := newService()
	store.On("GetEventByID", "evt-1").Return(&models.Event{ID: "evt-1", CreatedBy: "owner", Capacity: 5, AttendeeCount: 2}, nil).Once()
	store.On("UpdateOwnedEvent", mock.Anything).Return(false, nil)
	store.On("GetEventByID", "evt-1").Return(&models.Event{ID: "evt-1", CreatedBy: "owner", Capacity: 5, AttendeeCount: 4}, nil).Once()

	_, err := svc.Update(context.Background(), "owner", "evt-1", models.UpdateEventRequest{Capacity: intPtr(3)})
	assert.ErrorIs(t, err, models.ErrCapacityBelowAttendance)
}

func TestUpdate_DeletedDuringUpdate(t *testing.T) {
	svc, store, _ := newService()
	store.On("GetEventByID", "evt-1").Return(&models.Event{ID: "evt-1", CreatedBy: "owner", Capacity: 5}, nil).Once()
	store.On("UpdateOwnedEvent", mock.Anything).Return(false, nil)
	store.On("GetEventByID", "evt-1").Return(nil, models.ErrNotFound).Once()

	_, err := svc.Update(context.Background(), "owner", "evt-1", models.UpdateEventRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete_Authorization(t *testing.T) {
	svc, store, _ := newService()
	broadcaster := &recordingBroadcaster{}
	svc.Broadcaster = broadcaster
	event := &models.Event{ID: "evt-1", CreatedBy: "owner", Capacity: 5}
	store.On("GetEventByID", "evt-1").Return(event, nil)
	store.On("DeleteOwnedEvent", "evt-1", "owner").Return(true, nil)

	err := svc.Delete(context.Background(), "intruder", "evt-1")
	assert.ErrorIs(t, err, models.ErrForbidden)
	store.AssertNotCalled(t, "DeleteOwnedEvent", mock.Anything, mock.Anything)

	require.NoError(t, svc.Delete(context.Background(), "owner", "evt-1"))
	require.Len(t, broadcaster.updates, 1)
	assert.Equal(t, models.ActionDeleted, broadcaster.updates[0].Action)
}

func TestDelete_AlreadyGone(t *testing.T) {
	svc, store, _ := newService()
	store.On("GetEventByID", "evt-1").Return(&models.Event{ID: "evt-1", CreatedBy: "owner"}, nil)
	store.On("DeleteOwnedEvent", "evt-1", "owner").Return(false, nil)

	err := svc.Delete(context.Background(), "owner", "evt-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestJoin_PublishesAndBroadcasts(t *testing.T) {
	svc, _, engine := newService()
	pub := new(MockPublisher)
	broadcaster := &recordingBroadcaster{}
	svc.Publisher = pub
	svc.Broadcaster = broadcaster

	event := &models.Event{ID: "evt-1", Capacity: 2, AttendeeCount: 1, Attendees: []string{"u1"}}
	engine.On("Join", "evt-1", "u1").Return(event, nil)
	pub.On("Publish", "events.attendee.joined", "evt-1", mock.Anything).Return(errors.New("broker down"))

	got, err := svc.Join(context.Background(), "evt-1", "u1")
	require.NoError(t, err, "publish failures never fail the join")
	assert.Same(t, event, got)
	require.Len(t, broadcaster.updates, 1)
	assert.Equal(t, models.ActionJoined, broadcaster.updates[0].Action)
	assert.Equal(t, 1, broadcaster.updates[0].AttendeeCount)
}

func TestJoin_ConflictSkipsSideEffects(t *testing.T) {
	svc, _, engine := newService()
	pub := new(MockPublisher)
	cache := new(MockCache)
	svc.Publisher = pub
	svc.Cache = cache

	engine.On("Join", "evt-1", "u1").Return(nil, models.ErrEventFull)

	_, err := svc.Join(context.Background(), "evt-1", "u1")
	assert.ErrorIs(t, err, models.ErrEventFull)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Invalidate")
}

func TestLeave_MissingEventLenient(t *testing.T) {
	svc, _, engine := newService()
	pub := new(MockPublisher)
	svc.Publisher = pub
	engine.On("Leave", "gone", "u1").Return(nil, nil)

	got, err := svc.Leave(context.Background(), "gone", "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeave_Publishes(t *testing.T) {
	svc, _, engine := newService()
	pub := new(MockPublisher)
	svc.Publisher = pub
	event := &models.Event{ID: "evt-1", Capacity: 2}
	engine.On("Leave", "evt-1", "u1").Return(event, nil)
	pub.On("Publish", "events.attendee.left", "evt-1", mock.Anything).Return(nil)

	_, err := svc.Leave(context.Background(), "evt-1", "u1")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}
