package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/repository"
	"go.uber.org/zap"
)

type stubSlotStore struct {
	createResult *models.Slot
	createErr    error
	getResult    *models.Slot
	getErr       error
	updateResult *models.Slot
	updateErr    error
	deleted      bool
	deleteErr    error
	listResult   []models.Slot
	listErr      error
	lastCreate   repository.CreateSlotInput
	lastUpdate   repository.UpdateSlotInput
	lastFilter   repository.SlotListFilter
	createCalls  int
	deleteCalls  int
}

func (s *stubSlotStore) Create(_ context.Context, input repository.CreateSlotInput) (*models.Slot, error) {
	s.createCalls++
	s.lastCreate = input
	return s.createResult, s.createErr
}

func (s *stubSlotStore) GetByID(_ context.Context, _ string) (*models.Slot, error) {
	return s.getResult, s.getErr
}

func (s *stubSlotStore) UpdatePartial(_ context.Context, _ string, input repository.UpdateSlotInput) (*models.Slot, error) {
	s.lastUpdate = input
	return s.updateResult, s.updateErr
}

func (s *stubSlotStore) Delete(_ context.Context, _ string) (bool, error) {
	s.deleteCalls++
	return s.deleted, s.deleteErr
}

func (s *stubSlotStore) List(_ context.Context, filter repository.SlotListFilter) ([]models.Slot, error) {
	s.lastFilter = filter
	return s.listResult, s.listErr
}

type stubBookingReader struct {
	exists bool
	err    error
}

func (s *stubBookingReader) ExistsForSlot(_ context.Context, _ string) (bool, error) {
	return s.exists, s.err
}

func newSlotService(store *stubSlotStore, bookings *stubBookingReader) *SlotService {
	return &SlotService{
		slotRepo:    store,
		bookingRepo: bookings,
		logger:      zap.NewNop(),
	}
}

func TestCreateSlotAppliesDefaults(t *testing.T) {
	store := &stubSlotStore{createResult: &models.Slot{ID: "s1"}}
	service := newSlotService(store, &stubBookingReader{})

	_, err := service.CreateSlot(context.Background(), "teacher", CreateSlotInput{
		StartTime:       time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if store.lastCreate.Type != models.SlotTypeTrial {
		t.Fatalf("expected default type trial, got %q", store.lastCreate.Type)
	}
	if store.lastCreate.Status != models.SlotStatusFree {
		t.Fatalf("expected default status free, got %q", store.lastCreate.Status)
	}
	if store.lastCreate.Capacity != 1 {
		t.Fatalf("expected capacity coerced to 1, got %d", store.lastCreate.Capacity)
	}
}

func TestCreateSlotRejectsInvalidInput(t *testing.T) {
	store := &stubSlotStore{createResult: &models.Slot{ID: "s1"}}
	service := newSlotService(store, &stubBookingReader{})

	cases := []struct {
		name  string
		input CreateSlotInput
		want  error
	}{
		{
			name:  "zero start time",
			input: CreateSlotInput{DurationMinutes: 60},
			want:  ErrInvalidInput,
		},
		{
			name:  "non-positive duration",
			input: CreateSlotInput{StartTime: time.Now(), DurationMinutes: 0},
			want:  ErrInvalidInput,
		},
		{
			name:  "unknown type",
			input: CreateSlotInput{StartTime: time.Now(), DurationMinutes: 60, Type: "group"},
			want:  ErrInvalidInput,
		},
		{
			name:  "unknown status",
			input: CreateSlotInput{StartTime: time.Now(), DurationMinutes: 60, Status: "taken"},
			want:  ErrInvalidStatus,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateSlot(context.Background(), "teacher", tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if store.createCalls != 0 {
		t.Fatalf("expected no store calls for invalid input")
	}
}

func TestCreateSlotRequiresTeacher(t *testing.T) {
	store := &stubSlotStore{}
	service := newSlotService(store, &stubBookingReader{})

	_, err := service.CreateSlot(context.Background(), "student", CreateSlotInput{
		StartTime:       time.Now(),
		DurationMinutes: 60,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateSlotMapsMissingRow(t *testing.T) {
	store := &stubSlotStore{updateErr: pgx.ErrNoRows}
	service := newSlotService(store, &stubBookingReader{})

	duration := 90
	_, err := service.UpdateSlot(context.Background(), "teacher", "missing", UpdateSlotInput{
		DurationMinutes: &duration,
	})
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestUpdateSlotCoercesCapacity(t *testing.T) {
	store := &stubSlotStore{updateResult: &models.Slot{ID: "s1"}}
	service := newSlotService(store, &stubBookingReader{})

	capacity := 0
	_, err := service.UpdateSlot(context.Background(), "teacher", "s1", UpdateSlotInput{
		Capacity: &capacity,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if store.lastUpdate.Capacity == nil || *store.lastUpdate.Capacity != 1 {
		t.Fatalf("expected capacity coerced to 1, got %v", store.lastUpdate.Capacity)
	}
}

func TestDeleteSlotRefusedWhenBookingExists(t *testing.T) {
	store := &stubSlotStore{deleted: true}
	service := newSlotService(store, &stubBookingReader{exists: true})

	err := service.DeleteSlot(context.Background(), "teacher", "s1")
	if !errors.Is(err, ErrSlotHasBooking) {
		t.Fatalf("expected ErrSlotHasBooking, got %v", err)
	}
	if store.deleteCalls != 0 {
		t.Fatalf("expected no delete attempt when a booking exists")
	}
}

func TestDeleteSlotMapsMissingRow(t *testing.T) {
	store := &stubSlotStore{deleted: false}
	service := newSlotService(store, &stubBookingReader{})

	err := service.DeleteSlot(context.Background(), "teacher", "missing")
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestCalendarUsesDefaultWindowAndStatuses(t *testing.T) {
	store := &stubSlotStore{}
	service := newSlotService(store, &stubBookingReader{})

	_, err := service.Calendar(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if store.lastFilter.From.IsZero() || store.lastFilter.To.IsZero() {
		t.Fatalf("expected a default window, got %+v", store.lastFilter)
	}
	if want := store.lastFilter.From.AddDate(0, 0, 21); !store.lastFilter.To.Equal(want) {
		t.Fatalf("expected a three week window ending %v, got %v", want, store.lastFilter.To)
	}
	if len(store.lastFilter.Statuses) != 2 ||
		store.lastFilter.Statuses[0] != models.SlotStatusFree ||
		store.lastFilter.Statuses[1] != models.SlotStatusBooked {
		t.Fatalf("expected free and booked statuses, got %v", store.lastFilter.Statuses)
	}
}

func TestCalendarKeepsExplicitWindow(t *testing.T) {
	store := &stubSlotStore{}
	service := newSlotService(store, &stubBookingReader{})

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	if _, err := service.Calendar(context.Background(), from, to); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !store.lastFilter.From.Equal(from) || !store.lastFilter.To.Equal(to) {
		t.Fatalf("expected explicit window forwarded, got %+v", store.lastFilter)
	}
}
