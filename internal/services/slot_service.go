package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/repository"
	"go.uber.org/zap"
)

type slotStore interface {
	Create(ctx context.Context, input repository.CreateSlotInput) (*models.Slot, error)
	GetByID(ctx context.Context, slotID string) (*models.Slot, error)
	UpdatePartial(ctx context.Context, slotID string, input repository.UpdateSlotInput) (*models.Slot, error)
	Delete(ctx context.Context, slotID string) (bool, error)
	List(ctx context.Context, filter repository.SlotListFilter) ([]models.Slot, error)
}

type bookingReader interface {
	ExistsForSlot(ctx context.Context, slotID string) (bool, error)
}

type SlotService struct {
	slotRepo    slotStore
	bookingRepo bookingReader
	logger      *zap.Logger
}

func NewSlotService(slotRepo *repository.SlotRepository, bookingRepo *repository.BookingRepository, logger *zap.Logger) *SlotService {
	return &SlotService{
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

type CreateSlotInput struct {
	StartTime       time.Time
	DurationMinutes int
	Type            models.SlotType
	Status          models.SlotStatus
	Capacity        int
}

type UpdateSlotInput struct {
	StartTime       *time.Time
	DurationMinutes *int
	Type            *models.SlotType
	Status          *models.SlotStatus
	Capacity        *int
}

func (s *SlotService) CreateSlot(ctx context.Context, role string, input CreateSlotInput) (*models.Slot, error) {
	if role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	if input.StartTime.IsZero() || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}

	if input.Type == "" {
		input.Type = models.SlotTypeTrial
	}
	if !models.ValidSlotType(input.Type) {
		return nil, ErrInvalidInput
	}
	if input.Status == "" {
		input.Status = models.SlotStatusFree
	}
	if !models.ValidSlotStatus(input.Status) {
		return nil, ErrInvalidStatus
	}
	if input.Capacity < 1 {
		input.Capacity = 1
	}

	slot, err := s.slotRepo.Create(ctx, repository.CreateSlotInput{
		StartTime:       input.StartTime,
		DurationMinutes: input.DurationMinutes,
		Type:            input.Type,
		Status:          input.Status,
		Capacity:        input.Capacity,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slot created",
		zap.String("slot_id", slot.ID),
		zap.Time("start_time", slot.StartTime),
		zap.String("type", string(slot.Type)),
	)

	return slot, nil
}

func (s *SlotService) UpdateSlot(ctx context.Context, role string, slotID string, input UpdateSlotInput) (*models.Slot, error) {
	if role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	if input.DurationMinutes != nil && *input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Type != nil && !models.ValidSlotType(*input.Type) {
		return nil, ErrInvalidInput
	}
	if input.Status != nil && !models.ValidSlotStatus(*input.Status) {
		return nil, ErrInvalidStatus
	}
	if input.Capacity != nil && *input.Capacity < 1 {
		coerced := 1
		input.Capacity = &coerced
	}

	slot, err := s.slotRepo.UpdatePartial(ctx, slotID, repository.UpdateSlotInput{
		StartTime:       input.StartTime,
		DurationMinutes: input.DurationMinutes,
		Type:            input.Type,
		Status:          input.Status,
		Capacity:        input.Capacity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

func (s *SlotService) DeleteSlot(ctx context.Context, role string, slotID string) error {
	if role != models.RoleTeacher {
		return ErrForbidden
	}

	hasBooking, err := s.bookingRepo.ExistsForSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if hasBooking {
		return ErrSlotHasBooking
	}

	deleted, err := s.slotRepo.Delete(ctx, slotID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSlotNotFound
	}

	s.logger.Info("slot deleted", zap.String("slot_id", slotID))
	return nil
}

func (s *SlotService) GetSlot(ctx context.Context, slotID string) (*models.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

func (s *SlotService) ListSlots(ctx context.Context, role string, filter repository.SlotListFilter) ([]models.Slot, error) {
	if role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	return s.slotRepo.List(ctx, filter)
}

// Calendar is the public availability projection: free and booked slots in
// the requested window, grouped by server-local day.
func (s *SlotService) Calendar(ctx context.Context, from, to time.Time) ([]DaySlots, error) {
	if from.IsZero() || to.IsZero() {
		from, to = DefaultCalendarWindow(time.Now(), time.Local)
	}

	slots, err := s.slotRepo.List(ctx, repository.SlotListFilter{
		Statuses: []models.SlotStatus{models.SlotStatusFree, models.SlotStatusBooked},
		From:     from,
		To:       to,
	})
	if err != nil {
		return nil, err
	}

	return GroupSlotsByDay(slots, time.Local), nil
}
