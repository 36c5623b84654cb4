package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSlotNotFound           = errors.New("slot_not_found")
	ErrSlotNotAvailable       = errors.New("slot_not_available")
	ErrSlotHasBooking         = errors.New("cannot delete a slot with an existing booking; cancel the booking first")
)

type BookingService struct {
	db          *pgxpool.Pool
	slotRepo    *repository.SlotRepository
	bookingRepo *repository.BookingRepository
	logger      *zap.Logger
}

func NewBookingService(
	db *pgxpool.Pool,
	slotRepo *repository.SlotRepository,
	bookingRepo *repository.BookingRepository,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		db:          db,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

type CreateBookingInput struct {
	SlotID             string
	FullName           string
	Email              string
	Phone              string
	AgeOrGrade         *string
	Goal               string
	ExperienceLevel    models.ExperienceLevel
	PreferredMessenger models.PreferredMessenger
	Consent            bool
}

// CreateBooking is the only path that moves a slot from free to booked.
// The claim and the booking insert happen in one transaction; the
// conditional UPDATE on the slot row is the mutual-exclusion point, so no
// in-process locking is needed even with several server instances.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if strings.TrimSpace(input.SlotID) == "" || !input.Consent {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSlotRepo := repository.NewSlotRepository(tx)
	txBookingRepo := repository.NewBookingRepository(tx)

	claimed, err := txSlotRepo.ClaimIfFree(ctx, input.SlotID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if _, err := txSlotRepo.GetByID(ctx, input.SlotID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSlotNotFound
			}
			return nil, err
		}
		s.logger.Info("booking conflict",
			zap.String("slot_id", input.SlotID),
		)
		return nil, ErrSlotNotAvailable
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateBookingInput{
		SlotID:             input.SlotID,
		FullName:           input.FullName,
		Email:              input.Email,
		Phone:              input.Phone,
		AgeOrGrade:         input.AgeOrGrade,
		Goal:               input.Goal,
		ExperienceLevel:    input.ExperienceLevel,
		PreferredMessenger: input.PreferredMessenger,
		Consent:            input.Consent,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("slot booked",
		zap.String("booking_id", booking.ID),
		zap.String("slot_id", booking.SlotID),
		zap.String("messenger", string(booking.PreferredMessenger)),
	)

	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, role string) ([]models.BookingDetail, error) {
	if role != models.RoleTeacher {
		return nil, ErrForbidden
	}

	bookings, err := s.bookingRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	slotIDs := make([]string, 0, len(bookings))
	for _, booking := range bookings {
		slotIDs = append(slotIDs, booking.SlotID)
	}

	slotsByID, err := s.slotRepo.GetByIDs(ctx, slotIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		detail := models.BookingDetail{Booking: booking}
		if slot, ok := slotsByID[booking.SlotID]; ok {
			slotCopy := slot
			detail.Slot = &slotCopy
		}
		details = append(details, detail)
	}

	return details, nil
}

// UpdateBookingStatus advances the booking workflow. It deliberately never
// touches the referenced slot: cancelling a booking leaves the slot booked
// until the teacher frees it by editing the slot.
func (s *BookingService) UpdateBookingStatus(
	ctx context.Context,
	role string,
	bookingID string,
	requestedStatus string,
) (*models.Booking, error) {
	if role != models.RoleTeacher {
		return nil, ErrForbidden
	}

	nextStatus, err := normalizeRequestedBookingStatus(requestedStatus)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateBookingStatusTransition(booking.Status, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.logger.Info("booking status updated",
		zap.String("booking_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)

	return updated, nil
}

func normalizeRequestedBookingStatus(status string) (models.BookingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed":
		return models.BookingStatusConfirmed, nil
	case "done", "complete", "completed":
		return models.BookingStatusDone, nil
	case "cancel", "cancelled", "canceled":
		return models.BookingStatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateBookingStatusTransition(current, next models.BookingStatus) error {
	switch next {
	case models.BookingStatusConfirmed:
		if current != models.BookingStatusNew {
			return ErrInvalidStateTransition
		}
	case models.BookingStatusDone:
		if current != models.BookingStatusConfirmed {
			return ErrInvalidStateTransition
		}
	case models.BookingStatusCancelled:
		if current != models.BookingStatusNew && current != models.BookingStatusConfirmed {
			return ErrInvalidStateTransition
		}
	default:
		return ErrInvalidStatus
	}
	return nil
}
