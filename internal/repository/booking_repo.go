package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rafatrasulov/rasulov-school/internal/models"
)

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

const bookingColumns = "id, slot_id, full_name, email, phone, age_or_grade, goal, " +
	"experience_level, preferred_messenger, consent, status, created_at, updated_at"

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row interface{ Scan(dest ...any) error }, booking *models.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.FullName,
		&booking.Email,
		&booking.Phone,
		&booking.AgeOrGrade,
		&booking.Goal,
		&booking.ExperienceLevel,
		&booking.PreferredMessenger,
		&booking.Consent,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (id, slot_id, full_name, email, phone, age_or_grade,
			goal, experience_level, preferred_messenger, consent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'new')
		RETURNING ` + bookingColumns + `
	`
	var booking models.Booking
	err := scanBooking(r.db.QueryRow(
		ctx,
		query,
		uuid.NewString(),
		input.SlotID,
		input.FullName,
		input.Email,
		input.Phone,
		input.AgeOrGrade,
		input.Goal,
		input.ExperienceLevel,
		input.PreferredMessenger,
		input.Consent,
	), &booking)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`
	var booking models.Booking
	if err := scanBooking(r.db.QueryRow(ctx, query, bookingID), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ExistsForSlot(ctx context.Context, slotID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE slot_id = $1
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, slotID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *BookingRepository) List(ctx context.Context) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID string,
	currentStatus models.BookingStatus,
	nextStatus models.BookingStatus,
) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns + `
	`
	var booking models.Booking
	if err := scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
