package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/services"
)

const thanksPath = "/thanks"

type BookingHandler struct {
	service bookingApplicationService
}

type bookingApplicationService interface {
	CreateBooking(ctx context.Context, input services.CreateBookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context, role string) ([]models.BookingDetail, error)
	UpdateBookingStatus(ctx context.Context, role string, bookingID string, requestedStatus string) (*models.Booking, error)
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type bookingRequest struct {
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	AgeOrGrade         *string `json:"age_or_grade"`
	Goal               string  `json:"goal"`
	ExperienceLevel    string  `json:"experience_level"`
	PreferredMessenger string  `json:"preferred_messenger"`
	Consent            bool    `json:"consent"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

// BookSlot is the public booking submission. Validation happens in one pass
// before any store access; domain failures come back under the "_form" key
// the way field failures come back under their field names.
func (h *BookingHandler) BookSlot(c *fiber.Ctx) error {
	slotID := strings.TrimSpace(c.Params("id"))
	if slotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if errs := validateBookingRequest(req); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": errs})
	}

	var ageOrGrade *string
	if req.AgeOrGrade != nil && strings.TrimSpace(*req.AgeOrGrade) != "" {
		trimmed := strings.TrimSpace(*req.AgeOrGrade)
		ageOrGrade = &trimmed
	}

	booking, err := h.service.CreateBooking(c.Context(), services.CreateBookingInput{
		SlotID:             slotID,
		FullName:           strings.TrimSpace(req.FullName),
		Email:              strings.TrimSpace(req.Email),
		Phone:              strings.TrimSpace(req.Phone),
		AgeOrGrade:         ageOrGrade,
		Goal:               strings.TrimSpace(req.Goal),
		ExperienceLevel:    models.ExperienceLevel(strings.TrimSpace(req.ExperienceLevel)),
		PreferredMessenger: models.PreferredMessenger(strings.TrimSpace(req.PreferredMessenger)),
		Consent:            req.Consent,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlotNotAvailable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"errors": fiber.Map{"_form": []string{"This slot is already taken. Please choose another time."}},
			})
		case errors.Is(err, services.ErrSlotNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"errors": fiber.Map{"_form": []string{"Slot not found."}},
			})
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": fiber.Map{"_form": []string{err.Error()}},
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"errors": fiber.Map{"_form": []string{err.Error()}},
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking_id": booking.ID,
		"redirect":   thanksPath,
	})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	bookings, err := h.service.ListBookings(c.Context(), role)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) UpdateBookingStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	bookingID := strings.TrimSpace(c.Params("id"))
	if bookingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req updateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	booking, err := h.service.UpdateBookingStatus(c.Context(), role, bookingID, req.Status)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
