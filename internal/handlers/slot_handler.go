package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/repository"
	"github.com/rafatrasulov/rasulov-school/internal/services"
)

type SlotHandler struct {
	service slotApplicationService
}

type slotApplicationService interface {
	CreateSlot(ctx context.Context, role string, input services.CreateSlotInput) (*models.Slot, error)
	UpdateSlot(ctx context.Context, role string, slotID string, input services.UpdateSlotInput) (*models.Slot, error)
	DeleteSlot(ctx context.Context, role string, slotID string) error
	GetSlot(ctx context.Context, slotID string) (*models.Slot, error)
	ListSlots(ctx context.Context, role string, filter repository.SlotListFilter) ([]models.Slot, error)
	Calendar(ctx context.Context, from, to time.Time) ([]services.DaySlots, error)
}

func NewSlotHandler(service *services.SlotService) *SlotHandler {
	return &SlotHandler{service: service}
}

type createSlotRequest struct {
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	Capacity        int    `json:"capacity"`
}

type updateSlotRequest struct {
	StartTime       *string `json:"start_time"`
	DurationMinutes *int    `json:"duration_minutes"`
	Type            *string `json:"type"`
	Status          *string `json:"status"`
	Capacity        *int    `json:"capacity"`
}

func (h *SlotHandler) CreateSlot(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be a valid RFC3339 timestamp"})
	}

	slot, err := h.service.CreateSlot(c.Context(), role, services.CreateSlotInput{
		StartTime:       startTime,
		DurationMinutes: req.DurationMinutes,
		Type:            models.SlotType(strings.TrimSpace(req.Type)),
		Status:          models.SlotStatus(strings.TrimSpace(req.Status)),
		Capacity:        req.Capacity,
	})
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

func (h *SlotHandler) UpdateSlot(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	slotID := strings.TrimSpace(c.Params("id"))
	if slotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	var req updateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := services.UpdateSlotInput{
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
	}
	if req.StartTime != nil {
		startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.StartTime))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be a valid RFC3339 timestamp"})
		}
		input.StartTime = &startTime
	}
	if req.Type != nil {
		slotType := models.SlotType(strings.TrimSpace(*req.Type))
		input.Type = &slotType
	}
	if req.Status != nil {
		slotStatus := models.SlotStatus(strings.TrimSpace(*req.Status))
		input.Status = &slotStatus
	}

	slot, err := h.service.UpdateSlot(c.Context(), role, slotID, input)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.JSON(fiber.Map{"slot": slot})
}

func (h *SlotHandler) DeleteSlot(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	slotID := strings.TrimSpace(c.Params("id"))
	if slotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	if err := h.service.DeleteSlot(c.Context(), role, slotID); err != nil {
		return mapSlotError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SlotHandler) GetSlot(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	slotID := strings.TrimSpace(c.Params("id"))
	if slotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	slot, err := h.service.GetSlot(c.Context(), slotID)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.JSON(fiber.Map{"slot": slot})
}

func (h *SlotHandler) ListSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	filter := repository.SlotListFilter{}
	if statusParam := strings.TrimSpace(c.Query("status")); statusParam != "" {
		for _, part := range strings.Split(statusParam, ",") {
			status := models.SlotStatus(strings.TrimSpace(part))
			if !models.ValidSlotStatus(status) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be one of: free, booked, cancelled"})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	from, to, err := parseWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	filter.From = from
	filter.To = to

	slots, err := h.service.ListSlots(c.Context(), role, filter)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

// Calendar is the public availability view; no authentication required.
func (h *SlotHandler) Calendar(c *fiber.Ctx) error {
	from, to, err := parseWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	days, err := h.service.Calendar(c.Context(), from, to)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.JSON(fiber.Map{"days": days})
}

func parseWindow(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	if fromParam := strings.TrimSpace(c.Query("from")); fromParam != "" {
		parsed, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be a valid RFC3339 timestamp")
		}
		from = parsed
	}
	if toParam := strings.TrimSpace(c.Query("to")); toParam != "" {
		parsed, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be a valid RFC3339 timestamp")
		}
		to = parsed
	}
	return from, to, nil
}

func mapSlotError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSlotHasBooking):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSlotNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Slot not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process slot request"})
	}
}
