package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/services"
)

type stubBookingService struct {
	createResult  *models.Booking
	createErr     error
	listResult    []models.BookingDetail
	listErr       error
	updateResult  *models.Booking
	updateErr     error
	lastInput     services.CreateBookingInput
	lastRole      string
	lastBookingID string
	lastStatus    string
	createCalls   int
}

func (s *stubBookingService) CreateBooking(_ context.Context, input services.CreateBookingInput) (*models.Booking, error) {
	s.createCalls++
	s.lastInput = input
	return s.createResult, s.createErr
}

func (s *stubBookingService) ListBookings(_ context.Context, role string) ([]models.BookingDetail, error) {
	s.lastRole = role
	return s.listResult, s.listErr
}

func (s *stubBookingService) UpdateBookingStatus(_ context.Context, role string, bookingID string, requestedStatus string) (*models.Booking, error) {
	s.lastRole = role
	s.lastBookingID = bookingID
	s.lastStatus = requestedStatus
	return s.updateResult, s.updateErr
}

const validBookingBody = `{
	"full_name": "Alina Petrova",
	"email": "alina@example.com",
	"phone": "+79123456789",
	"goal": "prepare for the state math exam",
	"experience_level": "beginner",
	"preferred_messenger": "telegram",
	"consent": true
}`

func newBookingApp(handler *BookingHandler, role string) *fiber.App {
	app := fiber.New()
	if role != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("role", role)
			c.Locals("user_id", "1")
			return c.Next()
		})
	}
	app.Post("/api/slots/:id/book", handler.BookSlot)
	app.Get("/api/v1/bookings", handler.ListBookings)
	app.Put("/api/v1/bookings/:id/status", handler.UpdateBookingStatus)
	return app
}

func TestBookSlotReturnsCreatedBooking(t *testing.T) {
	service := &stubBookingService{
		createResult: &models.Booking{
			ID:     "b3e1c6a2-0000-0000-0000-000000000001",
			SlotID: "5a7d9f00-0000-0000-0000-000000000002",
			Status: models.BookingStatusNew,
		},
	}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "")

	req := httptest.NewRequest(http.MethodPost, "/api/slots/5a7d9f00-0000-0000-0000-000000000002/book",
		strings.NewReader(validBookingBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body struct {
		BookingID string `json:"booking_id"`
		Redirect  string `json:"redirect"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.BookingID != service.createResult.ID {
		t.Fatalf("expected booking id %q, got %q", service.createResult.ID, body.BookingID)
	}
	if body.Redirect != "/thanks" {
		t.Fatalf("expected /thanks redirect, got %q", body.Redirect)
	}
	if service.lastInput.SlotID != "5a7d9f00-0000-0000-0000-000000000002" {
		t.Fatalf("expected slot id from path, got %q", service.lastInput.SlotID)
	}
	if service.lastInput.ExperienceLevel != models.ExperienceBeginner {
		t.Fatalf("expected beginner level, got %q", service.lastInput.ExperienceLevel)
	}
}

func TestBookSlotReturnsFieldErrorsWithoutCallingService(t *testing.T) {
	service := &stubBookingService{}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "")

	req := httptest.NewRequest(http.MethodPost, "/api/slots/some-slot/book", strings.NewReader(`{
		"full_name": "A",
		"email": "bad",
		"phone": "123",
		"goal": "short",
		"experience_level": "expert",
		"preferred_messenger": "fax",
		"consent": false
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.createCalls != 0 {
		t.Fatalf("expected no service call on validation failure")
	}

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"full_name", "email", "phone", "goal", "experience_level", "preferred_messenger", "consent"} {
		if len(body.Errors[field]) == 0 {
			t.Fatalf("expected error for %s, got %v", field, body.Errors)
		}
	}
}

func TestBookSlotReturnsConflictWhenSlotTaken(t *testing.T) {
	service := &stubBookingService{createErr: services.ErrSlotNotAvailable}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "")

	req := httptest.NewRequest(http.MethodPost, "/api/slots/some-slot/book", strings.NewReader(validBookingBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Errors["_form"]) != 1 {
		t.Fatalf("expected one _form error, got %v", body.Errors)
	}
}

func TestBookSlotReturnsNotFoundForMissingSlot(t *testing.T) {
	service := &stubBookingService{createErr: services.ErrSlotNotFound}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "")

	req := httptest.NewRequest(http.MethodPost, "/api/slots/some-slot/book", strings.NewReader(validBookingBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListBookingsRequiresTeacherRole(t *testing.T) {
	service := &stubBookingService{}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "student")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestListBookingsReturnsBookingsWithSlots(t *testing.T) {
	service := &stubBookingService{
		listResult: []models.BookingDetail{
			{
				Booking: models.Booking{ID: "b1", SlotID: "s1", Status: models.BookingStatusNew},
				Slot:    &models.Slot{ID: "s1", Status: models.SlotStatusBooked},
			},
		},
	}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "teacher")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRole != "teacher" {
		t.Fatalf("expected teacher role forwarded, got %q", service.lastRole)
	}

	var body struct {
		Bookings []models.BookingDetail `json:"bookings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Bookings) != 1 || body.Bookings[0].Slot == nil {
		t.Fatalf("expected one booking with slot, got %+v", body.Bookings)
	}
}

func TestUpdateBookingStatusReturnsUnprocessableForInvalidTransition(t *testing.T) {
	service := &stubBookingService{updateErr: services.ErrInvalidStateTransition}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "teacher")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bookings/b55/status", strings.NewReader(`{"status":"done"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastBookingID != "b55" || service.lastStatus != "done" {
		t.Fatalf("expected forwarded id and status, got %q %q", service.lastBookingID, service.lastStatus)
	}
}

func TestUpdateBookingStatusReturnsNotFoundForMissingBooking(t *testing.T) {
	service := &stubBookingService{updateErr: pgx.ErrNoRows}
	handler := &BookingHandler{service: service}
	app := newBookingApp(handler, "teacher")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bookings/missing/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
