package routes

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafatrasulov/rasulov-school/internal/config"
	"github.com/rafatrasulov/rasulov-school/internal/handlers"
	"github.com/rafatrasulov/rasulov-school/internal/middleware"
	"github.com/rafatrasulov/rasulov-school/internal/models"
	"github.com/rafatrasulov/rasulov-school/internal/repository"
	"github.com/rafatrasulov/rasulov-school/internal/services"
	"github.com/rafatrasulov/rasulov-school/pkg/utils"
	"go.uber.org/zap"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) error {
	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	if err := seedDefaultTeacher(cfg, userRepo); err != nil {
		return err
	}

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	slotService := services.NewSlotService(slotRepo, bookingRepo, logger)
	slotHandler := handlers.NewSlotHandler(slotService)
	bookingService := services.NewBookingService(db, slotRepo, bookingRepo, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Public surface: the landing-page calendar and the booking form.
	api.Get("/calendar", slotHandler.Calendar)
	api.Post("/slots/:id/book", bookingHandler.BookSlot)

	admin := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	slots := admin.Group("/slots")
	slots.Post("", slotHandler.CreateSlot)
	slots.Get("", slotHandler.ListSlots)
	slots.Get("/:id", slotHandler.GetSlot)
	slots.Put("/:id", slotHandler.UpdateSlot)
	slots.Delete("/:id", slotHandler.DeleteSlot)

	bookings := admin.Group("/bookings")
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Put("/:id/status", bookingHandler.UpdateBookingStatus)

	return nil
}

func seedDefaultTeacher(cfg *config.Config, userRepo *repository.UserRepository) error {
	email := strings.ToLower(strings.TrimSpace(cfg.DefaultTeacherEmail))
	if email == "" || cfg.DefaultTeacherPassword == "" {
		return nil
	}

	ctx := context.Background()
	if _, err := userRepo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.DefaultTeacherPassword)
	if err != nil {
		return err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleTeacher,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return err
	}
	return nil
}
