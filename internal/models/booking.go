package models

import "time"

type BookingStatus string

const (
	BookingStatusNew       BookingStatus = "new"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusDone      BookingStatus = "done"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

type PreferredMessenger string

const (
	MessengerTelegram PreferredMessenger = "telegram"
	MessengerWhatsApp PreferredMessenger = "whatsapp"
	MessengerEmail    PreferredMessenger = "email"
)

type Booking struct {
	ID                 string             `json:"id"`
	SlotID             string             `json:"slot_id"`
	FullName           string             `json:"full_name"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone"`
	AgeOrGrade         *string            `json:"age_or_grade"`
	Goal               string             `json:"goal"`
	ExperienceLevel    ExperienceLevel    `json:"experience_level"`
	PreferredMessenger PreferredMessenger `json:"preferred_messenger"`
	Consent            bool               `json:"consent"`
	Status             BookingStatus      `json:"status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

type BookingDetail struct {
	Booking
	Slot *Slot `json:"slot,omitempty"`
}
