package models

import "time"

type SlotType string

const (
	SlotTypeTrial   SlotType = "trial"
	SlotTypeRegular SlotType = "regular"
)

type SlotStatus string

const (
	SlotStatusFree      SlotStatus = "free"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

type Slot struct {
	ID              string     `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Type            SlotType   `json:"type"`
	Status          SlotStatus `json:"status"`
	Capacity        int        `json:"capacity"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ValidSlotType(t SlotType) bool {
	return t == SlotTypeTrial || t == SlotTypeRegular
}

func ValidSlotStatus(s SlotStatus) bool {
	return s == SlotStatusFree || s == SlotStatusBooked || s == SlotStatusCancelled
}
