package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

var allowedExperienceLevels = map[string]struct{}{
	"beginner":     {},
	"intermediate": {},
	"advanced":     {},
}

var allowedMessengers = map[string]struct{}{
	"telegram": {},
	"whatsapp": {},
	"email":    {},
}

const (
	minFullNameLen = 2
	minPhoneLen    = 10
	minGoalLen     = 10
)

// validateBookingRequest checks the intake form in one pass and returns
// per-field messages keyed the way the form renders them inline.
func validateBookingRequest(req bookingRequest) map[string][]string {
	errs := map[string][]string{}

	if utf8.RuneCountInString(strings.TrimSpace(req.FullName)) < minFullNameLen {
		errs["full_name"] = append(errs["full_name"], "full_name must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		errs["email"] = append(errs["email"], "email must be a valid email address")
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Phone)) < minPhoneLen {
		errs["phone"] = append(errs["phone"], "phone must be at least 10 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Goal)) < minGoalLen {
		errs["goal"] = append(errs["goal"], "goal must be at least 10 characters")
	}
	if _, ok := allowedExperienceLevels[strings.TrimSpace(req.ExperienceLevel)]; !ok {
		errs["experience_level"] = append(errs["experience_level"],
			"experience_level must be one of: beginner, intermediate, advanced")
	}
	if _, ok := allowedMessengers[strings.TrimSpace(req.PreferredMessenger)]; !ok {
		errs["preferred_messenger"] = append(errs["preferred_messenger"],
			"preferred_messenger must be one of: telegram, whatsapp, email")
	}
	if !req.Consent {
		errs["consent"] = append(errs["consent"], "consent is required")
	}

	return errs
}
