package email

import (
	"fmt"
	"strings"
)

// BookingDetails carries the fields the templates interpolate. Zero values
// render as generic placeholders rather than breaking the message.
type BookingDetails struct {
	Name         string
	PlanningType string
	SlotDate     string
	SlotTime     string
	Analyst      string
}

func (d BookingDetails) displayName() string {
	if strings.TrimSpace(d.Name) == "" {
		return "there"
	}
	return d.Name
}

func (d BookingDetails) slot() string {
	return fmt.Sprintf("%s at %s", d.SlotDate, d.SlotTime)
}

// BookingConfirmation is sent to the client right after booking.
func BookingConfirmation(d BookingDetails) (subject, body string) {
	subject = "Your consultation is booked"
	body = fmt.Sprintf(
		"Hi %s,\n\nYour %s planning consultation is booked for %s.\n\nWe will send you a reminder 24 hours before the session.\n\nRegards,\nThe Advisory Team",
		d.displayName(), d.PlanningType, d.slot(),
	)
	return subject, body
}

// AnalystAssignment notifies the assigned analyst of a new booking.
func AnalystAssignment(d BookingDetails) (subject, body string) {
	subject = fmt.Sprintf("New consultation assigned: %s", d.slot())
	body = fmt.Sprintf(
		"A new %s planning consultation with %s has been scheduled for %s.\n\nPlease review the client's documents before the session.",
		d.PlanningType, d.displayName(), d.slot(),
	)
	return subject, body
}

// Reminder is sent 24 hours before the consultation slot.
func Reminder(d BookingDetails) (subject, body string) {
	subject = "Consultation reminder: tomorrow at " + d.SlotTime
	body = fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that your %s planning consultation is scheduled for %s.\n\nRegards,\nThe Advisory Team",
		d.displayName(), d.PlanningType, d.slot(),
	)
	return subject, body
}

// StatusUpdate tells the client about a state change on their booking.
func StatusUpdate(d BookingDetails, status string) (subject, body string) {
	subject = "Consultation update: " + status
	body = fmt.Sprintf(
		"Hi %s,\n\nYour consultation scheduled for %s is now %s.\n\nRegards,\nThe Advisory Team",
		d.displayName(), d.slot(), status,
	)
	return subject, body
}
