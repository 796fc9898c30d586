package email

import (
	"strings"
	"testing"
)

func details() BookingDetails {
	return BookingDetails{
		Name:         "Asha",
		PlanningType: "business",
		SlotDate:     "2024-06-12",
		SlotTime:     "9:00",
		Analyst:      "ravi",
	}
}

func TestBookingConfirmation(t *testing.T) {
	subject, body := BookingConfirmation(details())
	if subject == "" {
		t.Fatal("expected a subject")
	}
	for _, want := range []string{"Asha", "business", "2024-06-12", "9:00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestReminder(t *testing.T) {
	subject, body := Reminder(details())
	if !strings.Contains(subject, "9:00") {
		t.Fatalf("subject should carry the slot time, got %q", subject)
	}
	if !strings.Contains(body, "2024-06-12 at 9:00") {
		t.Fatalf("body missing slot:\n%s", body)
	}
}

func TestTemplates_EmptyNameFallsBack(t *testing.T) {
	d := details()
	d.Name = ""
	_, body := BookingConfirmation(d)
	if !strings.Contains(body, "Hi there,") {
		t.Fatalf("expected fallback greeting:\n%s", body)
	}
}

func TestBuildMessage_CRLFHeaders(t *testing.T) {
	msg := buildMessage("a@x.local", "b@y.local", "Subj", "Body")
	if !strings.HasPrefix(msg, "From: a@x.local\r\n") {
		t.Fatalf("bad header block: %q", msg)
	}
	if !strings.Contains(msg, "\r\n\r\nBody\r\n") {
		t.Fatalf("body not separated from headers: %q", msg)
	}
}
