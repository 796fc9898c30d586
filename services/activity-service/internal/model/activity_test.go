package model

import "testing"

func TestMetadata_Validate(t *testing.T) {
	if err := (Metadata{}).Validate(); err == nil {
		t.Fatal("empty metadata should be rejected")
	}

	valid := Metadata{Booking: &BookingMeta{ConsultationID: "c1", ClientID: "asha@example.com"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("single-variant metadata should pass: %v", err)
	}

	two := Metadata{
		Booking: &BookingMeta{ConsultationID: "c1"},
		Payment: &PaymentMeta{OrderID: "order_1"},
	}
	if err := two.Validate(); err == nil {
		t.Fatal("two variants should be rejected")
	}
}

func TestMetadata_Accessors(t *testing.T) {
	m := Metadata{StatusChange: &StatusChangeMeta{
		ConsultationID: "c1",
		ClientID:       "asha@example.com",
		From:           "pending",
		To:             "confirmed",
	}}
	if m.ConsultationID() != "c1" {
		t.Fatalf("consultation id: got %q", m.ConsultationID())
	}
	if m.ClientID() != "asha@example.com" {
		t.Fatalf("client id: got %q", m.ClientID())
	}
}
