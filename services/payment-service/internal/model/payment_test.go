package model

import "testing"

// The status values are part of the API surface: clients poll
// GET /api/payments/{orderId} and branch on them.
func TestStatusValues(t *testing.T) {
	if StatusPending != "pending" {
		t.Fatalf("initial status = %q, want pending", StatusPending)
	}
	if StatusCompleted != "completed" {
		t.Fatalf("completed status = %q", StatusCompleted)
	}
	if StatusFailed != "failed" {
		t.Fatalf("failed status = %q", StatusFailed)
	}
}
