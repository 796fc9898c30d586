package receipts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/model"
)

func testPayment() model.Payment {
	return model.Payment{
		OrderID:     "order_abc123",
		PaymentID:   "pay_xyz789",
		Email:       "asha@example.com",
		AmountPaise: 250000,
		Currency:    "INR",
		Status:      model.StatusCompleted,
		CompletedAt: time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestRender_WritesPDF(t *testing.T) {
	g := NewGenerator(t.TempDir(), "Test Advisory")

	fileName, err := g.Render(testPayment(), "RCP1718029800")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if fileName != "RCP1718029800.pdf" {
		t.Fatalf("unexpected file name %q", fileName)
	}

	data, err := os.ReadFile(filepath.Join(g.dir, fileName))
	if err != nil {
		t.Fatalf("read receipt: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestNextNumber_Format(t *testing.T) {
	g := NewGenerator(t.TempDir(), "")
	g.now = func() time.Time { return time.Unix(1718029800, 0) }

	if n := g.NextNumber(); n != "RCP1718029800" {
		t.Fatalf("unexpected receipt number %q", n)
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	g := NewGenerator(t.TempDir(), "")

	for _, name := range []string{"../secret.pdf", "a/../../b.pdf", "sub/receipt.pdf"} {
		if _, err := g.Open(name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		} else if !os.IsNotExist(err) && !strings.Contains(err.Error(), "no such file") {
			t.Fatalf("expected not-exist error for %q, got %v", name, err)
		}
	}
}
