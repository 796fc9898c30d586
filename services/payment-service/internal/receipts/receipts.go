// Package receipts renders payment receipts as PDF files.
package receipts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/model"
)

type Generator struct {
	dir         string
	companyName string
	now         func() time.Time
}

func NewGenerator(dir, companyName string) *Generator {
	if companyName == "" {
		companyName = "Financial Advisory Services"
	}
	return &Generator{dir: dir, companyName: companyName, now: time.Now}
}

// NextNumber mints a receipt number. Numbers are unique per payment because
// the caller stores the first one and never mints again.
func (g *Generator) NextNumber() string {
	return fmt.Sprintf("RCP%d", g.now().Unix())
}

// Render writes the receipt PDF and returns the file name (relative to the
// receipts directory).
func (g *Generator) Render(p model.Payment, receiptNumber string) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipts dir: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt "+receiptNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, g.companyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	issued := p.CompletedAt
	if issued.IsZero() {
		issued = g.now()
	}

	rows := [][2]string{
		{"Receipt Number", receiptNumber},
		{"Date", issued.Format("02 Jan 2006 15:04")},
		{"Customer", p.Email},
		{"Order ID", p.OrderID},
		{"Payment ID", p.PaymentID},
		{"Amount", fmt.Sprintf("%s %.2f", p.Currency, float64(p.AmountPaise)/100)},
		{"Status", strings.ToUpper(string(p.Status))},
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 9, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 9, row[1], "B", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "This is a computer-generated receipt and does not require a signature.", "", 1, "C", false, 0, "")

	fileName := receiptNumber + ".pdf"
	if err := pdf.OutputFileAndClose(filepath.Join(g.dir, fileName)); err != nil {
		return "", fmt.Errorf("write receipt pdf: %w", err)
	}
	return fileName, nil
}

// Open returns the stored receipt file, refusing names that escape the
// receipts directory.
func (g *Generator) Open(fileName string) (*os.File, error) {
	if fileName != filepath.Base(fileName) || strings.Contains(fileName, "..") {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(g.dir, fileName))
}
