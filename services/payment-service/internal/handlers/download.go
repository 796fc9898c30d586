package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/receipts"
)

type ReceiptHandler struct {
	generator *receipts.Generator
	logger    *slog.Logger
}

func NewReceiptHandler(generator *receipts.Generator, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{generator: generator, logger: logger}
}

// Download streams a stored receipt PDF by file name.
func (h *ReceiptHandler) Download(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("fileName")

	f, err := h.generator.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			writeClientError(w, http.StatusNotFound, "receipt not found")
			return
		}
		h.logger.Error("receipt open failed", "file", fileName, "err", err)
		writeServerError(w, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Error("receipt stream failed", "file", fileName, "err", err)
	}
}
