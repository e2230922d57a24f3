package receipts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"kwickpay/models"
	"kwickpay/txn"
	"kwickpay/utils"
)

// Printer renders downloadable PDF receipts for settled transactions. The QR
// payload is HMAC-signed so support staff can verify a printed receipt was
// issued by us.
type Printer struct {
	Txns   txn.Store
	secret []byte
}

func NewPrinter(txns txn.Store) *Printer {
	secret := os.Getenv("RECEIPT_SIGNING_KEY")
	if secret == "" {
		secret = "kwickpay_receipt_dev_key"
	}
	return &Printer{Txns: txns, secret: []byte(secret)}
}

// qrPayload returns reference|status|amount|signature.
func (p *Printer) qrPayload(t *models.Transaction) string {
	data := fmt.Sprintf("%s|%s|%.2f", t.Reference, t.Status, t.Amount)
	h := hmac.New(sha256.New, p.secret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return data + "|" + sig
}

// Print serves the PDF receipt for one of the caller's transactions.
func (p *Printer) Print(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reference := ps.ByName("reference")
	t, err := p.Txns.ByUserReference(r.Context(), userID, reference)
	if err != nil {
		if err == txn.ErrNotFound {
			utils.RespondWithError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not load transaction")
		return
	}
	if t.Status == models.StatusPending {
		utils.RespondWithError(w, http.StatusConflict, "Receipt unavailable while transaction is pending")
		return
	}

	qrPNG, err := qrcode.Encode(p.qrPayload(t), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Transaction Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Reference: %s", t.Reference))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Description: %s", t.Description))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Amount: NGN %.2f", t.Amount))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Status: %s", strings.ToUpper(t.Status)))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", t.CreatedAt.Format("02 Jan 2006 15:04")))
	pdf.Ln(8)
	if providerRef, ok := t.Meta["providerRef"].(string); ok && providerRef != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Provider Ref: %s", providerRef))
		pdf.Ln(8)
	}
	if t.Refunded {
		pdf.Cell(0, 10, fmt.Sprintf("Refunded: NGN %.2f", t.RefundedAmount))
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+t.Reference+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
