package receipt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// Payload is what a receipt QR code carries: enough to look the ticket up and to notice
// a tampered total.
type Payload struct {
	TicketID     string          `json:"id"`
	TicketNumber int64           `json:"n"`
	Total        decimal.Decimal `json:"t"`
	Date         time.Time       `json:"d"`
}

var ErrBadSignature = errors.New("receipt code signature mismatch")

type QRGenerator struct {
	secret []byte
	size   int
}

func NewQRGenerator(secret string, size int) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret))
	if size <= 0 {
		size = 256
	}
	return &QRGenerator{secret: hashed[:], size: size}
}

// Code returns the signed text encoded in the QR image: base64url(payload).base64url(hmac).
func (q *QRGenerator) Code(ticket models.Ticket) (string, error) {
	data, err := json.Marshal(Payload{
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Total:        ticket.Total,
		Date:         ticket.Date.UTC(),
	})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(data)
	return body + "." + base64.RawURLEncoding.EncodeToString(q.sign(body)), nil
}

// PNG renders the receipt QR image.
func (q *QRGenerator) PNG(ticket models.Ticket) ([]byte, error) {
	code, err := q.Code(ticket)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(code, qrcode.Medium, q.size)
}

// Verify checks a scanned code and returns its payload.
func (q *QRGenerator) Verify(code string) (*Payload, error) {
	body, sig, ok := strings.Cut(code, ".")
	if !ok {
		return nil, fmt.Errorf("malformed receipt code")
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return nil, fmt.Errorf("malformed receipt signature: %w", err)
	}
	if !hmac.Equal(got, q.sign(body)) {
		return nil, ErrBadSignature
	}

	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("malformed receipt payload: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed receipt payload: %w", err)
	}
	return &p, nil
}

func (q *QRGenerator) sign(body string) []byte {
	mac := hmac.New(sha256.New, q.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
