package receipt

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"cafe-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		ID:           "t-1",
		TicketNumber: 42,
		Date:         time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
		Total:        decimal.RequireFromString("7.50"),
	}
}

func TestCodeVerify(t *testing.T) {
	q := NewQRGenerator("secret", 0)

	code, err := q.Code(sampleTicket())
	require.NoError(t, err)

	p, err := q.Verify(code)
	require.NoError(t, err)
	assert.Equal(t, "t-1", p.TicketID)
	assert.Equal(t, int64(42), p.TicketNumber)
	assert.True(t, p.Total.Equal(decimal.RequireFromString("7.5")))
}

func TestVerify_RejectsTamperingAndOtherKeys(t *testing.T) {
	q := NewQRGenerator("secret", 0)
	code, err := q.Code(sampleTicket())
	require.NoError(t, err)

	_, err = NewQRGenerator("other", 0).Verify(code)
	assert.ErrorIs(t, err, ErrBadSignature)

	other := sampleTicket()
	other.Total = decimal.RequireFromString("0.01")
	forged, err := q.Code(other)
	require.NoError(t, err)
	body, _, _ := strings.Cut(forged, ".")
	_, sig, _ := strings.Cut(code, ".")
	_, err = q.Verify(body + "." + sig)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = q.Verify("no-dot")
	assert.Error(t, err)
}

func TestPNG(t *testing.T) {
	q := NewQRGenerator("secret", 128)

	data, err := q.PNG(sampleTicket())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
