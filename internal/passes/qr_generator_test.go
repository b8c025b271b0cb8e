package passes

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-events/internal/models"
)

func TestSealDecode(t *testing.T) {
	q := NewQRGenerator("pass-secret")

	token, err := q.Seal(models.RSVPPass{EventID: "evt-1", UserID: "u1"})
	require.NoError(t, err)

	pass, err := q.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", pass.EventID)
	assert.Equal(t, "u1", pass.UserID)
}

func TestDecode_RejectsForeignAndTampered(t *testing.T) {
	q := NewQRGenerator("pass-secret")
	other := NewQRGenerator("another-secret")

	token, err := other.Seal(models.RSVPPass{EventID: "evt-1", UserID: "u1"})
	require.NoError(t, err)
	_, err = q.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidPass)

	good, err := q.Seal(models.RSVPPass{EventID: "evt-1", UserID: "u1"})
	require.NoError(t, err)
	tampered := []byte(good)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}
	_, err = q.Decode(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidPass)

	_, err = q.Decode("%%%")
	assert.ErrorIs(t, err, ErrInvalidPass)
}

func TestGenerate_ProducesPNG(t *testing.T) {
	q := NewQRGenerator("pass-secret")

	img, err := q.Generate("evt-1", "u1")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())
}
