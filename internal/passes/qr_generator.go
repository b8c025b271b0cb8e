package passes

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"ms-events/internal/models"
)

var ErrInvalidPass = errors.New("invalid pass")

// QRGenerator renders RSVP passes as QR codes whose payload is the sealed pass.
type QRGenerator struct {
	secret []byte
	Size   int
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:], Size: 256}
}

// Generate seals a pass for userID on eventID and returns it as a PNG.
func (q *QRGenerator) Generate(eventID, userID string) ([]byte, error) {
	token, err := q.Seal(models.RSVPPass{EventID: eventID, UserID: userID, IssuedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, q.Size)
}

// Seal encrypts pass with AES-GCM and returns URL-safe base64.
func (q *QRGenerator) Seal(pass models.RSVPPass) (string, error) {
	data, err := json.Marshal(pass)
	if err != nil {
		return "", err
	}

	gcm, err := q.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decode reverses Seal. Tampered or foreign tokens yield ErrInvalidPass.
func (q *QRGenerator) Decode(token string) (*models.RSVPPass, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}

	gcm, err := q.aead()
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, ErrInvalidPass
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	data, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPass
	}

	var pass models.RSVPPass
	if err := json.Unmarshal(data, &pass); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	return &pass, nil
}

func (q *QRGenerator) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
