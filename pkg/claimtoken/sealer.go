package claimtoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned for keys that are not base64 AES-128/192/256 keys.
	ErrInvalidKey = errors.New("claimtoken: invalid key")

	// ErrInvalidToken is returned for tokens that fail decoding or authentication.
	ErrInvalidToken = errors.New("claimtoken: invalid token")
)

// Claim is the identity sealed inside a role offer link.
type Claim struct {
	ReservationID uuid.UUID
	WorkerID      int64
	RoleID        int64
}

// Sealer creates and opens opaque AES-GCM offer tokens. Tokens do not expire.
type Sealer struct {
	aead cipher.AEAD
}

// New builds a sealer from a base64 encoded key.
func New(base64Key string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts the claim into a URL-safe token.
func (s *Sealer) Seal(c Claim) (string, error) {
	plaintext := []byte(fmt.Sprintf("%s:%d:%d", c.ReservationID, c.WorkerID, c.RoleID))

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open authenticates and decodes a token produced by Seal.
func (s *Sealer) Open(token string) (Claim, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return Claim{}, fmt.Errorf("%w: too short", ErrInvalidToken)
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	parts := strings.Split(string(pt), ":")
	if len(parts) != 3 {
		return Claim{}, fmt.Errorf("%w: bad payload", ErrInvalidToken)
	}

	reservationID, err := uuid.Parse(parts[0])
	if err != nil {
		return Claim{}, fmt.Errorf("%w: reservation id: %v", ErrInvalidToken, err)
	}
	workerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: worker id: %v", ErrInvalidToken, err)
	}
	roleID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: role id: %v", ErrInvalidToken, err)
	}

	return Claim{ReservationID: reservationID, WorkerID: workerID, RoleID: roleID}, nil
}
