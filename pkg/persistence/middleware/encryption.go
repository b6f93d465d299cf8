package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// envelopePrefix marks the description of an encrypted draft envelope.
const envelopePrefix = "fieldwork:enc:v1:"

// ErrNotEncrypted is returned when a stored draft is not an envelope.
var ErrNotEncrypted = errors.New("draft is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: got %d bytes, want 32", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	next   ports.DraftStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts drafts using AES-GCM.
// The stored draft is an opaque envelope keeping only the survey id and status.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DraftStore) ports.DraftStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, draftID string, d *domain.SurveyDraft) error {
	plainText, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt draft: %w", err)
	}

	envelope := &domain.SurveyDraft{
		ID:          d.ID,
		Status:      d.Status,
		Description: envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext),
		Sections:    []domain.Section{},
	}
	return m.next.Save(ctx, draftID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	envelope, err := m.next.Load(ctx, draftID)
	if err != nil {
		return nil, err
	}

	encoded, ok := strings.CutPrefix(envelope.Description, envelopePrefix)
	if !ok {
		// Fail secure: plain drafts are not returned once encryption is on.
		return nil, ErrNotEncrypted
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt draft: %w", err)
	}

	var d domain.SurveyDraft
	if err := json.Unmarshal(plainText, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted draft: %w", err)
	}
	return &d, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, draftID string) error {
	return m.next.Delete(ctx, draftID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
