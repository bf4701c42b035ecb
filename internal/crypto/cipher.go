package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12

	// sealedVersion - первый байт запечатанного значения.
	// JSON всегда начинается с '{' или '[', поэтому значения различимы.
	sealedVersion byte = 0x01
)

// ErrNotSealed возвращается при попытке открыть незапечатанное значение
var ErrNotSealed = errors.New("value is not sealed")

// Sealer шифрует значения локального хранилища с использованием AES-256-GCM.
// Формат результата: version (1 byte) + nonce (12 bytes) + ciphertext + auth_tag (16 bytes).
// Additional data (например, ключ записи в очереди) привязывает шифртекст к месту хранения.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer создает Sealer из 32-байтного ключа
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeyLen, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aesGCM}, nil
}

// Seal шифрует plaintext
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("plaintext cannot be empty")
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	result := make([]byte, 0, 1+NonceSize+len(plaintext)+s.aead.Overhead())
	result = append(result, sealedVersion)
	result = append(result, nonce...)
	// GCM автоматически добавляет authentication tag в конец
	return s.aead.Seal(result, nonce, plaintext, additionalData), nil
}

// Open дешифрует значение, полученное из Seal с тем же additionalData
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, ErrNotSealed
	}
	if len(sealed) < 1+NonceSize {
		return nil, fmt.Errorf("encrypted data too short")
	}

	nonce := sealed[1 : 1+NonceSize]
	ciphertext := sealed[1+NonceSize:]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: authentication failed or corrupted data: %w", err)
	}
	return plaintext, nil
}

// IsSealed сообщает, было ли значение запечатано Sealer
func IsSealed(value []byte) bool {
	return len(value) > 0 && value[0] == sealedVersion
}
