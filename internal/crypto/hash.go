package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Fingerprint возвращает отпечаток ключа шифрования (hex SHA256).
// Хранится рядом с солью и позволяет обнаружить неверную парольную фразу
// до того, как записи очереди начнут читаться с ошибкой.
func Fingerprint(key []byte) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("key cannot be empty")
	}
	hash := sha256.Sum256(key)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFingerprint проверяет, что ключ соответствует сохраненному отпечатку
func VerifyFingerprint(key []byte, fingerprint string) error {
	if fingerprint == "" {
		return fmt.Errorf("fingerprint cannot be empty")
	}

	computed, err := Fingerprint(key)
	if err != nil {
		return fmt.Errorf("failed to compute fingerprint: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(fingerprint)) != 1 {
		return fmt.Errorf("key does not match fingerprint")
	}
	return nil
}
