// Package secret шифрует учётные данные пользователей (ключи биллинга, OAuth-токены)
// перед записью в хранилище. Без ключа данные хранятся как есть.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "enc:v1:"

// ErrDecrypt возвращается, если шифртекст повреждён или ключ не подходит.
var ErrDecrypt = errors.New("cannot decrypt credential")

// Box шифрует и расшифровывает строки XChaCha20-Poly1305.
type Box struct {
	key []byte
}

// New создаёт Box из ключа в base64. Пустой ключ даёт Box без шифрования.
func New(encodedKey string) (*Box, error) {
	const op = "secret.New"
	if encodedKey == "" {
		return &Box{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%s: key must be %d bytes, got %d", op, chacha20poly1305.KeySize, len(key))
	}
	return &Box{key: key}, nil
}

// Enabled сообщает, задан ли ключ шифрования.
func (b *Box) Enabled() bool {
	return len(b.key) > 0
}

// Seal шифрует plaintext. Пустая строка остаётся пустой.
func (b *Box) Seal(plaintext string) (string, error) {
	const op = "secret.Seal"
	if !b.Enabled() || plaintext == "" {
		return plaintext, nil
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open расшифровывает значение, полученное из Seal. Значения без префикса
// (записанные до включения шифрования) возвращаются без изменений.
func (b *Box) Open(value string) (string, error) {
	const op = "secret.Open"
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	if !b.Enabled() {
		return "", fmt.Errorf("%s: %w: no key configured", op, ErrDecrypt)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrDecrypt)
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("%s: %w", op, ErrDecrypt)
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrDecrypt)
	}
	return string(plain), nil
}
