// Package secretbox cifra secretos de configuración (tokens, DSNs, passwords)
// con AES-256-GCM para poder versionar config.yaml sin texto plano.
//
// Formato: "enc:" + base64(nonce) + "|" + base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// EnvVar es la variable con la clave maestra.
	EnvVar = "SECRETBOX_MASTER_KEY"
	// Prefix marca un valor cifrado dentro de la config.
	Prefix = "enc:"

	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

// ErrNoKey indica que no hay clave maestra configurada.
var ErrNoKey = fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", EnvVar)

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box. key acepta base64 (con o sin padding), hex (64 chars) o
// 32 bytes crudos.
func New(key string) (*Box, error) {
	kb, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(kb)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// FromEnv crea un Box con la clave de SECRETBOX_MASTER_KEY.
func FromEnv() (*Box, error) {
	k := strings.TrimSpace(os.Getenv(EnvVar))
	if k == "" {
		return nil, ErrNoKey
	}
	return New(k)
}

func parseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 2*requiredKeyLength {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("%s inválida: se requieren %d bytes", EnvVar, requiredKeyLength)
}

// Seal cifra plainText y devuelve el valor con prefijo "enc:".
func (b *Box) Seal(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)
	return Prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra un valor producido por Seal. El prefijo "enc:" es opcional.
func (b *Box) Open(value string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(value, Prefix), sep)
	if len(parts) != 2 {
		return "", errors.New("formato inválido: esperado enc:base64(nonce)|base64(ciphertext)")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSizeGCM, len(nonce))
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}

// IsSealed informa si value lleva el prefijo "enc:".
func IsSealed(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), Prefix)
}
