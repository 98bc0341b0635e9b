// Package e2ee is the opaque message-encryption primitive. The shared secret
// is the human-visible meeting code; this obscures the chat from anyone
// without the code, nothing more.
package e2ee

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// DecryptFailed is rendered in place of the message text when the secret
// does not match. Decrypt never fails harder than this.
const DecryptFailed = "[Decryption Error: Key Mismatch]"

const (
	keySalt       = "go-meet-salt"
	keyIterations = 100000
	keyLen        = 32
	ivLen         = 12
)

func deriveKey(secret string) []byte {
	padded := secret
	for len(padded) < keyLen {
		padded += "0"
	}
	return pbkdf2.Key([]byte(padded[:keyLen]), []byte(keySalt), keyIterations, keyLen, sha256.New)
}

func newGCM(secret string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return nil, fmt.Errorf("cannot create cipher, err = %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt returns base64(iv || AES-256-GCM(plaintext)).
func Encrypt(plaintext, secret string) (string, error) {
	gcm, err := newGCM(secret)
	if err != nil {
		return "", err
	}
	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("cannot read random iv, err = %w", err)
	}
	sealed := gcm.Seal(iv, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt recovers the plaintext, or returns DecryptFailed for any malformed
// ciphertext or secret mismatch.
func Decrypt(ciphertext, secret string) string {
	buffer, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(buffer) < ivLen {
		return DecryptFailed
	}
	gcm, err := newGCM(secret)
	if err != nil {
		return DecryptFailed
	}
	plaintext, err := gcm.Open(nil, buffer[:ivLen], buffer[ivLen:], nil)
	if err != nil {
		return DecryptFailed
	}
	return string(plaintext)
}

// SafetyNumber derives a reproducible 12-digit code from the secret so two
// attendees can verify out of band that they share the same meeting code.
func SafetyNumber(secret string) string {
	sum := sha256.Sum256([]byte(keySalt + secret))
	out := make([]byte, 0, 14)
	for i := 0; i < 12; i++ {
		if i == 4 || i == 8 {
			out = append(out, '-')
		}
		out = append(out, '0'+sum[i]%10)
	}
	return string(out)
}
