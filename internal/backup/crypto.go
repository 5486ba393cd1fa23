package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Key derivation parameters for the v2 format.
const (
	saltLength  = 16
	keyLength   = 32
	kdfTime     = 2
	kdfMemory   = 19 * 1024
	kdfThreads  = 1
	v2Prefix    = "v2:"
	legacyMagic = "Salted__"
)

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, kdfTime, kdfMemory, kdfThreads, keyLength)
}

// Encrypt seals plaintext with AES-256-GCM under a key derived from
// password with Argon2id. The result is "v2:" followed by
// base64(salt || nonce || ciphertext).
func Encrypt(plaintext []byte, password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return v2Prefix + base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens content produced by Encrypt. Content without the v2 prefix
// is treated as an OpenSSL-style passphrase ciphertext (AES-256-CBC,
// EVP_BytesToKey with MD5), the format of older browser exports. Any
// failure is reported as ErrWrongPassword.
func Decrypt(content, password string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(content, v2Prefix); ok {
		return decryptV2(rest, password)
	}
	return decryptLegacy(content, password)
}

func decryptV2(encoded, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrWrongPassword
	}
	if len(raw) < saltLength {
		return nil, ErrWrongPassword
	}
	salt, rest := raw[:saltLength], raw[saltLength:]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, ErrWrongPassword
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

func decryptLegacy(encoded, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrWrongPassword
	}
	if len(raw) < 16 || string(raw[:8]) != legacyMagic {
		return nil, ErrWrongPassword
	}
	salt, ciphertext := raw[8:16], raw[16:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrWrongPassword
	}

	key, iv := evpBytesToKey([]byte(password), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, ok := unpad(plaintext)
	if !ok || len(plaintext) == 0 {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// evpBytesToKey is OpenSSL's EVP_BytesToKey with MD5 and one iteration.
func evpBytesToKey(password, salt []byte, keyLen, ivLen int) ([]byte, []byte) {
	var derived, block []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(block)
		h.Write(password)
		h.Write(salt)
		block = h.Sum(nil)
		derived = append(derived, block...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

// unpad strips PKCS#7 padding.
func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	if !bytes.Equal(b[len(b)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, false
	}
	return b[:len(b)-n], true
}
