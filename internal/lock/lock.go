// Package lock implements the optional screen lock. The platform
// authenticator is an external collaborator behind the Authenticator
// interface; Passphrase is the portable implementation.
package lock

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/mesh-intelligence/svakisto/internal/settings"
)

// Lock errors.
var (
	ErrNotSupported  = errors.New("authenticator not supported on this device")
	ErrNotEnrolled   = errors.New("lock is not enabled")
	ErrVerifyFailed  = errors.New("verification failed")
	ErrInvalidSecret = errors.New("secret must not be empty")
)

// Authenticator is the capability the lock needs: whether it can run here,
// enrolling a secret into a stored credential, and verifying a secret
// against that credential.
type Authenticator interface {
	Supported() bool
	Enroll(ctx context.Context, secret string) (string, error)
	Verify(ctx context.Context, credential, secret string) error
}

// Argon2id parameters for Passphrase credentials.
const (
	saltLength  = 16
	keyLength   = 32
	iterations  = 2
	memory      = 19 * 1024
	parallelism = 1
)

// Passphrase stores an Argon2id PHC hash of the secret.
type Passphrase struct{}

var _ Authenticator = Passphrase{}

func (Passphrase) Supported() bool { return true }

// Enroll hashes secret into a PHC-format credential.
func (Passphrase) Enroll(_ context.Context, secret string) (string, error) {
	if secret == "" {
		return "", ErrInvalidSecret
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(secret), salt, iterations, memory, parallelism, keyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks secret against a credential produced by Enroll.
func (Passphrase) Verify(_ context.Context, credential, secret string) error {
	parts := strings.Split(credential, "$")
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	if len(parts) != 6 || parts[1] != "argon2id" {
		return fmt.Errorf("invalid credential format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return fmt.Errorf("invalid credential version")
	}
	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid credential parameters: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid credential salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid credential hash: %w", err)
	}

	computed := argon2.IDKey([]byte(secret), salt, iters, mem, par, uint32(len(expected)))
	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return ErrVerifyFailed
	}
	return nil
}

// Guard applies an Authenticator to the lock fields of Settings. It only
// changes the Settings value; callers save it.
type Guard struct {
	auth     Authenticator
	settings *settings.Settings
}

// NewGuard returns a Guard over s.
func NewGuard(auth Authenticator, s *settings.Settings) *Guard {
	return &Guard{auth: auth, settings: s}
}

// Enabled reports whether the lock is on.
func (g *Guard) Enabled() bool {
	return g.settings.BiometricLock && g.settings.LockCredential != ""
}

// Enroll turns the lock on with a new secret.
func (g *Guard) Enroll(ctx context.Context, secret string) error {
	if !g.auth.Supported() {
		return ErrNotSupported
	}
	cred, err := g.auth.Enroll(ctx, secret)
	if err != nil {
		return err
	}
	g.settings.LockCredential = cred
	g.settings.BiometricLock = true
	return nil
}

// Unlock verifies secret. When the lock is off it always succeeds.
func (g *Guard) Unlock(ctx context.Context, secret string) error {
	if !g.Enabled() {
		return nil
	}
	if err := g.auth.Verify(ctx, g.settings.LockCredential, secret); err != nil {
		if errors.Is(err, ErrVerifyFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	return nil
}

// Disable turns the lock off after verifying secret.
func (g *Guard) Disable(ctx context.Context, secret string) error {
	if !g.Enabled() {
		return ErrNotEnrolled
	}
	if err := g.Unlock(ctx, secret); err != nil {
		return err
	}
	g.settings.BiometricLock = false
	g.settings.LockCredential = ""
	return nil
}
