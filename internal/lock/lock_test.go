package lock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/svakisto/internal/settings"
)

func TestPassphrase_EnrollVerify(t *testing.T) {
	ctx := context.Background()
	p := Passphrase{}

	cred, err := p.Enroll(ctx, "open sesame")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cred, "$argon2id$v=19$m=19456,t=2,p=1$"))

	assert.NoError(t, p.Verify(ctx, cred, "open sesame"))
	assert.ErrorIs(t, p.Verify(ctx, cred, "open sesame!"), ErrVerifyFailed)

	other, err := p.Enroll(ctx, "open sesame")
	require.NoError(t, err)
	assert.NotEqual(t, cred, other, "salt must differ between enrollments")

	_, err = p.Enroll(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestPassphrase_VerifyRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	for _, cred := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=18$m=1,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=19$garbage$AAAA$AAAA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$AAAA",
	} {
		err := Passphrase{}.Verify(ctx, cred, "x")
		assert.Error(t, err, cred)
	}
}

type unsupported struct{ Passphrase }

func (unsupported) Supported() bool { return false }

func TestGuard(t *testing.T) {
	ctx := context.Background()
	s := settings.Default()
	g := NewGuard(Passphrase{}, &s)

	assert.False(t, g.Enabled())
	assert.NoError(t, g.Unlock(ctx, "anything"), "unlocked when lock is off")
	assert.ErrorIs(t, g.Disable(ctx, "x"), ErrNotEnrolled)

	require.NoError(t, g.Enroll(ctx, "1234"))
	assert.True(t, g.Enabled())
	assert.True(t, s.BiometricLock)
	assert.NotEmpty(t, s.LockCredential)

	assert.NoError(t, g.Unlock(ctx, "1234"))
	assert.ErrorIs(t, g.Unlock(ctx, "4321"), ErrVerifyFailed)

	assert.ErrorIs(t, g.Disable(ctx, "4321"), ErrVerifyFailed)
	assert.True(t, g.Enabled())
	require.NoError(t, g.Disable(ctx, "1234"))
	assert.False(t, g.Enabled())
	assert.Empty(t, s.LockCredential)
}

func TestGuard_Unsupported(t *testing.T) {
	s := settings.Default()
	g := NewGuard(unsupported{}, &s)
	assert.ErrorIs(t, g.Enroll(context.Background(), "1234"), ErrNotSupported)
	assert.False(t, s.BiometricLock)
}
