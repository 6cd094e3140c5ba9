package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, expiresAt, err := m.Generate("uid-1", "rider@example.com", "Rider")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserID)
	assert.Equal(t, "rider@example.com", claims.Email)
	assert.Equal(t, "Rider", claims.DisplayName)
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	token, _, err := m.Generate("uid-1", "", "")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTManager("other-secret", time.Minute)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateRequiresUserID(t *testing.T) {
	_, _, err := NewJWTManager("secret", time.Minute).Generate("", "", "")
	assert.Error(t, err)
}
