package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "web3events")

	token, err := manager.Generate("01JX5K3Q4R5S6T7V8W9X0Y1Z2A", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	require.NoError(t, err)

	claims, err := manager.Validate(token)

	require.NoError(t, err)
	require.Equal(t, "01JX5K3Q4R5S6T7V8W9X0Y1Z2A", claims.Subject)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", claims.WalletAddress)
	require.NotEmpty(t, claims.ID)
}

func TestJWTUniqueTokenID(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "web3events")

	first, err := manager.Generate("user", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	second, err := manager.Generate("user", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)

	firstClaims, err := manager.Validate(first)
	require.NoError(t, err)
	secondClaims, err := manager.Validate(second)
	require.NoError(t, err)

	require.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "web3events")
	other := NewJWTManager("different", time.Hour, "web3events")

	token, err := manager.Generate("user", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)

	_, err = other.Validate(token)

	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsExpired(t *testing.T) {
	manager := NewJWTManager("secret", -time.Minute, "web3events")

	token, err := manager.Generate("user", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)

	_, err = manager.Validate(token)

	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsEmpty(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "web3events")

	_, err := manager.Validate("   ")

	require.ErrorIs(t, err, ErrMissingToken)

	_, err = manager.Generate("", "")

	require.ErrorIs(t, err, ErrInvalidToken)
}
