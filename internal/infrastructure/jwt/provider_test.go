package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/capstone-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSignVerify_RoundTrip(t *testing.T) {
	key := testKey(t)
	p := NewProviderFromKeys(key, &key.PublicKey, time.Hour)

	tok, err := p.Sign("u1", domain.RoleLecturer)
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleLecturer, claims.PlatformRole())
}

func TestVerify_Expired(t *testing.T) {
	key := testKey(t)
	p := NewProviderFromKeys(key, &key.PublicKey, -time.Minute)

	tok, err := p.Sign("u1", domain.RoleStudent)
	require.NoError(t, err)
	_, err = p.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_WrongKey(t *testing.T) {
	signer := NewProviderFromKeys(testKey(t), nil, time.Hour)
	other := testKey(t)
	verifier := NewProviderFromKeys(nil, &other.PublicKey, time.Hour)

	tok, err := signer.Sign("u1", domain.RoleStudent)
	require.NoError(t, err)
	_, err = verifier.Verify(tok)
	assert.Error(t, err)
}

func TestSign_VerifyOnly(t *testing.T) {
	key := testKey(t)
	_, err := NewProviderFromKeys(nil, &key.PublicKey, time.Hour).Sign("u1", domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrSigningDisabled)
}
