package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT() *JWTManager {
	return NewJWTManager(JWTConfig{Issuer: "smecs-test", Secret: "secret", TTLDays: 30})
}

func TestJWT_IssueAndParse(t *testing.T) {
	m := newTestJWT()
	token, device, exp, err := m.IssueDevice()
	require.NoError(t, err)
	require.NotEmpty(t, device)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), exp, time.Minute)

	claims, err := m.ParseDevice(token)
	require.NoError(t, err)
	assert.Equal(t, device, claims.DeviceID())
}

func TestJWT_RejectsOtherSecretAndIssuer(t *testing.T) {
	token, _, err := newTestJWT().SignDevice("dev-1")
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{Issuer: "smecs-test", Secret: "other", TTLDays: 30})
	_, err = other.ParseDevice(token)
	assert.Error(t, err)

	otherIssuer := NewJWTManager(JWTConfig{Issuer: "someone-else", Secret: "secret", TTLDays: 30})
	_, err = otherIssuer.ParseDevice(token)
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	m := newTestJWT()
	m.now = func() time.Time { return time.Now().Add(-60 * 24 * time.Hour) }
	token, _, err := m.SignDevice("dev-1")
	require.NoError(t, err)

	_, err = newTestJWT().ParseDevice(token)
	assert.Error(t, err)
}

func TestJWT_RejectsEmptySubject(t *testing.T) {
	m := newTestJWT()
	token, _, err := m.SignDevice("")
	require.NoError(t, err)

	_, err = m.ParseDevice(token)
	assert.Error(t, err)
}
