package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "door-staff-secret-0123456789"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, 0)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("short", 0)
	assert.Error(t, err, "secrets under 16 characters are refused")

	ts, err := NewTokenService("this-is-16-chars", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, ts.TTL())

	ts, err = NewTokenService("this-is-16-chars", 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, ts.TTL())
}

func TestGenerateAndValidate(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("cv5h0v2k4nbs73d8ch20")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	subject, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "cv5h0v2k4nbs73d8ch20", subject)

	other, err := ts.Generate("cv5h0v2k4nbs73d8ch2g")
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)

	valid, err := ts.Generate("organizer-1")
	require.NoError(t, err)

	expired, err := ts.GenerateWithDuration("organizer-1", -time.Second)
	require.NoError(t, err)

	otherService, err := NewTokenService("a-different-secret-entirely", 0)
	require.NoError(t, err)
	foreignSignature, err := otherService.Generate("organizer-1")
	require.NoError(t, err)

	sign := func(c claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	inAnHour := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"tampered signature", valid[:len(valid)-3] + "xxx"},
		{"expired", expired},
		{"signed with another secret", foreignSignature},
		{"foreign issuer", sign(claims{jwt.RegisteredClaims{
			Subject: "organizer-1", Issuer: "someone-else", ExpiresAt: inAnHour,
		}})},
		{"no expiry", sign(claims{jwt.RegisteredClaims{
			Subject: "organizer-1", Issuer: issuer,
		}})},
		{"no subject", sign(claims{jwt.RegisteredClaims{
			Issuer: issuer, ExpiresAt: inAnHour,
		}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}
