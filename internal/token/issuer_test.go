package token_test

import (
	"testing"
	"time"

	"qufit/backend/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssuer_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		secret string
		ttl    time.Duration
	}{
		{name: "missing key", secret: "secret", ttl: time.Hour},
		{name: "missing secret", key: "key", ttl: time.Hour},
		{name: "zero ttl", key: "key", secret: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, err := token.NewIssuer(tt.key, tt.secret, tt.ttl)
			assert.Error(t, err)
			assert.Nil(t, issuer)
		})
	}
}

func TestIssueJoinToken_EmbedsGrant(t *testing.T) {
	issuer, err := token.NewIssuer("APIkey", "a-very-long-livekit-secret", time.Hour)
	require.NoError(t, err)

	signed, err := issuer.IssueJoinToken("room-1", "member-7")
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	claims, err := issuer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "member-7", claims.Identity())
	assert.Equal(t, "member-7", claims.Name)
	assert.Equal(t, "APIkey", claims.Issuer)
	assert.True(t, claims.Video.RoomJoin)
	assert.Equal(t, "room-1", claims.Video.Room)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueJoinToken_RequiresRoomAndIdentity(t *testing.T) {
	issuer, err := token.NewIssuer("key", "secret", time.Hour)
	require.NoError(t, err)

	_, err = issuer.IssueJoinToken("", "member")
	assert.Error(t, err)
	_, err = issuer.IssueJoinToken("room", "")
	assert.Error(t, err)
}

func TestVerify_RejectsForeignAndExpiredTokens(t *testing.T) {
	issuer, err := token.NewIssuer("key", "secret", time.Minute)
	require.NoError(t, err)
	other, err := token.NewIssuer("key", "another-secret", time.Minute)
	require.NoError(t, err)

	foreign, err := other.IssueJoinToken("room", "member")
	require.NoError(t, err)
	_, err = issuer.Verify(foreign)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	signed, err := issuer.IssueJoinToken("room", "member")
	require.NoError(t, err)
	issuer.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })
	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}
