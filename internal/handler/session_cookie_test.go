package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := NewCookieCodec("test-secret", time.Hour)

	token, err := codec.Issue("sid-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sid, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sid-123", sid)
}

func TestCookieCodecRejectsTamperedToken(t *testing.T) {
	codec := NewCookieCodec("test-secret", time.Hour)
	token, err := codec.Issue("sid-123")
	require.NoError(t, err)

	_, err = codec.Parse(token + "x")
	assert.Error(t, err)
}

func TestCookieCodecRejectsForeignSecret(t *testing.T) {
	token, err := NewCookieCodec("secret-a", time.Hour).Issue("sid-123")
	require.NoError(t, err)

	_, err = NewCookieCodec("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestCookieCodecRejectsExpired(t *testing.T) {
	codec := NewCookieCodec("test-secret", -time.Minute)
	token, err := codec.Issue("sid-123")
	require.NoError(t, err)

	_, err = codec.Parse(token)
	assert.Error(t, err)
}

func TestCookieCodecDefaultTTL(t *testing.T) {
	codec := NewCookieCodec("test-secret", 0)
	assert.Equal(t, 24*time.Hour, codec.TTL())
}
