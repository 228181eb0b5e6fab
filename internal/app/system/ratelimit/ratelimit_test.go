package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_WindowExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("a"))
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Hour)
	assert.True(t, l.Allow("x"))
	assert.False(t, l.Allow("x"))
	l.Reset("x")
	assert.True(t, l.Allow("x"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:4321"
	assert.Equal(t, "10.0.0.5", ClientIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.1")
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

func TestLoginLimiter_PerLogin(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)

	ok, _ := ll.Check(r, "Maria")
	assert.True(t, ok)
	ok, _ = ll.Check(r, "maria ")
	assert.True(t, ok)
	ok, reason := ll.Check(r, "MARIA")
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	ll.ResetLogin("maria")
	ok, _ = ll.Check(r, "maria")
	assert.True(t, ok)
}
