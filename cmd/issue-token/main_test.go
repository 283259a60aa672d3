package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cafe-pos/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_TokenVerifiesWithSameSecret(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, issue([]string{"-id", "a1", "-name", "Marta", "-role", "admin", "-ttl", "1h"}, "s3cret", &out))

	user, expires, err := auth.NewHMACVerifier("s3cret").Verify(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, auth.User{ID: "a1", Name: "Marta", Role: auth.RoleAdmin}, user)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	_, _, err = auth.NewHMACVerifier("other").Verify(context.Background(), strings.TrimSpace(out.String()))
	assert.Error(t, err)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		secret string
		want   string
	}{
		{"no secret", []string{"-id", "c1"}, "", "JWT_SECRET"},
		{"no id", []string{"-role", "cashier"}, "s", "-id"},
		{"unknown role", []string{"-id", "c1", "-role", "janitor"}, "s", "unknown role"},
		{"zero ttl", []string{"-id", "c1", "-ttl", "0s"}, "s", "-ttl"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := issue(tc.args, tc.secret, &out)
			assert.ErrorContains(t, err, tc.want)
			assert.Empty(t, out.String())
		})
	}
}
