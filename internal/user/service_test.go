package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(nil, "test-secret", 1)

	token, err := svc.issueToken("user-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	uid, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", uid)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(nil, "secret-a", 1)
	verifier := NewService(nil, "secret-b", 1)

	token, err := issuer.issueToken("user-42")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err, "换了密钥签出的 token 必须被拒绝")
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewService(nil, "test-secret", 1)
	_, err := svc.ParseToken("not.a.jwt")
	assert.Error(t, err)
}
