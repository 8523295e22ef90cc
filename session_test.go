package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObjectUserUUID(t *testing.T) {
	id := uuid.New()
	session := &accounts.SessionObject{UserID: id.String()}

	assert.Equal(t, id.String(), session.GetUserID())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSessionObjectUserUUIDInvalid(t *testing.T) {
	session := &accounts.SessionObject{UserID: "not-a-uuid"}

	_, err := session.GetUserUUID()
	assert.Error(t, err)
}

func TestSessionObjectString(t *testing.T) {
	session := accounts.SessionObject{UserID: "abc", Issuer: "go-accounts"}

	out := session.String()
	assert.Contains(t, out, "user=abc")
	assert.Contains(t, out, "iss=go-accounts")
}
