package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepista/mycelium/internal/domain"
	"github.com/lepista/mycelium/internal/merr"
)

func seedInternalUser(t *testing.T, env *testEnv, rawEmail string) domain.User {
	t.Helper()
	user, err := CreateUserAccount(context.Background(), env.deps, NewUserArgs{
		Email:    mustEmail(t, rawEmail),
		Username: "user-" + rawEmail,
		Password: "original-password",
	})
	require.NoError(t, err)
	return user
}

func mustEmail(t *testing.T, raw string) domain.Email {
	t.Helper()
	e, err := domain.ParseEmail(raw)
	require.NoError(t, err)
	return e
}

func TestStartPasswordRedefinitionAndReset(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "alice@example.com")

	tokenID, err := StartPasswordRedefinition(context.Background(), env.deps, user.Email)
	require.NoError(t, err)

	// The email carries the plaintext code; with the transparent test
	// hasher the persisted hash exposes it as "hashed:<code>".
	token, err := env.deps.Tokens.Get(context.Background(), tokenID)
	require.NoError(t, err)
	code := token.Meta.HashedCode[len("hashed:"):]

	require.NoError(t, CheckTokenAndResetPassword(context.Background(), env.deps, tokenID, code, "new-password"))

	updated, err := env.deps.Users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	ok, err := env.deps.Hasher.Verify("new-password", updated.Provider.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckToken_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "bob@example.com")

	tokenID, err := StartPasswordRedefinition(context.Background(), env.deps, user.Email)
	require.NoError(t, err)
	token, err := env.deps.Tokens.Get(context.Background(), tokenID)
	require.NoError(t, err)
	code := token.Meta.HashedCode[len("hashed:"):]

	require.NoError(t, CheckTokenAndResetPassword(context.Background(), env.deps, tokenID, code, "pw1"))

	// A second redemption of the same token must fail: the row is gone.
	err = CheckTokenAndResetPassword(context.Background(), env.deps, tokenID, code, "pw2")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))
}

func TestCheckToken_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "carol@example.com")

	tokenID, err := StartPasswordRedefinition(context.Background(), env.deps, user.Email)
	require.NoError(t, err)

	err = CheckTokenAndResetPassword(context.Background(), env.deps, tokenID, "000000", "pw")
	assert.True(t, merr.Is(err, merr.TokenInvalidOrExpired))
}

func TestCheckTokenAndActivateUser(t *testing.T) {
	env := newTestEnv(t)
	user := seedInternalUser(t, env, "dave@example.com")
	assert.False(t, user.IsActive)

	// Registration enqueued the activation email; its rendered body (the
	// stub renderer's "body:prefix:code:token_id" form) carries the token
	// id the user would receive.
	messages := env.pendingMessageEvents(t)
	require.Len(t, messages, 1)
	parts := strings.Split(messages[0].Message.Body, ":")
	require.Len(t, parts, 4)
	tokenID, err := uuid.Parse(parts[3])
	require.NoError(t, err)
	token, err := env.deps.Tokens.Get(context.Background(), tokenID)
	require.NoError(t, err)
	require.Equal(t, domain.TokenEmailConfirmation, token.Meta.Kind)
	code := token.Meta.HashedCode[len("hashed:"):]

	activated, err := CheckTokenAndActivateUser(context.Background(), env.deps, tokenID, code)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.Equal(t, user.ID, activated.ID)
}

func TestCheckEmailRegistrationStatus(t *testing.T) {
	env := newTestEnv(t)

	status, err := CheckEmailRegistrationStatus(context.Background(), env.deps, mustEmail(t, "nobody@example.com"))
	require.NoError(t, err)
	assert.Equal(t, RegistrationNotRegistered, status.Kind)

	user := seedInternalUser(t, env, "eve@example.com")
	status, err = CheckEmailRegistrationStatus(context.Background(), env.deps, user.Email)
	require.NoError(t, err)
	assert.Equal(t, RegistrationWaitingActivation, status.Kind)

	_, err = CreateUserAccount(context.Background(), env.deps, NewUserArgs{
		Email:            mustEmail(t, "frank@example.com"),
		Username:         "frank",
		ExternalProvider: "github",
	})
	require.NoError(t, err)
	status, err = CheckEmailRegistrationStatus(context.Background(), env.deps, mustEmail(t, "frank@example.com"))
	require.NoError(t, err)
	assert.Equal(t, RegistrationExternalProvider, status.Kind)
	assert.Equal(t, "github", status.Provider)
}

func TestCreateUserAccount_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	seedInternalUser(t, env, "alice@example.com")

	_, err := CreateUserAccount(context.Background(), env.deps, NewUserArgs{
		Email:    mustEmail(t, "ALICE@example.com"),
		Username: "alice2",
		Password: "pw",
	})
	assert.True(t, merr.Is(err, merr.UserAlreadyRegistered))
}
