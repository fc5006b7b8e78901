package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-service/internal/domain"
)

func newAuthFixture(t *testing.T) (*memUserRepo, Authenticator) {
	t.Helper()

	h := newTestHasher()
	deleted := storedUser(h, 2, "jperez", "Gone#Pass1", domain.RoleCashier)
	deleted.IsDeleted = true
	repo := newMemUserRepo(
		storedUser(h, 1, "agarcial", "Right#Pass1", domain.RoleCashier),
		deleted,
	)
	auth, err := NewAuthenticator(repo, h)
	require.NoError(t, err)
	return repo, auth
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	_, auth := newAuthFixture(t)
	u, err := auth.Authenticate(context.Background(), "agarcial", "Right#Pass1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}

func TestAuthenticate_UsernameCaseInsensitive(t *testing.T) {
	t.Parallel()

	_, auth := newAuthFixture(t)
	u, err := auth.Authenticate(context.Background(), "  AGarciaL ", "Right#Pass1")
	require.NoError(t, err)
	assert.Equal(t, "agarcial", u.Username)
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	_, auth := newAuthFixture(t)
	ctx := context.Background()

	_, wrongPassword := auth.Authenticate(ctx, "agarcial", "Wrong#Pass1")
	_, unknownUser := auth.Authenticate(ctx, "nobody", "Right#Pass1")
	_, deletedUser := auth.Authenticate(ctx, "jperez", "Gone#Pass1")
	_, empty := auth.Authenticate(ctx, "", "")

	for _, err := range []error{wrongPassword, unknownUser, deletedUser, empty} {
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), err.Error())
		assert.Equal(t, domain.KindUnauthenticated, domain.KindOf(err))
	}
}

func TestAuthenticate_RepositoryError(t *testing.T) {
	t.Parallel()

	repo, auth := newAuthFixture(t)
	repo.getErr = errStorage
	_, err := auth.Authenticate(context.Background(), "agarcial", "Right#Pass1")
	require.ErrorIs(t, err, errStorage)
}
