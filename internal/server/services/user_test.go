package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/server/auth"
	"github.com/okutsen/snipkeep/internal/server/config"
)

type fakeExchanger struct {
	profile *auth.GoogleProfile
	err     error
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func newUserService(t *testing.T, google GoogleExchanger) (*UserService, *fakeRepoMgr) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr := newFakeRepoMgr()
	cfg := &config.Config{SecretKey: "test-secret", TokenValidityDuration: time.Hour}
	return NewUserService(db, mgr, google, cfg), mgr
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, "sam@example.com", "longenough")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "sam@example.com", res.Email)

	got, err := svc.Login(ctx, "sam@example.com", "longenough")
	require.NoError(t, err)
	require.Equal(t, res.UserID, got.UserID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "longenough")
	require.True(t, errors.Is(err, common.ErrValidation))

	_, err = svc.Register(ctx, "sam@example.com", "short")
	require.True(t, errors.Is(err, common.ErrValidation))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "sam@example.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "sam@example.com", "otherpassword")
	require.True(t, errors.Is(err, common.ErrAlreadyExists))
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "sam@example.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "sam@example.com", "wrongpassword")
	require.True(t, errors.Is(err, common.ErrUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "longenough")
	require.True(t, errors.Is(err, common.ErrUnauthorized))
}

func TestLoginWithGoogle_CreatesAccountOnFirstSignIn(t *testing.T) {
	google := &fakeExchanger{profile: &auth.GoogleProfile{Sub: "g-123", Email: "sam@example.com"}}
	svc, mgr := newUserService(t, google)

	res, err := svc.LoginWithGoogle(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", res.Email)
	require.Len(t, mgr.users.items, 1)
	require.Equal(t, "g-123", mgr.users.items[0].GoogleSub)

	// second sign-in reuses the account
	again, err := svc.LoginWithGoogle(context.Background(), "code-2")
	require.NoError(t, err)
	require.Equal(t, res.UserID, again.UserID)
	require.Len(t, mgr.users.items, 1)
}

func TestLoginWithGoogle_ReusesPasswordAccountWithSameEmail(t *testing.T) {
	google := &fakeExchanger{profile: &auth.GoogleProfile{Sub: "g-123", Email: "sam@example.com"}}
	svc, mgr := newUserService(t, google)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "sam@example.com", "longenough")
	require.NoError(t, err)

	res, err := svc.LoginWithGoogle(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, registered.UserID, res.UserID)
	require.Len(t, mgr.users.items, 1)
}

func TestLoginWithGoogle_ExchangeFailure(t *testing.T) {
	google := &fakeExchanger{err: common.ErrUnauthorized}
	svc, _ := newUserService(t, google)

	_, err := svc.LoginWithGoogle(context.Background(), "bad-code")
	require.True(t, errors.Is(err, common.ErrUnauthorized))
}
