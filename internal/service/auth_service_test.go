package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technotes-api/internal/event"
	"technotes-api/internal/model"
	"technotes-api/internal/repository"
)

type authFixture struct {
	store   *repository.MemoryStore
	issuer  *TokenIssuer
	service *AuthService
	bus     *event.InMemoryBus
	now     time.Time
}

func newAuthFixture(t *testing.T, rotate bool) *authFixture {
	t.Helper()

	f := &authFixture{
		store: repository.NewMemoryStore(),
		bus:   event.NewBus(),
		now:   time.Now().UTC().Truncate(time.Second),
	}
	f.issuer = newTestIssuer(t, &f.now)

	verifier, err := NewCredentialVerifier(f.store.Users())
	require.NoError(t, err)

	f.service = NewAuthService(f.store.Users(), f.store.RefreshTokens(), verifier, f.issuer, f.bus, rotate)
	seedUser(t, f.store, "u1", "dave", "s3cret", true, model.RoleEmployee, model.RoleManager)
	return f
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues tokens whose claims match the user", func(t *testing.T) {
		f := newAuthFixture(t, false)

		session, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)
		require.NotNil(t, session.RefreshToken)
		assert.Equal(t, "u1", session.User.ID)

		claims, err := f.issuer.VerifyAccessToken(session.AccessToken.Token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, "dave", claims.Username)
		assert.Equal(t, []string{model.RoleEmployee, model.RoleManager}, claims.Roles)

		assert.True(t, session.RefreshToken.ExpiresAt.After(session.AccessToken.ExpiresAt))
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		f := newAuthFixture(t, false)
		events, unsubscribe := f.bus.Subscribe()
		defer unsubscribe()

		session, err := f.service.Login(ctx, "dave", "wrong")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
		assert.Empty(t, session.AccessToken.Token)
		assert.Nil(t, session.RefreshToken)

		_, err = f.service.Login(ctx, "ghost", "s3cret")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)

		e := <-events
		assert.Equal(t, event.TypeLoginFailed, e.Type)
	})

	t.Run("rotation records the refresh token", func(t *testing.T) {
		f := newAuthFixture(t, true)

		session, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		owner, err := f.store.RefreshTokens().Validate(ctx, session.RefreshToken.TokenID)
		require.NoError(t, err)
		assert.Equal(t, "u1", owner)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token yields a fresh access token", func(t *testing.T) {
		f := newAuthFixture(t, false)
		login, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		f.now = f.now.Add(20 * time.Minute)

		session, err := f.service.Refresh(ctx, login.RefreshToken.Token)
		require.NoError(t, err)
		assert.Nil(t, session.RefreshToken)
		assert.True(t, session.AccessToken.ExpiresAt.After(f.now))

		_, err = f.issuer.VerifyAccessToken(session.AccessToken.Token)
		assert.NoError(t, err)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f := newAuthFixture(t, false)
		login, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		f.now = f.now.Add(8 * 24 * time.Hour)

		_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
		assert.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := newAuthFixture(t, false)
		login, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		_, err = f.service.Refresh(ctx, login.AccessToken.Token)
		assert.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("deleted or deactivated user", func(t *testing.T) {
		f := newAuthFixture(t, false)
		login, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		user, err := f.store.Users().FindByID(ctx, "u1")
		require.NoError(t, err)
		user.Active = false
		require.NoError(t, f.store.Users().Update(ctx, user))

		_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
		assert.ErrorIs(t, err, model.ErrUnauthorized)

		require.NoError(t, f.store.Users().Delete(ctx, "u1"))
		_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("rotation replaces the refresh token", func(t *testing.T) {
		f := newAuthFixture(t, true)
		login, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		session, err := f.service.Refresh(ctx, login.RefreshToken.Token)
		require.NoError(t, err)
		require.NotNil(t, session.RefreshToken)
		assert.NotEqual(t, login.RefreshToken.TokenID, session.RefreshToken.TokenID)

		_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
		assert.ErrorIs(t, err, model.ErrTokenInvalid)

		_, err = f.service.Refresh(ctx, session.RefreshToken.Token)
		assert.NoError(t, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("tolerates missing and garbage tokens", func(t *testing.T) {
		f := newAuthFixture(t, false)
		assert.NoError(t, f.service.Logout(ctx, ""))
		assert.NoError(t, f.service.Logout(ctx, "garbage"))
	})

	t.Run("revokes the refresh token under rotation", func(t *testing.T) {
		f := newAuthFixture(t, true)
		login, err := f.service.Login(ctx, "dave", "s3cret")
		require.NoError(t, err)

		require.NoError(t, f.service.Logout(ctx, login.RefreshToken.Token))
		require.NoError(t, f.service.Logout(ctx, login.RefreshToken.Token))

		_, err = f.service.Refresh(ctx, login.RefreshToken.Token)
		assert.ErrorIs(t, err, model.ErrTokenInvalid)
	})
}

// gatedTokens holds every Validate caller until all of them have validated.
type gatedTokens struct {
	repository.TokenRepository
	gate *sync.WaitGroup
}

func (g gatedTokens) Validate(ctx context.Context, tokenID string) (string, error) {
	owner, err := g.TokenRepository.Validate(ctx, tokenID)
	g.gate.Done()
	g.gate.Wait()
	return owner, err
}

func TestAuthService_RefreshRedeemsRotatedTokenOnce(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, true)

	login, err := f.service.Login(ctx, "dave", "s3cret")
	require.NoError(t, err)

	const callers = 2
	gate := &sync.WaitGroup{}
	gate.Add(callers)
	verifier, err := NewCredentialVerifier(f.store.Users())
	require.NoError(t, err)
	svc := NewAuthService(f.store.Users(), gatedTokens{TokenRepository: f.store.RefreshTokens(), gate: gate}, verifier, f.issuer, f.bus, true)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, login.RefreshToken.Token)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, model.ErrTokenInvalid)
	}
	assert.Equal(t, 1, succeeded)
}
