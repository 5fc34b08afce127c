package identity_test

import (
	"context"
	"testing"
	"time"

	identityapp "github.com/flowershop/storefront/internal/application/identity"
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/flowershop/storefront/internal/infrastructure/auth"
	"github.com/flowershop/storefront/internal/infrastructure/config"
	"github.com/flowershop/storefront/internal/infrastructure/persistence"
	"github.com/flowershop/storefront/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type authFixture struct {
	db        *gorm.DB
	service   *identityapp.AuthService
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	publisher *testutil.RecordingPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "storefront-test",
		MaxRefreshCount:        3,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	publisher := testutil.NewRecordingPublisher()

	service := identityapp.NewAuthService(persistence.NewGormUserRepository(db), jwtService, nil)
	service.SetTokenBlacklist(blacklist)
	service.SetEventPublisher(publisher)

	return &authFixture{db: db, service: service, jwt: jwtService, blacklist: blacklist, publisher: publisher}
}

func validRegistration() identityapp.RegisterInput {
	return identityapp.RegisterInput{
		Username:       "rose-lover",
		Email:          "Rose@Example.com",
		FirstName:      "Мария",
		LastName:       "Иванова",
		Patronymic:     "Сергеевна",
		Password:       "tulips1",
		PasswordRepeat: "tulips1",
		AcceptRules:    true,
	}
}

func TestRegister(t *testing.T) {
	identity.SetPasswordCost(bcrypt.MinCost)
	ctx := context.Background()

	t.Run("creates account and logs in", func(t *testing.T) {
		f := newAuthFixture(t)
		result, err := f.service.Register(ctx, validRegistration())
		require.NoError(t, err)

		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "rose@example.com", result.User.Email)
		assert.Equal(t, "Иванова Мария Сергеевна", result.User.FullName)
		assert.False(t, result.User.IsStaff)
		assert.Empty(t, result.User.Permissions)
		assert.Equal(t, []string{identity.EventTypeUserRegistered}, f.publisher.EventTypes())

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID.String(), claims.UserID)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := newAuthFixture(t)
		cases := map[string]struct {
			mutate func(*identityapp.RegisterInput)
			code   string
		}{
			"short password":  {func(in *identityapp.RegisterInput) { in.Password, in.PasswordRepeat = "12345", "12345" }, "INVALID_PASSWORD"},
			"repeat mismatch": {func(in *identityapp.RegisterInput) { in.PasswordRepeat = "tulips2" }, "PASSWORD_MISMATCH"},
			"rules":           {func(in *identityapp.RegisterInput) { in.AcceptRules = false }, "RULES_NOT_ACCEPTED"},
			"latin name":      {func(in *identityapp.RegisterInput) { in.FirstName = "Maria" }, "INVALID_NAME"},
			"bad username":    {func(in *identityapp.RegisterInput) { in.Username = "rose lover" }, "INVALID_USERNAME"},
			"bad email":       {func(in *identityapp.RegisterInput) { in.Email = "not-an-email" }, "INVALID_EMAIL"},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				in := validRegistration()
				tc.mutate(&in)
				_, err := f.service.Register(ctx, in)
				require.Error(t, err)
				domainErr, ok := shared.AsDomainError(err)
				require.True(t, ok)
				assert.Equal(t, tc.code, domainErr.Code)
			})
		}
	})

	t.Run("duplicate username and email", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.service.Register(ctx, validRegistration())
		require.NoError(t, err)

		_, err = f.service.Register(ctx, validRegistration())
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		in := validRegistration()
		in.Username = "another"
		_, err = f.service.Register(ctx, in)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.Contains(t, err.Error(), "Email")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	staff := testutil.CreateUser(t, f.db, "florist", true)

	t.Run("success records login", func(t *testing.T) {
		result, err := f.service.Login(ctx, identityapp.LoginInput{Username: "florist", Password: testutil.TestPassword})
		require.NoError(t, err)
		assert.True(t, result.User.IsStaff)
		assert.ElementsMatch(t, []string{identity.PermissionCatalogManage, identity.PermissionOrderManage}, result.User.Permissions)
		assert.NotNil(t, result.User.LastLoginAt)

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.Staff)
		assert.True(t, claims.HasPermission(identity.PermissionOrderManage))

		me, err := f.service.CurrentUser(ctx, staff.ID)
		require.NoError(t, err)
		assert.NotNil(t, me.LastLoginAt)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, errWrong := f.service.Login(ctx, identityapp.LoginInput{Username: "florist", Password: "nope-nope"})
		_, errUnknown := f.service.Login(ctx, identityapp.LoginInput{Username: "ghost", Password: "nope-nope"})
		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
		domainErr, _ := shared.AsDomainError(errWrong)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	})
}

func TestRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	testutil.CreateUser(t, f.db, "customer", false)

	login, err := f.service.Login(ctx, identityapp.LoginInput{Username: "customer", Password: testutil.TestPassword})
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(ctx, identityapp.RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.service.RefreshToken(ctx, identityapp.RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.Error(t, err, "refresh tokens are single use")
	domainErr, _ := shared.AsDomainError(err)
	assert.Equal(t, "TOKEN_REVOKED", domainErr.Code)

	_, err = f.service.RefreshToken(ctx, identityapp.RefreshTokenInput{RefreshToken: "garbage"})
	domainErr, _ = shared.AsDomainError(err)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)

	claims, err := f.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	userID, _ := claims.GetUserUUID()
	require.NoError(t, f.service.Logout(ctx, identityapp.LogoutInput{
		UserID:   userID,
		TokenJTI: claims.ID,
		TokenTTL: claims.GetRemainingTTL(),
	}))

	revoked, err := f.blacklist.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u := testutil.CreateUser(t, f.db, "customer", false)

	err := f.service.ChangePassword(ctx, identityapp.ChangePasswordInput{UserID: u.ID, OldPassword: "wrong", NewPassword: "freshpass"})
	domainErr, _ := shared.AsDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "INVALID_PASSWORD", domainErr.Code)

	require.NoError(t, f.service.ChangePassword(ctx, identityapp.ChangePasswordInput{UserID: u.ID, OldPassword: testutil.TestPassword, NewPassword: "freshpass"}))
	_, err = f.service.Login(ctx, identityapp.LoginInput{Username: "customer", Password: "freshpass"})
	assert.NoError(t, err)
}
