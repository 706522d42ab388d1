package user

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanngo/shopcms/testutils"
)

func setupService(t *testing.T) *Service {
	db := testutils.SetupTestDB(t, &User{}, &VerificationCode{})
	return NewService(db, testutils.GetTestConfig(), nil)
}

func TestService_Create(t *testing.T) {
	service := setupService(t)

	u := &User{Email: "a@b.com", PasswordHash: "pbkdf2$1$aa$bb", IsActive: true}
	require.NoError(t, service.Create(u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, RoleUser, u.Role)

	t.Run("duplicate email", func(t *testing.T) {
		err := service.Create(&User{Email: "a@b.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("disabled account stays disabled", func(t *testing.T) {
		locked := &User{Email: "locked@b.com", PasswordHash: "x", IsActive: false}
		require.NoError(t, service.Create(locked))

		found, err := service.FindByEmail("locked@b.com")
		require.NoError(t, err)
		assert.False(t, found.IsActive)
	})
}

func TestService_Create_ConcurrentDuplicates(t *testing.T) {
	service := setupService(t)

	results := make(chan error, 2)
	for n := 0; n < 2; n++ {
		go func() {
			results <- service.Create(&User{Email: "race@b.com", PasswordHash: "x"})
		}()
	}

	var successes, taken int
	for n := 0; n < 2; n++ {
		switch err := <-results; {
		case err == nil:
			successes++
		case errors.Is(err, ErrEmailTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, taken)

	var count int64
	require.NoError(t, service.db.Model(&User{}).Where("email = ?", "race@b.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestService_FindByEmail(t *testing.T) {
	service := setupService(t)

	created := &User{Email: "a@b.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, service.Create(created))

	found, err := service.FindByEmail("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = service.FindByEmail("missing@b.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_FindByID(t *testing.T) {
	service := setupService(t)

	created := &User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, service.Create(created))

	found, err := service.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", found.Email)

	_, err = service.FindByID(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_RecordLogin(t *testing.T) {
	service := setupService(t)

	created := &User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, service.Create(created))

	require.NoError(t, service.RecordLogin(created.ID, "10.0.0.1", "test-agent"))

	found, err := service.FindByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.Equal(t, "10.0.0.1", found.LastLoginIP)
	assert.Equal(t, "test-agent", found.LastLoginUA)
}

func TestService_VerificationCodes(t *testing.T) {
	service := setupService(t)

	u := &User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, service.Create(u))

	vc, err := service.CreateVerificationCode(u.ID, PurposeVerifyEmail)
	require.NoError(t, err)
	assert.Len(t, vc.Code, 6)
	assert.True(t, vc.ExpiresAt.After(time.Now()))

	t.Run("consume marks email verified", func(t *testing.T) {
		require.NoError(t, service.ConsumeVerificationCode(u.ID, vc.Code, PurposeVerifyEmail))

		found, err := service.FindByID(u.ID)
		require.NoError(t, err)
		assert.NotNil(t, found.EmailVerifiedAt)
	})

	t.Run("code is one-shot", func(t *testing.T) {
		err := service.ConsumeVerificationCode(u.ID, vc.Code, PurposeVerifyEmail)
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		err := service.ConsumeVerificationCode(u.ID, "000000", PurposeVerifyEmail)
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})

	t.Run("expired code rejected", func(t *testing.T) {
		expired, err := service.CreateVerificationCode(u.ID, PurposeVerifyEmail)
		require.NoError(t, err)

		err = service.db.Model(expired).Update("expires_at", time.Now().Add(-time.Minute)).Error
		require.NoError(t, err)

		err = service.ConsumeVerificationCode(u.ID, expired.Code, PurposeVerifyEmail)
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := generateNumericCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}
