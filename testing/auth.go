package e2etesting

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuanngo/shopcms/services/password"
	"github.com/tuanngo/shopcms/services/user"
)

type TestUser struct {
	ID       uint
	Email    string
	Name     string
	Password string
	Role     string
}

type AuthHelper struct {
	app *E2EApp
}

func NewAuthHelper(app *E2EApp) *AuthHelper {
	return &AuthHelper{app: app}
}

// CreateTestUser writes the account straight to the database so tests can
// seed users without going through registration and email verification.
func (h *AuthHelper) CreateTestUser(t *testing.T, u *TestUser) {
	t.Helper()

	if u.Role == "" {
		u.Role = user.RoleUser
	}

	passwords := password.NewService(h.app.Config, nil)
	record, err := passwords.Hash(u.Password)
	require.NoError(t, err, "failed to hash test user password")

	account := &user.User{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: record,
		Role:         u.Role,
		IsActive:     true,
	}
	require.NoError(t, h.app.DB.Create(account).Error, "failed to create test user")

	u.ID = account.ID
}

// Login authenticates through the API with a cookie-jar client and returns
// the client so follow-up requests carry the auth cookies.
func (h *AuthHelper) Login(t *testing.T, email, pass string, remember bool) *HTTPClient {
	t.Helper()

	client := h.app.Client.WithCookieJar()
	resp, err := client.Post("/api/auth/login", map[string]any{
		"email":    email,
		"password": pass,
		"remember": remember,
	})
	require.NoError(t, err)
	resp.AssertStatus(t, 200)

	return client
}

func (h *AuthHelper) Register(email, name, pass string) (*Response, error) {
	return h.app.Client.Post("/api/auth/register", map[string]any{
		"email":    email,
		"name":     name,
		"password": pass,
	})
}

// LatestVerificationCode reads the newest pending code for the account.
func (h *AuthHelper) LatestVerificationCode(t *testing.T, userID uint) string {
	t.Helper()

	var code user.VerificationCode
	err := h.app.DB.Where("user_id = ?", userID).Order("id DESC").First(&code).Error
	require.NoError(t, err, "no verification code for user")
	return code.Code
}
