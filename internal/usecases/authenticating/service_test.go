package authenticating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adstation/campaign-manager-api/internal/config"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
)

func testService(t *testing.T) Authenticator {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.Users = []config.AuthUser{
		{Email: "ana@adstation.io", Name: "Ana", PasswordHash: string(hash)},
	}

	return NewService(cfg)
}

func TestService_LoginUser(t *testing.T) {
	service := testService(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{
			name:     "valid credentials",
			email:    "ana@adstation.io",
			password: "hunter2",
		},
		{
			name:     "email is normalized",
			email:    "  Ana@Adstation.IO ",
			password: "hunter2",
		},
		{
			name:     "wrong password",
			email:    "ana@adstation.io",
			password: "hunter3",
			wantCode: apiErrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			email:    "bob@adstation.io",
			password: "hunter2",
			wantCode: apiErrors.ErrInvalidCredentials,
		},
		{
			name:     "missing password",
			email:    "ana@adstation.io",
			password: "",
			wantCode: apiErrors.ErrMissingRequiredData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.LoginUser(tt.email, tt.password)

			if tt.wantCode != "" {
				require.Error(t, err)
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.wantCode, authErr.Code)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, token)
		})
	}
}

func TestService_ValidateToken(t *testing.T) {
	service := testService(t)

	token, err := service.LoginUser("ana@adstation.io", "hunter2")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@adstation.io", claims.UserEmail)
	assert.Equal(t, "Ana", claims.UserName)
}

func TestService_ValidateToken_Garbage(t *testing.T) {
	service := testService(t)

	_, err := service.ValidateToken("not-a-jwt")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, apiErrors.ErrInvalidToken, authErr.Code)
}

func TestService_GetUserProfile(t *testing.T) {
	service := testService(t)

	profile, err := service.GetUserProfile("ANA@adstation.io")
	require.NoError(t, err)
	assert.Equal(t, "ana@adstation.io", profile.Email)
	assert.Equal(t, "Ana", profile.Name)

	_, err = service.GetUserProfile("gone@adstation.io")
	assert.Error(t, err)
}
