package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockReturn     *model.User
		mockError      error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Success",
			body:           `{"name":"Alice","email":"alice@example.com","password":"hunter22"}`,
			mockReturn:     &model.User{ID: uuid.New(), Name: "alice", Email: "alice@example.com", PasswordHash: "$2a$secret"},
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Duplicate email",
			body:           `{"name":"Alice","email":"alice@example.com","password":"hunter22"}`,
			mockError:      model.ErrEmailExists,
			expectService:  true,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Malformed body",
			body:           `{"name":`,
			expectService:  false,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			h := NewAuthHandler(svc, false, zerolog.Nop())
			if tt.expectService {
				svc.On("Register", mock.Anything, mock.AnythingOfType("*model.RegisterRequest")).Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Register(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			decodeBody(t, w)
			assert.NotContains(t, w.Body.String(), "$2a$secret")
			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "alice@example.com"}
	expires := time.Now().Add(24 * time.Hour)

	t.Run("sets the session cookie", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, true, zerolog.Nop())
		svc.On("Login", mock.Anything, &model.LoginRequest{Email: "alice@example.com", Password: "hunter22"}).
			Return(&service.Session{User: user, Token: "signed.jwt.value", ExpiresAt: expires}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"hunter22"}`))
		w := httptest.NewRecorder()
		h.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, auth.CookieName, c.Name)
		assert.Equal(t, "signed.jwt.value", c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
		assert.Equal(t, "signed.jwt.value", decodeBody(t, w)["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidCredentials)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"x"}`))
		w := httptest.NewRecorder()
		h.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
		assert.Equal(t, "Invalid email or password", decodeBody(t, w)["message"])
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(new(MockUserService), false, zerolog.Nop())

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	decodeBody(t, w)
}

func TestAuthHandler_Profile(t *testing.T) {
	p := &model.Principal{UserID: uuid.New()}

	t.Run("anonymous", func(t *testing.T) {
		h := NewAuthHandler(new(MockUserService), false, zerolog.Nop())
		w := httptest.NewRecorder()
		h.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/get-profile", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("GetProfile", mock.Anything, p.UserID).Return(&model.User{ID: p.UserID, Email: "a@example.com"}, nil)

		w := httptest.NewRecorder()
		h.GetProfile(w, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/auth/get-profile", nil), p))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "a@example.com", body["user"].(map[string]any)["email"])
	})

	t.Run("update conflict", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("UpdateProfile", mock.Anything, p.UserID, mock.Anything).Return(nil, model.ErrEmailExists)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/update-profile", strings.NewReader(`{"name":"a","email":"b@example.com"}`))
		w := httptest.NewRecorder()
		h.UpdateProfile(w, asUser(req, p))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("change password", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("ChangePassword", mock.Anything, p.UserID, &model.ChangePasswordRequest{CurrentPassword: "old", NewPassword: "newpass"}).Return(nil)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/change-password", strings.NewReader(`{"currentPassword":"old","newPassword":"newpass"}`))
		w := httptest.NewRecorder()
		h.ChangePassword(w, asUser(req, p))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	t.Run("forgot answers the same for any email", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("ForgotPassword", mock.Anything, mock.Anything).Return(nil)

		var messages []any
		for _, email := range []string{"alice@example.com", "ghost@example.com"} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password", strings.NewReader(`{"email":"`+email+`"}`))
			w := httptest.NewRecorder()
			h.ForgotPassword(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			messages = append(messages, decodeBody(t, w)["message"])
		}
		assert.Equal(t, messages[0], messages[1])
	})

	t.Run("reset reads the token from the path", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("ResetPassword", mock.Anything, "abc123", &model.ResetPasswordRequest{Password: "brandnew"}).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/reset-password/abc123", strings.NewReader(`{"password":"brandnew"}`))
		req.SetPathValue("token", "abc123")
		w := httptest.NewRecorder()
		h.ResetPassword(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("reset with a bad token", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("ResetPassword", mock.Anything, "expired", mock.Anything).Return(model.ErrInvalidResetToken)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/reset-password/expired", strings.NewReader(`{"password":"brandnew"}`))
		req.SetPathValue("token", "expired")
		w := httptest.NewRecorder()
		h.ResetPassword(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, false, zerolog.Nop())
		svc.On("ForgotPassword", mock.Anything, mock.Anything).Return(errors.New("db down"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password", strings.NewReader(`{"email":"a@example.com"}`))
		w := httptest.NewRecorder()
		h.ForgotPassword(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeBody(t, w)["message"])
	})
}
