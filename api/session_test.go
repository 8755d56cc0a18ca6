package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	_, r := newTestAPI(t)

	credentials := map[string]string{
		"email":    "new@example.com",
		"name":     "New User",
		"password": "hunter22",
	}

	rec := doRequest(t, r, "POST", "/api/auth/register", "", credentials)
	require.Equal(t, http.StatusCreated, rec.Code)

	// duplicate email
	rec = doRequest(t, r, "POST", "/api/auth/register", "", credentials)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// wrong password
	rec = doRequest(t, r, "POST", "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, r, "POST", "/api/auth/login", "", credentials)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "new@example.com", login.User.Email)

	// the issued token opens session-gated routes
	rec = doRequest(t, r, "GET", "/api/profile/history", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	_, r := newTestAPI(t)

	rec := doRequest(t, r, "POST", "/api/auth/register", "",
		map[string]string{"email": "nopassword@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionCookieAccepted(t *testing.T) {
	a, r := newTestAPI(t)
	addUser(t, a, "user@example.com", 0, false)

	req := newCookieRequest(t, "/api/profile/history", token(t, a, "user@example.com"))
	rec := performRequest(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
