package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/amadorflix/amadorflix-server/auth"
	"github.com/amadorflix/amadorflix-server/database/model"
	"github.com/amadorflix/amadorflix-server/idhash"
)

type contextKey int

const contextSessionEmail contextKey = iota

// sessionCookie is the cookie carrying the session token for browser
// clients; API clients send Authorization: Bearer instead.
const sessionCookie = "session"

// sessionmiddleware resolves the session token into an email identity and
// stores it in the request context. No valid token means 401.
func (a *API) sessionmiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		} else if c, err := r.Cookie(sessionCookie); err == nil {
			token = c.Value
		}
		if token == "" {
			apierror(w, msgUnauthenticated, http.StatusUnauthorized)
			return
		}

		email, err := a.auth.ValidateToken(token)
		if err != nil {
			apierror(w, msgUnauthenticated, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), contextSessionEmail, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser returns the user row behind the session identity.
//
// On failure it writes the error response and returns nil: no session is
// 401, a session without a matching user row is 404.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) *model.User {
	email, ok := r.Context().Value(contextSessionEmail).(string)
	if !ok || email == "" {
		apierror(w, msgUnauthenticated, http.StatusUnauthorized)
		return nil
	}
	user, err := a.repo.Users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, msgUserNotFound, http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return nil
	}
	return user
}

// requireAdmin is requireUser plus the admin access check (403 otherwise).
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) *model.User {
	user := a.requireUser(w, r)
	if user == nil {
		return nil
	}
	if !user.IsAdmin() {
		apierror(w, msgForbidden, http.StatusForbidden)
		return nil
	}
	return user
}

// POST /api/auth/register
func (a *API) registerHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		apierror(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	if request.Email == "" || request.Password == "" {
		apierror(w, "Email e senha são obrigatórios", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(request.Password)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	user := &model.User{
		ID:       idhash.Hash(request.Email),
		Email:    request.Email,
		Name:     request.Name,
		Password: hashed,
		Created:  a.now().UTC(),
	}
	if err := a.repo.Users.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			apierror(w, "Email já cadastrado", http.StatusConflict)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	serveJSONStatus(map[string]any{
		"success": true,
		"user":    makeUserResponse(user),
	}, w, http.StatusCreated)
}

// POST /api/auth/login
func (a *API) loginHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		apierror(w, "Requisição inválida", http.StatusBadRequest)
		return
	}

	user, err := a.repo.Users.GetUserByEmail(r.Context(), request.Email)
	if err != nil {
		apierror(w, "Email ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if err := auth.CheckPassword(user.Password, request.Password); err != nil {
		apierror(w, "Email ou senha inválidos", http.StatusUnauthorized)
		return
	}

	token, err := a.auth.IssueToken(user.Email)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	serveJSON(map[string]any{
		"token": token,
		"user":  makeUserResponse(user),
	}, w)
}
