package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/amadorflix/amadorflix-server/auth"
	"github.com/amadorflix/amadorflix-server/database"
	"github.com/amadorflix/amadorflix-server/database/model"
	"github.com/amadorflix/amadorflix-server/database/sqlstore"
	"github.com/amadorflix/amadorflix-server/idhash"
	"github.com/amadorflix/amadorflix-server/imageproxy"
	"github.com/amadorflix/amadorflix-server/search"
)

const testWebhookSecret = "test-webhook-secret"

// newTestAPI builds an API over fresh sqlite stores in a temp dir.
func newTestAPI(t *testing.T) (*API, *mux.Router) {
	t.Helper()

	dir := t.TempDir()
	users, err := sqlstore.NewUserStore(filepath.Join(dir, "users.db"))
	require.NoError(t, err)
	videos, err := sqlstore.NewVideoStore(filepath.Join(dir, "videos.db"))
	require.NoError(t, err)

	sessions, err := auth.New(&auth.Options{Secret: "test-session-secret"})
	require.NoError(t, err)
	idx, err := search.New()
	require.NoError(t, err)

	a := New(&Options{
		Repo: database.Repository{
			Users:  users,
			Videos: videos,
		},
		Auth:          sessions,
		Search:        idx,
		Images:        imageproxy.New(imageproxy.Options{}),
		WebhookSecret: testWebhookSecret,
	})
	r := mux.NewRouter()
	a.RegisterHandlers(r)
	return a, r
}

// addUser inserts a user directly into the users store.
func addUser(t *testing.T, a *API, email string, access int, premium bool) *model.User {
	t.Helper()
	user := &model.User{
		ID:      idhash.Hash(email),
		Email:   email,
		Name:    email,
		Access:  access,
		Premium: premium,
		Created: time.Now().UTC(),
	}
	require.NoError(t, a.repo.Users.InsertUser(t.Context(), user))
	return user
}

// addVideo inserts a video directly into the videos store.
func addVideo(t *testing.T, a *API, title, creator string, premium bool) *model.Video {
	t.Helper()
	video := &model.Video{
		ID:      idhash.NewRandomID(),
		Title:   title,
		URL:     "https://cdn.example.com/" + idhash.Hash(title) + ".mp4",
		Premium: premium,
		Creator: creator,
		Created: time.Now().UTC(),
	}
	require.NoError(t, a.repo.Videos.InsertVideo(t.Context(), video))
	return video
}

// token issues a session token for an email.
func token(t *testing.T, a *API, email string) string {
	t.Helper()
	tok, err := a.auth.IssueToken(email)
	require.NoError(t, err)
	return tok
}

// doRequest performs a request against the router. A non-empty token is
// sent as a bearer token, a non-nil body is JSON encoded.
func doRequest(t *testing.T, r *mux.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(blob)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// newCookieRequest builds a GET request authenticated by session cookie.
func newCookieRequest(t *testing.T, path, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	return req
}

func performRequest(r *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a JSON response body.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
