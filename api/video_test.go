package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amadorflix/amadorflix-server/database/model"
	"github.com/amadorflix/amadorflix-server/search"
)

func TestFavoriteToggleLaw(t *testing.T) {
	a, r := newTestAPI(t)
	addUser(t, a, "user@example.com", 0, false)
	video := addVideo(t, a, "Toggle Me", "", false)
	tok := token(t, a, "user@example.com")

	var response struct {
		Favorited bool `json:"favorited"`
	}

	// absent -> present
	rec := doRequest(t, r, "POST", "/api/videos/"+video.ID+"/favorite", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &response)
	assert.True(t, response.Favorited)

	// present -> absent
	rec = doRequest(t, r, "POST", "/api/videos/"+video.ID+"/favorite", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &response)
	assert.False(t, response.Favorited)

	// unknown video
	rec = doRequest(t, r, "POST", "/api/videos/nope/favorite", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikeToggleAdjustsCounter(t *testing.T) {
	a, r := newTestAPI(t)
	addUser(t, a, "user@example.com", 0, false)
	video := addVideo(t, a, "Like Me", "", false)
	tok := token(t, a, "user@example.com")

	var response struct {
		Liked bool `json:"liked"`
	}

	rec := doRequest(t, r, "POST", "/api/videos/"+video.ID+"/like", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &response)
	assert.True(t, response.Liked)

	liked, err := a.repo.Videos.GetVideo(t.Context(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.LikesCount)

	rec = doRequest(t, r, "POST", "/api/videos/"+video.ID+"/like", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &response)
	assert.False(t, response.Liked)

	unliked, err := a.repo.Videos.GetVideo(t.Context(), video.ID)
	require.NoError(t, err)
	assert.Zero(t, unliked.LikesCount)
}

func TestHistoryRecordingUpserts(t *testing.T) {
	a, r := newTestAPI(t)
	user := addUser(t, a, "user@example.com", 0, false)
	video := addVideo(t, a, "Watch Me", "", false)
	tok := token(t, a, "user@example.com")

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return first }
	rec := doRequest(t, r, "POST", "/api/videos/"+video.ID+"/history", tok,
		map[string]int64{"watchDuration": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	a.now = func() time.Time { return first.Add(time.Minute) }
	rec = doRequest(t, r, "POST", "/api/videos/"+video.ID+"/history", tok,
		map[string]int64{"watchDuration": 95})
	require.Equal(t, http.StatusOK, rec.Code)

	// every call counts as a view
	watched, err := a.repo.Videos.GetVideo(t.Context(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), watched.ViewCount)

	// exactly one history row, holding the second call's metadata
	entries, err := a.repo.Videos.WatchedVideos(t.Context(), user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].WatchDuration)
	assert.Equal(t, int64(95), *entries[0].WatchDuration)
	assert.True(t, entries[0].WatchedAt.Equal(first.Add(time.Minute)))
}

func TestHistoryRecordingWithoutBody(t *testing.T) {
	a, r := newTestAPI(t)
	user := addUser(t, a, "user@example.com", 0, false)
	video := addVideo(t, a, "Watch Me", "", false)

	rec := doRequest(t, r, "POST", "/api/videos/"+video.ID+"/history",
		token(t, a, "user@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := a.repo.Videos.WatchedVideos(t.Context(), user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].WatchDuration)
}

func TestPremiumVideoGate(t *testing.T) {
	a, r := newTestAPI(t)
	addUser(t, a, "standard@example.com", 0, false)
	addUser(t, a, "premium@example.com", 0, true)
	addUser(t, a, "admin@example.com", model.AccessAdmin, false)
	video := addVideo(t, a, "Members Only", "", true)
	path := "/api/videos/" + video.ID

	rec := doRequest(t, r, "GET", path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, r, "GET", path, token(t, a, "standard@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, r, "GET", path, token(t, a, "premium@example.com"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, "GET", path, token(t, a, "admin@example.com"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// free videos stay public
	free := addVideo(t, a, "Free For All", "", false)
	rec = doRequest(t, r, "GET", "/api/videos/"+free.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVideoSearchEndpoint(t *testing.T) {
	a, r := newTestAPI(t)
	video := addVideo(t, a, "Sunset Surfing", "Cremona", false)
	require.NoError(t, a.search.Index(t.Context(), search.Document{
		ID:      video.ID,
		Title:   video.Title,
		Creator: video.Creator,
	}))

	rec := doRequest(t, r, "GET", "/api/videos/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, "GET", "/api/videos/search?q=sunset", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []VideoResponse
	decodeBody(t, rec, &results)
	require.Len(t, results, 1)
	assert.Equal(t, video.ID, results[0].ID)
}

func TestVideoListing(t *testing.T) {
	a, r := newTestAPI(t)
	addVideo(t, a, "One", "", false)
	addVideo(t, a, "Two", "", false)

	rec := doRequest(t, r, "GET", "/api/videos", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var videos []VideoResponse
	decodeBody(t, rec, &videos)
	assert.Len(t, videos, 2)
}
