package sqlstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amadorflix/amadorflix-server/database/model"
	"github.com/amadorflix/amadorflix-server/idhash"
)

func newUserStore(t *testing.T) *UserStore {
	t.Helper()
	s, err := NewUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	return s
}

func newVideoStore(t *testing.T) *VideoStore {
	t.Helper()
	s, err := NewVideoStore(filepath.Join(t.TempDir(), "videos.db"))
	require.NoError(t, err)
	return s
}

func insertUser(t *testing.T, s *UserStore, email string) *model.User {
	t.Helper()
	user := &model.User{
		ID:      idhash.Hash(email),
		Email:   email,
		Name:    email,
		Created: time.Now().UTC(),
	}
	require.NoError(t, s.InsertUser(t.Context(), user))
	return user
}

func insertVideo(t *testing.T, s *VideoStore, title string) *model.Video {
	t.Helper()
	video := &model.Video{
		ID:      idhash.NewRandomID(),
		Title:   title,
		URL:     "https://cdn.example.com/" + title + ".mp4",
		Created: time.Now().UTC(),
	}
	require.NoError(t, s.InsertVideo(t.Context(), video))
	return video
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := NewUserStore("")
	assert.ErrorIs(t, err, model.ErrNoConfiguration)
	_, err = NewVideoStore("")
	assert.ErrorIs(t, err, model.ErrNoConfiguration)
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	s := newUserStore(t)
	insertUser(t, s, "dup@example.com")

	err := s.InsertUser(t.Context(), &model.User{
		ID:    "other-id",
		Email: "dup@example.com",
	})
	assert.ErrorIs(t, err, model.ErrDuplicate)
}

func TestGetUserNotFound(t *testing.T) {
	s := newUserStore(t)
	_, err := s.GetUserByID(t.Context(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetUserByEmail(t.Context(), "missing@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetAccessUnknownUser(t *testing.T) {
	s := newUserStore(t)
	err := s.SetAccess(t.Context(), "missing", model.AccessAdmin)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetAccessAndPremium(t *testing.T) {
	s := newUserStore(t)
	user := insertUser(t, s, "user@example.com")

	require.NoError(t, s.SetAccess(t.Context(), user.ID, model.AccessAdmin))
	require.NoError(t, s.SetPremium(t.Context(), user.ID, true))

	got, err := s.GetUserByID(t.Context(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.True(t, got.Premium)

	// same access again still matches a row, so no error
	assert.NoError(t, s.SetAccess(t.Context(), user.ID, model.AccessAdmin))
}

func TestUserCounts(t *testing.T) {
	s := newUserStore(t)
	insertUser(t, s, "a@example.com")
	premium := insertUser(t, s, "b@example.com")
	require.NoError(t, s.SetPremium(t.Context(), premium.ID, true))

	total, err := s.CountUsers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	paying, err := s.CountPremiumUsers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), paying)
}

func TestRecentUsersOrderAndLimit(t *testing.T) {
	s := newUserStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, s.InsertUser(t.Context(), &model.User{
			ID:      idhash.Hash(email),
			Email:   email,
			Created: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	users, err := s.RecentUsers(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "c@x.com", users[0].Email)
	assert.Equal(t, "b@x.com", users[1].Email)
}

func TestPaymentLifecycle(t *testing.T) {
	s := newUserStore(t)
	user := insertUser(t, s, "payer@example.com")

	payment := &model.Payment{
		TxID:        "tx-1",
		UserID:      user.ID,
		AmountCents: 1990,
		Code:        "000201...",
		Status:      model.PaymentPending,
		Created:     time.Now().UTC(),
	}
	require.NoError(t, s.InsertPayment(t.Context(), payment))

	stored, err := s.GetPayment(t.Context(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, stored.Status)
	assert.True(t, stored.Paid.IsZero())

	require.NoError(t, s.MarkPaymentPaid(t.Context(), "tx-1"))
	stored, err = s.GetPayment(t.Context(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, stored.Status)
	require.False(t, stored.Paid.IsZero())
	first := stored.Paid

	// marking again leaves the original paid timestamp
	require.NoError(t, s.MarkPaymentPaid(t.Context(), "tx-1"))
	stored, err = s.GetPayment(t.Context(), "tx-1")
	require.NoError(t, err)
	assert.True(t, stored.Paid.Equal(first))

	_, err = s.GetPayment(t.Context(), "tx-unknown")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestVideoCounters(t *testing.T) {
	s := newVideoStore(t)
	video := insertVideo(t, s, "clip")

	require.NoError(t, s.IncrementViewCount(t.Context(), video.ID))
	require.NoError(t, s.IncrementViewCount(t.Context(), video.ID))
	require.NoError(t, s.AdjustLikesCount(t.Context(), video.ID, 1))
	require.NoError(t, s.AdjustLikesCount(t.Context(), video.ID, -1))

	got, err := s.GetVideo(t.Context(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)
	assert.Equal(t, int64(0), got.LikesCount)
}

func TestSumViewCountsEmpty(t *testing.T) {
	s := newVideoStore(t)
	total, err := s.SumViewCounts(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestDeleteVideoCascades(t *testing.T) {
	s := newVideoStore(t)
	video := insertVideo(t, s, "doomed")
	require.NoError(t, s.InsertFavorite(t.Context(), "user-1", video.ID))
	require.NoError(t, s.InsertLike(t.Context(), "user-1", video.ID))
	require.NoError(t, s.UpsertHistory(t.Context(), "user-1", video.ID,
		time.Now().UTC(), nil))

	require.NoError(t, s.DeleteVideo(t.Context(), video.ID))

	_, err := s.GetVideo(t.Context(), video.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	favorites, err := s.FavoriteVideos(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, favorites)
	history, err := s.WatchedVideos(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	err = s.DeleteVideo(t.Context(), video.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEngagementOrderedByRowIdentity(t *testing.T) {
	s := newVideoStore(t)
	first := insertVideo(t, s, "first")
	second := insertVideo(t, s, "second")

	require.NoError(t, s.InsertFavorite(t.Context(), "user-1", first.ID))
	require.NoError(t, s.InsertFavorite(t.Context(), "user-1", second.ID))
	require.NoError(t, s.InsertLike(t.Context(), "user-1", second.ID))
	require.NoError(t, s.InsertLike(t.Context(), "user-1", first.ID))

	// most recently inserted row comes back first
	favorites, err := s.FavoriteVideos(t.Context(), "user-1")
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, second.ID, favorites[0].ID)
	assert.Equal(t, first.ID, favorites[1].ID)

	liked, err := s.LikedVideos(t.Context(), "user-1")
	require.NoError(t, err)
	require.Len(t, liked, 2)
	assert.Equal(t, first.ID, liked[0].ID)
	assert.Equal(t, second.ID, liked[1].ID)
}

func TestEngagementPresence(t *testing.T) {
	s := newVideoStore(t)
	video := insertVideo(t, s, "clip")

	has, err := s.HasFavorite(t.Context(), "user-1", video.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.InsertFavorite(t.Context(), "user-1", video.ID))
	has, err = s.HasFavorite(t.Context(), "user-1", video.ID)
	require.NoError(t, err)
	assert.True(t, has)

	// another user's rows don't leak
	has, err = s.HasFavorite(t.Context(), "user-2", video.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.DeleteFavorite(t.Context(), "user-1", video.ID))
	has, err = s.HasFavorite(t.Context(), "user-1", video.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUpsertHistoryKeepsOneRow(t *testing.T) {
	s := newVideoStore(t)
	video := insertVideo(t, s, "clip")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertHistory(t.Context(), "user-1", video.ID, base, nil))

	duration := int64(95)
	require.NoError(t, s.UpsertHistory(t.Context(), "user-1", video.ID,
		base.Add(time.Minute), &duration))

	history, err := s.WatchedVideos(t.Context(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].WatchedAt.Equal(base.Add(time.Minute)))
	require.NotNil(t, history[0].WatchDuration)
	assert.Equal(t, duration, *history[0].WatchDuration)
}

func TestWatchedVideosOrderedByWatchTime(t *testing.T) {
	s := newVideoStore(t)
	old := insertVideo(t, s, "old")
	recent := insertVideo(t, s, "recent")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertHistory(t.Context(), "user-1", old.ID, base, nil))
	require.NoError(t, s.UpsertHistory(t.Context(), "user-1", recent.ID,
		base.Add(time.Hour), nil))

	history, err := s.WatchedVideos(t.Context(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, recent.ID, history[0].ID)
	assert.Equal(t, old.ID, history[1].ID)
}

func TestListVideosByCategory(t *testing.T) {
	s := newVideoStore(t)
	tagged := insertVideo(t, s, "tagged")
	insertVideo(t, s, "untagged")

	category := &model.Category{
		ID:      idhash.Hash("amateur"),
		Name:    "amateur",
		Created: time.Now().UTC(),
	}
	require.NoError(t, s.InsertCategory(t.Context(), category))
	require.NoError(t, s.TagVideo(t.Context(), tagged.ID, category.ID))

	all, err := s.ListVideos(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.ListVideos(t.Context(), "amateur")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, tagged.ID, filtered[0].ID)
}

func TestCreators(t *testing.T) {
	s := newVideoStore(t)
	creator := &model.Creator{
		ID:      idhash.Hash("cremona"),
		Name:    "Cremona",
		Created: time.Now().UTC(),
	}
	require.NoError(t, s.InsertCreator(t.Context(), creator))

	got, err := s.GetCreatorByName(t.Context(), "Cremona")
	require.NoError(t, err)
	assert.Equal(t, creator.ID, got.ID)

	_, err = s.GetCreatorByName(t.Context(), "Nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)

	count, err := s.CountCreators(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
