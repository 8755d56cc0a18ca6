package sqlstore

import (
	"context"
	"time"

	"github.com/amadorflix/amadorflix-server/database/model"
)

// Engagement rows: favorites, likes and watch history. Favorites and likes
// are presence rows keyed on (userid, videoid); history is an upserted row
// holding the most recent watch metadata per pair.

// HasFavorite reports whether (userID, videoID) is favorited.
func (s *VideoStore) HasFavorite(ctx context.Context, userID, videoID string) (bool, error) {
	return s.hasEngagement(ctx, "favorites", userID, videoID)
}

// InsertFavorite creates a favorite row. A concurrent duplicate insert
// violates the unique (userid, videoid) index and surfaces as an error.
func (s *VideoStore) InsertFavorite(ctx context.Context, userID, videoID string) error {
	query := s.rebind(`INSERT INTO favorites (userid, videoid) VALUES (?, ?)`)
	_, err := s.write.ExecContext(ctx, query, userID, videoID)
	return err
}

// DeleteFavorite removes a favorite row.
func (s *VideoStore) DeleteFavorite(ctx context.Context, userID, videoID string) error {
	query := s.rebind(`DELETE FROM favorites WHERE userid=? AND videoid=?`)
	_, err := s.write.ExecContext(ctx, query, userID, videoID)
	return err
}

// FavoriteVideos returns a user's favorited videos, most recently favorited
// first (row identity order).
func (s *VideoStore) FavoriteVideos(ctx context.Context, userID string) ([]model.Video, error) {
	return s.engagedVideos(ctx, "favorites", userID)
}

// HasLike reports whether (userID, videoID) is liked.
func (s *VideoStore) HasLike(ctx context.Context, userID, videoID string) (bool, error) {
	return s.hasEngagement(ctx, "likes", userID, videoID)
}

// InsertLike creates a like row.
func (s *VideoStore) InsertLike(ctx context.Context, userID, videoID string) error {
	query := s.rebind(`INSERT INTO likes (userid, videoid) VALUES (?, ?)`)
	_, err := s.write.ExecContext(ctx, query, userID, videoID)
	return err
}

// DeleteLike removes a like row.
func (s *VideoStore) DeleteLike(ctx context.Context, userID, videoID string) error {
	query := s.rebind(`DELETE FROM likes WHERE userid=? AND videoid=?`)
	_, err := s.write.ExecContext(ctx, query, userID, videoID)
	return err
}

// LikedVideos returns a user's liked videos ordered by like row identity
// descending. No like timestamp exists; insertion order is the only
// recency signal.
func (s *VideoStore) LikedVideos(ctx context.Context, userID string) ([]model.Video, error) {
	return s.engagedVideos(ctx, "likes", userID)
}

// UpsertHistory records a watch event: one row per (user, video) pair,
// always holding the most recent watchedAt and watchDuration.
func (s *VideoStore) UpsertHistory(ctx context.Context, userID, videoID string, watchedAt time.Time, watchDuration *int64) error {
	query := s.rebind(`INSERT INTO history (userid, videoid, watchedat, watchduration)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (userid, videoid) DO UPDATE SET
			watchedat = excluded.watchedat,
			watchduration = excluded.watchduration`)
	_, err := s.write.ExecContext(ctx, query, userID, videoID, watchedAt.UTC(), watchDuration)
	return err
}

// WatchedVideos returns a user's history joined to videos, ordered by
// watchedAt descending.
func (s *VideoStore) WatchedVideos(ctx context.Context, userID string) ([]model.WatchedVideo, error) {
	watched := []model.WatchedVideo{}
	query := s.rebind(`SELECT ` + prefixColumns("v", videoColumns) + `,
			h.watchedat, h.watchduration
		FROM history h
		JOIN videos v ON v.id = h.videoid
		WHERE h.userid=?
		ORDER BY h.watchedat DESC`)
	err := s.read.SelectContext(ctx, &watched, query, userID)
	return watched, err
}

func (s *VideoStore) hasEngagement(ctx context.Context, table, userID, videoID string) (bool, error) {
	var count int64
	query := s.rebind(`SELECT COUNT(*) FROM ` + table + ` WHERE userid=? AND videoid=?`)
	if err := s.read.GetContext(ctx, &count, query, userID, videoID); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *VideoStore) engagedVideos(ctx context.Context, table, userID string) ([]model.Video, error) {
	videos := []model.Video{}
	query := s.rebind(`SELECT ` + prefixColumns("v", videoColumns) + `
		FROM ` + table + ` e
		JOIN videos v ON v.id = e.videoid
		WHERE e.userid=?
		ORDER BY e.id DESC`)
	err := s.read.SelectContext(ctx, &videos, query, userID)
	return videos, err
}
