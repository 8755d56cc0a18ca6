package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amadorflix/amadorflix-server/database/model"
)

// VideoStore is the sqlx implementation of database.VideoStore.
type VideoStore struct {
	*conn
}

// NewVideoStore opens the videos store and creates its schema if necessary.
func NewVideoStore(dsn string) (*VideoStore, error) {
	c, err := open(dsn)
	if err != nil {
		return nil, err
	}
	if err := c.initSchema(videosSchema); err != nil {
		return nil, err
	}
	return &VideoStore{conn: c}, nil
}

const videoColumns = `id, title, description, url, thumbnail, viewcount,
	likescount, duration, premium, creator, created`

// GetVideo retrieves a video by ID.
func (s *VideoStore) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	var video model.Video
	query := s.rebind(`SELECT ` + videoColumns + ` FROM videos WHERE id=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &video, query, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// InsertVideo inserts a new video.
func (s *VideoStore) InsertVideo(ctx context.Context, video *model.Video) error {
	query := s.rebind(`INSERT INTO videos (` + videoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.write.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.URL,
		video.ThumbnailURL,
		video.ViewCount,
		video.LikesCount,
		video.Duration,
		video.Premium,
		video.Creator,
		video.Created)
	return err
}

// DeleteVideo deletes a video together with its engagement and category rows.
func (s *VideoStore) DeleteVideo(ctx context.Context, videoID string) error {
	result, err := s.write.ExecContext(ctx,
		s.rebind(`DELETE FROM videos WHERE id=?`), videoID)
	if err != nil {
		return err
	}
	if err := affectedOrNotFound(result); err != nil {
		return err
	}
	for _, table := range []string{"favorites", "likes", "history", "video_categories"} {
		query := s.rebind(`DELETE FROM ` + table + ` WHERE videoid=?`)
		if _, err := s.write.ExecContext(ctx, query, videoID); err != nil {
			return err
		}
	}
	return nil
}

// ListVideos returns all videos, newest first. A non-empty category name
// restricts the result to videos in that category.
func (s *VideoStore) ListVideos(ctx context.Context, category string) ([]model.Video, error) {
	videos := []model.Video{}
	if category == "" {
		query := `SELECT ` + videoColumns + ` FROM videos ORDER BY created DESC`
		err := s.read.SelectContext(ctx, &videos, query)
		return videos, err
	}
	query := s.rebind(`SELECT ` + prefixColumns("v", videoColumns) + ` FROM videos v
		JOIN video_categories vc ON vc.videoid = v.id
		JOIN categories c ON c.id = vc.categoryid
		WHERE c.name=? ORDER BY v.created DESC`)
	err := s.read.SelectContext(ctx, &videos, query, category)
	return videos, err
}

// RecentVideos returns the most recently created videos.
func (s *VideoStore) RecentVideos(ctx context.Context, limit int) ([]model.Video, error) {
	videos := []model.Video{}
	query := s.rebind(`SELECT ` + videoColumns + ` FROM videos ORDER BY created DESC LIMIT ?`)
	err := s.read.SelectContext(ctx, &videos, query, limit)
	return videos, err
}

// IncrementViewCount adds one view to a video.
func (s *VideoStore) IncrementViewCount(ctx context.Context, videoID string) error {
	query := s.rebind(`UPDATE videos SET viewcount = viewcount + 1 WHERE id=?`)
	result, err := s.write.ExecContext(ctx, query, videoID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result)
}

// AdjustLikesCount adds delta to a video's likes counter.
func (s *VideoStore) AdjustLikesCount(ctx context.Context, videoID string, delta int64) error {
	query := s.rebind(`UPDATE videos SET likescount = likescount + ? WHERE id=?`)
	result, err := s.write.ExecContext(ctx, query, delta, videoID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result)
}

// CountVideos returns the total number of videos.
func (s *VideoStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	err := s.read.GetContext(ctx, &count, `SELECT COUNT(*) FROM videos`)
	return count, err
}

// SumViewCounts returns the total view count over all videos, 0 when there
// are no videos.
func (s *VideoStore) SumViewCounts(ctx context.Context) (int64, error) {
	var sum int64
	err := s.read.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(viewcount), 0) FROM videos`)
	return sum, err
}

const creatorColumns = `id, name, qtd, description, image, created`

// GetCreator retrieves a creator by ID.
func (s *VideoStore) GetCreator(ctx context.Context, creatorID string) (*model.Creator, error) {
	var creator model.Creator
	query := s.rebind(`SELECT ` + creatorColumns + ` FROM creators WHERE id=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &creator, query, creatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &creator, nil
}

// GetCreatorByName retrieves a creator by their unique name.
func (s *VideoStore) GetCreatorByName(ctx context.Context, name string) (*model.Creator, error) {
	var creator model.Creator
	query := s.rebind(`SELECT ` + creatorColumns + ` FROM creators WHERE name=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &creator, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &creator, nil
}

// InsertCreator inserts a new creator.
func (s *VideoStore) InsertCreator(ctx context.Context, creator *model.Creator) error {
	query := s.rebind(`INSERT INTO creators (` + creatorColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.write.ExecContext(ctx, query,
		creator.ID,
		creator.Name,
		creator.Qtd,
		creator.Description,
		creator.Image,
		creator.Created)
	return err
}

// ListCreators returns all creators ordered by name.
func (s *VideoStore) ListCreators(ctx context.Context) ([]model.Creator, error) {
	creators := []model.Creator{}
	query := `SELECT ` + creatorColumns + ` FROM creators ORDER BY name`
	err := s.read.SelectContext(ctx, &creators, query)
	return creators, err
}

// VideosByCreator returns a creator's videos, newest first.
func (s *VideoStore) VideosByCreator(ctx context.Context, name string) ([]model.Video, error) {
	videos := []model.Video{}
	query := s.rebind(`SELECT ` + videoColumns + ` FROM videos WHERE creator=? ORDER BY created DESC`)
	err := s.read.SelectContext(ctx, &videos, query, name)
	return videos, err
}

// CountCreators returns the total number of creators.
func (s *VideoStore) CountCreators(ctx context.Context) (int64, error) {
	var count int64
	err := s.read.GetContext(ctx, &count, `SELECT COUNT(*) FROM creators`)
	return count, err
}

// InsertCategory inserts a new category.
func (s *VideoStore) InsertCategory(ctx context.Context, category *model.Category) error {
	query := s.rebind(`INSERT INTO categories (id, name, created) VALUES (?, ?, ?)`)
	_, err := s.write.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Created)
	return err
}

// GetCategoryByName retrieves a category by its unique name.
func (s *VideoStore) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	query := s.rebind(`SELECT id, name, created FROM categories WHERE name=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &category, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// TagVideo places a video in a category. Tagging twice is a no-op.
func (s *VideoStore) TagVideo(ctx context.Context, videoID, categoryID string) error {
	query := s.rebind(`INSERT INTO video_categories (videoid, categoryid)
		VALUES (?, ?) ON CONFLICT (videoid, categoryid) DO NOTHING`)
	_, err := s.write.ExecContext(ctx, query, videoID, categoryID)
	return err
}

// CountCategories returns the total number of categories.
func (s *VideoStore) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := s.read.GetContext(ctx, &count, `SELECT COUNT(*) FROM categories`)
	return count, err
}
