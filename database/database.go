package database

import (
	"context"
	"time"

	"github.com/amadorflix/amadorflix-server/database/model"
)

type (
	// Repository bundles the two independently addressed stores. Account
	// and payment data never lives next to content data; cross-store
	// resolution (video creator names to creator rows) is done by the
	// caller, never in SQL.
	Repository struct {
		Users  UserStore
		Videos VideoStore
	}

	// UserStore defines the operations on the users store.
	UserStore interface {
		// GetUserByID retrieves a user by their ID.
		GetUserByID(ctx context.Context, userID string) (*model.User, error)
		// GetUserByEmail retrieves a user by their unique email.
		GetUserByEmail(ctx context.Context, email string) (*model.User, error)
		// InsertUser inserts a new user. Returns model.ErrDuplicate if the
		// email is taken.
		InsertUser(ctx context.Context, user *model.User) error
		// SetAccess sets the access level of a user.
		SetAccess(ctx context.Context, userID string, access int) error
		// SetPremium flips the premium flag of a user.
		SetPremium(ctx context.Context, userID string, premium bool) error
		// CountUsers returns the total number of users.
		CountUsers(ctx context.Context) (int64, error)
		// CountPremiumUsers returns the number of premium users.
		CountPremiumUsers(ctx context.Context) (int64, error)
		// RecentUsers returns the most recently created users.
		RecentUsers(ctx context.Context, limit int) ([]model.User, error)

		// InsertPayment records a new pending payment.
		InsertPayment(ctx context.Context, payment *model.Payment) error
		// GetPayment retrieves a payment by transaction ID.
		GetPayment(ctx context.Context, txID string) (*model.Payment, error)
		// MarkPaymentPaid marks a payment as paid. Idempotent.
		MarkPaymentPaid(ctx context.Context, txID string) error
	}

	// VideoStore defines the operations on the videos store, including the
	// per-user engagement rows (favorites, history, likes).
	VideoStore interface {
		// GetVideo retrieves a video by ID.
		GetVideo(ctx context.Context, videoID string) (*model.Video, error)
		// InsertVideo inserts a new video.
		InsertVideo(ctx context.Context, video *model.Video) error
		// DeleteVideo deletes a video and its engagement rows.
		DeleteVideo(ctx context.Context, videoID string) error
		// ListVideos returns all videos, newest first. A non-empty category
		// name restricts the result to that category.
		ListVideos(ctx context.Context, category string) ([]model.Video, error)
		// RecentVideos returns the most recently created videos.
		RecentVideos(ctx context.Context, limit int) ([]model.Video, error)
		// IncrementViewCount adds one view to a video.
		IncrementViewCount(ctx context.Context, videoID string) error
		// AdjustLikesCount adds delta to a video's likes counter.
		AdjustLikesCount(ctx context.Context, videoID string, delta int64) error
		// CountVideos returns the total number of videos.
		CountVideos(ctx context.Context) (int64, error)
		// SumViewCounts returns the total view count over all videos,
		// 0 when there are no videos.
		SumViewCounts(ctx context.Context) (int64, error)

		// GetCreator retrieves a creator by ID.
		GetCreator(ctx context.Context, creatorID string) (*model.Creator, error)
		// GetCreatorByName retrieves a creator by their unique name.
		GetCreatorByName(ctx context.Context, name string) (*model.Creator, error)
		// InsertCreator inserts a new creator.
		InsertCreator(ctx context.Context, creator *model.Creator) error
		// ListCreators returns all creators.
		ListCreators(ctx context.Context) ([]model.Creator, error)
		// VideosByCreator returns a creator's videos, newest first.
		VideosByCreator(ctx context.Context, name string) ([]model.Video, error)
		// CountCreators returns the total number of creators.
		CountCreators(ctx context.Context) (int64, error)

		// InsertCategory inserts a new category.
		InsertCategory(ctx context.Context, category *model.Category) error
		// GetCategoryByName retrieves a category by its unique name.
		GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
		// TagVideo places a video in a category. Tagging twice is a no-op.
		TagVideo(ctx context.Context, videoID, categoryID string) error
		// CountCategories returns the total number of categories.
		CountCategories(ctx context.Context) (int64, error)

		// HasFavorite reports whether (userID, videoID) is favorited.
		HasFavorite(ctx context.Context, userID, videoID string) (bool, error)
		// InsertFavorite creates a favorite row.
		InsertFavorite(ctx context.Context, userID, videoID string) error
		// DeleteFavorite removes a favorite row.
		DeleteFavorite(ctx context.Context, userID, videoID string) error
		// FavoriteVideos returns a user's favorited videos, most recently
		// favorited first (row identity order).
		FavoriteVideos(ctx context.Context, userID string) ([]model.Video, error)

		// HasLike reports whether (userID, videoID) is liked.
		HasLike(ctx context.Context, userID, videoID string) (bool, error)
		// InsertLike creates a like row.
		InsertLike(ctx context.Context, userID, videoID string) error
		// DeleteLike removes a like row.
		DeleteLike(ctx context.Context, userID, videoID string) error
		// LikedVideos returns a user's liked videos ordered by like row
		// identity descending. There is no like timestamp; insertion order
		// is the only recency signal.
		LikedVideos(ctx context.Context, userID string) ([]model.Video, error)

		// UpsertHistory records a watch event: exactly one row per
		// (user, video) pair holding the most recent watchedAt and
		// watchDuration.
		UpsertHistory(ctx context.Context, userID, videoID string, watchedAt time.Time, watchDuration *int64) error
		// WatchedVideos returns a user's history joined to videos, ordered
		// by watchedAt descending.
		WatchedVideos(ctx context.Context, userID string) ([]model.WatchedVideo, error)
	}
)
