package api

import (
	"context"
	"time"

	"github.com/amadorflix/amadorflix-server/database/model"
)

// UserResponse is the user projection returned to clients. The password
// hash never leaves the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Access    int       `json:"access"`
	Premium   bool      `json:"premium"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func makeUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Access:    u.Access,
		Premium:   u.Premium,
		Image:     u.Image,
		CreatedAt: u.Created,
	}
}

// VideoResponse is the full video projection, including the resolved
// creatorId (null when the creator name matches no creator row).
type VideoResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ViewCount    int64     `json:"viewCount"`
	LikesCount   int64     `json:"likesCount"`
	Duration     int64     `json:"duration"`
	Premium      bool      `json:"premium"`
	Creator      string    `json:"creator,omitempty"`
	CreatorID    *string   `json:"creatorId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func makeVideoResponse(v *model.Video, creatorID *string) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		URL:          v.URL,
		ThumbnailURL: v.ThumbnailURL,
		ViewCount:    v.ViewCount,
		LikesCount:   v.LikesCount,
		Duration:     v.Duration,
		Premium:      v.Premium,
		Creator:      v.Creator,
		CreatorID:    creatorID,
		CreatedAt:    v.Created,
	}
}

// WatchedVideoResponse augments the video projection with watch metadata.
type WatchedVideoResponse struct {
	VideoResponse
	WatchedAt     time.Time `json:"watchedAt"`
	WatchDuration *int64    `json:"watchDuration"`
}

// RecentUserResponse is the fixed field subset of the admin recent-users
// listing.
type RecentUserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Premium   bool      `json:"premium"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecentVideoResponse is the fixed field subset of the admin recent-videos
// listing.
type RecentVideoResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ViewCount    int64     `json:"viewCount"`
	Premium      bool      `json:"premium"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreatorResponse is the creator projection.
type CreatorResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Qtd         int       `json:"qtd"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func makeCreatorResponse(c *model.Creator) CreatorResponse {
	return CreatorResponse{
		ID:          c.ID,
		Name:        c.Name,
		Qtd:         c.Qtd,
		Description: c.Description,
		Image:       c.Image,
		CreatedAt:   c.Created,
	}
}

// creatorResolver memoizes creator name lookups for the duration of one
// request. Video.Creator is a free-text name, not a foreign key, so every
// listing resolves names against the creators table of the videos store.
type creatorResolver struct {
	api  *API
	memo map[string]*string
}

func (a *API) newCreatorResolver() *creatorResolver {
	return &creatorResolver{
		api:  a,
		memo: make(map[string]*string),
	}
}

// resolve returns the creator ID for a name, nil when the name is empty or
// matches no creator row.
func (c *creatorResolver) resolve(ctx context.Context, name string) *string {
	if name == "" {
		return nil
	}
	if id, ok := c.memo[name]; ok {
		return id
	}
	var id *string
	if creator, err := c.api.repo.Videos.GetCreatorByName(ctx, name); err == nil {
		id = &creator.ID
	}
	c.memo[name] = id
	return id
}

// makeVideoList projects a slice of videos with creator resolution.
func (a *API) makeVideoList(ctx context.Context, videos []model.Video) []VideoResponse {
	resolver := a.newCreatorResolver()
	response := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		v := &videos[i]
		response = append(response, makeVideoResponse(v, resolver.resolve(ctx, v.Creator)))
	}
	return response
}
