package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/amadorflix/amadorflix-server/database/model"
	"github.com/amadorflix/amadorflix-server/idhash"
	"github.com/amadorflix/amadorflix-server/search"
)

// recentListLimit is the fixed size of the admin recent listings.
const recentListLimit = 5

// GET /api/admin/check-status
//
// adminCheckStatusHandler reports whether the session user is an admin.
func (a *API) adminCheckStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}
	serveJSON(map[string]any{
		"isAdmin": user.IsAdmin(),
		"user":    makeUserResponse(user),
	}, w)
}

// POST /api/admin/set-admin
//
// adminSetAdminHandler grants admin access to a user. Idempotent: granting
// an already-admin user succeeds with the same payload shape.
func (a *API) adminSetAdminHandler(w http.ResponseWriter, r *http.Request) {
	if admin := a.requireAdmin(w, r); admin == nil {
		return
	}

	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		apierror(w, "userId é obrigatório", http.StatusBadRequest)
		return
	}

	target, err := a.repo.Users.GetUserByID(r.Context(), request.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, msgUserNotFound, http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	if err := a.repo.Users.SetAccess(r.Context(), target.ID, model.AccessAdmin); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	target.Access = model.AccessAdmin

	serveJSON(map[string]any{
		"success": true,
		"message": "Usuário promovido a administrador",
		"user":    makeUserResponse(target),
	}, w)
}

// StatsResponse holds the admin dashboard aggregates.
type StatsResponse struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalVideos     int64 `json:"totalVideos"`
	TotalCreators   int64 `json:"totalCreators"`
	TotalCategories int64 `json:"totalCategories"`
	PremiumUsers    int64 `json:"premiumUsers"`
	TotalViews      int64 `json:"totalViews"`
}

// GET /api/admin/stats
//
// adminStatsHandler computes the six dashboard aggregates concurrently.
// The counts span both stores and are not an atomic snapshot.
func (a *API) adminStatsHandler(w http.ResponseWriter, r *http.Request) {
	if admin := a.requireAdmin(w, r); admin == nil {
		return
	}

	ctx := r.Context()
	var stats StatsResponse
	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup

	aggregate := func(dst *int64, f func(context.Context) (int64, error)) {
		defer wg.Done()
		n, err := f(ctx)
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
			return
		}
		*dst = n
	}

	wg.Add(6)
	go aggregate(&stats.TotalUsers, a.repo.Users.CountUsers)
	go aggregate(&stats.PremiumUsers, a.repo.Users.CountPremiumUsers)
	go aggregate(&stats.TotalVideos, a.repo.Videos.CountVideos)
	go aggregate(&stats.TotalCreators, a.repo.Videos.CountCreators)
	go aggregate(&stats.TotalCategories, a.repo.Videos.CountCategories)
	go aggregate(&stats.TotalViews, a.repo.Videos.SumViewCounts)
	wg.Wait()

	if firstErr != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	serveJSON(stats, w)
}

// GET /api/admin/users/recent
func (a *API) adminRecentUsersHandler(w http.ResponseWriter, r *http.Request) {
	if admin := a.requireAdmin(w, r); admin == nil {
		return
	}

	users, err := a.repo.Users.RecentUsers(r.Context(), recentListLimit)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	response := make([]RecentUserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, RecentUserResponse{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Premium:   u.Premium,
			CreatedAt: u.Created,
		})
	}
	serveJSON(response, w)
}

// GET /api/admin/videos/recent
func (a *API) adminRecentVideosHandler(w http.ResponseWriter, r *http.Request) {
	if admin := a.requireAdmin(w, r); admin == nil {
		return
	}

	videos, err := a.repo.Videos.RecentVideos(r.Context(), recentListLimit)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	response := make([]RecentVideoResponse, 0, len(videos))
	for _, v := range videos {
		response = append(response, RecentVideoResponse{
			ID:           v.ID,
			Title:        v.Title,
			ThumbnailURL: v.ThumbnailURL,
			ViewCount:    v.ViewCount,
			Premium:      v.Premium,
			CreatedAt:    v.Created,
		})
	}
	serveJSON(response, w)
}

// POST /api/admin/videos
//
// adminCreateVideoHandler adds a video to the catalog and search index.
func (a *API) adminCreateVideoHandler(w http.ResponseWriter, r *http.Request) {
	if admin := a.requireAdmin(w, r); admin == nil {
		return
	}

	var request struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnailUrl"`
		Duration     int64    `json:"duration"`
		Premium      bool     `json:"premium"`
		Creator      string   `json:"creator"`
		Categories   []string `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		apierror(w, "Requisição inválida", http.StatusBadRequest)
		return
	}
	if request.Title == "" || request.URL == "" {
		apierror(w, "Título e url são obrigatórios", http.StatusBadRequest)
		return
	}

	video := &model.Video{
		ID:           idhash.NewRandomID(),
		Title:        request.Title,
		Description:  request.Description,
		URL:          request.URL,
		ThumbnailURL: request.ThumbnailURL,
		Duration:     request.Duration,
		Premium:      request.Premium,
		Creator:      request.Creator,
		Created:      a.now().UTC(),
	}
	if err := a.repo.Videos.InsertVideo(r.Context(), video); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	for _, name := range request.Categories {
		if err := a.tagVideoCategory(r.Context(), video.ID, name); err != nil {
			apierror(w, msgInternal, http.StatusInternalServerError)
			return
		}
	}
	a.search.Index(r.Context(), search.Document{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		Creator:     video.Creator,
	})

	resolver := a.newCreatorResolver()
	serveJSONStatus(makeVideoResponse(video, resolver.resolve(r.Context(), video.Creator)), w, http.StatusCreated)
}

// tagVideoCategory places a video in a category, creating the category on
// first use.
func (a *API) tagVideoCategory(ctx context.Context, videoID, name string) error {
	category, err := a.repo.Videos.GetCategoryByName(ctx, name)
	if errors.Is(err, model.ErrNotFound) {
		category = &model.Category{
			ID:      idhash.Hash(name),
			Name:    name,
			Created: a.now().UTC(),
		}
		err = a.repo.Videos.InsertCategory(ctx, category)
	}
	if err != nil {
		return err
	}
	return a.repo.Videos.TagVideo(ctx, videoID, category.ID)
}

// DELETE /api/admin/videos/{id}
//
// adminDeleteVideoHandler removes a video, its engagement rows and its
// search document.
func (a *API) adminDeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	if admin := a.requireAdmin(w, r); admin == nil {
		return
	}

	videoID := mux.Vars(r)["id"]
	if err := a.repo.Videos.DeleteVideo(r.Context(), videoID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, msgVideoNotFound, http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}
	a.search.Delete(r.Context(), videoID)

	serveJSON(map[string]any{"success": true}, w)
}
