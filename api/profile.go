package api

import (
	"net/http"
)

// GET /api/profile/history
//
// profileHistoryHandler lists the session user's watch history, most
// recently watched first, with resolved creator IDs.
func (a *API) profileHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}

	watched, err := a.repo.Videos.WatchedVideos(r.Context(), user.ID)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}

	resolver := a.newCreatorResolver()
	response := make([]WatchedVideoResponse, 0, len(watched))
	for i := range watched {
		entry := &watched[i]
		response = append(response, WatchedVideoResponse{
			VideoResponse: makeVideoResponse(&entry.Video,
				resolver.resolve(r.Context(), entry.Creator)),
			WatchedAt:     entry.WatchedAt,
			WatchDuration: entry.WatchDuration,
		})
	}
	serveJSON(response, w)
}

// GET /api/profile/liked-videos
//
// profileLikedVideosHandler lists the session user's liked videos. Ordering
// is like-row identity descending: there is no like timestamp, insertion
// order is the recency proxy.
func (a *API) profileLikedVideosHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}

	videos, err := a.repo.Videos.LikedVideos(r.Context(), user.ID)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	serveJSON(a.makeVideoList(r.Context(), videos), w)
}

// GET /api/profile/favorites
func (a *API) profileFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}

	videos, err := a.repo.Videos.FavoriteVideos(r.Context(), user.ID)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	serveJSON(a.makeVideoList(r.Context(), videos), w)
}
