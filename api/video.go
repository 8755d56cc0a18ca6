package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amadorflix/amadorflix-server/database/model"
)

// GET /api/videos[?category=]
//
// videosHandler lists the catalog, newest first.
func (a *API) videosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := a.repo.Videos.ListVideos(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	serveJSON(a.makeVideoList(r.Context(), videos), w)
}

// GET /api/videos/search?q=
func (a *API) videosSearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		apierror(w, "Parâmetro q é obrigatório", http.StatusBadRequest)
		return
	}

	ids, err := a.search.Query(r.Context(), q, 50)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	videos := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		// index entries can outlive rows briefly, skip dangling hits
		if video, err := a.repo.Videos.GetVideo(r.Context(), id); err == nil {
			videos = append(videos, *video)
		}
	}
	serveJSON(a.makeVideoList(r.Context(), videos), w)
}

// GET /api/videos/{id}
//
// videoHandler returns one video. Premium videos require a premium (or
// admin) user: anonymous is 401, a standard user is 403.
func (a *API) videoHandler(w http.ResponseWriter, r *http.Request) {
	video, err := a.repo.Videos.GetVideo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, msgVideoNotFound, http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	if video.Premium {
		user := a.sessionUser(r)
		if user == nil {
			apierror(w, msgUnauthenticated, http.StatusUnauthorized)
			return
		}
		if !user.Premium && !user.IsAdmin() {
			apierror(w, "Conteúdo exclusivo para assinantes", http.StatusForbidden)
			return
		}
	}

	resolver := a.newCreatorResolver()
	serveJSON(makeVideoResponse(video, resolver.resolve(r.Context(), video.Creator)), w)
}

// sessionUser resolves the session into a user without writing a response.
// Used on public routes with optional authentication.
func (a *API) sessionUser(r *http.Request) *model.User {
	var token string
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		token = h[7:]
	} else if c, err := r.Cookie(sessionCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		return nil
	}
	email, err := a.auth.ValidateToken(token)
	if err != nil {
		return nil
	}
	user, err := a.repo.Users.GetUserByEmail(r.Context(), email)
	if err != nil {
		return nil
	}
	return user
}

// POST /api/videos/{id}/favorite
//
// videoFavoriteHandler toggles the favorite state of a video for the
// session user. Read-then-write: concurrent toggles of the same pair race,
// and the loser surfaces as a 500 on the unique index.
func (a *API) videoFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}
	video := a.lookupVideo(w, r)
	if video == nil {
		return
	}

	favorited, err := a.repo.Videos.HasFavorite(r.Context(), user.ID, video.ID)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	if favorited {
		err = a.repo.Videos.DeleteFavorite(r.Context(), user.ID, video.ID)
	} else {
		err = a.repo.Videos.InsertFavorite(r.Context(), user.ID, video.ID)
	}
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}

	serveJSON(map[string]bool{"favorited": !favorited}, w)
}

// POST /api/videos/{id}/like
//
// videoLikeHandler toggles the like state and adjusts the video's likes
// counter. The two writes are not atomic with each other.
func (a *API) videoLikeHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}
	video := a.lookupVideo(w, r)
	if video == nil {
		return
	}

	liked, err := a.repo.Videos.HasLike(r.Context(), user.ID, video.ID)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	var delta int64 = 1
	if liked {
		err = a.repo.Videos.DeleteLike(r.Context(), user.ID, video.ID)
		delta = -1
	} else {
		err = a.repo.Videos.InsertLike(r.Context(), user.ID, video.ID)
	}
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	if err := a.repo.Videos.AdjustLikesCount(r.Context(), video.ID, delta); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}

	serveJSON(map[string]bool{"liked": !liked}, w)
}

// POST /api/videos/{id}/history
//
// videoHistoryHandler records a watch event: the view counter goes up by
// one on every call, and the history row for (user, video) is upserted with
// the current time and the reported watch duration.
func (a *API) videoHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := a.requireUser(w, r)
	if user == nil {
		return
	}
	video := a.lookupVideo(w, r)
	if video == nil {
		return
	}

	// The body is optional; an empty or absent body means no duration.
	var request struct {
		WatchDuration *int64 `json:"watchDuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		apierror(w, "Requisição inválida", http.StatusBadRequest)
		return
	}

	if err := a.repo.Videos.IncrementViewCount(r.Context(), video.ID); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	if err := a.repo.Videos.UpsertHistory(r.Context(), user.ID, video.ID,
		a.now().UTC(), request.WatchDuration); err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}

	serveJSON(map[string]bool{"success": true}, w)
}

// lookupVideo fetches the path video or writes 404/500.
func (a *API) lookupVideo(w http.ResponseWriter, r *http.Request) *model.Video {
	video, err := a.repo.Videos.GetVideo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, msgVideoNotFound, http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return nil
	}
	return video
}

// GET /api/creators
func (a *API) creatorsHandler(w http.ResponseWriter, r *http.Request) {
	creators, err := a.repo.Videos.ListCreators(r.Context())
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	response := make([]CreatorResponse, 0, len(creators))
	for i := range creators {
		response = append(response, makeCreatorResponse(&creators[i]))
	}
	serveJSON(response, w)
}

// GET /api/creators/{id}
//
// creatorHandler returns a creator and their videos.
func (a *API) creatorHandler(w http.ResponseWriter, r *http.Request) {
	creator, err := a.repo.Videos.GetCreator(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			apierror(w, "Criador não encontrado", http.StatusNotFound)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}
	videos, err := a.repo.Videos.VideosByCreator(r.Context(), creator.Name)
	if err != nil {
		apierror(w, msgInternal, http.StatusInternalServerError)
		return
	}
	serveJSON(map[string]any{
		"creator": makeCreatorResponse(creator),
		"videos":  a.makeVideoList(r.Context(), videos),
	}, w)
}
