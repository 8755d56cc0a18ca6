package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/amadorflix/amadorflix-server/imageproxy"
)

// maxProxyBytes caps how much upstream body the video proxy buffers.
const maxProxyBytes = 512 << 20

// setProxyHeaders sets the CORS and caching headers on proxy responses.
func setProxyHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range")
	h.Set("Cache-Control", "public, max-age=3600")
}

// GET /api/proxy/video?url=
//
// proxyVideoHandler fetches a remote video with a browser user-agent and a
// full-range request, then relays the whole body as one buffered response.
// Upstream failures propagate their status code verbatim. There is no
// client-side Range support: scrubbing re-downloads the file.
func (a *API) proxyVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		setProxyHeaders(w.Header())
		w.WriteHeader(http.StatusOK)
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		apierror(w, "Parâmetro url é obrigatório", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		apierror(w, "URL inválida", http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", a.proxyUA)
	req.Header.Set("Range", "bytes=0-")

	resp, err := a.proxyClient.Do(req)
	if err != nil {
		apierror(w, "Falha ao buscar o vídeo", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apierror(w, "Falha ao buscar o vídeo", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBytes))
	if err != nil {
		apierror(w, "Falha ao buscar o vídeo", http.StatusInternalServerError)
		return
	}

	setProxyHeaders(w.Header())
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "video/mp4")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}

// GET /api/proxy/image?url=&w=&h=
//
// proxyImageHandler relays a remote thumbnail, optionally downscaled.
func (a *API) proxyImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		setProxyHeaders(w.Header())
		w.WriteHeader(http.StatusOK)
		return
	}

	params := r.URL.Query()
	url := params.Get("url")
	if url == "" {
		apierror(w, "Parâmetro url é obrigatório", http.StatusBadRequest)
		return
	}
	width, _ := strconv.Atoi(params.Get("w"))
	height, _ := strconv.Atoi(params.Get("h"))

	blob, err := a.images.Get(url, width, height)
	if err != nil {
		if errors.Is(err, imageproxy.ErrUpstream) {
			apierror(w, "Falha ao buscar a imagem", http.StatusBadGateway)
		} else {
			apierror(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	setProxyHeaders(w.Header())
	w.Header().Set("Content-Type", http.DetectContentType(blob))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.Write(blob)
}
