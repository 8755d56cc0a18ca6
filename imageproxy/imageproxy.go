// Package imageproxy fetches remote thumbnail images, optionally downscales
// them, and keeps the results in a disk cache.
package imageproxy

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/amadorflix/amadorflix-server/idhash"
)

type Options struct {
	// Cachedir holds resized thumbnails. Empty disables caching.
	Cachedir string
	// Client is the upstream HTTP client. Defaults to a client with a
	// 15 second timeout.
	Client *http.Client
}

type Proxy struct {
	cachedir string
	client   *http.Client
	tmpExt   string
	// per-cachekey locks so concurrent requests resize an image once
	fetchMutexMap     map[string]*sync.Mutex
	fetchMutexMapLock sync.Mutex
}

// ErrUpstream is returned when the origin replies with a non-2xx status.
var ErrUpstream = errors.New("upstream fetch failed")

// maxImageBytes caps how much of an origin image we are willing to buffer.
const maxImageBytes = 32 << 20

func New(o Options) *Proxy {
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Proxy{
		cachedir:      o.Cachedir,
		client:        client,
		tmpExt:        fmt.Sprintf(".%d", os.Getpid()),
		fetchMutexMap: make(map[string]*sync.Mutex),
	}
}

// Get returns the (optionally resized) image at url as JPEG bytes.
// Width and height of 0 relay the original dimensions.
func (p *Proxy) Get(url string, width, height int) ([]byte, error) {
	key := idhash.Hash(fmt.Sprintf("%s|%d|%d", url, width, height))

	lock := p.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if blob := p.cacheRead(key); blob != nil {
		return blob, nil
	}

	blob, err := p.fetch(url)
	if err != nil {
		return nil, err
	}

	if width > 0 || height > 0 {
		blob, err = resize(blob, width, height)
		if err != nil {
			return nil, err
		}
	}

	p.cacheWrite(key, blob)
	return blob, nil
}

func (p *Proxy) keyLock(key string) *sync.Mutex {
	p.fetchMutexMapLock.Lock()
	defer p.fetchMutexMapLock.Unlock()
	lock, ok := p.fetchMutexMap[key]
	if !ok {
		lock = &sync.Mutex{}
		p.fetchMutexMap[key] = lock
	}
	return lock
}

func (p *Proxy) fetch(url string) ([]byte, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func resize(blob []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	resized := imaging.Fit(img, fitBound(width), fitBound(height), imaging.Lanczos)
	var out bytes.Buffer
	if err := jpeg.Encode(&out, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fitBound substitutes a large bound for the unset dimension so imaging.Fit
// scales on the set one only.
func fitBound(v int) int {
	if v <= 0 {
		return 1 << 14
	}
	return v
}

// cacheRead returns the cached blob for key, nil on any miss.
func (p *Proxy) cacheRead(key string) []byte {
	if p.cachedir == "" {
		return nil
	}
	blob, err := os.ReadFile(path.Join(p.cachedir, key))
	if err != nil {
		return nil
	}
	return blob
}

// cacheWrite stores a blob in the cache. Failures only cost us the cache.
func (p *Proxy) cacheWrite(key string, blob []byte) {
	if p.cachedir == "" {
		return
	}
	fn := path.Join(p.cachedir, key)
	tmp := fn + p.tmpExt
	if err := os.WriteFile(tmp, blob, 0666); err != nil {
		return
	}
	if err := os.Rename(tmp, fn); err != nil {
		os.Remove(tmp)
	}
}
