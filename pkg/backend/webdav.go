package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// WebDAVConfig names everything a WebDAVBackend needs to address one
// game's remote namespace.
type WebDAVConfig struct {
	URL      string
	Root     string
	Username string
	Password string
}

// webDAVTransport attaches HTTP Basic auth to every request, with
// credentials fixed at construction rather than looked up per-request
// (a backend's credentials don't change mid-invocation).
type webDAVTransport struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *webDAVTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.username != "" {
		req.SetBasicAuth(t.username, t.password)
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("webdav round trip: %w", err)
	}
	return resp, nil
}

// WebDAVBackend stores game objects under cfg.URL+cfg.Root+"/"+game.
type WebDAVBackend struct {
	client *http.Client
	base   string
	ctx    context.Context
}

// NewWebDAVBackend returns a backend rooted at cfg.URL/cfg.Root/game.
func NewWebDAVBackend(ctx context.Context, cfg WebDAVConfig, game string) *WebDAVBackend {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &webDAVTransport{
			base:     http.DefaultTransport,
			username: cfg.Username,
			password: cfg.Password,
		},
	}
	base := strings.TrimRight(cfg.URL, "/") + "/" + strings.Trim(cfg.Root, "/") + "/" + strings.Trim(game, "/")
	return &WebDAVBackend{client: client, base: base, ctx: ctx}
}

func (b *WebDAVBackend) url(p string) string {
	clean := strings.TrimPrefix(p, "/")
	return strings.TrimRight(b.base, "/") + "/" + clean
}

func (b *WebDAVBackend) do(method, url string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(b.ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("webdav %s %s: %w", method, url, err)
	}
	log.Debug().Str("method", method).Str("url", url).Msg("dispatching webdav request")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webdav %s %s: %w", method, url, err)
	}
	return resp, nil
}

func (b *WebDAVBackend) Exists(p string) (bool, error) {
	resp, err := b.do(http.MethodGet, b.url(p), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode != http.StatusNotFound, nil
}

func (b *WebDAVBackend) Read(p string) ([]byte, error) {
	resp, err := b.do(http.MethodGet, b.url(p), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webdav read %q: unexpected status %s", p, resp.Status)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("webdav read %q: %w", p, err)
	}
	return buf.Bytes(), nil
}

func (b *WebDAVBackend) Write(p string, data []byte) error {
	parent := path.Dir(strings.TrimPrefix(p, "/"))
	if parent != "." {
		exists, err := b.Exists(parent)
		if err != nil {
			return err
		}
		if !exists {
			if err := b.mkdirAll(parent); err != nil {
				return err
			}
		}
	}
	resp, err := b.do(http.MethodPut, b.url(p), data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		// Exists(parent) already confirmed above; a 409 here means the
		// server and our view of it have diverged mid-request.
		return fmt.Errorf("webdav write %q: conflict despite confirmed parent, %w", p, errArchiveMembershipViolation)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webdav write %q: unexpected status %s", p, resp.Status)
	}
	return nil
}

// mkdirAll issues one MKCOL per path ancestor, shallowest first, since
// WebDAV MKCOL requires the parent collection to already exist.
func (b *WebDAVBackend) mkdirAll(dir string) error {
	segments := strings.Split(strings.Trim(dir, "/"), "/")
	built := ""
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if built == "" {
			built = seg
		} else {
			built = built + "/" + seg
		}
		resp, err := b.do("MKCOL", b.url(built), nil)
		if err != nil {
			return err
		}
		resp.Body.Close()
		// 405 Method Not Allowed means the collection already exists.
		if resp.StatusCode >= 300 && resp.StatusCode != http.StatusMethodNotAllowed {
			return fmt.Errorf("webdav mkcol %q: unexpected status %s", built, resp.Status)
		}
	}
	return nil
}

func (b *WebDAVBackend) ReadSyncMetadata() (*SyncMetadata, error) {
	data, err := b.Read(syncMetadataFileName)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta SyncMetadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode sync metadata: %w", err)
	}
	return &meta, nil
}

func (b *WebDAVBackend) WriteSyncMetadata(meta *SyncMetadata) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(meta); err != nil {
		return fmt.Errorf("encode sync metadata: %w", err)
	}
	return b.Write(syncMetadataFileName, buf.Bytes())
}

var errArchiveMembershipViolation = fmt.Errorf("invariant violation: write targeted outside confirmed namespace")
