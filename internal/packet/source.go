package packet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kingrea/waypoint/internal/config"
)

// Source supplies template manifests by id.
type Source interface {
	Template(ctx context.Context, id string) (*Template, error)
	// Name labels the source in logs and metrics.
	Name() string
}

// FSSource reads "<id>.yaml" manifests from a filesystem: the embedded
// defaults or a directory on disk.
type FSSource struct {
	name string
	fsys fs.FS
}

// NewFSSource wraps fsys.
func NewFSSource(name string, fsys fs.FS) *FSSource {
	return &FSSource{name: name, fsys: fsys}
}

// Name implements Source.
func (s *FSSource) Name() string { return s.name }

// Template implements Source.
func (s *FSSource) Template(ctx context.Context, id string) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("packet: invalid template id %q", id)
	}
	data, err := fs.ReadFile(s.fsys, id+".yaml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return nil, fmt.Errorf("packet: read template %s: %w", id, err)
	}
	return decodeManifest(id, data)
}

// HTTPSource fetches "<base>/<id>.yaml" manifests and keeps the most recently
// used ones in memory.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
	cache  *lru.Cache[string, *Template]
}

// NewHTTPSource builds a source rooted at baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPSource(baseURL string, cacheSize int, client *http.Client) (*HTTPSource, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("packet: parse template url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("packet: template url must be http(s), got %q", baseURL)
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *Template](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("packet: template cache: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: base, client: client, cache: cache}, nil
}

// Name implements Source.
func (s *HTTPSource) Name() string { return config.TemplateSourceHTTP }

// Template implements Source.
func (s *HTTPSource) Template(ctx context.Context, id string) (*Template, error) {
	if !validID(id) {
		return nil, fmt.Errorf("packet: invalid template id %q", id)
	}
	if tpl, ok := s.cache.Get(id); ok {
		return tpl, nil
	}
	target := s.base.JoinPath(id + ".yaml")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("packet: build request for %s: %w", id, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("packet: fetch template %s: %w", id, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("packet: fetch template %s: unexpected status %s", id, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes+1))
	if err != nil {
		return nil, fmt.Errorf("packet: read template %s: %w", id, err)
	}
	if len(data) > maxManifestBytes {
		return nil, fmt.Errorf("packet: template %s exceeds %d bytes", id, maxManifestBytes)
	}
	tpl, err := decodeManifest(id, data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, tpl)
	return tpl, nil
}

// SourceFromConfig picks the template source named by the project config.
// embedded backs the "embedded" source.
func SourceFromConfig(tc config.TemplateConfig, embedded fs.FS, client *http.Client) (Source, error) {
	switch tc.Source {
	case "", config.TemplateSourceEmbedded:
		return NewFSSource(config.TemplateSourceEmbedded, embedded), nil
	case config.TemplateSourceDir:
		info, err := os.Stat(tc.Path)
		if err != nil {
			return nil, fmt.Errorf("packet: template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("packet: template path %s is not a directory", tc.Path)
		}
		return NewFSSource(config.TemplateSourceDir, os.DirFS(tc.Path)), nil
	case config.TemplateSourceHTTP:
		return NewHTTPSource(tc.URL, tc.CacheSize, client)
	default:
		return nil, fmt.Errorf("packet: unknown template source %q", tc.Source)
	}
}

func decodeManifest(id string, data []byte) (*Template, error) {
	tpl, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("packet: template %s: %w", id, err)
	}
	if tpl.ID != id {
		return nil, fmt.Errorf("packet: manifest %s.yaml declares id %s", id, tpl.ID)
	}
	return tpl, nil
}
