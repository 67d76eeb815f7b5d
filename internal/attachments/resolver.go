package attachments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"sinispace-backend/internal/models"
)

// inlineRefPattern matches the inline attachment syntax ![alt](location).
// Capture group 1 is the location.
var inlineRefPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// ErrUnresolvable is wrapped into errors returned in fail-hard mode when an
// attachment cannot be resolved.
var ErrUnresolvable = fmt.Errorf("attachment could not be resolved")

// Resolver expands inline attachment references inside a user message into
// provider-ready media parts. References are resolved in order of appearance,
// once each, to raw bytes plus a MIME type; destination-specific encodings
// are derived from that single resolution.
type Resolver struct {
	uploadDir    string
	uploadPrefix string // reserved location prefix identifying local uploads
	httpClient   *http.Client
	failHard     bool
	logger       *logrus.Logger
}

func NewResolver(uploadDir, uploadPrefix string, httpClient *http.Client, failHard bool, logger *logrus.Logger) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Resolver{
		uploadDir:    uploadDir,
		uploadPrefix: uploadPrefix,
		httpClient:   httpClient,
		failHard:     failHard,
		logger:       logger,
	}
}

// Locations extracts attachment locations from message text in left-to-right
// order of appearance.
func Locations(text string) []string {
	matches := inlineRefPattern.FindAllStringSubmatch(text, -1)
	locations := make([]string, 0, len(matches))
	for _, match := range matches {
		locations = append(locations, strings.TrimSpace(match[1]))
	}
	return locations
}

// Resolve expands every inline reference in text into media parts, preserving
// order of appearance. Unresolvable attachments are dropped with a diagnostic
// log in fail-soft mode; in fail-hard mode the first failure aborts the whole
// resolution. Locations that are neither local uploads nor http(s) URLs are
// treated as plain text and ignored.
func (r *Resolver) Resolve(ctx context.Context, text string) ([]models.InlineMedia, error) {
	var media []models.InlineMedia
	for _, location := range Locations(text) {
		var (
			part models.InlineMedia
			err  error
		)
		switch {
		case strings.HasPrefix(location, r.uploadPrefix):
			part, err = r.resolveLocal(location)
		case isRemote(location):
			part, err = r.resolveRemote(ctx, location)
		default:
			continue
		}
		if err != nil {
			if r.failHard {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnresolvable, location, err)
			}
			r.logger.WithError(err).WithField("location", location).
				Warn("dropping unresolvable attachment")
			continue
		}
		media = append(media, part)
	}
	return media, nil
}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// resolveLocal reads a file from the managed upload area. The path is
// confined to that area; escape attempts resolve to nothing.
func (r *Resolver) resolveLocal(location string) (models.InlineMedia, error) {
	name := strings.TrimPrefix(location, r.uploadPrefix)
	// Rooted Clean before Join neutralizes any ".." segments.
	full := filepath.Join(r.uploadDir, filepath.Clean("/"+name))
	root := filepath.Clean(r.uploadDir) + string(os.PathSeparator)
	if !strings.HasPrefix(full, root) {
		return models.InlineMedia{}, fmt.Errorf("path escapes upload area: %s", location)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return models.InlineMedia{}, fmt.Errorf("reading upload: %w", err)
	}

	mime, ok := mimeFromExtension(location)
	if !ok {
		mime = defaultMIME
	}
	return models.InlineMedia{MIME: mime, Data: data}, nil
}

// resolveRemote fetches an externally-hosted attachment. MIME preference
// order: image content-type header, then extension, then the default image
// type.
func (r *Resolver) resolveRemote(ctx context.Context, location string) (models.InlineMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return models.InlineMedia{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.InlineMedia{}, fmt.Errorf("fetching attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.InlineMedia{}, fmt.Errorf("fetching attachment: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.InlineMedia{}, fmt.Errorf("reading attachment body: %w", err)
	}

	mime := strings.TrimSpace(strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0])
	if !isImageMIME(mime) {
		var ok bool
		mime, ok = mimeFromExtension(req.URL.Path)
		if !ok {
			mime = defaultImageMIME
		}
	}
	return models.InlineMedia{MIME: mime, Data: data}, nil
}
