package catalog

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"
)

// Resource formats.
const (
	FormatHTML    = "html"
	FormatJSON    = "json"
	FormatXML     = "xml"
	FormatText    = "text"
	FormatOpenAPI = "openapi-json"
)

// Prober fetches a URL only to read the Content-Type it is served with.
type Prober struct {
	http *resty.Client
}

func NewProber() *Prober {
	return &Prober{http: resty.New()}
}

func (p *Prober) Close() error {
	return p.http.Close()
}

// ContentType GETs url and returns its Content-Type header. Transport
// failures and non-2xx answers are errors.
func (p *Prober) ContentType(ctx context.Context, url string) (string, error) {
	res, err := p.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return "", fmt.Errorf("fetching %s returned status %d", url, res.StatusCode())
	}
	return res.Header().Get("Content-Type"), nil
}

// FormatForContentType maps a media type onto a catalog resource format,
// returning def when nothing matches.
func FormatForContentType(contentType, def string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return FormatHTML
	case strings.HasPrefix(ct, "application/json"):
		return FormatJSON
	case strings.Contains(ct, "xml"):
		return FormatXML
	default:
		return def
	}
}
