// Package httpimage checks whether an image URL serves a decodable image.
package httpimage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure Probe implements ImageProbe
var _ driven.ImageProbe = (*Probe)(nil)

// sniffLimit is how many leading bytes are inspected to detect the content type
const sniffLimit = 3072

// Probe performs one availability check per call: a GET whose body must
// sniff as an image. The declared Content-Type is not trusted.
type Probe struct {
	client *resty.Client
}

// New creates a Probe. attemptTimeout bounds a single check.
func New(attemptTimeout time.Duration) *Probe {
	if attemptTimeout <= 0 {
		attemptTimeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(attemptTimeout).
		SetHeader("Accept", "image/*").
		SetHeader("Cache-Control", "no-cache").
		SetDoNotParseResponse(true)
	return &Probe{client: client}
}

// Probe returns nil when url served an image, ErrImageNotReady otherwise
func (p *Probe) Probe(ctx context.Context, url string) error {
	resp, err := p.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", domain.ErrImageNotReady, err)
	}
	body := resp.RawBody()
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, sniffLimit))
		body.Close()
	}()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrImageNotReady, resp.StatusCode())
	}

	mime, err := mimetype.DetectReader(io.LimitReader(body, sniffLimit))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrImageNotReady, err)
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return fmt.Errorf("%w: content is %s", domain.ErrImageNotReady, mime.String())
	}
	return nil
}
