package ai

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxImageBytes    = 5 << 20
	imageConcurrency = 4
)

// Image is a downloaded candidate image.
type Image struct {
	URL       string
	MediaType string
	Data      []byte
}

// ImageLoader downloads candidate images for multimodal prompts.
type ImageLoader struct {
	client    *http.Client
	maxImages int
}

// NewImageLoader returns a loader that keeps at most maxImages images.
func NewImageLoader(client *http.Client, maxImages int) *ImageLoader {
	if maxImages <= 0 {
		maxImages = 5
	}
	return &ImageLoader{client: client, maxImages: maxImages}
}

// Load fetches urls concurrently, preserving order. Images that fail to
// download, are not images, or exceed the size cap are dropped.
func (l *ImageLoader) Load(ctx context.Context, urls []string) []Image {
	if l == nil || len(urls) == 0 {
		return nil
	}
	if len(urls) > l.maxImages {
		urls = urls[:l.maxImages]
	}

	slots := make([]*Image, len(urls))
	var g errgroup.Group
	g.SetLimit(imageConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			img, err := l.fetch(ctx, u)
			if err != nil {
				zap.L().Debug("ai: dropping image", zap.String("url", u), zap.Error(err))
				return nil
			}
			slots[i] = img
			return nil
		})
	}
	_ = g.Wait()

	var out []Image
	for _, img := range slots {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out
}

func (l *ImageLoader) fetch(ctx context.Context, u string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("ai: image status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, eris.New("ai: image exceeds size cap")
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = http.DetectContentType(data)
		if i := strings.Index(mediaType, ";"); i >= 0 {
			mediaType = mediaType[:i]
		}
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, eris.Errorf("ai: not an image: %s", mediaType)
	}
	return &Image{URL: u, MediaType: mediaType, Data: data}, nil
}
