package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"golang.org/x/sync/errgroup"
)

// MakeDataURL encodes data as a data URI.
func MakeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL decodes a base64 data URI and returns the MIME type from its
// prefix. Standard and URL-safe alphabets are accepted.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, "", fmt.Errorf("not a data uri")
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return nil, "", fmt.Errorf("data uri has no payload")
	}
	meta := s[len("data:"):idx]
	hint := meta
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		hint = meta[:semi]
	}
	payload := s[idx+1:]

	if b, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return b, hint, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(payload); err2 == nil {
		return b2, hint, nil
	} else if b3, err3 := base64.RawStdEncoding.DecodeString(payload); err3 == nil {
		return b3, hint, nil
	} else {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
}

// PickMIME prefers an explicit type, then the hint, then sniffs the bytes.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return mediaType(http.DetectContentType(data))
	}
	return "image/jpeg"
}

// Resolver turns image references into inline images.
type Resolver struct {
	downloader *ImageDownloader
}

// NewResolver creates a Resolver. A nil downloader uses the defaults.
func NewResolver(downloader *ImageDownloader) *Resolver {
	if downloader == nil {
		downloader = NewImageDownloader()
	}
	return &Resolver{downloader: downloader}
}

// Resolve decodes data URIs and downloads URLs concurrently. The result
// keeps the order of refs.
func (r *Resolver) Resolve(ctx context.Context, refs []editorial.ImageRef) ([]Image, error) {
	images := make([]Image, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			img, err := r.resolve(gctx, ref)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *Resolver) resolve(ctx context.Context, ref editorial.ImageRef) (Image, error) {
	if ref.IsURL {
		return r.downloader.Download(ctx, ref.Ref)
	}
	data, hint, err := DecodeDataURL(ref.Ref)
	if err != nil {
		return Image{}, editorial.Wrap(editorial.KindInvalidInput, "invalid image data", err)
	}
	if len(data) == 0 {
		return Image{}, editorial.NewError(editorial.KindInvalidInput, "empty image data")
	}
	return Image{MIMEType: PickMIME("", hint, data), Data: data}, nil
}
