package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/raine/wardrobe-editorial/internal/editorial"
)

const (
	// DefaultDownloadTimeout is the default timeout for image downloads
	DefaultDownloadTimeout = 30 * time.Second
	// DefaultMaxImageSize is the default maximum image size (10MB)
	DefaultMaxImageSize = 10 * 1024 * 1024

	maxRedirects = 3
)

var (
	errBlockedAddress = errors.New("address is not public")
	errBadRedirect    = errors.New("redirect not allowed")

	// sharedAddressSpace is carrier-grade NAT space (RFC 6598).
	sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
)

// ImageDownloader fetches image references given as URLs. Only public
// addresses are dialed, including after redirects.
type ImageDownloader struct {
	client  *http.Client
	guard   *addressGuard
	timeout time.Duration
	maxSize int64
}

// NewImageDownloader creates a new ImageDownloader with default settings.
func NewImageDownloader() *ImageDownloader {
	guard := &addressGuard{}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   guard.control,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// a proxy would dial on our behalf and bypass the guard
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &ImageDownloader{
		client: &http.Client{
			Timeout:       DefaultDownloadTimeout,
			Transport:     transport,
			CheckRedirect: guard.checkRedirect,
		},
		guard:   guard,
		timeout: DefaultDownloadTimeout,
		maxSize: DefaultMaxImageSize,
	}
}

// AllowNetworks lets the downloader dial the given otherwise blocked
// networks, e.g. an internal image host.
func (d *ImageDownloader) AllowNetworks(prefixes ...netip.Prefix) *ImageDownloader {
	d.guard.allowed = append(d.guard.allowed, prefixes...)
	return d
}

// WithTimeout sets a custom timeout for downloads.
func (d *ImageDownloader) WithTimeout(timeout time.Duration) *ImageDownloader {
	d.timeout = timeout
	d.client.Timeout = timeout
	return d
}

// WithMaxSize sets a custom maximum file size.
func (d *ImageDownloader) WithMaxSize(maxSize int64) *ImageDownloader {
	d.maxSize = maxSize
	return d
}

// Download fetches one image. Rejections by the remote host, non-image
// content and oversized bodies are invalid_input; transport failures are
// network_error.
func (d *ImageDownloader) Download(ctx context.Context, imageURL string) (Image, error) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Image{}, editorial.Wrap(editorial.KindInvalidInput, "invalid image url", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) || errors.Is(err, errBadRedirect) {
			return Image{}, editorial.Wrap(editorial.KindInvalidInput, "image url is not allowed", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Image{}, editorial.Wrap(editorial.KindNetworkError, "image download timed out", err)
		}
		return Image{}, editorial.Wrap(editorial.KindNetworkError, "failed to download image", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return Image{}, editorial.Errorf(editorial.KindNetworkError, "image host failed: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Image{}, editorial.Errorf(editorial.KindInvalidInput, "image download failed: status %d", resp.StatusCode)
	}

	// Validate Content-Type is an image
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return Image{}, editorial.Errorf(editorial.KindInvalidInput, "invalid content type: expected image/*, got %s", contentType)
	}

	if resp.ContentLength > d.maxSize {
		return Image{}, editorial.Errorf(editorial.KindInvalidInput, "image too large: %d bytes exceeds limit of %d bytes", resp.ContentLength, d.maxSize)
	}

	// LimitReader enforces the limit even if Content-Length is missing or wrong
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return Image{}, editorial.Wrap(editorial.KindNetworkError, "failed to read image data", err)
	}
	if int64(len(data)) > d.maxSize {
		return Image{}, editorial.Errorf(editorial.KindInvalidInput, "image too large: exceeds limit of %d bytes", d.maxSize)
	}

	mimeType := PickMIME(mediaType(contentType), "", data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, editorial.Errorf(editorial.KindInvalidInput, "downloaded data is not an image (%s)", mimeType)
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

// addressGuard rejects loopback, private, link-local and other non-public
// destinations. It runs on every dial, after DNS resolution.
type addressGuard struct {
	allowed []netip.Prefix
}

func (g *addressGuard) check(ip netip.Addr) error {
	ip = ip.Unmap()
	for _, p := range g.allowed {
		if p.Contains(ip) {
			return nil
		}
	}
	if !ip.IsValid() || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() ||
		sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("%w: %s", errBlockedAddress, ip)
	}
	return nil
}

func (g *addressGuard) control(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	return g.check(ip)
}

// checkRedirect bounds redirects and refuses non-http targets and literal
// non-public addresses before the dial guard sees them.
func (g *addressGuard) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d redirects", errBadRedirect, len(via))
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", errBadRedirect, req.URL.Scheme)
	}
	if ip, err := netip.ParseAddr(strings.Trim(req.URL.Hostname(), "[]")); err == nil {
		return g.check(ip)
	}
	return nil
}
