package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// newLocalDownloader can reach httptest servers on loopback.
func newLocalDownloader() *ImageDownloader {
	return NewImageDownloader().AllowNetworks(
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	)
}

func TestImageDownloader_Download_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(pngMagic)
	}))
	defer ts.Close()

	img, err := newLocalDownloader().Download(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, pngMagic, img.Data)
}

func TestImageDownloader_Download_SniffsMissingContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write(pngMagic)
	}))
	defer ts.Close()

	img, err := newLocalDownloader().Download(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestImageDownloader_Download_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		maxSize  int64
		wantKind editorial.Kind
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantKind: editorial.KindInvalidInput,
		},
		{
			name: "host error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind: editorial.KindNetworkError,
		},
		{
			name: "html page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Write([]byte("<html></html>"))
			},
			wantKind: editorial.KindInvalidInput,
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				w.Write(make([]byte, 100))
			},
			maxSize:  50,
			wantKind: editorial.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			d := newLocalDownloader()
			if tt.maxSize > 0 {
				d.WithMaxSize(tt.maxSize)
			}
			_, err := d.Download(context.Background(), ts.URL)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, editorial.KindOf(err))
		})
	}
}

func TestImageDownloader_Download_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should have been canceled")
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newLocalDownloader().Download(ctx, ts.URL)
	require.Error(t, err)
	assert.Equal(t, editorial.KindNetworkError, editorial.KindOf(err))
}

func TestImageDownloader_Download_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	_, err := newLocalDownloader().WithTimeout(20*time.Millisecond).Download(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Equal(t, editorial.KindNetworkError, editorial.KindOf(err))
}

func TestImageDownloader_Download_RejectsNonPublicAddresses(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngMagic)
	}))
	defer ts.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"loopback server", ts.URL},
		{"localhost name", strings.Replace(ts.URL, "127.0.0.1", "localhost", 1)},
		{"cloud metadata", "http://169.254.169.254/latest/meta-data/"},
		{"private network", "http://10.0.0.8/image.png"},
		{"unspecified", "http://0.0.0.0/image.png"},
		{"ipv6 loopback", "http://[::1]/image.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImageDownloader().WithTimeout(2*time.Second).Download(context.Background(), tt.url)
			require.Error(t, err)
			assert.Equal(t, editorial.KindInvalidInput, editorial.KindOf(err))
		})
	}
	assert.Zero(t, hits.Load())
}

func TestImageDownloader_Download_RejectsRedirectToNonPublicAddress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer ts.Close()

	_, err := newLocalDownloader().WithTimeout(2*time.Second).Download(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Equal(t, editorial.KindInvalidInput, editorial.KindOf(err))
}

func TestImageDownloader_Download_FollowsBoundedRedirects(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/moved":
			http.Redirect(w, r, ts.URL+"/image.png", http.StatusFound)
		case "/loop":
			http.Redirect(w, r, ts.URL+"/loop", http.StatusFound)
		default:
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngMagic)
		}
	}))
	defer ts.Close()

	img, err := newLocalDownloader().Download(context.Background(), ts.URL+"/moved")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, img.Data)

	_, err = newLocalDownloader().Download(context.Background(), ts.URL+"/loop")
	require.Error(t, err)
	assert.Equal(t, editorial.KindInvalidInput, editorial.KindOf(err))
}

func TestAddressGuard_Check(t *testing.T) {
	guard := &addressGuard{allowed: []netip.Prefix{netip.MustParsePrefix("10.1.0.0/16")}}

	tests := []struct {
		addr    string
		allowed bool
	}{
		{"93.184.216.34", true},
		{"2606:2800:220:1:248:1893:25c8:1946", true},
		{"127.0.0.1", false},
		{"::ffff:127.0.0.1", false},
		{"192.168.1.10", false},
		{"172.16.0.1", false},
		{"100.64.0.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"224.0.0.1", false},
		{"10.1.2.3", true},
		{"10.2.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := guard.check(netip.MustParseAddr(tt.addr))
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errBlockedAddress)
			}
		})
	}
}
