package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal PNG signature; enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestBuildRequest_LocalFiles(t *testing.T) {
	dir := t.TempDir()
	var paths stringList
	for _, name := range []string{"a.png", "b.png", "c"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, pngBytes, 0600))
		paths = append(paths, p)
	}

	req, err := buildRequest(generateOpts{images: paths, variant: "editorial"})
	require.NoError(t, err)
	assert.False(t, req.IsURLs)
	require.Len(t, req.Images, 3)
	for _, img := range req.Images {
		assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"), img)
	}
	assert.NoError(t, req.Clean().Validate())
}

func TestBuildRequest_URLs(t *testing.T) {
	req, err := buildRequest(generateOpts{
		images: stringList{"https://example.com/1.jpg", "https://example.com/2.jpg", "http://example.com/3.jpg"},
		brands: stringList{"Marca A", "Marca B"},
	})
	require.NoError(t, err)
	assert.True(t, req.IsURLs)
	assert.Equal(t, editorial.VariantEditorial, req.Variant)
	assert.Equal(t, editorial.ModeBoth, req.Mode())
}

func TestBuildRequest_Errors(t *testing.T) {
	_, err := buildRequest(generateOpts{images: stringList{"https://example.com/1.jpg", "local.png"}})
	assert.Error(t, err)

	_, err = buildRequest(generateOpts{variant: "poster"})
	assert.Equal(t, editorial.KindInvalidInput, editorial.KindOf(err))

	notImage := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("just text"), 0600))
	_, err = buildRequest(generateOpts{images: stringList{notImage}})
	assert.Error(t, err)
}

func TestHistoryLabel(t *testing.T) {
	assert.Equal(t, "A, B", historyLabel(editorial.Request{BrandRefs: []string{"A", "B"}}))
	assert.Equal(t, "3 imagens", historyLabel(editorial.Request{Images: []string{"x", "y", "z"}}))

	long := historyLabel(editorial.Request{Items: strings.Repeat("calça jeans, ", 10)})
	assert.Equal(t, 60, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}
