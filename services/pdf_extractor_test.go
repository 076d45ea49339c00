package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTextQuality(t *testing.T) {
	prose := strings.Repeat("The Transformer architecture relies entirely on attention. ", 5)
	garbage := strings.Repeat("��� ", 40)

	assert.Greater(t, evaluateTextQuality(prose), 0.7)
	assert.Less(t, evaluateTextQuality(garbage), 0.3)
	assert.Equal(t, 0.1, evaluateTextQuality("ab"))
	assert.Greater(t, evaluateTextQuality(prose), evaluateTextQuality(garbage))
}

func TestCachePathPlacement(t *testing.T) {
	e := NewPDFExtractor("/var/cache/papers", nil)
	assert.Equal(t, "/var/cache/papers/p1.txt.gz", e.cachePath("/storage/pdfs/p1.pdf"))

	none := NewPDFExtractor("", nil)
	assert.Equal(t, "", none.cachePath("/storage/pdfs/p1.pdf"))
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewPDFExtractor(dir, nil)

	text := strings.Repeat("Cached extraction content. ", 30)
	e.writeCache("/storage/pdfs/p42.pdf", text)

	got, ok := e.readCache("/storage/pdfs/p42.pdf")
	require.True(t, ok)
	assert.Equal(t, text, got)

	_, ok = e.readCache("/storage/pdfs/missing.pdf")
	assert.False(t, ok)
}
