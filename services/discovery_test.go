package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperai-backend/models"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on recurrence.  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce a new language representation model called BERT.</summary>
    <published>2018-10-11T00:50:01Z</published>
    <author><name>Jacob Devlin</name></author>
    <link title="pdf" href="http://arxiv.org/pdf/1810.04805v2" rel="related" type="application/pdf"/>
  </entry>
</feed>`

func TestSearchArxivParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:attention", r.URL.Query().Get("search_query"))
		assert.Equal(t, "10", r.URL.Query().Get("max_results"))
		w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	d := NewDiscoveryService(srv.URL, t.TempDir())
	papers := d.SearchArxiv(context.Background(), "attention", 0)

	require.Len(t, papers, 2)
	first := papers[0]
	assert.Equal(t, "1706.03762v7", first.PaperID)
	assert.Equal(t, "1706.03762v7", first.ArxivID)
	assert.Equal(t, "Attention Is All You Need", first.Title)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, "The dominant sequence transduction models are based on recurrence.", first.Abstract)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, models.SourceArxiv, first.Source)
	assert.Equal(t, "http://arxiv.org/pdf/1706.03762v7", first.PDFURL)
	assert.Equal(t, "2017-06-12T17:57:34Z", first.PublishedDate)
}

func TestSearchArxivSwallowsUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDiscoveryService(srv.URL, t.TempDir())
	papers := d.SearchArxiv(context.Background(), "attention", 5)

	assert.Empty(t, papers)
	assert.NotNil(t, papers)
}

func TestGetPaperByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1706.03762v7", r.URL.Query().Get("id_list"))
		w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	d := NewDiscoveryService(srv.URL, t.TempDir())
	paper, err := d.GetPaperByID(context.Background(), "1706.03762v7")

	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
}

func TestGetPaperByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	d := NewDiscoveryService(srv.URL, t.TempDir())
	_, err := d.GetPaperByID(context.Background(), "9999.00000")

	assert.Error(t, err)
}

func TestDownloadPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake body"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDiscoveryService("", dir)

	path, err := d.DownloadPDF(context.Background(), "p1", srv.URL+"/pdf/p1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "p1.pdf"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake body", string(content))
}

func TestDownloadPDFRejectsMissingURL(t *testing.T) {
	d := NewDiscoveryService("", t.TempDir())
	_, err := d.DownloadPDF(context.Background(), "p1", "")
	assert.Error(t, err)
}
