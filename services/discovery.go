package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperai-backend/internal/logger"
	"paperai-backend/models"
)

// DiscoveryService finds papers on arXiv and downloads their PDFs.
// arXiv exposes an Atom feed, so the client is plain HTTP plus XML
// decoding.
type DiscoveryService struct {
	apiURL     string
	httpClient *http.Client
	storageDir string
}

func NewDiscoveryService(apiURL, storageDir string) *DiscoveryService {
	if apiURL == "" {
		apiURL = "https://export.arxiv.org/api/query"
	}
	return &DiscoveryService{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		storageDir: storageDir,
	}
}

// atomFeed mirrors the subset of the arXiv Atom response we consume.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// SearchArxiv returns up to maxResults papers matching the query,
// sorted by relevance. Failures degrade to an empty list so paper
// search never takes the API down with it.
func (d *DiscoveryService) SearchArxiv(ctx context.Context, query string, maxResults int) []models.PaperMetadata {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "relevance")

	papers, err := d.fetch(ctx, params)
	if err != nil {
		logger.Error("arXiv search failed", "error", err, "query", query)
		return []models.PaperMetadata{}
	}

	logger.Info("arXiv search completed", "query", query, "results", len(papers))
	return papers
}

// GetPaperByID fetches one paper's metadata by its arXiv id.
func (d *DiscoveryService) GetPaperByID(ctx context.Context, arxivID string) (*models.PaperMetadata, error) {
	params := url.Values{}
	params.Set("id_list", arxivID)
	params.Set("max_results", "1")

	papers, err := d.fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch arxiv paper %s: %w", arxivID, err)
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("arxiv paper %s not found", arxivID)
	}
	return &papers[0], nil
}

// DownloadPDF saves the paper's PDF under the storage directory and
// returns the local path.
func (d *DiscoveryService) DownloadPDF(ctx context.Context, paperID, pdfURL string) (string, error) {
	if pdfURL == "" {
		return "", fmt.Errorf("paper %s has no pdf url", paperID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download pdf for %s: %w", paperID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download pdf for %s: status %d", paperID, resp.StatusCode)
	}

	if err := os.MkdirAll(d.storageDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.storageDir, paperID+".pdf")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write pdf for %s: %w", paperID, err)
	}

	logger.Info("Downloaded paper PDF", "paper_id", paperID, "path", path)
	return path, nil
}

func (d *DiscoveryService) fetch(ctx context.Context, params url.Values) ([]models.PaperMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv api status %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode arxiv feed: %w", err)
	}

	papers := make([]models.PaperMetadata, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		papers = append(papers, entryToMetadata(entry))
	}
	return papers, nil
}

// entryToMetadata maps one Atom entry onto paper metadata. The arXiv id
// is the last path segment of the entry id URL.
func entryToMetadata(entry atomEntry) models.PaperMetadata {
	arxivID := entry.ID
	if idx := strings.LastIndexByte(arxivID, '/'); idx >= 0 {
		arxivID = arxivID[idx+1:]
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	year := 0
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		year = t.Year()
	}

	pdfURL := ""
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			pdfURL = link.Href
			break
		}
	}

	return models.PaperMetadata{
		PaperID:       arxivID,
		Title:         strings.Join(strings.Fields(entry.Title), " "),
		Authors:       authors,
		Abstract:      strings.TrimSpace(entry.Summary),
		Year:          year,
		Source:        models.SourceArxiv,
		PDFURL:        pdfURL,
		ArxivID:       arxivID,
		PublishedDate: entry.Published,
	}
}
