package graphdb

import (
	"context"
	"math"
	"sort"
	"sync"

	"paperai-backend/models"
)

// MemoryStore is a brute-force in-memory Store used in tests and for
// local development without a Neo4j instance. Citations are kept as an
// undirected adjacency map so neighborhood expansion can walk them.
type MemoryStore struct {
	mu        sync.RWMutex
	papers    map[string]models.Paper
	authors   map[string]models.Author
	authored  map[string]map[string]bool // paper_id -> author_id set
	chunks    map[string][]models.Chunk  // paper_id -> ordered chunks
	citations map[string]map[string]bool // paper_id -> cited/citing ids
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers:    make(map[string]models.Paper),
		authors:   make(map[string]models.Author),
		authored:  make(map[string]map[string]bool),
		chunks:    make(map[string][]models.Chunk),
		citations: make(map[string]map[string]bool),
	}
}

func (m *MemoryStore) UpsertPaper(_ context.Context, paper models.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.papers[paper.PaperID] = paper
	return nil
}

func (m *MemoryStore) UpsertAuthor(_ context.Context, author models.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[author.AuthorID] = author
	return nil
}

func (m *MemoryStore) LinkAuthor(_ context.Context, paperID, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authored[paperID] == nil {
		m.authored[paperID] = make(map[string]bool)
	}
	m.authored[paperID][authorID] = true
	return nil
}

// CreateChunks replaces each paper's chunk set. Stale chunks from a
// previous, longer ingestion are dropped rather than merged around.
func (m *MemoryStore) CreateChunks(_ context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		delete(m.chunks, chunk.PaperID)
	}
	for _, chunk := range chunks {
		m.chunks[chunk.PaperID] = append(m.chunks[chunk.PaperID], chunk)
	}
	return nil
}

// AddCitation records an undirected citation edge between two papers.
// Test helper mirroring the CITES relations a discovery pass would add.
func (m *MemoryStore) AddCitation(fromID, toID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.citations[fromID] == nil {
		m.citations[fromID] = make(map[string]bool)
	}
	if m.citations[toID] == nil {
		m.citations[toID] = make(map[string]bool)
	}
	m.citations[fromID][toID] = true
	m.citations[toID][fromID] = true
}

func (m *MemoryStore) VectorSearch(_ context.Context, queryVec []float32, k int, paperID string) ([]models.VectorHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []models.VectorHit
	for pid, chunks := range m.chunks {
		if paperID != "" && pid != paperID {
			continue
		}
		for _, chunk := range chunks {
			hits = append(hits, models.VectorHit{
				ChunkID:    chunk.ChunkID,
				Text:       chunk.Text,
				PaperID:    chunk.PaperID,
				ChunkIndex: chunk.ChunkIndex,
				Score:      cosine(queryVec, chunk.Embedding),
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemoryStore) ExpandNeighbors(_ context.Context, paperID string, depth int) ([]models.RelatedPaper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if depth < 1 {
		depth = 1
	}

	// BFS over citation edges up to depth hops.
	visited := map[string]int{paperID: 0}
	frontier := []string{paperID}
	var related []models.RelatedPaper

	for hop := 1; hop <= depth; hop++ {
		var next []string
		for _, id := range frontier {
			for neighbor := range m.citations[id] {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = hop
				next = append(next, neighbor)
				title := ""
				if paper, ok := m.papers[neighbor]; ok {
					title = paper.Title
				}
				related = append(related, models.RelatedPaper{
					PaperID:  neighbor,
					Title:    title,
					Distance: hop,
				})
			}
		}
		frontier = next
	}

	sort.SliceStable(related, func(i, j int) bool { return related[i].Distance < related[j].Distance })
	if len(related) > 20 {
		related = related[:20]
	}
	return related, nil
}

func (m *MemoryStore) GetPaper(_ context.Context, paperID string) (*models.PaperDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paper, ok := m.papers[paperID]
	if !ok {
		return nil, ErrNotFound
	}

	detail := &models.PaperDetail{
		PaperID:       paper.PaperID,
		Title:         paper.Title,
		Abstract:      paper.Abstract,
		Year:          paper.Year,
		Source:        string(paper.Source),
		PDFPath:       paper.PDFPath,
		ArxivID:       paper.ArxivID,
		PublishedDate: paper.PublishedDate,
		NoEmbeddings:  paper.NoEmbeddings,
		Authors:       []string{},
		RelatedPapers: []string{},
	}
	for authorID := range m.authored[paperID] {
		if author, ok := m.authors[authorID]; ok {
			detail.Authors = append(detail.Authors, author.Name)
		}
	}
	sort.Strings(detail.Authors)
	for cited := range m.citations[paperID] {
		detail.RelatedPapers = append(detail.RelatedPapers, cited)
	}
	sort.Strings(detail.RelatedPapers)
	detail.CitationCount = len(detail.RelatedPapers)
	return detail, nil
}

func (m *MemoryStore) Overview(_ context.Context) (*models.DashboardOverview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overview := &models.DashboardOverview{
		TotalPapers:   len(m.papers),
		TotalAuthors:  len(m.authors),
		PapersPerYear: []models.YearCount{},
		TopAuthors:    []models.AuthorCount{},
	}

	years := make(map[int]int)
	for _, paper := range m.papers {
		if paper.Year > 0 {
			years[paper.Year]++
		}
	}
	for year, count := range years {
		overview.PapersPerYear = append(overview.PapersPerYear, models.YearCount{Year: year, Count: count})
	}
	sort.Slice(overview.PapersPerYear, func(i, j int) bool {
		return overview.PapersPerYear[i].Year < overview.PapersPerYear[j].Year
	})

	authorCounts := make(map[string]int)
	for _, authorSet := range m.authored {
		for authorID := range authorSet {
			if author, ok := m.authors[authorID]; ok {
				authorCounts[author.Name]++
			}
		}
	}
	for name, count := range authorCounts {
		overview.TopAuthors = append(overview.TopAuthors, models.AuthorCount{Author: name, Count: count})
	}
	sort.Slice(overview.TopAuthors, func(i, j int) bool {
		if overview.TopAuthors[i].Count != overview.TopAuthors[j].Count {
			return overview.TopAuthors[i].Count > overview.TopAuthors[j].Count
		}
		return overview.TopAuthors[i].Author < overview.TopAuthors[j].Author
	})
	if len(overview.TopAuthors) > 10 {
		overview.TopAuthors = overview.TopAuthors[:10]
	}

	for _, chunks := range m.chunks {
		overview.TotalChunks += len(chunks)
	}
	return overview, nil
}

// ChunkCount reports how many chunks are stored for a paper.
func (m *MemoryStore) ChunkCount(paperID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks[paperID])
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
