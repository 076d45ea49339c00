package services

import (
	"context"
	"errors"
	"fmt"

	"paperai-backend/models"
)

// fakeEmbedder returns a fixed vector for every text, or errors when
// told to fail. Query and document calls are counted separately so
// tests can assert the right profile was used.
type fakeEmbedder struct {
	dim        int
	fail       bool
	docCalls   int
	queryCalls int
}

func (f *fakeEmbedder) vector() []float32 {
	vec := make([]float32, f.dim)
	for i := range vec {
		vec[i] = 1
	}
	return vec
}

func (f *fakeEmbedder) EmbedDocument(_ context.Context, _ string) ([]float32, error) {
	f.docCalls++
	if f.fail {
		return nil, errors.New("embedder down")
	}
	return f.vector(), nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.queryCalls++
	if f.fail {
		return nil, errors.New("embedder down")
	}
	return f.vector(), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.EmbedDocument(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

// scriptedStore returns canned vector hits and related papers, and can
// be told to fail any operation.
type scriptedStore struct {
	hits        []models.VectorHit
	related     []models.RelatedPaper
	failSearch  bool
	failExpand  bool
	failWrites  bool
	lastK       int
	lastPaperID string
	expandCalls int
}

func (s *scriptedStore) UpsertPaper(context.Context, models.Paper) error {
	if s.failWrites {
		return errors.New("store down")
	}
	return nil
}

func (s *scriptedStore) UpsertAuthor(context.Context, models.Author) error {
	if s.failWrites {
		return errors.New("store down")
	}
	return nil
}

func (s *scriptedStore) LinkAuthor(context.Context, string, string) error {
	if s.failWrites {
		return errors.New("store down")
	}
	return nil
}

func (s *scriptedStore) CreateChunks(context.Context, []models.Chunk) error {
	if s.failWrites {
		return errors.New("store down")
	}
	return nil
}

func (s *scriptedStore) VectorSearch(_ context.Context, _ []float32, k int, paperID string) ([]models.VectorHit, error) {
	s.lastK = k
	s.lastPaperID = paperID
	if s.failSearch {
		return nil, errors.New("search down")
	}
	return s.hits, nil
}

func (s *scriptedStore) ExpandNeighbors(_ context.Context, _ string, _ int) ([]models.RelatedPaper, error) {
	s.expandCalls++
	if s.failExpand {
		return nil, errors.New("expand down")
	}
	return s.related, nil
}

func (s *scriptedStore) GetPaper(context.Context, string) (*models.PaperDetail, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *scriptedStore) Overview(context.Context) (*models.DashboardOverview, error) {
	return nil, fmt.Errorf("not implemented")
}
