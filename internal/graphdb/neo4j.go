package graphdb

import (
	"context"
	"fmt"
	"net/url"

	"paperai-backend/internal/config"
	"paperai-backend/internal/logger"
	"paperai-backend/models"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore implements Store against a Neo4j graph database. Chunk
// embeddings live in a cosine vector index; papers, authors, and
// citations form the traversable graph around them.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jStore(ctx context.Context, cfg *config.Config) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if parsed, err := url.Parse(cfg.Neo4jURI); err == nil {
		logger.Info("Neo4j driver initialized", "host", parsed.Scheme+"://"+parsed.Hostname(), "database", cfg.Neo4jDatabase)
	}

	return &Neo4jStore{driver: driver, database: cfg.Neo4jDatabase}, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping verifies connectivity with the server.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// SetupSchema creates the uniqueness constraints and lookup indexes the
// ingestion upserts rely on. Safe to run on every startup.
func (s *Neo4jStore) SetupSchema(ctx context.Context, embeddingDimension int) error {
	statements := []string{
		"CREATE CONSTRAINT paper_id_unique IF NOT EXISTS FOR (p:Paper) REQUIRE p.paper_id IS UNIQUE",
		"CREATE CONSTRAINT chunk_id_unique IF NOT EXISTS FOR (c:Chunk) REQUIRE c.chunk_id IS UNIQUE",
		"CREATE CONSTRAINT author_id_unique IF NOT EXISTS FOR (a:Author) REQUIRE a.author_id IS UNIQUE",
		"CREATE INDEX paper_title_index IF NOT EXISTS FOR (p:Paper) ON (p.title)",
		"CREATE INDEX paper_year_index IF NOT EXISTS FOR (p:Paper) ON (p.year)",
		"CREATE INDEX chunk_paper_index IF NOT EXISTS FOR (c:Chunk) ON (c.paper_id)",
	}

	session := s.newSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	vectorIndex := `
	CREATE VECTOR INDEX chunk_embeddings IF NOT EXISTS
	FOR (c:Chunk)
	ON c.embedding
	OPTIONS {
		indexConfig: {
			` + "`vector.dimensions`" + `: $dimensions,
			` + "`vector.similarity_function`" + `: 'cosine'
		}
	}`
	if _, err := session.Run(ctx, vectorIndex, map[string]any{"dimensions": embeddingDimension}); err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	logger.Info("Neo4j schema initialized")
	return nil
}

func (s *Neo4jStore) UpsertPaper(ctx context.Context, paper models.Paper) error {
	query := `
	MERGE (p:Paper {paper_id: $paper_id})
	SET p.title = $title,
	    p.abstract = $abstract,
	    p.year = $year,
	    p.source = $source,
	    p.arxiv_id = $arxiv_id,
	    p.pdf_path = $pdf_path,
	    p.published_date = $published_date,
	    p.embeddings_disabled = $embeddings_disabled,
	    p.updated_at = datetime()`

	return s.write(ctx, query, map[string]any{
		"paper_id":            paper.PaperID,
		"title":               paper.Title,
		"abstract":            paper.Abstract,
		"year":                paper.Year,
		"source":              string(paper.Source),
		"arxiv_id":            paper.ArxivID,
		"pdf_path":            paper.PDFPath,
		"published_date":      paper.PublishedDate,
		"embeddings_disabled": paper.NoEmbeddings,
	})
}

func (s *Neo4jStore) UpsertAuthor(ctx context.Context, author models.Author) error {
	query := `
	MERGE (a:Author {author_id: $author_id})
	SET a.name = $name`

	return s.write(ctx, query, map[string]any{
		"author_id": author.AuthorID,
		"name":      author.Name,
	})
}

func (s *Neo4jStore) LinkAuthor(ctx context.Context, paperID, authorID string) error {
	query := `
	MATCH (p:Paper {paper_id: $paper_id})
	MATCH (a:Author {author_id: $author_id})
	MERGE (p)-[:AUTHORED_BY]->(a)`

	return s.write(ctx, query, map[string]any{
		"paper_id":  paperID,
		"author_id": authorID,
	})
}

// CreateChunks replaces a paper's chunks. The paper's existing chunks
// are deleted in the same transaction, so re-ingesting a paper whose
// text shrank cannot leave stale high-index chunks in the vector index.
func (s *Neo4jStore) CreateChunks(ctx context.Context, chunks []models.Chunk) error {
	deleteQuery := `
	MATCH (p:Paper {paper_id: $paper_id})-[:HAS_CHUNK]->(c:Chunk)
	DETACH DELETE c`

	query := `
	MERGE (c:Chunk {chunk_id: $chunk_id})
	SET c.text = $text,
	    c.paper_id = $paper_id,
	    c.chunk_index = $chunk_index,
	    c.embedding = $embedding
	WITH c
	MATCH (p:Paper {paper_id: $paper_id})
	MERGE (p)-[:HAS_CHUNK]->(c)`

	session := s.newSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		seen := map[string]bool{}
		for _, chunk := range chunks {
			if seen[chunk.PaperID] {
				continue
			}
			seen[chunk.PaperID] = true
			if _, err := tx.Run(ctx, deleteQuery, map[string]any{"paper_id": chunk.PaperID}); err != nil {
				return nil, err
			}
		}
		for _, chunk := range chunks {
			params := map[string]any{
				"chunk_id":    chunk.ChunkID,
				"text":        chunk.Text,
				"paper_id":    chunk.PaperID,
				"chunk_index": chunk.ChunkIndex,
				"embedding":   toFloat64(chunk.Embedding),
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (s *Neo4jStore) VectorSearch(ctx context.Context, queryVec []float32, k int, paperID string) ([]models.VectorHit, error) {
	query := `
	CALL db.index.vector.queryNodes('chunk_embeddings', $limit, $query_embedding)
	YIELD node, score
	RETURN node.chunk_id AS chunk_id,
	       node.text AS text,
	       node.paper_id AS paper_id,
	       node.chunk_index AS chunk_index,
	       score
	ORDER BY score DESC`
	params := map[string]any{
		"limit":           k,
		"query_embedding": toFloat64(queryVec),
	}
	if paperID != "" {
		query = `
		CALL db.index.vector.queryNodes('chunk_embeddings', $limit, $query_embedding)
		YIELD node, score
		WHERE node.paper_id = $paper_id
		RETURN node.chunk_id AS chunk_id,
		       node.text AS text,
		       node.paper_id AS paper_id,
		       node.chunk_index AS chunk_index,
		       score
		ORDER BY score DESC`
		params["paper_id"] = paperID
	}

	session := s.newSession(ctx)
	defer session.Close(ctx)

	records, err := s.readRecords(ctx, session, query, params)
	if err != nil {
		return nil, err
	}

	hits := make([]models.VectorHit, 0, len(records))
	for _, record := range records {
		hits = append(hits, models.VectorHit{
			ChunkID:    stringValue(record, "chunk_id"),
			Text:       stringValue(record, "text"),
			PaperID:    stringValue(record, "paper_id"),
			ChunkIndex: intValue(record, "chunk_index"),
			Score:      floatValue(record, "score"),
		})
	}
	return hits, nil
}

func (s *Neo4jStore) ExpandNeighbors(ctx context.Context, paperID string, depth int) ([]models.RelatedPaper, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}
	// Variable-length pattern bounds cannot be parameterized in Cypher;
	// depth is clamped above before interpolation.
	query := fmt.Sprintf(`
	MATCH (p:Paper {paper_id: $paper_id})
	MATCH path = (p)-[*1..%d]-(related:Paper)
	WHERE related.paper_id <> $paper_id
	RETURN DISTINCT related.paper_id AS paper_id,
	       related.title AS title,
	       length(path) AS distance
	ORDER BY distance
	LIMIT 20`, depth)

	session := s.newSession(ctx)
	defer session.Close(ctx)

	records, err := s.readRecords(ctx, session, query, map[string]any{"paper_id": paperID})
	if err != nil {
		return nil, err
	}

	related := make([]models.RelatedPaper, 0, len(records))
	for _, record := range records {
		related = append(related, models.RelatedPaper{
			PaperID:  stringValue(record, "paper_id"),
			Title:    stringValue(record, "title"),
			Distance: intValue(record, "distance"),
		})
	}
	return related, nil
}

func (s *Neo4jStore) GetPaper(ctx context.Context, paperID string) (*models.PaperDetail, error) {
	query := `
	MATCH (p:Paper {paper_id: $paper_id})
	OPTIONAL MATCH (p)-[:AUTHORED_BY]->(a:Author)
	OPTIONAL MATCH (p)-[:CITES]->(cited:Paper)
	RETURN p, collect(DISTINCT a.name) AS authors, collect(DISTINCT cited.paper_id) AS citations`

	session := s.newSession(ctx)
	defer session.Close(ctx)

	records, err := s.readRecords(ctx, session, query, map[string]any{"paper_id": paperID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	record := records[0]
	nodeValue, _ := record.Get("p")
	node, ok := nodeValue.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected paper record shape")
	}
	props := node.Props

	detail := &models.PaperDetail{
		PaperID:       paperID,
		Title:         propString(props, "title"),
		Abstract:      propString(props, "abstract"),
		Year:          propInt(props, "year"),
		Source:        propString(props, "source"),
		PDFPath:       propString(props, "pdf_path"),
		ArxivID:       propString(props, "arxiv_id"),
		PublishedDate: propString(props, "published_date"),
		NoEmbeddings:  propBool(props, "embeddings_disabled"),
	}
	detail.Authors = stringList(record, "authors")
	detail.RelatedPapers = stringList(record, "citations")
	detail.CitationCount = len(detail.RelatedPapers)
	return detail, nil
}

func (s *Neo4jStore) Overview(ctx context.Context) (*models.DashboardOverview, error) {
	session := s.newSession(ctx)
	defer session.Close(ctx)

	overview := &models.DashboardOverview{
		PapersPerYear: []models.YearCount{},
		TopAuthors:    []models.AuthorCount{},
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"MATCH (p:Paper) RETURN count(p) AS total", &overview.TotalPapers},
		{"MATCH (a:Author) RETURN count(a) AS total", &overview.TotalAuthors},
		{"MATCH (c:Chunk) RETURN count(c) AS total", &overview.TotalChunks},
	}
	for _, c := range counts {
		records, err := s.readRecords(ctx, session, c.query, nil)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			*c.dest = intValue(records[0], "total")
		}
	}

	yearRecords, err := s.readRecords(ctx, session,
		"MATCH (p:Paper) WHERE p.year IS NOT NULL RETURN p.year AS year, count(p) AS count ORDER BY year", nil)
	if err != nil {
		return nil, err
	}
	for _, record := range yearRecords {
		overview.PapersPerYear = append(overview.PapersPerYear, models.YearCount{
			Year:  intValue(record, "year"),
			Count: intValue(record, "count"),
		})
	}

	authorRecords, err := s.readRecords(ctx, session,
		"MATCH (a:Author)<-[:AUTHORED_BY]-(:Paper) RETURN a.name AS author, count(*) AS count ORDER BY count DESC LIMIT 10", nil)
	if err != nil {
		return nil, err
	}
	for _, record := range authorRecords {
		overview.TopAuthors = append(overview.TopAuthors, models.AuthorCount{
			Author: stringValue(record, "author"),
			Count:  intValue(record, "count"),
		})
	}

	return overview, nil
}

func (s *Neo4jStore) newSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) error {
	session := s.newSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	return err
}

func (s *Neo4jStore) readRecords(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

// The bolt protocol carries floats as float64; embeddings are converted
// at this boundary only.
func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func stringValue(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intValue(record *neo4j.Record, key string) int {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

func floatValue(record *neo4j.Record, key string) float64 {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func stringList(record *neo4j.Record, key string) []string {
	out := []string{}
	if v, ok := record.Get(key); ok {
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propInt(props map[string]any, key string) int {
	switch n := props[key].(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func propBool(props map[string]any, key string) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return false
}
