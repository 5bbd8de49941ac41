package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"safety-insight/internal/contextutil"
)

// MilvusConfig holds the connection settings for a Milvus deployment.
type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Timeout    time.Duration
}

// MilvusIndex implements Index using a Milvus collection.
// The connection is opened on first use so the server can start while
// Milvus is still coming up.
type MilvusIndex struct {
	cfg MilvusConfig

	mu     sync.Mutex
	client *milvusclient.Client
	loaded bool
}

// NewMilvusIndex creates a new Milvus index. No connection is made until the
// first Search or Health call.
func NewMilvusIndex(cfg MilvusConfig) *MilvusIndex {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MilvusIndex{cfg: cfg}
}

func (s *MilvusIndex) connect(ctx context.Context) (*milvusclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	c, err := milvusclient.New(connectCtx, &milvusclient.ClientConfig{
		Address:  s.cfg.Address,
		Username: s.cfg.Username,
		Password: s.cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}
	s.client = c
	return c, nil
}

// ensureLoaded loads the collection into memory once per process.
func (s *MilvusIndex) ensureLoaded(ctx context.Context, c *milvusclient.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	loadTask, err := c.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(s.cfg.Collection))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	s.loaded = true
	return nil
}

// Search performs a vector similarity search on the embedding field.
func (s *MilvusIndex) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(ctx, c); err != nil {
		return nil, err
	}

	results, err := c.Search(ctx, milvusclient.NewSearchOption(
		s.cfg.Collection,
		k,
		[]entity.Vector{entity.FloatVector(query)},
	).WithANNSField(FieldEmbedding).
		WithSearchParam("nprobe", "16").
		WithOutputFields(FieldDocumentName, FieldPageNumber, FieldSASURL))
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	out := milvusColumnsToResults(results[0].ResultCount, results[0].Scores, results[0].IDs, results[0].Fields)
	logger.DebugContext(ctx, "milvus search completed", "collection", s.cfg.Collection, "k", k, "results", len(out))
	return out, nil
}

// Health checks that the collection exists.
func (s *MilvusIndex) Health(ctx context.Context) error {
	c, err := s.connect(ctx)
	if err != nil {
		return err
	}
	exists, err := c.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.cfg.Collection))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("milvus collection %q does not exist", s.cfg.Collection)
	}
	return nil
}

// Close releases the underlying connection if one was opened.
func (s *MilvusIndex) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close(ctx)
	s.client = nil
	s.loaded = false
	return err
}

func milvusColumnsToResults(count int, scores []float32, ids column.Column, fields []column.Column) []SearchResult {
	results := make([]SearchResult, 0, count)
	for i := 0; i < count; i++ {
		var result SearchResult
		if i < len(scores) {
			result.Score = float64(scores[i])
		}

		switch idCol := ids.(type) {
		case *column.ColumnInt64:
			result.ID = strconv.FormatInt(idCol.Data()[i], 10)
		case *column.ColumnVarChar:
			result.ID = idCol.Data()[i]
		}

		for _, field := range fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				switch col.Name() {
				case FieldDocumentName:
					result.DocumentName = col.Data()[i]
				case FieldSASURL:
					result.SASURL = col.Data()[i]
				case FieldPageNumber:
					result.PageNumber = pageNumber(col.Data()[i])
				}
			case *column.ColumnInt64:
				if col.Name() == FieldPageNumber {
					result.PageNumber = int(col.Data()[i])
				}
			case *column.ColumnInt32:
				if col.Name() == FieldPageNumber {
					result.PageNumber = int(col.Data()[i])
				}
			}
		}
		results = append(results, result)
	}
	return results
}
