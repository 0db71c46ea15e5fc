package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	perrors "github.com/shopanalyser/backend/internal/errors"
)

// fileDocument is the on-disk shape: the product list plus the ID counter,
// so identifiers stay monotonic across deletions and restarts.
type fileDocument struct {
	NextID   int64     `json:"next_id"`
	Products []Product `json:"products"`
}

// FileStore implements ProductStore backed by a single JSON document.
// Every mutation rewrites the whole file via a temp file and an atomic
// rename; a mutex serializes the read-modify-write cycle so concurrent
// writers cannot drop each other's changes.
type FileStore struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	nextID   int64
	products []Product
}

// NewFileStore loads the collection from path. A missing or corrupt file
// degrades to an empty collection rather than failing: the server must come
// up even when the data file is gone.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger.With("component", "file_store"),
		now:    time.Now,
		nextID: 1,
	}

	// persist writes temp files next to the document, so the parent
	// directory must exist before the first mutation.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read product file %s: %w", path, err)
		}
		s.logger.Info("Product file does not exist, starting empty", "path", path)
		return s, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err == nil && (doc.Products != nil || doc.NextID > 0) {
		// An envelope with a counter but no products is an empty
		// collection, not a corrupt file; the counter must survive.
		s.products = doc.Products
		s.nextID = doc.NextID
	} else if err := json.Unmarshal(data, &s.products); err != nil {
		// Deliberate resilience choice: a corrupt file degrades to an
		// empty state, it does not crash the server.
		s.logger.Warn("Product file is corrupt, starting empty", "path", path, "error", err)
		s.products = nil
	}
	for _, p := range s.products {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
	s.logger.Info("Loaded products", "path", path, "count", len(s.products))
	return s, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *FileStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, perrors.ErrProductNotFound
}

// List returns a snapshot copy of all products in insertion order.
func (s *FileStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Create assigns a fresh monotonic ID, persists the full collection and
// returns the stored record.
func (s *FileStore) Create(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.nextID
	staged := make([]Product, len(s.products), len(s.products)+1)
	copy(staged, s.products)
	staged = append(staged, product)

	if err := s.persist(s.nextID+1, staged); err != nil {
		return nil, err
	}
	s.nextID++
	s.products = staged
	return &product, nil
}

// Update merges the patch onto the stored record and persists the result.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *FileStore) Update(_ context.Context, id int64, patch ProductPatch) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, perrors.ErrProductNotFound
	}

	staged := make([]Product, len(s.products))
	copy(staged, s.products)
	applyPatch(&staged[idx], patch)
	staged[idx].ID = id

	if err := s.persist(s.nextID, staged); err != nil {
		return nil, err
	}
	s.products = staged
	out := staged[idx]
	return &out, nil
}

// Delete removes and returns the record.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *FileStore) Delete(_ context.Context, id int64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, perrors.ErrProductNotFound
	}

	removed := s.products[idx]
	staged := make([]Product, 0, len(s.products)-1)
	staged = append(staged, s.products[:idx]...)
	staged = append(staged, s.products[idx+1:]...)

	if err := s.persist(s.nextID, staged); err != nil {
		return nil, err
	}
	s.products = staged
	return &removed, nil
}

// AdjustStock applies a restock or sale to a single record. A sale larger
// than the available stock fails with ErrInsufficientStock and leaves both
// stock and sold untouched.
func (s *FileStore) AdjustStock(_ context.Context, id int64, delta int64, reason AdjustReason) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, perrors.ErrProductNotFound
	}

	staged := make([]Product, len(s.products))
	copy(staged, s.products)
	p := &staged[idx]

	switch reason {
	case ReasonRestock:
		if delta < 0 {
			delta = -delta
		}
		p.Stock += delta
		p.LastRestock = s.now().Format("2006-01-02")
	case ReasonSale:
		if delta > p.Stock {
			return nil, fmt.Errorf("sale of %d exceeds stock of %d: %w", delta, p.Stock, perrors.ErrInsufficientStock)
		}
		p.Stock -= delta
		p.Sold += delta
	default:
		return nil, fmt.Errorf("%w: unknown adjust reason %q", perrors.ErrValidation, reason)
	}

	if err := s.persist(s.nextID, staged); err != nil {
		return nil, err
	}
	s.products = staged
	out := staged[idx]
	return &out, nil
}

// indexOf must be called with the lock held.
func (s *FileStore) indexOf(id int64) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// persist serializes the staged collection to a temp file in the target
// directory and renames it over the previous document, so readers of the
// file never observe a partial write. Must be called with the lock held.
func (s *FileStore) persist(nextID int64, products []Product) error {
	doc := fileDocument{NextID: nextID, Products: products}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode products: %v", perrors.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".products-*.json")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", perrors.ErrPersistence, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: failed to write temp file: %v", perrors.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: failed to close temp file: %v", perrors.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: failed to replace product file: %v", perrors.ErrPersistence, err)
	}
	return nil
}
