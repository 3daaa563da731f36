// Package file provides a single-file JSON position store. It keeps the
// ledger durable across restarts without requiring a database.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"bsc-token-sniper/internal/domain"
	"bsc-token-sniper/internal/storage"
)

// portfolioFile is the on-disk layout.
type portfolioFile struct {
	Positions map[string]*domain.TokenPosition `json:"positions"`
	UpdatedAt time.Time                        `json:"last_updated"`
}

// PositionStore implements storage.PositionStore on a JSON file. Every
// mutation rewrites the file atomically (temp file plus rename).
type PositionStore struct {
	mu   sync.Mutex
	path string
	data map[string]*domain.TokenPosition
}

// NewPositionStore opens or creates a JSON position store at path.
func NewPositionStore(path string) (*PositionStore, error) {
	s := &PositionStore{
		path: path,
		data: make(map[string]*domain.TokenPosition),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)

func (s *PositionStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read portfolio file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var pf portfolioFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parse portfolio file %s: %w", s.path, err)
	}
	if pf.Positions != nil {
		s.data = pf.Positions
	}
	return nil
}

// flushLocked writes the full ledger to a temp file and renames it over the
// target, so a crash mid-write never truncates the ledger.
func (s *PositionStore) flushLocked() error {
	pf := portfolioFile{
		Positions: s.data,
		UpdatedAt: time.Now().UTC(),
	}
	raw, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".portfolio-*.json")
	if err != nil {
		return fmt.Errorf("create temp portfolio file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp portfolio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp portfolio file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace portfolio file: %w", err)
	}
	return nil
}

// Save inserts or replaces a position and flushes the file.
func (s *PositionStore) Save(_ context.Context, p *domain.TokenPosition) error {
	if p == nil || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	positionCopy := *p
	positionCopy.PartialSales = append([]domain.SaleRecord(nil), p.PartialSales...)
	s.data[p.TokenAddress] = &positionCopy
	return s.flushLocked()
}

// Get retrieves a position by token address. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(_ context.Context, tokenAddress string) (*domain.TokenPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	positionCopy := *p
	positionCopy.PartialSales = append([]domain.SaleRecord(nil), p.PartialSales...)
	return &positionCopy, nil
}

// LoadAll retrieves every stored position, ordered by purchase time ASC.
func (s *PositionStore) LoadAll(_ context.Context) ([]*domain.TokenPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*domain.TokenPosition, 0, len(s.data))
	for _, p := range s.data {
		positionCopy := *p
		positionCopy.PartialSales = append([]domain.SaleRecord(nil), p.PartialSales...)
		result = append(result, &positionCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EntryTimestamp.Before(result[j].EntryTimestamp)
	})
	return result, nil
}

// Delete removes a position and flushes the file. Returns ErrNotFound if not
// exists.
func (s *PositionStore) Delete(_ context.Context, tokenAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tokenAddress]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, tokenAddress)
	return s.flushLocked()
}
