package storage

import (
	"context"
	"errors"
	"sync"

	"pixelgene/internal/gene"
	"pixelgene/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genes       map[string]model.GeneRecord
	geneOrder   []string
	reports     map[string]model.ReportRecord
	reportOrder []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genes = make(map[string]model.GeneRecord)
	s.geneOrder = nil
	s.reports = make(map[string]model.ReportRecord)
	s.reportOrder = nil
	return nil
}

func (s *MemoryStore) SaveGene(_ context.Context, record model.GeneRecord) error {
	if record.ID == "" {
		return errors.New("gene id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if _, exists := s.genes[record.ID]; !exists {
		s.geneOrder = append(s.geneOrder, record.ID)
	}
	s.genes[record.ID] = copyGeneRecord(record)
	return nil
}

func (s *MemoryStore) GetGene(_ context.Context, id string) (model.GeneRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.GeneRecord{}, false, errNotInitialized
	}
	record, ok := s.genes[id]
	if !ok {
		return model.GeneRecord{}, false, nil
	}
	return copyGeneRecord(record), true, nil
}

// ListGenes returns the most recently added genes first.
func (s *MemoryStore) ListGenes(_ context.Context, limit int) ([]model.GeneRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.GeneRecord, 0, len(s.geneOrder))
	for i := len(s.geneOrder) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, copyGeneRecord(s.genes[s.geneOrder[i]]))
	}
	return out, nil
}

func (s *MemoryStore) SaveReport(_ context.Context, record model.ReportRecord) error {
	if record.ID == "" {
		return errors.New("report id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if _, exists := s.reports[record.ID]; !exists {
		s.reportOrder = append(s.reportOrder, record.ID)
	}
	s.reports[record.ID] = record
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (model.ReportRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.ReportRecord{}, false, errNotInitialized
	}
	record, ok := s.reports[id]
	return record, ok, nil
}

// ListReports returns the reports of one gene in insertion order.
func (s *MemoryStore) ListReports(_ context.Context, geneID string) ([]model.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	var out []model.ReportRecord
	for _, id := range s.reportOrder {
		if record := s.reports[id]; record.GeneID == geneID {
			out = append(out, record)
		}
	}
	return out, nil
}

func copyGeneRecord(record model.GeneRecord) model.GeneRecord {
	record.Segments = gene.Clone(gene.Segments(record.Segments))
	return record
}
