package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixelgene/internal/gene"
	"pixelgene/internal/model"
)

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// NewGeneRecord stamps a gene with a fresh id, the current versions and a
// creation time.
func NewGeneRecord(kind string, seed int64, g gene.Gene) model.GeneRecord {
	segments := gene.Clone(g)
	width := 0
	if len(segments) > 0 {
		width = len(segments[0])
	}
	return model.GeneRecord{
		VersionedRecord: currentVersion(),
		ID:              uuid.NewString(),
		Kind:            kind,
		Seed:            seed,
		SegmentWidth:    width,
		Segments:        segments,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
	}
}

func NewReportRecord(geneID, outputPath string, report model.NetworkReport) model.ReportRecord {
	return model.ReportRecord{
		VersionedRecord: currentVersion(),
		ID:              uuid.NewString(),
		GeneID:          geneID,
		OutputPath:      outputPath,
		Report:          report,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
	}
}

// ReportSink stores every report it receives against one gene. It plugs
// into the synthesizers as their report sink.
type ReportSink struct {
	Store      Store
	GeneID     string
	OutputPath string

	mu     sync.Mutex
	lastID string
}

// LastID returns the id of the most recently stored report.
func (s *ReportSink) LastID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

func (s *ReportSink) SaveReport(ctx context.Context, report model.NetworkReport) error {
	if s.Store == nil {
		return fmt.Errorf("store is required")
	}
	record := NewReportRecord(s.GeneID, s.OutputPath, report)
	if err := s.Store.SaveReport(ctx, record); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastID = record.ID
	s.mu.Unlock()
	return nil
}
