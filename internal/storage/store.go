package storage

import (
	"context"

	"pixelgene/internal/model"
)

// Store defines persistence for genes and the structural reports of their renders.
type Store interface {
	Init(ctx context.Context) error
	SaveGene(ctx context.Context, record model.GeneRecord) error
	GetGene(ctx context.Context, id string) (model.GeneRecord, bool, error)
	ListGenes(ctx context.Context, limit int) ([]model.GeneRecord, error)
	SaveReport(ctx context.Context, record model.ReportRecord) error
	GetReport(ctx context.Context, id string) (model.ReportRecord, bool, error)
	ListReports(ctx context.Context, geneID string) ([]model.ReportRecord, error)
}
