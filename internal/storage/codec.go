package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"pixelgene/internal/gene"
	"pixelgene/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeGene(record model.GeneRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeGene(data []byte) (model.GeneRecord, error) {
	var record model.GeneRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.GeneRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.GeneRecord{}, err
	}
	if len(record.Segments) > 0 {
		if err := gene.Segments(record.Segments).Validate(); err != nil {
			return model.GeneRecord{}, fmt.Errorf("gene %s: %w", record.ID, err)
		}
	}
	return record, nil
}

func EncodeReport(record model.ReportRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeReport(data []byte) (model.ReportRecord, error) {
	var record model.ReportRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.ReportRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.ReportRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
