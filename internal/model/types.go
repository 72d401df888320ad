package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Generator kinds recorded on genes and reports.
const (
	KindCPPN   = "cppn"
	KindDirect = "direct"
)

// GeneRecord is a stored gene together with the generator it was sized for.
type GeneRecord struct {
	VersionedRecord
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Seed         int64     `json:"seed"`
	SegmentWidth int       `json:"segment_width"`
	Segments     [][]int32 `json:"segments"`
	CreatedAtUTC string    `json:"created_at_utc"`
}

// NetworkReport is the structural description of a decoded gene.
type NetworkReport struct {
	Kind   string            `json:"kind"`
	Config map[string]string `json:"config"`
	Units  []UnitReport      `json:"units,omitempty"`
}

// UnitReport describes one hidden/output unit. Inputs keys 0..3 are the
// fixed inputs (bias, x, y, radius); keys >= 4 reference unit key-4.
type UnitReport struct {
	Index      int             `json:"index"`
	Activation string          `json:"activation"`
	Inputs     map[int]float64 `json:"inputs"`
}

type ReportRecord struct {
	VersionedRecord
	ID           string        `json:"id"`
	GeneID       string        `json:"gene_id"`
	OutputPath   string        `json:"output_path"`
	Report       NetworkReport `json:"report"`
	CreatedAtUTC string        `json:"created_at_utc"`
}
