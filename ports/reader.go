package ports

import (
	"adlens/domain/campaign"
)

// DataReader loads a typed campaign table from an external source (XLSX,
// CSV, ...). Implementations own all parsing; the engine consumes only the
// typed table.
type DataReader interface {
	Read() (*campaign.Table, error)
}
