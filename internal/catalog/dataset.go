package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDataUnavailable is returned when no non-empty product array can be
// resolved from the configured source. Recoverable: the server keeps
// running and the client shows an error state.
var ErrDataUnavailable = errors.New("product data unavailable")

// exportTableName is the table-name convention used by database JSON
// exports; a dataset wrapped in export nodes carries the real product array
// inside the node with this name. Load-bearing contract, do not change.
const exportTableName = "product-list"

// Shape identifies which of the accepted dataset layouts a payload used.
type Shape int

const (
	// ShapePlainArray is a bare array of product records.
	ShapePlainArray Shape = iota
	// ShapeWrapped is an object whose "data" field holds the records.
	ShapeWrapped
	// ShapeExportTable is an export-format array containing a node tagged
	// as the "product-list" table, whose "data" field holds the records.
	ShapeExportTable
)

func (s Shape) String() string {
	switch s {
	case ShapePlainArray:
		return "plain array"
	case ShapeWrapped:
		return "wrapped object"
	case ShapeExportTable:
		return "export table"
	default:
		return "unknown"
	}
}

// exportNode is the loosely-decoded form of one entry in an export-format
// array. Only table nodes with a data array are interesting.
type exportNode struct {
	Type string          `json:"type"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// DecodeDataset resolves a raw payload into product records, accepting the
// three supported shapes. The shape is decided once here; callers never
// sniff the payload again. Fails with ErrDataUnavailable when nothing
// resolves to a non-empty array.
func DecodeDataset(payload []byte) ([]RawRecord, Shape, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(payload, &outer); err == nil {
		// Array payload: search for an export table node first.
		if records, ok := unwrapExportTable(outer); ok {
			if len(records) == 0 {
				return nil, ShapeExportTable, fmt.Errorf("%w: export table %q is empty", ErrDataUnavailable, exportTableName)
			}
			return records, ShapeExportTable, nil
		}

		// No matching table node: the outer array is the product list.
		var records []RawRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, ShapePlainArray, fmt.Errorf("%w: malformed product array: %v", ErrDataUnavailable, err)
		}
		if len(records) == 0 {
			return nil, ShapePlainArray, fmt.Errorf("%w: product array is empty", ErrDataUnavailable)
		}
		return records, ShapePlainArray, nil
	}

	// Object payload with a "data" array.
	var wrapped struct {
		Data []RawRecord `json:"data"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, ShapeWrapped, fmt.Errorf("%w: malformed dataset: %v", ErrDataUnavailable, err)
	}
	if len(wrapped.Data) == 0 {
		return nil, ShapeWrapped, fmt.Errorf("%w: dataset has no data array", ErrDataUnavailable)
	}
	return wrapped.Data, ShapeWrapped, nil
}

// unwrapExportTable scans an export-format array for the product-list table
// node. Reports false when no node matches, in which case the caller falls
// back to treating the whole array as products.
func unwrapExportTable(nodes []json.RawMessage) ([]RawRecord, bool) {
	for _, rawNode := range nodes {
		var node exportNode
		if err := json.Unmarshal(rawNode, &node); err != nil {
			continue
		}
		if node.Type != "table" || node.Name != exportTableName || node.Data == nil {
			continue
		}

		var records []RawRecord
		if err := json.Unmarshal(node.Data, &records); err != nil || records == nil {
			continue // data field is not an array
		}
		return records, true
	}
	return nil, false
}
