package datasource

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// SerializeValue converts a driver-provided cell value into a
// JSON-compatible representation. Times become RFC 3339 strings, byte slices
// become strings, and anything json.Marshal cannot handle falls back to
// fmt.Sprint. nil passes through.
func SerializeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case *big.Int:
		return val.String()
	case *big.Float:
		return val.Text('g', -1)
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	}

	if _, err := json.Marshal(v); err == nil {
		return v
	}
	return fmt.Sprint(v)
}

// SerializeRow applies SerializeValue to every cell of a row.
func SerializeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = SerializeValue(v)
	}
	return out
}
