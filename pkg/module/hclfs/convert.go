package hclfs

import (
	"bytes"
	"encoding/json"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/deescovery/deescovery/internal/errors"
)

// toGo converts a cty value to plain Go values: string, int64, float64, bool,
// []any, map[string]any or nil.
//
// cty has no direct conversion into interface{} values, so the value goes through
// cty's JSON encoding and back.
func toGo(value cty.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}

	if !value.IsWhollyKnown() {
		return nil, errors.Errorf("value is not known at import time")
	}

	jsonBytes, err := ctyjson.Marshal(value, value.Type())
	if err != nil {
		return nil, errors.New(err)
	}

	decoder := json.NewDecoder(bytes.NewReader(jsonBytes))
	decoder.UseNumber()

	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, errors.New(err)
	}

	return normalizeNumbers(out), nil
}

func normalizeNumbers(val any) any {
	switch val := val.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}

		f, _ := val.Float64()

		return f
	case []any:
		for i := range val {
			val[i] = normalizeNumbers(val[i])
		}

		return val
	case map[string]any:
		for key := range val {
			val[key] = normalizeNumbers(val[key])
		}

		return val
	default:
		return val
	}
}
