package utils

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// OrderedMapToString formats an ordered map as "[k1=v1 k2=v2]", keeping insertion order.
func OrderedMapToString(data *orderedmap.OrderedMap[string, any]) string {
	if data == nil {
		return "[]"
	}
	dataString := "["
	count := data.Len()
	for _, key := range data.Keys() {
		v, _ := data.Get(key)
		dataString += fmt.Sprintf("%s=%v", key, v)

		count--
		if count > 0 {
			dataString += " "
		}
	}
	dataString += "]"

	return dataString
}

// KeyVals builds an ordered map from alternating key/value arguments. A trailing key without a
// value is ignored.
func KeyVals(kv ...any) *orderedmap.OrderedMap[string, any] {
	m := orderedmap.NewOrderedMap[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// KeyValsToString formats slog-style keyvals into a single bracketed string.
// Example: KeyValsToString("foo", 1, "bar", true) => "[foo=1 bar=true]".
func KeyValsToString(kv ...any) string {
	return OrderedMapToString(KeyVals(kv...))
}
