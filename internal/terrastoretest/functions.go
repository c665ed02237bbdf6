package terrastoretest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

type updateFunction func(doc, params map[string]any) (map[string]any, error)

var functions = map[string]updateFunction{
	"replace": replaceFunction,
	"merge":   mergeFunction,
	"counter": counterFunction,
}

// replaceFunction replaces the document with the parameters.
func replaceFunction(_, params map[string]any) (map[string]any, error) {
	return maps.Clone(params), nil
}

// mergeFunction overwrites the document members named by the parameters.
func mergeFunction(doc, params map[string]any) (map[string]any, error) {
	out := maps.Clone(doc)
	maps.Copy(out, params)
	return out, nil
}

// counterFunction adds each parameter to the numeric member of the same name.
// Missing members start at zero.
func counterFunction(doc, params map[string]any) (map[string]any, error) {
	out := maps.Clone(doc)
	for name, delta := range params {
		d, err := toInt(delta)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", name, err)
		}
		current := int64(0)
		if v, ok := out[name]; ok {
			current, err = toInt(v)
			if err != nil {
				return nil, fmt.Errorf("counter %s: %w", name, err)
			}
		}
		out[name] = current + d
	}
	return out, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("%v is not a number", v)
}

// predicate is a "field:name=value" condition on a top-level member.
type predicate struct {
	field string
	value string
}

func parsePredicate(s string) (predicate, error) {
	typ, expr, ok := strings.Cut(s, ":")
	if !ok || typ != "field" {
		return predicate{}, fmt.Errorf("unsupported predicate %q", s)
	}
	field, value, ok := strings.Cut(expr, "=")
	if !ok || field == "" {
		return predicate{}, fmt.Errorf("malformed field predicate %q", s)
	}
	return predicate{field: field, value: value}, nil
}

func (p predicate) match(doc json.RawMessage) bool {
	var members map[string]any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&members); err != nil {
		return false
	}
	v, ok := members[p.field]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == p.value
}
