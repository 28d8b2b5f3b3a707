package httpfetch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrWrongType    = errors.New("wrong field type")
)

// Document is a parsed JSON object.
type Document map[string]any

// Lookup walks nested objects by key and arrays by decimal index.
func (d Document) Lookup(path ...string) (any, error) {
	var cur any = map[string]any(d)
	for i, key := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok || v == nil {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path[:i+1], "."))
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path[:i+1], "."))
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("%w: %s is not a container", ErrWrongType, strings.Join(path[:i], "."))
		}
	}
	return cur, nil
}

func (d Document) Float(path ...string) (float64, error) {
	v, err := d.Lookup(path...)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not a number", ErrWrongType, strings.Join(path, "."))
	}
	return f, nil
}

// Int rounds a numeric field to the nearest integer.
func (d Document) Int(path ...string) (int, error) {
	f, err := d.Float(path...)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func (d Document) String(path ...string) (string, error) {
	v, err := d.Lookup(path...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrWrongType, strings.Join(path, "."))
	}
	return s, nil
}
