package apifilter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTime
	KindUUID
)

// Field describes one queryable field. Column is the SQL column and Document
// the document key; Document falls back to the field name when empty.
// SelectOnly fields may be projected but never filtered or sorted on.
type Field struct {
	Column     string
	Document   string
	Kind       Kind
	SelectOnly bool
}

// Schema whitelists the fields a client may filter and sort on, keyed by
// their public name. Conditions and sort keys outside the schema are ignored.
type Schema map[string]Field

func (s Schema) lookup(name string) (Field, bool) {
	f, ok := s[name]
	if !ok {
		return Field{}, false
	}
	if f.Column == "" {
		f.Column = name
	}
	if f.Document == "" {
		f.Document = name
	}
	return f, true
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func (f Field) convert(raw string) (any, error) {
	switch f.Kind {
	case KindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidQuery, raw)
		}
		return v, nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidQuery, raw)
		}
		return v, nil
	case KindTime:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidQuery, raw)
	case KindUUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid id", ErrInvalidQuery, raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

func (f Field) convertAll(raw []string) ([]any, error) {
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := f.convert(strings.TrimSpace(r))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
