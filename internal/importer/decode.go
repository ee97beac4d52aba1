package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses data as one of the two interchange shapes. A top-level
// array is the tabular shape; a top-level object is the standard shape and
// must carry departments, categories and processes arrays. Every failure is
// a *domain.ValidationError.
func Decode(data []byte) (Document, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return Document{}, invalid(fmt.Errorf("document is empty"))
	}
	if !json.Valid(data) {
		return Document{}, invalid(fmt.Errorf("document is not valid JSON"))
	}

	switch data[0] {
	case '[':
		var records []TabularRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return Document{}, invalid(fmt.Errorf("parsing tabular document: %w", err))
		}
		return Document{Shape: ShapeTabular, Tabular: records}, nil
	case '{':
		doc, err := DecodeStandard(data)
		if err != nil {
			return Document{}, err
		}
		return Document{Shape: ShapeStandard, Standard: doc}, nil
	default:
		return Document{}, invalid(fmt.Errorf("document must be a JSON object or array"))
	}
}

// DecodeStandard parses the standard shape only. It is used for persisted
// blobs, which are always written in that shape.
func DecodeStandard(data []byte) (*StandardDocument, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalid(fmt.Errorf("document must be a JSON object: %w", err))
	}

	var errs []error
	for _, field := range []string{"departments", "categories", "processes"} {
		v, ok := raw[field]
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", field))
			continue
		}
		if v = bytes.TrimSpace(v); len(v) == 0 || v[0] != '[' {
			errs = append(errs, fmt.Errorf("%s must be an array", field))
		}
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}

	var doc StandardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalid(fmt.Errorf("parsing standard document: %w", err))
	}
	return &doc, nil
}

// ToAggregate validates the document and converts it with the matching converter.
func (d Document) ToAggregate(now time.Time, newID func() string) (domain.Aggregate, error) {
	switch d.Shape {
	case ShapeStandard:
		if d.Standard == nil {
			return domain.Aggregate{}, invalid(fmt.Errorf("standard document is missing"))
		}
		if err := domain.NewValidationError(ValidateStandard(d.Standard)); err != nil {
			return domain.Aggregate{}, err
		}
		return ConvertStandard(d.Standard, now), nil
	case ShapeTabular:
		if err := domain.NewValidationError(ValidateTabular(d.Tabular)); err != nil {
			return domain.Aggregate{}, err
		}
		return ConvertTabular(d.Tabular, now, newID), nil
	default:
		return domain.Aggregate{}, invalid(fmt.Errorf("unknown document shape"))
	}
}

// LoadFile reads and decodes an interchange document from disk.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading import file: %w", err)
	}
	return Decode(data)
}

// Encode writes an export in the standard shape, indented for humans.
func Encode(export domain.Export) ([]byte, error) {
	export.SchemaVersion = domain.SchemaVersion
	export.Departments = domain.NonNil(export.Departments)
	export.Categories = domain.NonNil(export.Categories)
	export.Processes = domain.NonNil(export.Processes)
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

// EncodeAggregate writes the compact persisted form of an aggregate.
func EncodeAggregate(agg domain.Aggregate) ([]byte, error) {
	agg.SchemaVersion = domain.SchemaVersion
	agg.Departments = domain.NonNil(agg.Departments)
	agg.Categories = domain.NonNil(agg.Categories)
	agg.Processes = domain.NonNil(agg.Processes)
	data, err := json.Marshal(agg)
	if err != nil {
		return nil, fmt.Errorf("encoding aggregate: %w", err)
	}
	return data, nil
}

func invalid(err error) error {
	return domain.NewValidationError([]error{err})
}
