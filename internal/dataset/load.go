package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tidwall/gjson"

	"policymetrics/internal/common"
	apperrors "policymetrics/pkg/errors"
)

// LoadFile reads a JSON dataset from disk
func LoadFile(path string) (*Table, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "Invalid dataset path").
			WithContext("path", path)
	}

	data, err := os.ReadFile(cleaned) // #nosec G304 - path is validated
	if err != nil {
		code := apperrors.ErrCodeFileOperation
		if os.IsNotExist(err) {
			code = apperrors.ErrCodeInputNotFound
		}
		return nil, apperrors.Wrap(err, code, "Failed to read dataset").
			WithContext("path", cleaned)
	}

	table, err := Parse(data)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			return nil, appErr.WithContext("path", cleaned)
		}
		return nil, err
	}
	return table, nil
}

// Load reads a JSON dataset from r
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "Failed to read dataset")
	}
	return Parse(data)
}

// Parse builds a table from JSON. Two layouts are accepted: an array of
// record objects, and an object mapping column names to either
// {index: value} objects or arrays.
func Parse(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperrors.InputError("Dataset is not valid JSON", "", nil)
	}

	doc := gjson.ParseBytes(data)
	switch {
	case doc.IsArray():
		return parseRecords(doc)
	case doc.IsObject():
		return parseColumns(doc)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInputUnsupported,
			fmt.Sprintf("Dataset must be a JSON array or object, got %s", doc.Type)).
			WithSuggestions("Export the data as a list of records")
	}
}

// builder accumulates cells column by column while rows are scanned
type builder struct {
	names []string
	cols  map[string][]Value
}

func newBuilder() *builder {
	return &builder{cols: make(map[string][]Value)}
}

func (b *builder) set(row int, name string, v Value) {
	col, ok := b.cols[name]
	if !ok {
		b.names = append(b.names, name)
	}
	for len(col) < row {
		col = append(col, Null())
	}
	if len(col) == row+1 {
		// duplicate key inside one record: last one wins
		col[row] = v
	} else {
		col = append(col, v)
	}
	b.cols[name] = col
}

func (b *builder) table(rows int) *Table {
	t := NewTable(rows)
	for _, name := range b.names {
		col := b.cols[name]
		for len(col) < rows {
			col = append(col, Null())
		}
		// lengths always match here
		_ = t.SetColumn(name, col)
	}
	return t
}

func parseRecords(doc gjson.Result) (*Table, error) {
	b := newBuilder()
	rows := 0
	var err error

	doc.ForEach(func(_, record gjson.Result) bool {
		if !record.IsObject() {
			err = apperrors.New(apperrors.ErrCodeInputMalformed,
				fmt.Sprintf("Record %d is a JSON %s, expected an object", rows, record.Type)).
				WithContext("row", rows)
			return false
		}
		record.ForEach(func(key, value gjson.Result) bool {
			b.set(rows, key.String(), valueOf(value))
			return true
		})
		rows++
		return true
	})
	if err != nil {
		return nil, err
	}

	return b.table(rows), nil
}

func parseColumns(doc gjson.Result) (*Table, error) {
	// first pass fixes the row order: index labels in first-seen order
	rowOf := make(map[string]int)
	var labels []string
	var err error

	doc.ForEach(func(name, column gjson.Result) bool {
		switch {
		case column.IsObject():
			column.ForEach(func(label, _ gjson.Result) bool {
				if _, seen := rowOf[label.String()]; !seen {
					rowOf[label.String()] = len(labels)
					labels = append(labels, label.String())
				}
				return true
			})
		case column.IsArray():
			n := len(column.Array())
			for i := 0; i < n; i++ {
				label := strconv.Itoa(i)
				if _, seen := rowOf[label]; !seen {
					rowOf[label] = len(labels)
					labels = append(labels, label)
				}
			}
		default:
			err = apperrors.New(apperrors.ErrCodeInputUnsupported,
				fmt.Sprintf("Column %q is a JSON %s; expected an object of rows or an array", name.String(), column.Type)).
				WithContext("column", name.String()).
				WithSuggestions("A single record must be wrapped in an array: [{...}]")
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	t := NewTable(len(labels))
	doc.ForEach(func(name, column gjson.Result) bool {
		values := make([]Value, len(labels))
		if column.IsArray() {
			for i, cell := range column.Array() {
				values[rowOf[strconv.Itoa(i)]] = valueOf(cell)
			}
		} else {
			column.ForEach(func(label, cell gjson.Result) bool {
				values[rowOf[label.String()]] = valueOf(cell)
				return true
			})
		}
		_ = t.SetColumn(name.String(), values)
		return true
	})

	return t, nil
}

func valueOf(r gjson.Result) Value {
	switch r.Type {
	case gjson.String:
		return String(r.Str)
	case gjson.Number:
		return Number(r.Raw, r.Num)
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.JSON:
		return Raw(r.Raw)
	default:
		return Null()
	}
}
