package util

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"reflect"
	"strconv"
	"strings"
)

var ErrCSVField = errors.New("invalid csv field")

//*******************************************
// binary io
//*******************************************

func NewBufferWriter() BufferWriter {
	buffer := bytes.Buffer{}
	return BufferWriter{
		buffer: &buffer,
	}
}

type BufferWriter struct {
	buffer *bytes.Buffer
}

func (self *BufferWriter) Bytes() []byte {
	return self.buffer.Bytes()
}
func (self *BufferWriter) Len() int {
	return self.buffer.Len()
}

// Write appends the little-endian encoding of value. Structs are written without padding.
func Write[T any](writer BufferWriter, value T) {
	binary.Write(writer.buffer, binary.LittleEndian, value)
}
func WriteArray[T any](writer BufferWriter, value Array[T]) {
	binary.Write(writer.buffer, binary.LittleEndian, value)
}

// WriteBytesToFile writes all chunks in order and syncs the file.
func WriteBytesToFile(file string, chunks ...[]byte) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	for _, data := range chunks {
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReplaceFile moves tmp over target.
func ReplaceFile(tmp string, target string) error {
	return os.Rename(tmp, target)
}

//*******************************************
// json io
//*******************************************

func WriteJSONToFile[T any](value T, file string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return WriteBytesToFile(file, data)
}

func ReadJSONFromFile[T any](file string) (T, error) {
	var value T
	data, err := os.ReadFile(file)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, err
	}
	return value, nil
}

//*******************************************
// csv io
//*******************************************

// ReadCSVFromFile decodes every row of a delimited file with a header line into T
// using the "csv" struct tags. Rows with a wrong field count are skipped, fields
// that fail to parse are reported as errors.
func ReadCSVFromFile[T any](filename string, delimiter rune) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var val T
		file, err := os.Open(filename)
		if err != nil {
			yield(val, err)
			return
		}
		defer file.Close()
		for row, err := range ReadCSV[T](file, filename, delimiter) {
			if !yield(row, err) {
				return
			}
		}
	}
}

// ReadCSV decodes rows from r like ReadCSVFromFile, name is used in errors.
func ReadCSV[T any](r io.Reader, filename string, delimiter rune) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var val T
		reader := csv.NewReader(r)
		reader.Comma = delimiter
		header, err := reader.Read()
		if err != nil {
			yield(val, fmt.Errorf("%s: failed to read header: %w", filename, err))
			return
		}
		name_row_mapping := NewDict[string, int](10)
		for i, name := range header {
			name_row_mapping[name] = i
		}
		// a leading byte order mark would hide the first column
		if len(header) > 0 {
			name_row_mapping[strings.TrimPrefix(header[0], "\ufeff")] = 0
		}

		typ := reflect.TypeOf(val)
		num_field := typ.NumField()
		fields := NewList[Triple[int, int, reflect.Kind]](num_field)
		for i := 0; i < num_field; i++ {
			field := typ.Field(i)
			tag := field.Tag.Get("csv")
			if tag == "" {
				continue
			}
			if !name_row_mapping.ContainsKey(tag) {
				continue
			}
			row := name_row_mapping[tag]
			switch field.Type.Kind() {
			case reflect.Bool:
				fields.Add(MakeTriple(i, row, reflect.Bool))
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				fields.Add(MakeTriple(i, row, reflect.Int))
			case reflect.Float32, reflect.Float64:
				fields.Add(MakeTriple(i, row, reflect.Float64))
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				fields.Add(MakeTriple(i, row, reflect.Uint))
			case reflect.String:
				fields.Add(MakeTriple(i, row, reflect.String))
			}
		}
		line := 1
		for {
			record, err := reader.Read()
			line += 1
			if err == io.EOF {
				break
			} else if errors.Is(err, csv.ErrFieldCount) {
				continue
			} else if err != nil {
				if !yield(val, fmt.Errorf("%s:%d: %w", filename, line, err)) {
					return
				}
				continue
			}
			t := reflect.New(typ).Elem()
			var row_err error
			for _, field := range fields {
				index := field.A
				row := field.B
				kind := field.C
				value := record[row]
				if value == "" {
					continue
				}
				f := t.Field(index)
				switch kind {
				case reflect.Bool:
					num, err := strconv.ParseBool(value)
					row_err = errors.Join(row_err, _FieldError(filename, line, header[row], err))
					f.SetBool(num)
				case reflect.Int:
					num, err := strconv.ParseInt(value, 10, 64)
					row_err = errors.Join(row_err, _FieldError(filename, line, header[row], err))
					f.SetInt(num)
				case reflect.Uint:
					num, err := strconv.ParseUint(value, 10, 64)
					row_err = errors.Join(row_err, _FieldError(filename, line, header[row], err))
					f.SetUint(num)
				case reflect.Float64:
					num, err := strconv.ParseFloat(value, 64)
					row_err = errors.Join(row_err, _FieldError(filename, line, header[row], err))
					f.SetFloat(num)
				case reflect.String:
					f.SetString(value)
				}
			}
			if row_err != nil {
				if !yield(val, row_err) {
					return
				}
				continue
			}
			if !yield(t.Interface().(T), nil) {
				return
			}
		}
	}
}

func _FieldError(file string, line int, column string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s:%d: column %q: %w: %v", file, line, column, ErrCSVField, err)
}
