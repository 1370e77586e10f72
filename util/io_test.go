package util

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CVSSimpleTest struct {
	Name   string  `csv:"name"`
	Age    int     `csv:"age"`
	Height float32 `csv:"height"`
	Gender bool    `csv:"gender"`
}

func TestCSVSimple(t *testing.T) {
	file := "./testdata/simple.csv"

	rows := NewList[CVSSimpleTest](3)
	for row, err := range ReadCSVFromFile[CVSSimpleTest](file, ';') {
		require.NoError(t, err)
		rows.Add(row)
	}
	require.Len(t, rows, 3)
	assert.Equal(t, CVSSimpleTest{Name: "John", Age: 30, Height: 170, Gender: false}, rows[0])
	assert.Equal(t, CVSSimpleTest{Name: "Jane", Age: 25, Height: 160, Gender: true}, rows[1])
	assert.Equal(t, CVSSimpleTest{Name: "Joe", Age: 35, Height: 175, Gender: true}, rows[2])
}

func TestCSVError(t *testing.T) {
	file := "./testdata/error.csv"

	rows := NewList[CVSSimpleTest](4)
	errs := NewList[error](1)
	for row, err := range ReadCSVFromFile[CVSSimpleTest](file, ';') {
		if err != nil {
			errs.Add(err)
			continue
		}
		rows.Add(row)
	}

	// the row with an extra column is skipped
	require.Len(t, rows, 3)
	assert.Equal(t, CVSSimpleTest{Name: "John", Age: 30, Height: 170.5, Gender: false}, rows[0])
	assert.Equal(t, CVSSimpleTest{Name: "'Joe", Age: 35, Height: 175, Gender: true}, rows[1])
	assert.Equal(t, CVSSimpleTest{Name: "", Age: 28, Height: 0, Gender: false}, rows[2])

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrCSVField)
	assert.Contains(t, errs[0].Error(), "age")
}

func TestCSVReader(t *testing.T) {
	rows := NewList[CVSSimpleTest](2)
	for row, err := range ReadCSV[CVSSimpleTest](strings.NewReader("\ufeffname,age\nAnn,41\nBob,x\n"), "people.csv", ',') {
		if err != nil {
			assert.Contains(t, err.Error(), "people.csv:3")
			continue
		}
		rows.Add(row)
	}
	assert.Equal(t, List[CVSSimpleTest]{{Name: "Ann", Age: 41}}, rows)
}

func TestCSVMissingFile(t *testing.T) {
	count := 0
	for _, err := range ReadCSVFromFile[CVSSimpleTest]("./testdata/missing.csv", ';') {
		assert.Error(t, err)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestJSONFile(t *testing.T) {
	type item struct {
		Name  string           `json:"name"`
		Value Optional[int32]  `json:"value"`
		Other Optional[string] `json:"other"`
	}
	file := filepath.Join(t.TempDir(), "item.json")

	err := WriteJSONToFile(item{Name: "a", Value: Some[int32](7), Other: None[string]()}, file)
	require.NoError(t, err)

	value, err := ReadJSONFromFile[item](file)
	require.NoError(t, err)
	assert.Equal(t, "a", value.Name)
	assert.True(t, value.Value.HasValue())
	assert.Equal(t, int32(7), value.Value.Value)
	assert.False(t, value.Other.HasValue())

	_, err = ReadJSONFromFile[item](filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestQueue(t *testing.T) {
	queue := NewQueue[int32](2)
	queue.Push(1)
	queue.Push(2)
	queue.Push(3)
	assert.Equal(t, 3, queue.Size())

	for _, expected := range []int32{1, 2, 3} {
		value, ok := queue.Pop()
		require.True(t, ok)
		assert.Equal(t, expected, value)
	}
	_, ok := queue.Pop()
	assert.False(t, ok)

	queue.Push(4)
	queue.Clear()
	assert.Equal(t, 0, queue.Size())
}
