package core

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testStatus int

const (
	statusActive testStatus = iota
	statusInactive
	statusPending
)

func (testStatus) EnumValues() []string { return []string{"Active", "Inactive", "Pending"} }

type testColor string

func (testColor) EnumValues() []string { return []string{"Red", "Green"} }

type testPerson struct {
	Name      string    `header:"FullName"`
	Age       int
	BirthDate time.Time `header:"DOB"`
}

type testAccount struct {
	ID      int64
	Balance pgtype.Numeric `header:"Amount,Total"`
	Opened  pgtype.Date
	Status  testStatus
	Email   *string
	Skip    string `header:"-"`
}

// recordingFile is a File that remembers whether Open was called.
type recordingFile struct {
	name   string
	size   int64
	data   []byte
	opened bool
}

func (f *recordingFile) Name() string        { return f.name }
func (f *recordingFile) Size() int64         { return f.size }
func (f *recordingFile) ContentType() string { return "" }

func (f *recordingFile) Open() (io.ReadCloser, error) {
	f.opened = true
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func csvFile(name, content string) *BytesFile {
	return NewBytesFile(name, "text/csv", []byte(content))
}

// xlsxFile builds a workbook with one sheet per entry of sheets, in order.
func xlsxFile(t testing.TB, name string, sheets map[string][][]any, order []string, props *excelize.DocProperties) *BytesFile {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for r, row := range sheets[sheet] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	if props != nil {
		require.NoError(t, f.SetDocProps(props))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return NewBytesFile(name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func gzipBytes(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// generatePeopleCSV returns a header plus rows data rows.
func generatePeopleCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"FullName", "Age", "DOB"})
	for i := 0; i < rows; i++ {
		w.Write([]string{"Person " + strconv.Itoa(i), strconv.Itoa(20 + i%50), "1990-05-01"})
	}
	w.Flush()
	return buf.Bytes()
}
