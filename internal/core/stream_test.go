package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeTrackingFile records whether the reader handed out by Open was closed.
type closeTrackingFile struct {
	*BytesFile
	closed bool
}

func (f *closeTrackingFile) Open() (io.ReadCloser, error) {
	return &trackingCloser{Reader: bytes.NewReader(f.data), f: f}, nil
}

type trackingCloser struct {
	io.Reader
	f *closeTrackingFile
}

func (c *trackingCloser) Close() error {
	c.f.closed = true
	return nil
}

func trackedCSV(name string, data []byte) *closeTrackingFile {
	return &closeTrackingFile{BytesFile: NewBytesFile(name, "text/csv", data)}
}

func TestReadStreaming_Outcomes(t *testing.T) {
	content := "FullName,Age,DOB\nAlice,30,1990-05-01\n\nBob,abc,1985-01-01\nCarol,41,\n"
	f := trackedCSV("people.csv", []byte(content))

	s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), f)
	require.NoError(t, err)

	var outcomes []RowOutcome[testPerson]
	for o := range s.All() {
		outcomes = append(outcomes, o)
	}
	require.NoError(t, s.Err())
	require.Len(t, outcomes, 3)

	for _, o := range outcomes {
		assert.NotEqual(t, o.Record != nil, o.Error != "", "row %d must carry exactly one of record or error", o.Row)
		assert.Equal(t, o.OK, o.Record != nil)
		assert.Equal(t, 3, o.Columns)
	}

	assert.Equal(t, 2, outcomes[0].Row)
	assert.Equal(t, "Alice", outcomes[0].Record.Name)
	assert.Equal(t, 4, outcomes[1].Row)
	assert.Contains(t, outcomes[1].Error, "column 'Age'")
	assert.Equal(t, 5, outcomes[2].Row)
	assert.Contains(t, outcomes[2].Error, "column 'DOB'")

	assert.True(t, f.closed, "file is closed once the stream is exhausted")
}

func TestReadStreaming_SingleUse(t *testing.T) {
	s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), csvFile("p.csv", "FullName\nA\nB\n"))
	require.NoError(t, err)

	first := 0
	for range s.All() {
		first++
	}
	second := 0
	for range s.All() {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, 0, second)
}

func TestReadStreaming_EarlyBreakClosesFile(t *testing.T) {
	f := trackedCSV("p.csv", generatePeopleCSV(100))

	s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), f)
	require.NoError(t, err)

	for o := range s.All() {
		if o.Row == 3 {
			break
		}
	}
	assert.True(t, f.closed)
	assert.NoError(t, s.Err())
}

func TestReadStreaming_CloseWithoutRanging(t *testing.T) {
	f := trackedCSV("p.csv", generatePeopleCSV(10))

	s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), f)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, f.closed)

	n := 0
	for range s.All() {
		n++
	}
	assert.Zero(t, n)
}

func TestReadStreaming_YieldCadence(t *testing.T) {
	yields := 0
	imp := newTestImporter(WithYielder(func() { yields++ }))

	s, err := ReadStreaming[testPerson](context.Background(), imp, NewBytesFile("p.csv", "", generatePeopleCSV(120)))
	require.NoError(t, err)

	rows := 0
	for range s.All() {
		rows++
	}
	require.Equal(t, 120, rows)
	require.LessOrEqual(t, s.Estimated(), 10_000)
	assert.Equal(t, 2, yields, "small files yield every 50 rows")
}

func TestReadStreaming_YieldCadenceCountsDataRows(t *testing.T) {
	yields := 0
	imp := newTestImporter(WithYielder(func() { yields++ }))

	var b strings.Builder
	b.WriteString("\n\nFullName,Age\n")
	for i := range 100 {
		fmt.Fprintf(&b, "P%d,%d\n\n", i, i)
	}

	s, err := ReadStreaming[testPerson](context.Background(), imp, NewBytesFile("p.csv", "", []byte(b.String())))
	require.NoError(t, err)

	rows := 0
	for range s.All() {
		rows++
	}
	require.Equal(t, 100, rows)
	assert.Equal(t, 2, yields, "headers and blank lines do not advance the cadence")
}

func TestReadStreaming_ContextCancelledAtYieldPoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := trackedCSV("p.csv", generatePeopleCSV(500))
	s, err := ReadStreaming[testPerson](ctx, newTestImporter(), f)
	require.NoError(t, err)

	rows := 0
	for range s.All() {
		rows++
		if rows == 10 {
			cancel()
		}
	}
	assert.Equal(t, 49, rows, "the stream stops at the next yield point")
	assert.ErrorIs(t, s.Err(), context.Canceled)
	assert.True(t, f.closed)
}

func TestReadStreaming_NoSizeCeiling(t *testing.T) {
	f := &recordingFile{name: "p.csv", size: DefaultMaxFileSize * 4, data: []byte("FullName\nAlice\n")}

	s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), f)
	require.NoError(t, err)

	n := 0
	for range s.All() {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestReadStreaming_Preconditions(t *testing.T) {
	ctx := context.Background()
	imp := newTestImporter()

	_, err := ReadStreaming[testPerson](ctx, imp, nil)
	assert.ErrorIs(t, err, ErrNoFile)

	empty := &recordingFile{name: "p.csv"}
	_, err = ReadStreaming[testPerson](ctx, imp, empty)
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.False(t, empty.opened)

	unknown := &recordingFile{name: "p.pdf", size: 4, data: []byte("%PDF")}
	_, err = ReadStreaming[testPerson](ctx, imp, unknown)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, unknown.opened)
}

func TestReadStreaming_ObjectListIsCapabilityError(t *testing.T) {
	for _, name := range []string{"people.json", "people.yaml", "people.json.gz"} {
		t.Run(name, func(t *testing.T) {
			f := &recordingFile{name: name, size: 2, data: []byte("[]")}
			s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), f)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrStreamingUnsupported)
			assert.False(t, IsPrecondition(err))
			assert.False(t, f.opened)
		})
	}
}

func TestReadStreaming_XLSX(t *testing.T) {
	s, err := ReadStreaming[testPerson](context.Background(), newTestImporter(), peopleWorkbook(t))
	require.NoError(t, err)

	var rows []int
	var names []string
	for o := range s.All() {
		rows = append(rows, o.Row)
		if o.OK {
			names = append(names, o.Record.Name)
		}
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []int{2, 3, 5}, rows, "row indexes keep counting across sheets")
	assert.Equal(t, []string{"Alice", "Carol"}, names)
	assert.Equal(t, "Jane Doe", s.Metadata().Author)
}
