package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// csvSource reads delimited text. Row indexes are physical line numbers, so
// blank lines advance the index without producing rows.
type csvSource struct {
	r *csv.Reader
}

func openDelimited(comma rune) func(in *input, _ readOptions) (rowSource, error) {
	return func(in *input, _ readOptions) (rowSource, error) {
		r := csv.NewReader(newTextReader(in.r))
		r.Comma = comma
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		r.ReuseRecord = true
		return &csvSource{r: r}, nil
	}
}

func (s *csvSource) next() (int, []string, bool, error) {
	rec, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, false, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return 0, nil, false, fmt.Errorf("invalid csv: %w", err)
		}
		return 0, nil, false, err
	}
	line, _ := s.r.FieldPos(0)
	return line, rec, false, nil
}

func (s *csvSource) metadata() FileMetadata { return FileMetadata{} }

func (s *csvSource) Close() error { return nil }
