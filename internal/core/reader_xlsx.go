package core

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// xlsxSource walks the sheets of a workbook in order. Every sheet is a table
// with its own header row; row indexes keep counting across sheets.
type xlsxSource struct {
	f      *excelize.File
	sheets []string
	sheet  int
	rows   *excelize.Rows
	fresh  bool
	row    int
	meta   FileMetadata
}

func openXLSX(in *input, opts readOptions) (rowSource, error) {
	f, err := excelize.OpenReader(in.r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}

	sheets := f.GetSheetList()
	if opts.sheet != "" {
		sheets = selectSheet(sheets, opts.sheet)
		if sheets == nil {
			f.Close()
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.sheet)
		}
	}

	return &xlsxSource{f: f, sheets: sheets, meta: docMetadata(f)}, nil
}

func selectSheet(sheets []string, name string) []string {
	for _, s := range sheets {
		if strings.EqualFold(s, strings.TrimSpace(name)) {
			return []string{s}
		}
	}
	return nil
}

func (s *xlsxSource) next() (int, []string, bool, error) {
	for {
		if s.rows == nil {
			if s.sheet >= len(s.sheets) {
				return 0, nil, false, io.EOF
			}
			rows, err := s.f.Rows(s.sheets[s.sheet])
			if err != nil {
				return 0, nil, false, fmt.Errorf("sheet %q: %w", s.sheets[s.sheet], err)
			}
			s.rows, s.fresh = rows, true
		}

		if !s.rows.Next() {
			err := errors.Join(s.rows.Error(), s.rows.Close())
			s.rows = nil
			s.sheet++
			if err != nil {
				return 0, nil, false, fmt.Errorf("read sheet: %w", err)
			}
			continue
		}

		cells, err := s.rows.Columns()
		if err != nil {
			return 0, nil, false, fmt.Errorf("sheet %q: %w", s.sheets[s.sheet], err)
		}
		s.row++
		newTable := s.fresh
		s.fresh = false
		return s.row, cells, newTable, nil
	}
}

func (s *xlsxSource) metadata() FileMetadata { return s.meta }

func (s *xlsxSource) Close() error {
	var err error
	if s.rows != nil {
		err = s.rows.Close()
		s.rows = nil
	}
	return errors.Join(err, s.f.Close())
}

// docMetadata reads the workbook's core document properties. Missing or
// malformed properties are left blank.
func docMetadata(f *excelize.File) FileMetadata {
	props, err := f.GetDocProps()
	if err != nil || props == nil {
		return FileMetadata{}
	}
	return FileMetadata{
		Author:         props.Creator,
		LastModifiedBy: props.LastModifiedBy,
		CreatedAt:      parseDocTime(props.Created),
		ModifiedAt:     parseDocTime(props.Modified),
	}
}

func parseDocTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
