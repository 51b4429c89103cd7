// Package ingest reads the merchant-leads workbook and converts its sheets
// into uniform records keyed by canonical field names.
package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pililokal/merchant-ops/internal/model"
)

// RawLead is one workbook row: trimmed cell values keyed by canonical field
// name, tagged with the sheet it came from. No validation happens at this
// layer; a row with no merchant name still produces a record.
type RawLead struct {
	SourceSheet model.SourceSheet
	Fields      map[string]string
}

// Get returns the value for a canonical field key, or "" when absent.
func (r RawLead) Get(key string) string {
	return r.Fields[key]
}

// Workbook is the parsed import file: all rows in fixed sheet order plus a
// per-sheet row count for import feedback.
type Workbook struct {
	Rows    []RawLead
	BySheet map[model.SourceSheet]int
}

// ReadWorkbook parses the leads workbook at path. Sheet names are matched
// case-insensitively with whitespace trimming; missing sheets are treated as
// empty, not errors. Sheets are parsed concurrently and reassembled in the
// fixed sheet order.
func ReadWorkbook(ctx context.Context, path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open workbook")
	}
	return readFile(ctx, f)
}

func readFile(ctx context.Context, f *xlsx.File) (*Workbook, error) {
	byName := make(map[string]*xlsx.Sheet, len(f.Sheets))
	for _, sheet := range f.Sheets {
		byName[strings.ToLower(strings.TrimSpace(sheet.Name))] = sheet
	}

	results := make([][]RawLead, len(model.SheetNames))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range model.SheetNames {
		sheet, ok := byName[strings.ToLower(strings.TrimSpace(string(name)))]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "ingest: context cancelled")
			}
			results[i] = SheetRows(sheet, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	wb := &Workbook{BySheet: make(map[model.SourceSheet]int)}
	for i, name := range model.SheetNames {
		wb.Rows = append(wb.Rows, results[i]...)
		if len(results[i]) > 0 {
			wb.BySheet[name] = len(results[i])
		}
	}
	return wb, nil
}

// SheetRows converts one worksheet into RawLeads tagged with sourceSheet.
// The first row is the header row; every value is trimmed, empty cells
// default to "". Empty sheets produce an empty slice.
func SheetRows(sheet *xlsx.Sheet, sourceSheet model.SourceSheet) []RawLead {
	if len(sheet.Rows) < 2 {
		return nil
	}

	keys := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		keys[i] = NormalizeHeader(cell.String())
	}

	rows := make([]RawLead, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		fields := make(map[string]string, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			var v string
			if i < len(row.Cells) {
				v = strings.TrimSpace(row.Cells[i].String())
			}
			if key == "category" {
				v = stripZeroWidth(v)
			}
			fields[key] = v
		}
		rows = append(rows, RawLead{SourceSheet: sourceSheet, Fields: fields})
	}
	return rows
}
