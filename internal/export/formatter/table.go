package formatter

import (
	"io"
	"strings"
	"time"

	eventdomain "github.com/railzwaylabs/audittrail/internal/eventlog/domain"
	"github.com/xuri/excelize/v2"
)

const (
	metaSheet    = "Export"
	recordsSheet = "Records"
)

// tableFormatter produces an xlsx workbook: one sheet describing the job
// parameters and one sheet of records. Rows go through excelize's stream
// writer, which spools to a temp file instead of holding the sheet in memory.
type tableFormatter struct {
	meta Metadata

	out     io.Writer
	file    *excelize.File
	sw      *excelize.StreamWriter
	nextRow int
	rows    int64
}

func newTableFormatter(meta Metadata) *tableFormatter {
	return &tableFormatter{meta: meta}
}

func (f *tableFormatter) Begin(w io.Writer) error {
	f.out = w
	f.file = excelize.NewFile()
	f.file.SetSheetName("Sheet1", metaSheet)

	if err := f.writeMetadata(); err != nil {
		return err
	}

	if _, err := f.file.NewSheet(recordsSheet); err != nil {
		return err
	}
	sw, err := f.file.NewStreamWriter(recordsSheet)
	if err != nil {
		return err
	}
	f.sw = sw
	f.nextRow = 1

	return f.writeRow(rowValues(header))
}

func (f *tableFormatter) writeMetadata() error {
	rows := [][]any{
		{"Job ID", f.meta.JobID},
		{"Organization", f.meta.OrgID},
		{"Format", string(f.meta.Format)},
		{"Date From", f.meta.DateFrom.UTC().Format(time.RFC3339)},
		{"Date To", f.meta.DateTo.UTC().Format(time.RFC3339)},
		{"Event Types", filterLabel(f.meta.EventTypes)},
		{"Entity Types", filterLabel(f.meta.EntityTypes)},
		{"Generated At", f.meta.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.file.SetSheetRow(metaSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (f *tableFormatter) Write(rec *eventdomain.Record) error {
	if err := f.writeRow(rowValues(recordRow(rec))); err != nil {
		return err
	}
	f.rows++
	return nil
}

func (f *tableFormatter) writeRow(values []any) error {
	// Stream writer rows are 1-based; row 1 is the header.
	cell, err := excelize.CoordinatesToCellName(1, f.nextRow)
	if err != nil {
		return err
	}
	if err := f.sw.SetRow(cell, values); err != nil {
		return err
	}
	f.nextRow++
	return nil
}

func (f *tableFormatter) End() (int64, error) {
	defer f.file.Close()

	if err := f.sw.Flush(); err != nil {
		return 0, err
	}
	if err := f.file.Write(f.out); err != nil {
		return 0, err
	}
	return f.rows, nil
}

func rowValues(row []string) []any {
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	return values
}

func filterLabel(values []string) string {
	if len(values) == 0 {
		return "all"
	}
	return strings.Join(values, ", ")
}
