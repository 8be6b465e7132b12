package formatter

import (
	"encoding/csv"
	"io"

	eventdomain "github.com/railzwaylabs/audittrail/internal/eventlog/domain"
)

// csvFormatter writes one header row plus one row per record. encoding/csv
// applies standard quoting: fields containing the delimiter, quotes, or line
// breaks are quoted with embedded quotes doubled.
type csvFormatter struct {
	w    *csv.Writer
	rows int64
}

func (f *csvFormatter) Begin(w io.Writer) error {
	f.w = csv.NewWriter(w)
	return f.w.Write(header)
}

func (f *csvFormatter) Write(rec *eventdomain.Record) error {
	if err := f.w.Write(recordRow(rec)); err != nil {
		return err
	}
	f.rows++
	return nil
}

func (f *csvFormatter) End() (int64, error) {
	f.w.Flush()
	return f.rows, f.w.Error()
}
