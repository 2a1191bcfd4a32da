package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"
)

// Row is one raw CSV record keyed by trimmed header name. When Err is set the
// record could not be parsed and Values is nil; the stream continues past it,
// the consumer decides whether to abort.
type Row struct {
	Values map[string]string
	Record int
	Err    error
}

// StreamRows reads r incrementally and sends one Row per CSV record on the
// returned channel. The first record is the header; a leading byte-order mark
// and surrounding whitespace are stripped from header names. Empty lines are
// skipped. The channel is unbuffered so a slow consumer (a batch flush in
// flight) blocks the reader, keeping the working set bounded regardless of
// file size. The channel is closed when the input is exhausted or ctx is
// canceled.
func StreamRows(ctx context.Context, r io.Reader) <-chan Row {
	out := make(chan Row)

	go func() {
		defer close(out)

		reader := csv.NewReader(bufio.NewReader(r))
		// Exports from different municipality systems pad or drop trailing
		// columns; length mismatches are tolerated, missing cells become "".
		reader.FieldsPerRecord = -1

		header, err := reader.Read()
		if err != nil {
			if err != io.EOF {
				emit(ctx, out, Row{Record: 1, Err: err})
			}
			return
		}
		for i, name := range header {
			header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		}

		record := 1
		for {
			fields, err := reader.Read()
			record++
			if err == io.EOF {
				return
			}
			if err != nil {
				if !emit(ctx, out, Row{Record: record, Err: err}) {
					return
				}
				continue
			}
			if isBlank(fields) {
				continue
			}

			values := make(map[string]string, len(header))
			for i, name := range header {
				if i < len(fields) {
					values[name] = fields[i]
				} else {
					values[name] = ""
				}
			}
			if !emit(ctx, out, Row{Values: values, Record: record}) {
				return
			}
		}
	}()

	return out
}

func emit(ctx context.Context, out chan<- Row, row Row) bool {
	select {
	case out <- row:
		return true
	case <-ctx.Done():
		return false
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
