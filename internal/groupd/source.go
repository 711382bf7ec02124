package groupd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kbukum/streamgroup/errors"
)

// Record is one input document, kept as the raw JSON it arrived as.
type Record = json.RawMessage

// recordSource reads newline-delimited JSON records. Blank lines are
// skipped. It implements pipeline.Iterator[Record].
type recordSource struct {
	r        *bufio.Reader
	body     io.Closer
	maxItems int

	line  int
	count int
	done  bool
}

func newRecordSource(body io.ReadCloser, maxItems int) *recordSource {
	return &recordSource{r: bufio.NewReader(body), body: body, maxItems: maxItems}
}

// Next returns the next record. Malformed lines fail with INVALID_FORMAT
// naming the 1-based line number.
func (s *recordSource) Next(ctx context.Context) (Record, bool, error) {
	for !s.done {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		raw, err := s.r.ReadBytes('\n')
		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				return nil, false, readError(err)
			}
			s.done = true
		}
		if len(raw) == 0 && s.done {
			break
		}
		s.line++

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		if !json.Valid(raw) {
			return nil, false, apperrors.InvalidRecord(s.line, fmt.Errorf("malformed JSON"))
		}
		if s.maxItems > 0 && s.count >= s.maxItems {
			return nil, false, apperrors.InvalidInput("body", fmt.Sprintf("more than %d records", s.maxItems)).
				WithDetail("max_items", s.maxItems)
		}
		s.count++
		return Record(raw), true, nil
	}
	return nil, false, nil
}

// Close closes the request body.
func (s *recordSource) Close() error {
	return s.body.Close()
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return apperrors.PayloadTooLarge(tooLarge.Limit).WithCause(err)
	}
	return apperrors.SourceFailed(err)
}
