package ingest

import (
	"io"

	"appimagefinder/internal/adapters/ingest/gharchive"
	"appimagefinder/internal/services/finder/domain"
)

// readerFactory adapts gharchive.NewReader to domain.ReaderFactory, keeping
// only ReleaseEvent lines
type readerFactory struct{}

// NewReaderFactory returns a factory that wraps gharchive.NewReader
func NewReaderFactory() domain.ReaderFactory { return readerFactory{} }

func (readerFactory) New(rc io.ReadCloser) (domain.ReaderPort, error) {
	r, err := gharchive.NewReader(rc, gharchive.WithTypeFilter(gharchive.ReleaseEventType))
	if err != nil {
		return nil, err
	}
	return &reader{r: r}, nil
}

type reader struct{ r *gharchive.Reader }

func (r *reader) Next() (domain.EventEnvelope, error) { return r.r.Next() }

func (r *reader) Close() error { return r.r.Close() }

func (r *reader) Stats() (lines, malformed int, bytes int64) {
	s := r.r.Stats()
	return s.Lines, s.Malformed, s.Bytes
}
