package gharchive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/logger"

	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/gjson"
)

const (
	// DefaultMaxLineBytes bounds one archive line; longer lines are skipped as malformed
	DefaultMaxLineBytes = 32 * 1024 * 1024
	readBufferSize      = 512 * 1024
	sampleRawMax        = 2048 // max bytes of raw JSON to log for the sample
)

var errLineTooLong = errors.New("line exceeds size limit")

// ReaderStats counts what a Reader saw in one shard
type ReaderStats struct {
	Lines     int   // non-empty lines scanned
	Events    int   // lines decoded and returned
	Skipped   int   // valid lines dropped by the type pre-screen
	Malformed int   // lines that failed to decode
	Bytes     int64 // uncompressed bytes scanned, newlines included
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithTypeFilter keeps only events whose "type" equals t. The check runs on
// the raw line so other events are never fully decoded
func WithTypeFilter(t string) ReaderOption {
	return func(r *Reader) { r.typeFilter = t }
}

// WithMaxLineBytes overrides DefaultMaxLineBytes
func WithMaxLineBytes(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// Reader streams EventEnvelope items from one gzip shard
type Reader struct {
	r          io.ReadCloser
	gz         *gzip.Reader
	br         *bufio.Reader
	line       []byte
	maxLine    int
	err        error
	typeFilter string
	stats      ReaderStats
	sampled    bool // logs exactly one sample raw line per shard
	log        *logger.Logger
}

// NewReader wraps a compressed stream. Concatenated gzip members are read as one stream
func NewReader(r io.ReadCloser, opts ...ReaderOption) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		_ = r.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeShardUnavailable, "gharchive: open gzip stream")
	}
	rd := &Reader{
		r:       r,
		gz:      gz,
		br:      bufio.NewReaderSize(gz, readBufferSize),
		maxLine: DefaultMaxLineBytes,
		log:     logger.Named("gharchive"),
	}
	for _, o := range opts {
		o(rd)
	}
	return rd, nil
}

// Next returns the next decodable event; io.EOF when the shard is exhausted.
// Malformed and oversized lines are counted and skipped. A broken compressed
// stream is reported as an error after the lines read so far
func (rd *Reader) Next() (EventEnvelope, error) {
	if rd.err != nil {
		return EventEnvelope{}, rd.err
	}
	for {
		line, long, err := rd.readLine()
		if errors.Is(err, io.EOF) {
			rd.err = io.EOF
			return EventEnvelope{}, io.EOF
		}
		if err != nil {
			rd.err = perr.Wrap(err, perr.ErrorCodeShardUnavailable, "gharchive: read shard")
			return EventEnvelope{}, rd.err
		}
		if long {
			rd.stats.Lines++
			rd.malformed(line, errLineTooLong)
			continue
		}
		if len(line) == 0 {
			continue
		}
		rd.stats.Lines++

		if !gjson.ValidBytes(line) {
			rd.malformed(line, errors.New("invalid json"))
			continue
		}
		if rd.typeFilter != "" && gjson.GetBytes(line, "type").String() != rd.typeFilter {
			rd.stats.Skipped++
			continue
		}

		var env EventEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			rd.malformed(line, err)
			continue
		}
		rd.stats.Events++

		if !rd.sampled {
			rd.sampled = true
			rd.log.Debug().
				Int("line_bytes", len(line)).
				Str("sample_raw", truncateUTF8(line, sampleRawMax)).
				Msg("gharchive: sample raw line")
		}
		return env, nil
	}
}

// readLine returns the next line without its line ending. A line longer than
// maxLine is drained to its newline and reported with long set and only its
// head kept. io.EOF is returned once no bytes remain
func (rd *Reader) readLine() (line []byte, long bool, err error) {
	rd.line = rd.line[:0]
	read := 0
	for {
		frag, err := rd.br.ReadSlice('\n')
		read += len(frag)
		rd.stats.Bytes += int64(len(frag))
		if !long {
			if len(rd.line)+len(frag) > rd.maxLine+2 {
				long = true
				if keep := sampleRawMax - len(rd.line); keep > 0 {
					rd.line = append(rd.line, frag[:min(keep, len(frag))]...)
				}
			} else {
				rd.line = append(rd.line, frag...)
			}
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if read == 0 {
				return nil, false, io.EOF
			}
		case err != nil:
			return nil, false, err
		}
		if long {
			return rd.line, true, nil
		}
		line = bytes.TrimSuffix(rd.line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) > rd.maxLine {
			return line, true, nil
		}
		return line, false, nil
	}
}

// malformed counts a bad line and logs it at trace level
func (rd *Reader) malformed(line []byte, err error) {
	rd.stats.Malformed++
	rd.log.Trace().
		Err(perr.Wrap(err, perr.ErrorCodeMalformedEventLine, "skip line")).
		Str("raw", truncateUTF8(line, 256)).
		Msg("gharchive: malformed line")
}

// Close closes the gzip stream and the underlying reader
func (rd *Reader) Close() error {
	var first error
	if rd.gz != nil {
		if err := rd.gz.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			first = err
		}
	}
	if rd.r != nil {
		if err := rd.r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats returns counters for the shard so far
func (rd *Reader) Stats() ReaderStats { return rd.stats }

// truncateUTF8 returns b truncated to at most max bytes on a rune boundary,
// with an ellipsis when something was cut
func truncateUTF8(b []byte, max int) string {
	if max <= 0 || len(b) <= max {
		return string(b)
	}
	i := max
	for i > 0 && (b[i]&0xC0) == 0x80 {
		i--
	}
	if i <= 0 {
		i = max
	}
	return string(b[:i]) + "..."
}
