package staleness

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// JSONLSink writes one record per line to an io.Writer.
//
// Records go through a 64 KiB buffer. A batch larger than the buffer
// reaches the writer before Flush; the rest of the batch is written by
// Flush. When the writer is a regular file, Flush also syncs it to disk.
type JSONLSink struct {
	out    io.Writer
	buf    *bufio.Writer
	stream *jsoniter.Stream
}

var _ RecordSink = (*JSONLSink)(nil)

// NewJSONLSink creates a sink writing to out.
func NewJSONLSink(out io.Writer) *JSONLSink {
	buf := bufio.NewWriterSize(out, 64*1024)
	return &JSONLSink{
		out:    out,
		buf:    buf,
		stream: jsoniter.NewStream(jsonConfig, buf, 512),
	}
}

// WriteRecord encodes r into the buffer.
func (s *JSONLSink) WriteRecord(_ context.Context, r Record) error {
	writeRecord(s.stream, r)
	s.stream.WriteRaw("\n")
	if err := s.stream.Flush(); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// Flush writes buffered records through and syncs regular files.
func (s *JSONLSink) Flush(_ context.Context) error {
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	f, ok := s.out.(*os.File)
	if !ok {
		return nil
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync output: %w", err)
	}
	return nil
}
