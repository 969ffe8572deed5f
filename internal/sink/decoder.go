package sink

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"relay/internal/message"
)

// Decoder reads records back from an ndjson or msgpack archive.
type Decoder struct {
	format Format
	json   *json.Decoder
	mp     *msgpack.Decoder
}

// NewDecoder creates a decoder for r. Text archives cannot be decoded.
func NewDecoder(r io.Reader, format Format) (*Decoder, error) {
	d := &Decoder{format: format}
	switch format {
	case FormatNDJSON:
		d.json = json.NewDecoder(bufio.NewReader(r))
	case FormatMsgpack:
		d.mp = msgpack.NewDecoder(bufio.NewReader(r))
	default:
		return nil, fmt.Errorf("cannot decode %s archives", format)
	}
	return d, nil
}

// Next returns the next record, or io.EOF at the end of the archive.
func (d *Decoder) Next() (message.Record, error) {
	var r message.Record
	var err error
	if d.json != nil {
		err = d.json.Decode(&r)
	} else {
		err = d.mp.Decode(&r)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return message.Record{}, io.EOF
		}
		return message.Record{}, fmt.Errorf("decode %s record: %w", d.format, err)
	}
	return r, nil
}

// ReadArchive decodes every record of the archive at path, detecting the
// format from its extension, and calls fn with the rebuilt message.
func ReadArchive(path string, fn func(*message.Message)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := NewDecoder(f, DetectFormat(path))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	n := 0
	for {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%s: record %d: %w", path, n+1, err)
		}
		m, err := message.FromRecord(rec)
		if err != nil {
			return n, fmt.Errorf("%s: record %d: %w", path, n+1, err)
		}
		fn(m)
		n++
	}
}
