package sink

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"relay/internal/message"
)

// Format represents the output format of a sink.
type Format uint8

const (
	FormatAuto    Format = iota // detect from the output path
	FormatText                  // human-readable lines
	FormatNDJSON                // newline-delimited JSON records
	FormatMsgpack               // concatenated msgpack records
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("invalid format: %q (expected: auto|text|ndjson|msgpack)", s)
	}
}

// DetectFormat picks a format from a file extension, defaulting to text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl", ".json":
		return FormatNDJSON
	case ".msgpack", ".mp":
		return FormatMsgpack
	default:
		return FormatText
	}
}

// FormatRecord encodes one record.
func FormatRecord(r message.Record, format Format) ([]byte, error) {
	switch format {
	case FormatNDJSON:
		data, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatMsgpack:
		return msgpack.Marshal(&r)
	default:
		return formatText(r), nil
	}
}

// formatText formats a record as one human-readable line.
// Format: [time] Kind: text (origin) caused by: cause
func formatText(r message.Record) []byte {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(r.Created.Format("15:04:05.000"))
	sb.WriteString("] ")
	sb.WriteString(r.Kind)
	sb.WriteString(": ")
	sb.WriteString(r.Text)
	if r.Origin != "" {
		sb.WriteString(" (")
		sb.WriteString(r.Origin)
		sb.WriteString(")")
	}
	if r.Cause != "" {
		sb.WriteString(" caused by: ")
		sb.WriteString(r.Cause)
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
