package record

import (
	"bytes"
	"strings"
)

// Decoded is the result of decoding a delimited text blob.
type Decoded struct {
	Header  []string
	Records RecordSet
	Skipped []*MalformedRecordError
}

// Encode writes a header line naming every column followed by one line per record.
// Values containing the delimiter are wrapped in quotes; nothing else is escaped,
// so a value carrying a quote character does not survive a round trip.
func Encode(s Schema, set RecordSet) []byte {
	var buf bytes.Buffer
	writeLine(&buf, s.Columns)
	for _, r := range set {
		writeLine(&buf, s.Values(r))
	}
	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, values []string) {
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(Delimiter)
		}
		if strings.IndexByte(v, Delimiter) >= 0 {
			buf.WriteByte(Quote)
			buf.WriteString(v)
			buf.WriteByte(Quote)
			continue
		}
		buf.WriteString(v)
	}
	buf.WriteByte('\n')
}

// Decode parses data produced by Encode. The first non-blank line is the header.
// Rows with fewer fields than the schema minimum are skipped and reported;
// short rows above the minimum are padded with empty values and extra fields are dropped.
func Decode(s Schema, data []byte) *Decoded {
	out := &Decoded{Records: RecordSet{}}
	want := s.minColumns()

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := SplitLine(line)
		if out.Header == nil {
			out.Header = fields
			continue
		}
		if len(fields) < want {
			out.Skipped = append(out.Skipped, &MalformedRecordError{Line: i + 1, Columns: len(fields), Want: want})
			continue
		}
		r := make(Record, len(s.Columns))
		for j, c := range s.Columns {
			if j < len(fields) {
				r[c] = fields[j]
			} else {
				r[c] = ""
			}
		}
		out.Records = append(out.Records, r)
	}
	return out
}

// SplitLine splits one line into fields. A delimiter is a boundary only outside
// quotes; a quote toggles the quoted state and is never part of the field.
func SplitLine(line string) []string {
	var (
		fields []string
		field  strings.Builder
		quoted bool
	)
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == Quote:
			quoted = !quoted
		case c == Delimiter && !quoted:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, field.String())
}

// HeaderMatches reports whether a decoded header names the schema columns in order.
func (s Schema) HeaderMatches(header []string) bool {
	if len(header) != len(s.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if strings.TrimSpace(header[i]) != c {
			return false
		}
	}
	return true
}
