package orderedmap

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const hexDigits = "0123456789abcdef"

// MarshalJSON encodes the map as a JSON object whose keys are the decimal ids
// in ascending numeric order. String values keep their bytes as stored: only
// the quote, the backslash and control characters are escaped.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	m.Range(func(key int64, value V) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		buf.WriteByte('"')
		buf.WriteString(strconv.FormatInt(key, 10))
		buf.WriteString(`":`)

		err = writeValue(&buf, value)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case string:
		writeString(buf, v)
		return nil
	case json.Marshaler:
		b, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// writeString quotes s without validating or re-encoding it, so invalid
// UTF-8 and characters such as U+2028 reach the output unchanged.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		buf.WriteString(s[start:i])
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0xF])
		}
		start = i + 1
	}
	buf.WriteString(s[start:])
	buf.WriteByte('"')
}
