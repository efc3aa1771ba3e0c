package nmea

import (
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// Format builds "$f0,f1,...*CC" from its fields, without line terminator.
func Format(fields ...string) string {
	body := strings.Join(fields, ",")
	return "$" + body + "*" + gonmea.Checksum(body)
}

// AppendFormatted appends the sentence built by Format plus "\r\n" to dst.
func AppendFormatted(dst []byte, fields ...string) []byte {
	dst = append(dst, Format(fields...)...)
	return append(dst, '\r', '\n')
}
