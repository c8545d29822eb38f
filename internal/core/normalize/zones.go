package normalize

import "strings"

// ZoneType identifies parts of a mail body that are not the sender's request
type ZoneType string

const (
	// ZoneQuote is a quoted reply line starting with '>'
	ZoneQuote ZoneType = "quote"
	// ZoneSignature runs from a "-- " delimiter line to the end
	ZoneSignature ZoneType = "signature"
	// ZoneReplyHeader is an "On ... wrote:" attribution line
	ZoneReplyHeader ZoneType = "reply_header"
)

// ZoneSpan is a byte range [Start,End) over the scanned text
type ZoneSpan struct {
	Type       ZoneType
	Start, End int
}

// DetectZones scans raw mail text line by line
func DetectZones(text string) []ZoneSpan {
	var out []ZoneSpan
	start := 0
	for start < len(text) {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}
		line := strings.TrimRight(text[start:end], "\r")
		trimmed := strings.TrimSpace(line)
		switch {
		case line == "-- " || trimmed == "--":
			return append(out, ZoneSpan{Type: ZoneSignature, Start: start, End: len(text)})
		case strings.HasPrefix(trimmed, ">"):
			out = append(out, ZoneSpan{Type: ZoneQuote, Start: start, End: end})
		case strings.HasPrefix(strings.ToLower(trimmed), "on ") && strings.HasSuffix(trimmed, "wrote:"):
			out = append(out, ZoneSpan{Type: ZoneReplyHeader, Start: start, End: end})
		}
		start = end + 1
	}
	return out
}

// StripQuoted removes quoted replies, attributions and signatures from a mail body
func StripQuoted(text string) string {
	zones := DetectZones(text)
	if len(zones) == 0 {
		return strings.TrimSpace(text)
	}
	var b strings.Builder
	prev := 0
	for _, z := range zones {
		if z.Start > prev {
			b.WriteString(text[prev:z.Start])
		}
		prev = z.End
	}
	if prev < len(text) {
		b.WriteString(text[prev:])
	}
	return strings.TrimSpace(b.String())
}
