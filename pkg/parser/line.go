package parser

import (
	"regexp"
	"strings"
)

var (
	dateRegex   = regexp.MustCompile(`^(\d{2}/\d{2})`)
	amountRegex = regexp.MustCompile(`([\d,.]+)$`)
)

// SkipReason tells why a line did not become a transaction.
type SkipReason string

const (
	SkipSectionMarker  SkipReason = "section_marker"
	SkipOutsideSection SkipReason = "outside_section"
	SkipNoDate         SkipReason = "no_date"
	SkipNoAmount       SkipReason = "no_amount"
	SkipBadDate        SkipReason = "bad_date"
	SkipBadAmount      SkipReason = "bad_amount"
)

// LineFields are the raw tokens of a transaction line.
type LineFields struct {
	DateToken   string
	Description string
	AmountToken string
}

// LineResult is either accepted fields or the reason the line was skipped.
type LineResult struct {
	Fields LineFields
	Skip   SkipReason
}

func (r LineResult) OK() bool {
	return r.Skip == ""
}

// ClassifyLine splits a normalized line shaped like "DD/MM description 1.234,56".
// The description is everything between the first and the last token.
func ClassifyLine(line string) LineResult {
	dateMatch := dateRegex.FindStringSubmatch(line)
	if dateMatch == nil {
		return LineResult{Skip: SkipNoDate}
	}

	amountMatch := amountRegex.FindStringSubmatch(line)
	if amountMatch == nil {
		return LineResult{Skip: SkipNoAmount}
	}

	var description string
	if parts := strings.Fields(line); len(parts) > 2 {
		description = strings.Join(parts[1:len(parts)-1], " ")
	}

	return LineResult{
		Fields: LineFields{
			DateToken:   dateMatch[1],
			Description: description,
			AmountToken: amountMatch[1],
		},
	}
}
