package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRunRe = regexp.MustCompile(`[0-9.,]*[0-9][0-9.,]*`)

// NormalizePrice turns a raw price string such as "R$ 1.234,56" into a
// plain decimal string ("1234.56"). It returns "" when raw holds no
// parseable amount.
//
// When both '.' and ',' appear, the one appearing last is the decimal mark.
// A lone separator is the decimal mark; a repeated one groups thousands.
// Only the first amount in raw is considered.
func NormalizePrice(raw string) string {
	run := priceRunRe.FindString(strings.Join(strings.Fields(raw), ""))
	run = strings.TrimRight(run, ".,")
	if run == "" {
		return ""
	}

	dots, commas := strings.Count(run, "."), strings.Count(run, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(run, ",") > strings.LastIndex(run, ".") {
			run = strings.ReplaceAll(run, ".", "")
			run = strings.ReplaceAll(run, ",", ".")
		} else {
			run = strings.ReplaceAll(run, ",", "")
		}
	case commas == 1:
		run = strings.Replace(run, ",", ".", 1)
	case commas > 1:
		run = strings.ReplaceAll(run, ",", "")
	case dots > 1:
		run = strings.ReplaceAll(run, ".", "")
	}

	if _, err := strconv.ParseFloat(run, 64); err != nil {
		return ""
	}
	return run
}
