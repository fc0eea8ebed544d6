// Package uploads pulls upload-attribution records out of the request
// table rendered by PHPMarietje.
package uploads

import (
	"fmt"
	"strings"
)

// Record attributes one track to the user who uploaded it. Artist and
// Title are only known to the table extractor.
type Record struct {
	ID       int64
	Uploader string
	Artist   string
	Title    string
}

// DefaultTableClass is the class of the request table on request.php.
const DefaultTableClass = "requests"

// Strategy names one of the extractors.
type Strategy string

const (
	// StrategyRegex matches rows line by line with a regular expression,
	// it only needs the markup to follow the layout request.php renders.
	StrategyRegex Strategy = "regex"
	// StrategyTable parses the document and walks the rows of the request
	// table.
	StrategyTable Strategy = "table"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyRegex:
		return StrategyRegex, nil
	case StrategyTable:
		return StrategyTable, nil
	}
	return "", fmt.Errorf("unknown parser %q (expected %q or %q)", s, StrategyRegex, StrategyTable)
}

// String implements pflag.Value.
func (s Strategy) String() string {
	return string(s)
}

// Set implements pflag.Value.
func (s *Strategy) Set(value string) error {
	parsed, err := ParseStrategy(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s Strategy) Type() string {
	return "parser"
}
