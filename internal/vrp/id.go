package vrp

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is an externally assigned point identifier. Callers may use either a
// string or an integer; both survive a JSON round trip in their original
// form. Inside the solver everything runs on dense indices, so an ID is only
// touched when parsing input and assembling output.
type ID struct {
	str   string
	num   int64
	isNum bool
}

// StringID wraps a string identifier.
func StringID(s string) ID { return ID{str: s} }

// IntID wraps an integer identifier.
func IntID(n int64) ID { return ID{num: n, isNum: true} }

func (id ID) String() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return []byte(strconv.Quote(id.str)), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return fmt.Errorf("vrp: empty point id")
	}
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("vrp: invalid point id %s: %w", s, err)
		}
		*id = StringID(unq)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("vrp: point id must be a string or an integer, got %s", s)
	}
	*id = IntID(n)
	return nil
}
