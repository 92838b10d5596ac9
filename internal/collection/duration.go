package collection

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a YAML-encoded duration using the "<int><unit>" format from
// spec.md §6, with units s|m|h|d. Sub-second precision is lost on
// serialize: it is always emitted in whole seconds.
type Duration time.Duration

var durationUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseDuration parses the "<int><unit>" encoding. Invalid inputs produce a
// canonical error message naming the accepted unit set.
func ParseDuration(s string) (Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q: expected <int><unit> with unit in s|m|h|d", s)
	}
	unit, ok := durationUnits[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: expected <int><unit> with unit in s|m|h|d", s)
	}
	n, err := strconv.ParseInt(strings.TrimSuffix(s, s[len(s)-1:]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: expected <int><unit> with unit in s|m|h|d", s)
	}
	return Duration(time.Duration(n) * unit), nil
}

// String renders the duration back to its canonical "<n>s" form. Sub-second
// components round down, per spec.md §6 ("400ms → 0s", "1999ms → 1s").
func (d Duration) String() string {
	seconds := int64(time.Duration(d) / time.Second)
	return fmt.Sprintf("%ds", seconds)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
