package param

import (
	"fmt"
	"strings"
)

// Choice creates a list parameter selecting one of ids. names are shown by
// the formatter; both ids and names are accepted by the parser.
func Choice(id, name string, ids, names []string, defaultIndex int) *Builder {
	formatter := func(value float64) string {
		index := int(value)
		if index >= 0 && index < len(names) {
			return names[index]
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for i, optID := range ids {
			if strings.EqualFold(str, optID) {
				return float64(i), nil
			}
		}
		for i, optName := range names {
			if strings.EqualFold(str, optName) {
				return float64(i), nil
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	b := New(id, name).
		Range(0, float64(len(ids)-1)).
		Steps(int32(max(len(ids)-1, 1))).
		Default(float64(defaultIndex)).
		Formatter(formatter, parser)
	b.param.Options = append([]string(nil), ids...)
	b.param.Flags |= IsList
	return b
}

// IntParameter creates a whole number parameter
func IntParameter(id, name string, min, max, defaultVal int) *Builder {
	return New(id, name).
		Range(float64(min), float64(max)).
		Steps(int32(max - min)).
		Default(float64(defaultVal))
}

// FrequencyParameter creates a frequency parameter in Hz
func FrequencyParameter(id, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// TimeParameter creates a time parameter in seconds
func TimeParameter(id, name string, maxSeconds, defaultSeconds float64) *Builder {
	return New(id, name).
		Range(0, maxSeconds).
		Default(defaultSeconds).
		Unit("s").
		Formatter(TimeFormatter, TimeParser)
}

// LevelParameter creates a 0-1 level shown as percent
func LevelParameter(id, name string, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultVal).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}
