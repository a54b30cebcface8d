package domain

import (
	"fmt"
	"strings"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
)

// Sign is the sign of an influence. Unknown influences are left to the
// solver, which may pick either sign.
type Sign int

const (
	Unknown  Sign = 0
	Positive Sign = 1
	Negative Sign = -1
)

func (s Sign) String() string {
	switch s {
	case Positive:
		return "+"
	case Negative:
		return "-"
	}
	return "?"
}

var signOfLabels = map[string]Sign{
	"1":           Positive,
	"-1":          Negative,
	"->":          Positive,
	"-|":          Negative,
	"+":           Positive,
	"-":           Negative,
	"+1":          Positive,
	"ukn":         Unknown,
	"?":           Unknown,
	"unspecified": Unknown,
}

// SignOfLabel returns the sign denoted by an edge label. Integer labels
// must be 1, -1 or 0. String labels are first looked up in the table of
// known labels, then matched by prefix: "act…" and "stim…" are positive,
// "inh…" is negative. Anything else is a *bonesis.ValueError.
func SignOfLabel(label interface{}) (Sign, error) {
	switch l := label.(type) {
	case Sign:
		return signOfInt(int(l), label)
	case int:
		return signOfInt(l, label)
	case int64:
		return signOfInt(int(l), label)
	case string:
		if s, ok := signOfLabels[l]; ok {
			return s, nil
		}
		lower := strings.ToLower(l)
		if strings.HasPrefix(lower, "act") || strings.HasPrefix(lower, "stim") {
			return Positive, nil
		}
		if strings.HasPrefix(lower, "inh") {
			return Negative, nil
		}
	}
	return Unknown, &bonesis.ValueError{Value: label, Msg: "unknown sign label " + quoteLabel(label)}
}

func signOfInt(i int, label interface{}) (Sign, error) {
	switch i {
	case 1:
		return Positive, nil
	case -1:
		return Negative, nil
	case 0:
		return Unknown, nil
	}
	return Unknown, &bonesis.ValueError{Value: label, Msg: "unknown sign label " + quoteLabel(label)}
}

func quoteLabel(label interface{}) string {
	if s, ok := label.(string); ok {
		return "'" + s + "'"
	}
	return fmt.Sprintf("%v", label)
}
