package value

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/memory"
)

// whitespace as the module's host language defines it for number parsing
const ws = `[\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`

var (
	strictNumber = regexp.MustCompile(`^` + ws + `*[+-]?(?:Infinity|NaN|(?:\.\d+|\d+(?:\.\d*)?)(?:[eE][+-]?\d+)?)` + ws + `*$`)
	floatPrefix  = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?)`)
	leadingWS    = regexp.MustCompile(`^` + ws + `+`)
	trailingWS   = regexp.MustCompile(ws + `+$`)
)

// TrimSpace removes leading and trailing whitespace.
func TrimSpace(s string) string {
	return TrimEnd(TrimStart(s))
}

// TrimStart removes leading whitespace.
func TrimStart(s string) string {
	return leadingWS.ReplaceAllString(s, "")
}

// TrimEnd removes trailing whitespace.
func TrimEnd(s string) string {
	return trailingWS.ReplaceAllString(s, "")
}

// ParseNumber parses the strict decimal grammar: optional sign, then
// Infinity, NaN or a decimal literal with optional exponent, surrounded by
// optional whitespace. Anything else yields NaN, never an error.
func ParseNumber(s string) float64 {
	if !strictNumber.MatchString(s) {
		return math.NaN()
	}
	return parseDecimal(TrimSpace(s))
}

// ParseFloat parses the longest decimal prefix after leading whitespace,
// NaN if there is none.
func ParseFloat(s string) float64 {
	s = TrimStart(s)
	m := floatPrefix.FindString(s)
	if m == "" {
		return math.NaN()
	}
	return parseDecimal(m)
}

func parseDecimal(s string) float64 {
	neg := false
	body := s
	if body != "" && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}
	var f float64
	switch body {
	case "Infinity":
		f = math.Inf(1)
	case "NaN":
		return math.NaN()
	default:
		// out-of-range literals parse to ±Inf or 0, which is what we want
		f, _ = strconv.ParseFloat(body, 64)
	}
	if neg {
		f = -f
	}
	return f
}

// FormatNumber renders a number the way the module's host language does:
// integral values without a fraction, exponent form outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFixed formats f with digits fraction digits, rounding ties away from
// zero. digits must be in [0, 100].
func ToFixed(f float64, digits int) (string, error) {
	if digits < 0 || digits > 100 {
		return "", errors.InvalidInput(errors.PhaseRuntime, "toFixed() digits argument must be between 0 and 100")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
		return FormatNumber(f), nil
	}

	r := new(big.Rat).SetFloat64(math.Abs(f))
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)))
	r.Add(r, big.NewRat(1, 2))
	s := new(big.Int).Quo(r.Num(), r.Denom()).String()

	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if f < 0 {
		s = "-" + s
	}
	return s, nil
}

// ToNumber implements numeric conversion.
func ToNumber(v Value) float64 {
	switch x := v.raw.(type) {
	case nil:
		return math.NaN()
	case NullType:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		t := TrimSpace(x)
		if t == "" {
			return 0
		}
		if len(t) > 2 && t[0] == '0' {
			base := 0
			switch t[1] {
			case 'x', 'X':
				base = 16
			case 'o', 'O':
				base = 8
			case 'b', 'B':
				base = 2
			}
			if base != 0 {
				n, err := strconv.ParseUint(t[2:], base, 64)
				if err != nil {
					return math.NaN()
				}
				return float64(n)
			}
		}
		return ParseNumber(t)
	case *Array:
		if x.Len() == 0 {
			return 0
		}
		if x.Len() == 1 {
			return ToNumber(String(ToString(x.At(0))))
		}
	}
	return math.NaN()
}

// ToString implements String(o).
func ToString(v Value) string {
	switch x := v.raw.(type) {
	case nil:
		return "undefined"
	case NullType:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case *Array:
		return x.Join(",")
	case *Object:
		if x.Class != "" {
			return "[object " + x.Class + "]"
		}
		return "[object Object]"
	case *memory.View:
		if x.IsDataView() {
			return "[object DataView]"
		}
		vals := x.Values()
		parts := make([]string, len(vals))
		for i, f := range vals {
			parts[i] = FormatNumber(f)
		}
		return strings.Join(parts, ",")
	case *memory.Buffer:
		if x.Ownership() == memory.Shared {
			return "[object SharedArrayBuffer]"
		}
		return "[object ArrayBuffer]"
	case error:
		return "Error: " + x.Error()
	case fmt.Stringer:
		return x.String()
	case Callable:
		return "function () { [native code] }"
	}
	return fmt.Sprint(v.raw)
}

// TypeOf returns the typeof name of a value.
func TypeOf(v Value) string {
	switch v.raw.(type) {
	case nil:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case Callable:
		return "function"
	}
	return "object"
}
