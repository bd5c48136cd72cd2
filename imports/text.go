package imports

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/jsstring"
	"github.com/wippyai/wasm-bridge/memory"
	"github.com/wippyai/wasm-bridge/value"
)

// Decoder is a UTF-8 text decoder. A fatal decoder rejects malformed input
// instead of substituting U+FFFD.
type Decoder struct {
	Fatal bool
}

// Decode converts b to a string, dropping a leading byte order mark.
func (d *Decoder) Decode(b []byte) (string, error) {
	if d.Fatal && !utf8.Valid(b) {
		return "", errors.InvalidUTF8(errors.PhaseRuntime, []string{"decode"}, b)
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	s, _, err := transform.String(dec, string(b))
	if err != nil {
		return "", errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "decode utf-8")
	}
	return s, nil
}

// RegExp is a compiled pattern with ECMAScript flags. LastIndex is in UTF-16
// code units and is only used by global and sticky patterns.
type RegExp struct {
	Source    string
	Flags     string
	LastIndex int

	re     *regexp2.Regexp
	global bool
	sticky bool
}

// CompileRegExp compiles source with the flags "dgimsuy".
func CompileRegExp(source, flags string) (*RegExp, error) {
	r := &RegExp{Source: source, Flags: flags}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'g':
			r.global = true
		case 'y':
			r.sticky = true
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			// dotAll is not available together with ECMAScript mode
			opts = opts&^regexp2.ECMAScript | regexp2.Singleline
		case 'u', 'd', 'v':
		default:
			return nil, errors.InvalidInput(errors.PhaseRuntime, "invalid regular expression flags '"+flags+"'")
		}
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, err
	}
	r.re = re
	return r, nil
}

func (r *RegExp) String() string { return "/" + r.Source + "/" + r.Flags }

// Exec runs the pattern against s honouring lastIndex for global and sticky
// patterns. It returns nil when there is no match.
func (r *RegExp) Exec(s string) (*value.Object, error) {
	runes := []rune(s)
	start := 0
	if r.global || r.sticky {
		if r.LastIndex > jsstring.Length(s) {
			r.LastIndex = 0
			return nil, nil
		}
		start = jsstring.RuneOffset(runes, r.LastIndex)
	}
	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, err
	}
	if m == nil || (r.sticky && m.Index != start) {
		if r.global || r.sticky {
			r.LastIndex = 0
		}
		return nil, nil
	}
	if r.global || r.sticky {
		r.LastIndex = jsstring.UnitOffset(runes, m.Index+m.Length)
	}

	out := value.NewObjectOf("RegExpMatch")
	groups := m.Groups()
	named := value.NewObject()
	for i, g := range groups {
		v := value.Undefined
		if len(g.Captures) > 0 {
			v = value.String(g.String())
		}
		out.Set(value.FormatNumber(float64(i)), v)
		if g.Name != value.FormatNumber(float64(i)) {
			named.Set(g.Name, v)
		}
	}
	out.Set("length", value.Number(float64(len(groups))))
	out.Set("index", value.Number(float64(jsstring.UnitOffset(runes, m.Index))))
	out.Set("input", value.String(s))
	if named.Len() > 0 {
		out.Set("groups", value.Of(named))
	}
	return out, nil
}

// Test reports whether the pattern matches, advancing lastIndex like Exec.
func (r *RegExp) Test(s string) (bool, error) {
	if r.global || r.sticky {
		m, err := r.Exec(s)
		return m != nil, err
	}
	return r.re.MatchString(s)
}

// Replace substitutes the first match, or every match for global patterns.
// The replacement is inserted as is: $1, $& and $<name> are not expanded.
func (r *RegExp) Replace(s, replacement string, all bool) (string, error) {
	count := 1
	if all || r.global {
		count = -1
	}
	return r.re.ReplaceFunc(s, func(regexp2.Match) string { return replacement }, -1, count)
}

func splitList(parts []string) *value.Array {
	out := value.NewArrayOf(len(parts))
	for i, p := range parts {
		out.Items[i] = value.String(p)
	}
	return out
}

// TextGroup covers decoding, encoding, number parsing, regular expressions
// and the string operations the module cannot do on its own.
func TextGroup() Group {
	return Group{
		Namespace: NSText,
		Slots: []Slot{
			Func("newDecoder", Params(Bool), Results(Handle), func(c *Call) {
				c.ReturnAny(&Decoder{Fatal: c.Bool(0)})
			}),
			Func("decode", Params(Handle, Handle), Results(Handle), func(c *Call) {
				d, ok := c.Value(0).Raw().(*Decoder)
				if !ok {
					c.typeError(0, "decoder")
				}
				s, err := d.Decode(viewArg(c, 1).Bytes())
				c.ReturnValue(value.String(must(c, s, err)))
			}),
			Func("decodeLinear", Params(Bool, I32, I32), Results(Handle), func(c *Call) {
				mem := c.Scope().Memory
				if mem == nil {
					c.Fail(errors.NotInitialized(errors.PhaseMarshal, "linear memory"))
				}
				b, err := mem.Read(c.U32(1), c.U32(2))
				b = must(c, b, err)
				s, err := (&Decoder{Fatal: c.Bool(0)}).Decode(b)
				c.ReturnValue(value.String(must(c, s, err)))
			}),
			Func("encode", Params(Handle), Results(Handle), func(c *Call) {
				b := []byte(jsstring.WellFormed(c.Str(0)))
				v, err := memory.ViewAll(memory.Uint8, memory.WrapBuffer(b, memory.Exclusive))
				c.ReturnAny(must(c, v, err))
			}),
			Func("encodeInto", Params(Handle, I32, I32), Results(I32), func(c *Call) {
				mem := c.Scope().Memory
				if mem == nil {
					c.Fail(errors.NotInitialized(errors.PhaseMarshal, "linear memory"))
				}
				b := []byte(jsstring.WellFormed(c.Str(0)))
				if uint32(len(b)) > c.U32(2) {
					c.Fail(errors.RangeOutOfBounds(errors.PhaseMarshal, []string{"encodeInto"}, 0, uint64(len(b)), uint64(c.U32(2))))
				}
				if err := mem.Write(c.U32(1), b); err != nil {
					c.Fail(err)
				}
				c.ReturnI32(int32(len(b)))
			}),
			Func("utf8Length", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(len(jsstring.WellFormed(c.Str(0)))))
			}),
			Func("parseNumber", Params(Handle), Results(F64), func(c *Call) {
				c.ReturnF64(value.ParseNumber(c.Str(0)))
			}),
			Func("parseFloat", Params(Handle), Results(F64), func(c *Call) {
				c.ReturnF64(value.ParseFloat(c.Str(0)))
			}),
			Func("formatNumber", Params(F64), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.FormatNumber(c.F64(0))))
			}),
			Func("toFixed", Params(F64, I32), Results(Handle), func(c *Call) {
				s, err := value.ToFixed(c.F64(0), c.Int(1))
				if err != nil {
					c.Fail(err)
				}
				c.ReturnValue(value.String(s))
			}),
			Func("regexp", Params(Handle, Handle), Results(Handle), func(c *Call) {
				re, err := CompileRegExp(c.Str(0), c.Str(1))
				if err != nil {
					// a malformed pattern is data for the module, not a trap
					c.ReturnValue(value.String(err.Error()))
					return
				}
				c.ReturnAny(re)
			}),
			Func("regexpExec", Params(Handle, Handle), Results(Handle), func(c *Call) {
				m, err := regexpArg(c, 0).Exec(c.Str(1))
				if err != nil {
					c.Fail(err)
				}
				if m == nil {
					c.ReturnValue(value.Null)
					return
				}
				c.ReturnAny(m)
			}),
			Func("regexpTest", Params(Handle, Handle), Results(Bool), func(c *Call) {
				ok, err := regexpArg(c, 0).Test(c.Str(1))
				if err != nil {
					c.Fail(err)
				}
				c.ReturnBool(ok)
			}),
			Func("regexpLastIndex", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(regexpArg(c, 0).LastIndex))
			}),
			Func("regexpSetLastIndex", Params(Handle, I32), nil, func(c *Call) {
				regexpArg(c, 0).LastIndex = c.Int(1)
			}),
			Func("regexpEscape", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(regexp2.Escape(c.Str(0))))
			}),
			Func("toLowerCase", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(cases.Lower(language.Und).String(c.Str(0))))
			}),
			Func("toUpperCase", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(cases.Upper(language.Und).String(c.Str(0))))
			}),
			Func("trim", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.TrimSpace(c.Str(0))))
			}),
			Func("trimStart", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.TrimStart(c.Str(0))))
			}),
			Func("trimEnd", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.TrimEnd(c.Str(0))))
			}),
			Func("repeat", Params(Handle, I32), Results(Handle), func(c *Call) {
				n := c.Int(1)
				if n < 0 {
					c.Fail(errors.InvalidInput(errors.PhaseRuntime, "invalid count value: "+value.FormatNumber(float64(n))))
				}
				c.ReturnValue(value.String(strings.Repeat(c.Str(0), n)))
			}),
			Func("indexOf", Params(Handle, Handle, I32), Results(I32), func(c *Call) {
				c.ReturnI32(int32(jsstring.IndexOf(c.Str(0), c.Str(1), c.Int(2))))
			}),
			Func("lastIndexOf", Params(Handle, Handle, I32), Results(I32), func(c *Call) {
				c.ReturnI32(int32(jsstring.LastIndexOf(c.Str(0), c.Str(1), c.Int(2))))
			}),
			Func("split", Params(Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnAny(splitList(jsstring.Split(c.Str(0), c.Str(1))))
			}),
			Func("replace", Params(Handle, Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(replace(c, false)))
			}),
			Func("replaceAll", Params(Handle, Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(replace(c, true)))
			}),
			Func("graphemes", Params(Handle), Results(Handle), func(c *Call) {
				var parts []string
				g := uniseg.NewGraphemes(c.Str(0))
				for g.Next() {
					parts = append(parts, g.Str())
				}
				c.ReturnAny(splitList(parts))
			}),
			Func("graphemeCount", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(uniseg.GraphemeClusterCount(c.Str(0))))
			}),
			Func("stringify", Params(Handle), Results(Handle), func(c *Call) {
				s, ok := value.Stringify(c.Value(0))
				if !ok {
					c.ReturnHandle(0)
					return
				}
				c.ReturnValue(value.String(s))
			}),
			Func("parseJSON", Params(Handle), Results(Handle), func(c *Call) {
				v, err := value.ParseJSON(c.Str(0))
				c.ReturnValue(must(c, v, err))
			}),
			Func("toString", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.ToString(c.Value(0))))
			}),
		},
	}
}

func regexpArg(c *Call, i int) *RegExp {
	re, ok := c.Value(i).Raw().(*RegExp)
	if !ok {
		c.typeError(i, "regexp")
	}
	return re
}

// replace handles both string and RegExp patterns. String patterns are
// matched literally and the replacement is inserted verbatim.
func replace(c *Call, all bool) string {
	s := c.Str(0)
	repl := c.Str(2)
	if re, ok := c.Value(1).Raw().(*RegExp); ok {
		if all && !re.global {
			c.Fail(errors.InvalidInput(errors.PhaseRuntime, "replaceAll must be called with a global RegExp"))
		}
		out, err := re.Replace(s, repl, all)
		if err != nil {
			c.Fail(err)
		}
		return out
	}
	pattern := c.Str(1)
	if all {
		return strings.ReplaceAll(s, pattern, repl)
	}
	return strings.Replace(s, pattern, repl, 1)
}
