package gitexec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options is a mapping of git option names to values, translated into argv
// tokens by Encode. Keys beginning with "$" are executor controls and are
// never encoded — they are split out by ParseArgs before encoding.
//
// Encoding rules per (key, value):
//   - single-character key: true → "-k"; scalar v → "-k", "v" (two tokens)
//   - multi-character key:  true → "--key"; scalar v → "--key=v" (one token)
//   - false or nil: nothing
//   - slice value: the rule above applied once per element
type Options map[string]any

// ControlPrefix marks executor controls inside an option map.
const ControlPrefix = "$"

// Encode translates an option map into git argv tokens. Keys are emitted in
// sorted order so the same map always yields the same argv. Control keys are
// skipped.
func Encode(opts Options) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		if strings.HasPrefix(k, ControlPrefix) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var argv []string
	for _, k := range keys {
		argv = append(argv, encodeOne(k, opts[k])...)
	}
	return argv
}

func encodeOne(key string, value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		if !v {
			return nil
		}
		if len(key) == 1 {
			return []string{"-" + key}
		}
		return []string{"--" + key}
	case []string:
		var argv []string
		for _, e := range v {
			argv = append(argv, encodeOne(key, e)...)
		}
		return argv
	case []any:
		var argv []string
		for _, e := range v {
			argv = append(argv, encodeOne(key, e)...)
		}
		return argv
	default:
		s := scalarString(v)
		if len(key) == 1 {
			return []string{"-" + key, s}
		}
		return []string{"--" + key + "=" + s}
	}
}

// scalarString renders a scalar option value. Strings pass through; numbers
// format without an exponent.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Decode is the inverse of Encode: it parses an argv fragment produced by
// Encode back into an option map. Repeated options accumulate into a string
// slice. Bare positional tokens are rejected — Decode only understands the
// fragment Encode emits.
func Decode(argv []string) (Options, error) {
	opts := Options{}
	put := func(key, val string, isBool bool) {
		var v any = val
		if isBool {
			v = true
		}
		switch prev := opts[key].(type) {
		case nil:
			opts[key] = v
		case []string:
			opts[key] = append(prev, val)
		case string:
			opts[key] = []string{prev, val}
		default:
			opts[key] = v
		}
	}

	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		switch {
		case strings.HasPrefix(tok, "--"):
			body := tok[2:]
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				put(body[:eq], body[eq+1:], false)
			} else {
				put(body, "", true)
			}
		case strings.HasPrefix(tok, "-") && len(tok) == 2:
			key := tok[1:]
			if i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				put(key, argv[i+1], false)
				i++
			} else {
				put(key, "", true)
			}
		default:
			return nil, fmt.Errorf("%w: unexpected token %q", ErrBadArgument, tok)
		}
	}
	return opts, nil
}
