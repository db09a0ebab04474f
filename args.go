// FILE: argconfig/args.go
package argconfig

import (
	"fmt"
	"strings"
)

// TokenizeArgs splits command-line arguments into raw tokens keyed by flag name,
// without consulting any schema. It accepts "--key value" and "--key=value";
// a "--key" followed by another flag or the end of input is recorded as "true".
// Arguments that are not flags, and everything after a bare "--", are returned
// as positional arguments. A repeated key keeps its last value.
func TokenizeArgs(args []string) (map[string]string, []string, error) {
	result := make(map[string]string)
	var positional []string

	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		var keyPath, valueStr string

		if key, value, found := strings.Cut(argContent, "="); found {
			keyPath, valueStr = key, value
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			return nil, nil, fmt.Errorf("%w: empty flag name in %q", ErrCLIParse, arg)
		}
		for _, segment := range strings.Split(keyPath, ".") {
			if !isValidKeySegment(segment) {
				return nil, nil, fmt.Errorf("%w: invalid key segment %q in flag %q", ErrCLIParse, segment, keyPath)
			}
		}

		result[keyPath] = valueStr
	}

	return result, positional, nil
}
