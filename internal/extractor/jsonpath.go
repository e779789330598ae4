package extractor

import "strings"

// NormalizePath converts "$.a.b", "$" and "a[0].b" style paths into gjson
// syntax.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	// Strip leading $. if present, or handle bare $ to return entire JSON
	if len(path) > 0 && path[0] == '$' {
		if len(path) > 1 && path[1] == '.' {
			path = path[2:]
		} else if len(path) == 1 {
			return "@this"
		}
	}
	if !strings.Contains(path, "[") {
		return path
	}

	var b strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			if b.Len() > 0 {
				b.WriteByte('.')
			}
		case ']':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
