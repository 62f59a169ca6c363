package gateway

import "strings"

// matchPath reports whether requestPath matches pattern, where pattern
// segments wrapped in "{...}" match exactly one path segment. This is
// deliberately simpler than chi's full radix-tree matcher since Route
// patterns here are registry data, not a handler tree registered at
// startup.
func matchPath(pattern, requestPath string) bool {
	patternSegs := splitPath(pattern)
	requestSegs := splitPath(requestPath)
	if len(patternSegs) != len(requestSegs) {
		return false
	}
	for i, seg := range patternSegs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			continue
		}
		if seg != requestSegs[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// methodAllowed reports whether method is in methods (case-insensitive),
// or methods is empty (meaning "any method").
func methodAllowed(methods []string, method string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}
