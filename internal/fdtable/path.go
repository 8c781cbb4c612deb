package fdtable

import "strings"

// resolveRelative splits a '/'-separated relative path into its segments,
// rejecting any segment that would let ".." walk back past the root it is
// resolved against. It is adapted from the teacher's sandbox.cleanPath /
// sandbox.joinPath helpers (internal/sandbox/path.go), simplified to the one
// thing path_open needs: producing a clean, escape-free segment list rather
// than a general path-cleaning utility.
func resolveRelative(path string) (segments []string, escapes bool) {
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return nil, true
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	return segments, false
}

// joinSegments re-assembles path segments into a clean relative path
// (no leading slash, "." for the empty path).
func joinSegments(segments []string) string {
	if len(segments) == 0 {
		return "."
	}
	return strings.Join(segments, "/")
}

// isWholeSegmentPrefix reports whether prefix is a whole-segment prefix of
// path: prefix must match path up to a '/' boundary, so "/sandbox" matches
// "/sandbox/x" but not "/sandbox2".
func isWholeSegmentPrefix(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}
