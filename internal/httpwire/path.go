package httpwire

import "strings"

// NormalizeAbsPath reduces a percent-decoded request target to its canonical
// absolute form. Empty segments and "." are dropped; ".." pops the previous
// kept segment and is a no-op at the root. The trailing slash survives only
// when the input ended with one. Normalization is purely lexical and never
// touches the filesystem.
//
// ok is false when the target does not begin with '/'.
func NormalizeAbsPath(target string) (norm string, ok bool) {
	if target == "" || target[0] != '/' {
		return "", false
	}

	segs := make([]string, 0, 8)
	for _, seg := range strings.Split(target[1:], "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, seg)
		}
	}

	if len(segs) == 0 {
		return "/", true
	}
	norm = "/" + strings.Join(segs, "/")
	if strings.HasSuffix(target, "/") {
		norm += "/"
	}
	return norm, true
}

// HasHiddenSegment reports whether any segment of the normalized path begins
// with '.'. Together with the ".."-collapsing in NormalizeAbsPath this keeps
// every filesystem access inside the served root and denies dotfiles.
func HasHiddenSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && seg[0] == '.' {
			return true
		}
	}
	return false
}
