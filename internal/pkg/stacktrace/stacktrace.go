// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// the dump that points into an internal package, in dump order.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		file, rest, ok := strings.Cut(line, ".go:")
		if !ok {
			continue
		}
		idx := strings.Index(file, marker)
		if idx == -1 {
			continue
		}
		lineNo, _, _ := strings.Cut(rest, " ")
		paths = append(paths, file[idx+1:]+".go:"+lineNo)
	}
	return paths
}
