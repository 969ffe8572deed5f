package debug

import (
	"reflect"
	"runtime"
	"strings"
)

// maxCallerDepth bounds the stack examined by ForCaller.
const maxCallerDepth = 32

var pkgPath = reflect.TypeOf((*Registry)(nil)).Elem().PkgPath()

// NearestCaller returns the index of the first frame after a run of callee
// frames, skipping frames matched by ignore, or -1. Frames before the first
// callee frame are not considered.
func NearestCaller(frames []string, isCallee, ignore func(fn string) bool) int {
	inCallee := false
	for i, fn := range frames {
		if isCallee(fn) {
			inCallee = true
			continue
		}
		if !inCallee {
			continue
		}
		if ignore != nil && ignore(fn) {
			continue
		}
		return i
	}
	return -1
}

// callerFunctions returns the function names on the current stack, innermost
// first. Inlined frames are included.
func callerFunctions() []string {
	pcs := make([]uintptr, maxCallerDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		frame, more := frames.Next()
		out = append(out, frame.Function)
		if !more {
			break
		}
	}
	return out
}

// isEntryPoint reports whether fn is one of this package's caller-inferring
// functions or the stack capture itself.
func isEntryPoint(fn string) bool {
	switch strings.TrimPrefix(fn, pkgPath+".") {
	case "ForCaller", "(*Registry).ForCaller", "callerFunctions":
		return true
	}
	return false
}

// ownerOf extracts the package path and receiver type (or function name for
// plain functions) from a runtime function name such as
// "relay/internal/sink.(*Console).OnMessage".
func ownerOf(fn string) (pkg, name string) {
	slash := strings.LastIndexByte(fn, '/')
	dot := strings.IndexByte(fn[slash+1:], '.')
	if dot < 0 {
		return "", fn
	}
	dot += slash + 1
	pkg, rest := fn[:dot], fn[dot+1:]

	if strings.HasPrefix(rest, "(*") {
		if end := strings.IndexByte(rest, ')'); end > 0 {
			rest = rest[2:end]
		}
	} else if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '['); i >= 0 {
		rest = rest[:i]
	}
	return pkg, rest
}
