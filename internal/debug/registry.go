package debug

import (
	"os"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"relay/internal/message"
	"relay/internal/messaging"
)

// EnvVar holds the pattern list read by the default registry.
const EnvVar = "RELAY_DEBUG"

// Registry maps types to their Debug handles. A handle is created on first
// request and lives until Unregister.
type Registry struct {
	patterns Patterns

	mu      sync.Mutex
	handles map[string]*Debug
	ignore  []string
}

// NewRegistry creates a registry that decides with patterns.
func NewRegistry(patterns Patterns) *Registry {
	return &Registry{
		patterns: patterns,
		handles:  make(map[string]*Debug),
	}
}

// FromEnv creates a registry from the RELAY_DEBUG environment variable. A
// malformed value is reported to the fallback listener and ignored.
func FromEnv() *Registry {
	patterns, err := ParsePatterns(os.Getenv(EnvVar))
	if err != nil {
		messaging.Fallback().OnMessage(message.NewWarning("ignoring %s: %v", EnvVar, err))
		patterns = nil
	}
	return NewRegistry(patterns)
}

var (
	defaultOnce     sync.Once
	defaultRegistry atomic.Pointer[Registry]
)

// Default returns the process-wide registry, building it from the
// environment on first use unless SetDefault installed one.
func Default() *Registry {
	if r := defaultRegistry.Load(); r != nil {
		return r
	}
	defaultOnce.Do(func() {
		defaultRegistry.CompareAndSwap(nil, FromEnv())
	})
	return defaultRegistry.Load()
}

// SetDefault replaces the process-wide registry. Handles already handed out
// keep their state.
func SetDefault(r *Registry) {
	defaultRegistry.Store(r)
}

// Register returns the handle of owner's type from the default registry.
func Register(owner any, t Transceiver) *Debug {
	return Default().Register(owner, t)
}

// ForCaller returns the handle of the calling type from the default registry.
func ForCaller(t Transceiver) *Debug {
	return Default().ForCaller(t)
}

// Patterns returns the registry's pattern list.
func (r *Registry) Patterns() Patterns {
	return r.patterns
}

// Ignore adds function name prefixes that ForCaller skips while looking for
// the caller, for helpers that wrap it.
func (r *Registry) Ignore(prefixes ...string) {
	r.mu.Lock()
	r.ignore = append(r.ignore, prefixes...)
	r.mu.Unlock()
}

// Register returns the handle of owner's type, creating it on first request.
// Owner is either a value of the type or its reflect.Type. The transceiver of
// the first request is kept.
func (r *Registry) Register(owner any, t Transceiver) *Debug {
	typ := typeOf(owner)
	if typ == nil {
		return newDebug("", false, t)
	}
	_, qualified := typeNames(typ)
	return r.lookupOrCreate(qualified, t, func() bool {
		return r.patterns.EnabledFor(typ)
	})
}

// ForCaller returns the handle of the type whose method called it. The type
// is recovered from the stack by name, so "extends" patterns only match the
// type itself.
func (r *Registry) ForCaller(t Transceiver) *Debug {
	frames := callerFunctions()

	r.mu.Lock()
	ignore := append([]string(nil), r.ignore...)
	r.mu.Unlock()

	i := NearestCaller(frames, isEntryPoint, func(fn string) bool {
		for _, prefix := range ignore {
			if strings.HasPrefix(fn, prefix) {
				return true
			}
		}
		return false
	})
	if i < 0 {
		return newDebug("", false, t)
	}
	pkg, name := ownerOf(frames[i])
	qualified := name
	if pkg != "" {
		qualified = pkg + "." + name
	}
	return r.lookupOrCreate(qualified, t, func() bool {
		return r.patterns.EnabledForName(name, qualified)
	})
}

// Unregister drops the handle of owner's type. The next request creates a
// fresh handle.
func (r *Registry) Unregister(owner any) {
	var key string
	switch o := owner.(type) {
	case string:
		key = o
	default:
		typ := typeOf(owner)
		if typ == nil {
			return
		}
		_, key = typeNames(typ)
	}
	r.mu.Lock()
	delete(r.handles, key)
	r.mu.Unlock()
}

// Handles returns the registered handles keyed by qualified type name.
func (r *Registry) Handles() map[string]*Debug {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Debug, len(r.handles))
	for k, v := range r.handles {
		out[k] = v
	}
	return out
}

func (r *Registry) lookupOrCreate(key string, t Transceiver, enabled func() bool) *Debug {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.handles[key]; ok {
		return d
	}
	d := newDebug(key, enabled(), t)
	r.handles[key] = d
	return d
}

func typeOf(owner any) reflect.Type {
	if t, ok := owner.(reflect.Type); ok {
		return baseType(t)
	}
	if owner == nil {
		return nil
	}
	return baseType(reflect.TypeOf(owner))
}
