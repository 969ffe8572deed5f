package debug

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/message"
	"relay/internal/messaging"
	"relay/internal/transceiver"
)

type Folder struct{}
type File struct{}
type Region struct{}
type Subregion struct{ Region }
type Deep struct{ *Subregion }

type widget struct{ reg *Registry }

func (w *widget) handle(t Transceiver) *Debug { return w.reg.ForCaller(t) }

func mustParse(t *testing.T, s string) Patterns {
	t.Helper()
	p, err := ParsePatterns(s)
	require.NoError(t, err)
	return p
}

func collector() (*transceiver.Station[*message.Message], *[]*message.Message) {
	var got []*message.Message
	return transceiver.NewStation("collector", func(m *message.Message) { got = append(got, m) }), &got
}

func TestEverythingButFolder(t *testing.T) {
	reg := NewRegistry(mustParse(t, "*,not Folder"))

	assert.False(t, reg.Register(Folder{}, nil).IsOn())
	assert.True(t, reg.Register(&File{}, nil).IsOn())
}

func TestExtendsMatchesEmbeddingTypes(t *testing.T) {
	reg := NewRegistry(mustParse(t, "extends Region"))

	assert.True(t, reg.Register(Region{}, nil).IsOn())
	assert.True(t, reg.Register(Subregion{}, nil).IsOn())
	assert.True(t, reg.Register(reflect.TypeOf(&Deep{}), nil).IsOn())
	assert.False(t, reg.Register(File{}, nil).IsOn())

	plain := NewRegistry(mustParse(t, "Region"))
	assert.False(t, plain.Register(Subregion{}, nil).IsOn())
}

func TestUnsetEnvironmentDisablesEverything(t *testing.T) {
	t.Setenv(EnvVar, "")
	reg := FromEnv()

	for _, owner := range []any{Folder{}, File{}, Subregion{}, 42, "text"} {
		assert.False(t, reg.Register(owner, nil).IsOn(), "%T", owner)
	}
}

func TestFromEnvReadsPatterns(t *testing.T) {
	t.Setenv(EnvVar, "File, !Folder")
	reg := FromEnv()
	assert.Equal(t, "File,!Folder", reg.Patterns().String())
	assert.True(t, reg.Register(File{}, nil).IsOn())
}

func TestFromEnvIgnoresMalformedValue(t *testing.T) {
	captured := messaging.Func(func(*message.Message) {})
	prev := messaging.SetFallback(captured)
	defer messaging.SetFallback(prev)

	t.Setenv(EnvVar, "File,!")
	reg := FromEnv()
	assert.Empty(t, reg.Patterns())
}

func TestPatternPrecedence(t *testing.T) {
	tests := []struct {
		patterns string
		owner    any
		want     bool
	}{
		{"", File{}, false},
		{"File", File{}, true},
		{"File", Folder{}, false},
		{"File,not File", File{}, false},
		{"not File,File", File{}, true},
		{"*,not F*", File{}, false},
		{"*,not F*,File", File{}, true},
		{"not *,File", File{}, true},
		{"not *,File", Folder{}, false},
		{"!Folder", Folder{}, false},
		{"relay/internal/debug.Folder", Folder{}, true},
		{"relay/*.Fol*", Folder{}, true},
		{"Fold", Folder{}, false},
		{"extends Region,not Subregion", Subregion{}, false},
		{"not Subregion,extends Region", Subregion{}, true},
		{"not extends Region", Deep{}, false},
		{"*,not extends Region", File{}, true},
	}
	for _, tt := range tests {
		ps := mustParse(t, tt.patterns)
		got := ps.EnabledFor(reflect.TypeOf(tt.owner))
		assert.Equal(t, tt.want, got, "%q for %T", tt.patterns, tt.owner)
	}
}

func TestParsePatterns(t *testing.T) {
	ps := mustParse(t, " not extends Region , ,!File,* ")
	require.Len(t, ps, 3)
	assert.True(t, ps[0].Negate)
	assert.True(t, ps[0].Extends)
	assert.True(t, ps[1].Negate)
	assert.False(t, ps[1].Extends)
	assert.False(t, ps[2].Negate)

	_, err := ParsePatterns("File,!")
	assert.Error(t, err)
	_, err = ParsePatterns("extends not !")
	assert.Error(t, err)
}

func TestRegisterCreatesOnce(t *testing.T) {
	reg := NewRegistry(mustParse(t, "File"))
	first, _ := collector()

	var wg sync.WaitGroup
	handles := make([]*Debug, 16)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = reg.Register(&File{}, first)
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, "relay/internal/debug.File", handles[0].Owner())
	assert.Len(t, reg.Handles(), 1)

	reg.Unregister(File{})
	assert.Empty(t, reg.Handles())
	assert.NotSame(t, handles[0], reg.Register(File{}, first))
}

func TestTraceWhenOnAndOff(t *testing.T) {
	out, got := collector()
	reg := NewRegistry(mustParse(t, "File"))

	on := reg.Register(File{}, out)
	off := reg.Register(Folder{}, out)

	on.Trace("step %d", 1)
	off.Trace("never %d", 2)
	require.Len(t, *got, 1)
	assert.Equal(t, message.Trace, (*got)[0].Kind())
	assert.Equal(t, "step 1", (*got)[0].Formatted())

	assert.Equal(t, messaging.Null, off.Listener())
	on.Listener().OnMessage(message.NewInformation("direct"))
	assert.Len(t, *got, 2)

	off.SetEnabled(true)
	off.Trace("now")
	assert.Len(t, *got, 3)
}

type countingArg struct{ n *int }

func (c countingArg) String() string {
	*c.n++
	return "arg"
}

func TestTraceOffDoesNotFormat(t *testing.T) {
	reg := NewRegistry(nil)
	d := reg.Register(File{}, nil)
	var n int
	d.Trace("%s", countingArg{n: &n})
	assert.Equal(t, 0, n)
}

func TestDebugListenerUsesTransceiverListener(t *testing.T) {
	r := messaging.NewRepeater("debug-out")
	reg := NewRegistry(mustParse(t, "File"))
	d := reg.Register(File{}, r)
	assert.Same(t, r, d.Listener())
}

func TestForCaller(t *testing.T) {
	reg := NewRegistry(mustParse(t, "widget"))
	w := &widget{reg: reg}

	d := w.handle(nil)
	assert.Equal(t, "relay/internal/debug.widget", d.Owner())
	assert.True(t, d.IsOn())
	assert.Same(t, d, w.handle(nil))
	assert.Same(t, d, reg.Register(widget{}, nil), "ForCaller and Register share handles")
}

func TestForCallerIgnore(t *testing.T) {
	reg := NewRegistry(mustParse(t, "TestForCallerIgnore"))
	reg.Ignore("relay/internal/debug.(*widget)")
	w := &widget{reg: reg}

	d := w.handle(nil)
	assert.Equal(t, "relay/internal/debug.TestForCallerIgnore", d.Owner())
	assert.True(t, d.IsOn())
}

func TestNearestCaller(t *testing.T) {
	isCallee := func(fn string) bool { return fn == "callee" }
	ignore := func(fn string) bool { return fn == "wrapper" }

	tests := []struct {
		frames []string
		want   int
	}{
		{[]string{"callee", "caller"}, 1},
		{[]string{"callee", "callee", "callee", "caller", "outer"}, 3},
		{[]string{"runtime", "callee", "caller"}, 2},
		{[]string{"callee", "wrapper", "wrapper", "caller"}, 3},
		{[]string{"callee"}, -1},
		{[]string{"caller", "outer"}, -1},
		{nil, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearestCaller(tt.frames, isCallee, ignore), "%v", tt.frames)
	}
}

func TestOwnerOf(t *testing.T) {
	tests := []struct {
		fn, pkg, name string
	}{
		{"relay/internal/sink.(*Console).OnMessage", "relay/internal/sink", "Console"},
		{"relay/internal/sink.Console.String", "relay/internal/sink", "Console"},
		{"relay/internal/sink.(*Console).OnMessage.func1", "relay/internal/sink", "Console"},
		{"main.run", "main", "run"},
		{"main.run.func2", "main", "run"},
		{"relay/internal/transceiver.(*Station[...]).Receive", "relay/internal/transceiver", "Station"},
		{"weird", "", "weird"},
	}
	for _, tt := range tests {
		pkg, name := ownerOf(tt.fn)
		assert.Equal(t, tt.pkg, pkg, tt.fn)
		assert.Equal(t, tt.name, name, tt.fn)
	}
}

func TestDefaultRegistry(t *testing.T) {
	prev := defaultRegistry.Load()
	defer defaultRegistry.Store(prev)

	SetDefault(NewRegistry(mustParse(t, "File")))
	assert.True(t, Register(File{}, nil).IsOn())
	assert.False(t, Register(Folder{}, nil).IsOn())
}
