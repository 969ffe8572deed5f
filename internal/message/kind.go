package message

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"
)

// Kind is the closed tag of a message. Every classification a message exposes
// (severity, importance, status, operation status, max frequency) is looked up
// from the kind table.
type Kind uint16

// Built-in kinds, declared in ascending importance.
const (
	Trace Kind = iota + 1
	Step
	Information
	Narration
	Announcement
	OperationStarted
	OperationSucceeded
	OperationHalted
	Glitch
	Warning
	Quibble
	Incomplete
	OperationFailed
	Problem
	Alert
	FatalProblem
	CriticalAlert
)

var (
	// ErrUnknownKind is returned when a kind name is not registered.
	ErrUnknownKind = errors.New("unknown message kind")

	// ErrDuplicateKind is returned when registering a name twice.
	ErrDuplicateKind = errors.New("message kind already registered")

	// ErrKindOrder is returned when the bounds of a custom kind are not ordered.
	ErrKindOrder = errors.New("message kind bounds out of order")

	// ErrImportanceTaken is returned when the midpoint of the bounds is
	// already the importance of another kind.
	ErrImportanceTaken = errors.New("message kind importance already taken")
)

// KindSpec describes a kind. Exactly one of Status and OperationStatus
// should be set; the other stays NotApplicable.
type KindSpec struct {
	Name            string
	Severity        Severity
	Status          Status
	OperationStatus OperationStatus

	// MaxFrequency is the shortest interval at which a sink should repeat
	// an identical message of this kind. Zero means every time.
	MaxFrequency time.Duration
}

type kindInfo struct {
	KindSpec
	importance Importance
}

// kindTable is immutable once published; RegisterKind publishes a copy.
type kindTable struct {
	infos  []kindInfo // indexed by Kind; index 0 is the invalid kind
	byName map[string]Kind
}

type kindRegistry struct {
	mu    sync.Mutex
	table atomic.Pointer[kindTable]
}

var registry = newKindRegistry()

// foldName normalises a kind name for lookup. A Caser is stateful, so each
// call builds its own.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func builtinSpecs() []KindSpec {
	return []KindSpec{
		{Name: "Trace", Severity: SeverityNone, Status: StatusSucceeded},
		{Name: "Step", Severity: SeverityNone, Status: StatusSucceeded},
		{Name: "Information", Severity: SeverityNone, Status: StatusCompleted},
		{Name: "Narration", Severity: SeverityNone, Status: StatusCompleted},
		{Name: "Announcement", Severity: SeverityNone, Status: StatusCompleted},
		{Name: "OperationStarted", Severity: SeverityNone, OperationStatus: OperationStatusStarted},
		{Name: "OperationSucceeded", Severity: SeverityNone, OperationStatus: OperationStatusSucceeded},
		{Name: "OperationHalted", Severity: SeverityMedium, OperationStatus: OperationStatusHalted},
		{Name: "Glitch", Severity: SeverityLow, Status: StatusCompleted},
		{Name: "Warning", Severity: SeverityLow, Status: StatusResultCompromised},
		{Name: "Quibble", Severity: SeverityLow, Status: StatusResultCompromised},
		{Name: "Incomplete", Severity: SeverityMedium, Status: StatusResultIncomplete},
		{Name: "OperationFailed", Severity: SeverityHigh, OperationStatus: OperationStatusFailed},
		{Name: "Problem", Severity: SeverityMedium, Status: StatusProblem},
		{Name: "Alert", Severity: SeverityHigh, Status: StatusProblem},
		{Name: "FatalProblem", Severity: SeverityHigh, Status: StatusFailed},
		{Name: "CriticalAlert", Severity: SeverityCritical, Status: StatusFailed},
	}
}

func newKindRegistry() *kindRegistry {
	specs := builtinSpecs()
	t := &kindTable{
		infos:  make([]kindInfo, 1, len(specs)+1),
		byName: make(map[string]Kind, len(specs)),
	}
	last := float64(len(specs) - 1)
	for i, spec := range specs {
		t.infos = append(t.infos, kindInfo{
			KindSpec:   spec,
			importance: Importance(float64(i) / last),
		})
		t.byName[foldName(spec.Name)] = Kind(i + 1)
	}
	r := &kindRegistry{}
	r.table.Store(t)
	return r
}

func (r *kindRegistry) lookup(k Kind) (kindInfo, bool) {
	t := r.table.Load()
	if k == 0 || int(k) >= len(t.infos) {
		return kindInfo{}, false
	}
	return t.infos[k], true
}

func (r *kindRegistry) register(spec KindSpec, below, above Kind) (Kind, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return 0, fmt.Errorf("register kind: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.table.Load()
	key := foldName(name)
	if _, exists := cur.byName[key]; exists {
		return 0, fmt.Errorf("register kind %q: %w", name, ErrDuplicateKind)
	}
	lo, okLo := r.lookup(below)
	hi, okHi := r.lookup(above)
	if !okLo || !okHi {
		return 0, fmt.Errorf("register kind %q: %w", name, ErrUnknownKind)
	}
	if !hi.importance.IsMoreImportantThan(lo.importance) {
		return 0, fmt.Errorf("register kind %q between %s and %s: %w", name, lo.Name, hi.Name, ErrKindOrder)
	}

	importance := Between(lo.importance, hi.importance)
	for _, info := range cur.infos[1:] {
		if info.importance == importance {
			return 0, fmt.Errorf("register kind %q between %s and %s: %s has importance %s: %w",
				name, lo.Name, hi.Name, info.Name, importance, ErrImportanceTaken)
		}
	}

	next := &kindTable{
		infos:  make([]kindInfo, len(cur.infos), len(cur.infos)+1),
		byName: make(map[string]Kind, len(cur.byName)+1),
	}
	copy(next.infos, cur.infos)
	for k, v := range cur.byName {
		next.byName[k] = v
	}
	spec.Name = name
	kind := Kind(len(next.infos))
	next.infos = append(next.infos, kindInfo{KindSpec: spec, importance: importance})
	next.byName[key] = kind
	r.table.Store(next)
	return kind, nil
}

// RegisterKind adds a custom kind whose importance is exactly the midpoint
// of below and above. It fails when the name is taken, when below is not
// strictly less important than above, or when another kind already has the
// midpoint importance.
func RegisterKind(spec KindSpec, below, above Kind) (Kind, error) {
	return registry.register(spec, below, above)
}

// ParseKind resolves a registered kind by name, ignoring case.
func ParseKind(name string) (Kind, error) {
	t := registry.table.Load()
	if k, ok := t.byName[foldName(name)]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Kinds returns every registered kind ordered by ascending importance.
func Kinds() []Kind {
	t := registry.table.Load()
	out := make([]Kind, 0, len(t.infos)-1)
	for i := 1; i < len(t.infos); i++ {
		out = append(out, Kind(i))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return t.infos[out[i]].importance < t.infos[out[j]].importance
	})
	return out
}

// Valid reports whether k is registered.
func (k Kind) Valid() bool {
	_, ok := registry.lookup(k)
	return ok
}

func (k Kind) String() string {
	if info, ok := registry.lookup(k); ok {
		return info.Name
	}
	return "Kind(" + fmt.Sprint(uint16(k)) + ")"
}

// Spec returns the registered description of k.
func (k Kind) Spec() KindSpec {
	info, _ := registry.lookup(k)
	return info.KindSpec
}

// Severity returns the severity of messages of kind k.
func (k Kind) Severity() Severity {
	info, _ := registry.lookup(k)
	return info.Severity
}

// Importance returns the rank of k among registered kinds.
func (k Kind) Importance() Importance {
	info, _ := registry.lookup(k)
	return info.importance
}

// Status returns the step status of k, NotApplicable for operation kinds.
func (k Kind) Status() Status {
	info, _ := registry.lookup(k)
	return info.Status
}

// OperationStatus returns the lifecycle status of k, NotApplicable for step kinds.
func (k Kind) OperationStatus() OperationStatus {
	info, _ := registry.lookup(k)
	return info.OperationStatus
}

// MaxFrequency returns the declared throttling interval of k.
func (k Kind) MaxFrequency() time.Duration {
	info, _ := registry.lookup(k)
	return info.MaxFrequency
}

// IsFailure is true for kinds whose status is Problem or worse, and for
// failed operations.
func (k Kind) IsFailure() bool {
	info, ok := registry.lookup(k)
	if !ok {
		return false
	}
	return info.Status.Failed() || info.OperationStatus == OperationStatusFailed
}

// IsMoreImportantThan compares kinds by importance.
func (k Kind) IsMoreImportantThan(other Kind) bool {
	return k.Importance().IsMoreImportantThan(other.Importance())
}
