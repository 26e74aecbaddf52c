package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/broady/lexgen/lexgen/shape"
)

// Request is one structural request observed by a Recorder.
type Request struct {
	Unit string
	Kind shape.DeclKind
	Name string
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s %s", r.Unit, r.Kind, r.Name)
}

// Recorder is a Backend that records the request sequence. Its rendered
// output is the request list, one per line. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

// Name returns "recorder".
func (*Recorder) Name() string { return "recorder" }

// Extension returns ".txt".
func (*Recorder) Extension() string { return ".txt" }

// NewFile implements Backend.
func (r *Recorder) NewFile(unit *shape.Unit) FileBuilder {
	return &recordedFile{r: r, unit: unit.Name}
}

// Requests returns a copy of every request recorded so far.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Reset discards recorded requests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.requests = nil
	r.mu.Unlock()
}

type recordedFile struct {
	r     *Recorder
	unit  string
	lines []string
}

func (f *recordedFile) record(kind shape.DeclKind, name string) error {
	req := Request{Unit: f.unit, Kind: kind, Name: name}
	f.r.mu.Lock()
	f.r.requests = append(f.r.requests, req)
	f.r.mu.Unlock()
	f.lines = append(f.lines, kind.String()+" "+name)
	return nil
}

func (f *recordedFile) DeclareInterface(d *shape.Interface) error {
	return f.record(shape.DeclInterface, d.Name)
}

func (f *recordedFile) DeclareAlias(d *shape.Alias) error {
	return f.record(shape.DeclAlias, d.Name)
}

func (f *recordedFile) DeclareConst(d *shape.Const) error {
	return f.record(shape.DeclConst, d.Name)
}

func (f *recordedFile) DeclareFunction(d *shape.Function) error {
	return f.record(shape.DeclFunction, d.Name)
}

func (f *recordedFile) DeclareClass(d *shape.Class) error {
	return f.record(shape.DeclClass, d.Name)
}

func (f *recordedFile) Finish() ([]byte, error) {
	return []byte(strings.Join(f.lines, "\n") + "\n"), nil
}
