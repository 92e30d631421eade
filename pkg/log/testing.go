package log

import (
	"context"
	"fmt"
	"sync"
)

// Entry is one record captured by a Recorder. Field values keep their Go
// types; errors are stored as their message.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// Field returns the value stored under key and whether it was set.
func (e Entry) Field(key string) (any, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// journal は Recorder とその With 派生で共有される
type journal struct {
	mu      sync.Mutex
	level   Level
	entries []Entry
}

// Recorder is a Logger that keeps every record in memory so tests can assert
// on messages and fields. Loggers derived with With share the same journal.
type Recorder struct {
	j      *journal
	fields []any
}

var _ Logger = (*Recorder)(nil)

// NewRecorder returns a Recorder that keeps records at or above level.
func NewRecorder(level Level) *Recorder {
	return &Recorder{j: &journal{level: level}}
}

func (r *Recorder) Debug(msg string, fields ...any) { r.record(LevelDebug, msg, fields) }
func (r *Recorder) Info(msg string, fields ...any)  { r.record(LevelInfo, msg, fields) }
func (r *Recorder) Warn(msg string, fields ...any)  { r.record(LevelWarn, msg, fields) }
func (r *Recorder) Error(msg string, fields ...any) { r.record(LevelError, msg, fields) }

// With returns a Recorder whose records carry fields in addition to r's.
func (r *Recorder) With(fields ...any) Logger {
	merged := make([]any, 0, len(r.fields)+len(fields))
	merged = append(merged, r.fields...)
	merged = append(merged, fields...)
	return &Recorder{j: r.j, fields: merged}
}

// Enabled reports whether records at level are kept.
func (r *Recorder) Enabled(_ context.Context, level Level) bool {
	r.j.mu.Lock()
	defer r.j.mu.Unlock()
	return level >= r.j.level
}

// SetLevel changes the threshold for r and every Recorder sharing its journal.
func (r *Recorder) SetLevel(level Level) {
	r.j.mu.Lock()
	r.j.level = level
	r.j.mu.Unlock()
}

func (r *Recorder) record(level Level, msg string, fields []any) {
	if !r.Enabled(context.Background(), level) {
		return
	}
	e := Entry{Level: level, Message: msg, Fields: make(map[string]any, (len(r.fields)+len(fields))/2)}
	// 後から渡したキーが優先される
	for _, kv := range [][]any{r.fields, fields} {
		for i := 0; i+1 < len(kv); i += 2 {
			v := kv[i+1]
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			e.Fields[fmt.Sprint(kv[i])] = v
		}
	}
	r.j.mu.Lock()
	r.j.entries = append(r.j.entries, e)
	r.j.mu.Unlock()
}

// Entries returns a copy of the captured records in emission order.
func (r *Recorder) Entries() []Entry {
	r.j.mu.Lock()
	defer r.j.mu.Unlock()
	return append([]Entry(nil), r.j.entries...)
}

// Messages returns the captured records whose message equals msg.
func (r *Recorder) Messages(msg string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent record with message msg.
func (r *Recorder) Last(msg string) (Entry, bool) {
	found := r.Messages(msg)
	if len(found) == 0 {
		return Entry{}, false
	}
	return found[len(found)-1], true
}

// Reset drops every captured record.
func (r *Recorder) Reset() {
	r.j.mu.Lock()
	r.j.entries = nil
	r.j.mu.Unlock()
}

// RecorderProvider serves Recorders from one journal. Install it with
// SetProvider to capture records from package-level loggers such as warnings.
type RecorderProvider struct {
	*Recorder
}

var _ LoggerProvider = RecorderProvider{}

// NewRecorderProvider returns a provider whose loggers record at or above level.
func NewRecorderProvider(level Level) RecorderProvider {
	return RecorderProvider{Recorder: NewRecorder(level)}
}

func (p RecorderProvider) GetLogger() Logger { return p.Recorder }

func (p RecorderProvider) GetLoggerWithName(name string) Logger {
	return p.Recorder.With(ComponentKey, name)
}
