package listener

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Log writes every notification as a structured log record.
type Log struct {
	Logger *slog.Logger
}

// NewLog returns an audit listener writing to logger, or to the default
// logger when logger is nil.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) GraphEdited(edit Edit, rendering string) {
	l.Logger.Info("graph edited", "edit", edit, "rendering", rendering)
}

func (l *Log) TransactionCommitted(commitTime int64) {
	l.Logger.Info("transaction committed", "commit_time", commitTime)
}

func (l *Log) TransactionAborted() {
	l.Logger.Info("transaction aborted")
}

// EventType names a recorded notification.
type EventType string

const (
	EventEdit   EventType = "edit"
	EventCommit EventType = "commit"
	EventAbort  EventType = "abort"
)

// Event is one notification as seen by a Recorder.
type Event struct {
	Type       EventType
	Edit       Edit
	Rendering  string
	CommitTime int64
}

// Recorder keeps every notification in memory. Used by tests and by the
// CLI to report what a load changed.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) GraphEdited(edit Edit, rendering string) {
	r.add(Event{Type: EventEdit, Edit: edit, Rendering: rendering})
}

func (r *Recorder) TransactionCommitted(commitTime int64) {
	r.add(Event{Type: EventCommit, CommitTime: commitTime})
}

func (r *Recorder) TransactionAborted() {
	r.add(Event{Type: EventAbort})
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Edits returns only the recorded edits.
func (r *Recorder) Edits() []Edit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Edit
	for _, e := range r.events {
		if e.Type == EventEdit {
			out = append(out, e.Edit)
		}
	}
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// JSONLines writes one JSON object per notification to an io.Writer.
// Suitable as a replication or audit feed.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines creates a listener writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

type jsonEvent struct {
	Type       EventType `json:"type"`
	Seq        int64     `json:"seq,omitempty"`
	Action     Action    `json:"action,omitempty"`
	Kind       Kind      `json:"kind,omitempty"`
	Element    string    `json:"element,omitempty"`
	Label      string    `json:"label,omitempty"`
	Key        string    `json:"key,omitempty"`
	Value      any       `json:"value,omitempty"`
	Property   string    `json:"property,omitempty"`
	Out        string    `json:"out,omitempty"`
	In         string    `json:"in,omitempty"`
	Rendering  string    `json:"rendering,omitempty"`
	CommitTime int64     `json:"commit_time,omitempty"`
}

func (j *JSONLines) GraphEdited(edit Edit, rendering string) {
	j.write(jsonEvent{
		Type:      EventEdit,
		Seq:       edit.Seq,
		Action:    edit.Action,
		Kind:      edit.Kind,
		Element:   string(edit.Element),
		Label:     edit.Label,
		Key:       edit.Key,
		Value:     edit.Value,
		Property:  string(edit.Property),
		Out:       string(edit.Out),
		In:        string(edit.In),
		Rendering: rendering,
	})
}

func (j *JSONLines) TransactionCommitted(commitTime int64) {
	j.write(jsonEvent{Type: EventCommit, CommitTime: commitTime})
}

func (j *JSONLines) TransactionAborted() {
	j.write(jsonEvent{Type: EventAbort})
}

// write panics on encoder failure; the Bus recovers and counts it.
func (j *JSONLines) write(e jsonEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(e); err != nil {
		panic(fmt.Sprintf("jsonlines: %v", err))
	}
}
