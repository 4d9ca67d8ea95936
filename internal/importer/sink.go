package importer

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Outcome is what happened to one input record.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// Event is emitted once per processed record.
type Event struct {
	RunID   string
	Stage   Stage
	Key     string
	Outcome Outcome
	Err     error
}

// Sink receives per-record events. Reconciliation never depends on what
// a sink does with them.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Record(ev Event) { f(ev) }

// MultiSink fans an event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// LogSink writes one log line per record. With a colored text formatter
// created records show as info, skips as warnings and failures as errors.
type LogSink struct {
	Logger logrus.FieldLogger
}

func (s LogSink) Record(ev Event) {
	entry := s.Logger.WithFields(logrus.Fields{
		"run":     ev.RunID,
		"stage":   ev.Stage,
		"key":     ev.Key,
		"outcome": ev.Outcome,
	})
	switch ev.Outcome {
	case OutcomeCreated:
		entry.Infof("Created: %s", ev.Key)
	case OutcomeSkipped:
		entry.Warnf("Skipped (exists): %s", ev.Key)
	default:
		entry.WithError(ev.Err).Errorf("Error: %s", ev.Key)
	}
}

// MemorySink keeps every event in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Record(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Count returns how many events of a stage had the given outcome.
func (s *MemorySink) Count(stage Stage, outcome Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Stage == stage && ev.Outcome == outcome {
			n++
		}
	}
	return n
}
