// Package executor applies a caller-chosen subset of classifier-derived
// operations against the target service, one item at a time, with
// cooperative cancellation and per-item structured progress.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ItemStatus is one entry's position in the pending -> processing ->
// {success, error} state machine.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusSuccess    ItemStatus = "success"
	StatusError      ItemStatus = "error"
	StatusSkipped    ItemStatus = "skipped"
)

// ErrorKind is the short, stable error classification reported per item.
type ErrorKind string

const (
	ErrNotFound     ErrorKind = "not_found"
	ErrAlreadyNamed ErrorKind = "already_named"
	ErrCreateFailed ErrorKind = "create_failed"
	ErrAssignFailed ErrorKind = "assign_failed"
	ErrNetwork      ErrorKind = "network"
	ErrTimeout      ErrorKind = "timeout"
	ErrOther        ErrorKind = "other"
)

// ProgressEvent is one emission on the Executor's progress stream.
type ProgressEvent struct {
	BatchID      string     `json:"batch_id"`
	ItemIndex    int        `json:"item_index"`
	Status       ItemStatus `json:"status"`
	ErrorKind    ErrorKind  `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Label        string     `json:"label,omitempty"` // human-readable identity of the item, for UI logs
}

// BatchResult is the structured, always-returned outcome of a batch: it
// never throws, it always returns a result.
type BatchResult struct {
	Total         int             `json:"total"`
	SuccessCount  int             `json:"success_count"`
	FailedCount   int             `json:"failed_count"`
	SkippedCount  int             `json:"skipped_count"`
	Results       BatchResultSets `json:"results"`
	TerminalError string          `json:"terminal_error,omitempty"`
}

// BatchResultSets buckets each item's label into success/failed/skipped for
// the UI.
type BatchResultSets struct {
	Success []string `json:"success"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
}

// itemError pairs an ErrorKind with a human message; returned by the
// per-item apply functions each entry point supplies.
type itemError struct {
	kind ErrorKind
	msg  string
}

func (e *itemError) Error() string { return fmt.Sprintf("%s: %s", e.kind, e.msg) }

func newItemError(kind ErrorKind, format string, args ...any) *itemError {
	return &itemError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NewClientError lets a Client implementation (internal/immich) report a
// classified per-item failure — e.g. ErrAlreadyNamed when a rename target
// already carries a name — instead of falling back to ErrOther.
func NewClientError(kind ErrorKind, format string, args ...any) error {
	return newItemError(kind, format, args...)
}

// callTimeout bounds every remote call the Executor makes.
const callTimeout = 30 * time.Second

// Progress fans out ProgressEvents: a slice of listener channels behind a
// mutex, best-effort
// delivery (a full listener buffer drops the event rather than blocking
// the batch).
type Progress struct {
	mu        sync.RWMutex
	listeners []chan ProgressEvent
}

// NewProgress returns an empty event fan-out.
func NewProgress() *Progress {
	return &Progress{}
}

// Subscribe registers a new listener and returns its channel.
func (p *Progress) Subscribe() chan ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan ProgressEvent, 64)
	p.listeners = append(p.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (p *Progress) Unsubscribe(ch chan ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l == ch {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

func (p *Progress) emit(event ProgressEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, l := range p.listeners {
		select {
		case l <- event:
		default:
			log.Printf("executor: progress listener buffer full, dropping event for batch %s item %d", event.BatchID, event.ItemIndex)
		}
	}
}

// runBatch is the shared one-item-at-a-time driver behind every entry
// point: it emits pending for the whole batch up front, then walks items
// in submitted order, checking cancellation between items. apply is called
// once per item and must not panic; any error it returns is classified via
// itemError, or as ErrTimeout if it wraps context.DeadlineExceeded, or
// treated as ErrOther otherwise.
func runBatch(ctx context.Context, batchID string, progress *Progress, n int, label func(i int) string, apply func(ctx context.Context, i int) error) BatchResult {
	result := BatchResult{Total: n}

	for i := 0; i < n; i++ {
		progress.emit(ProgressEvent{BatchID: batchID, ItemIndex: i, Status: StatusPending, Label: label(i)})
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			// Cancellation: remaining items stay pending, they are not
			// re-emitted or transitioned.
			result.SkippedCount += n - i
			for j := i; j < n; j++ {
				result.Results.Skipped = append(result.Results.Skipped, label(j))
			}
			return result
		default:
		}

		progress.emit(ProgressEvent{BatchID: batchID, ItemIndex: i, Status: StatusProcessing, Label: label(i)})

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err := apply(callCtx, i)
		cancel()

		if err == nil {
			result.SuccessCount++
			result.Results.Success = append(result.Results.Success, label(i))
			progress.emit(ProgressEvent{BatchID: batchID, ItemIndex: i, Status: StatusSuccess, Label: label(i)})
			continue
		}

		kind, msg := classifyError(err)
		result.FailedCount++
		result.Results.Failed = append(result.Results.Failed, label(i))
		progress.emit(ProgressEvent{
			BatchID: batchID, ItemIndex: i, Status: StatusError,
			ErrorKind: kind, ErrorMessage: msg, Label: label(i),
		})
	}

	return result
}

func classifyError(err error) (ErrorKind, string) {
	var ie *itemError
	if errors.As(err, &ie) {
		return ie.kind, ie.msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout, err.Error()
	}
	return ErrOther, err.Error()
}
