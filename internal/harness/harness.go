package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/store"
	"github.com/roach88/lineage/internal/testutil"
)

// Error codes a step can expect.
const (
	CodeEmptyHistory     = "empty_history"
	CodeClosed           = "closed"
	CodeDuplicateHumanID = "duplicate_human_id"
	CodeInvalidRecord    = "invalid_record"
	CodeStorage          = "storage"
	CodeUnknownAlias     = "unknown_alias"
	CodeNoTransaction    = "no_transaction"
)

var (
	errUnknownAlias  = errors.New("unknown alias")
	errNoTransaction = errors.New("no open transaction")
)

// ErrorCode classifies a step error for expect_error matching.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, history.ErrEmptyHistory):
		return CodeEmptyHistory
	case errors.Is(err, history.ErrClosed):
		return CodeClosed
	case errors.Is(err, errUnknownAlias):
		return CodeUnknownAlias
	case errors.Is(err, errNoTransaction):
		return CodeNoTransaction
	case store.IsDuplicateHumanID(err):
		return CodeDuplicateHumanID
	case store.IsInvalidRecord(err):
		return CodeInvalidRecord
	case store.IsStorageFailure(err):
		return CodeStorage
	default:
		return err.Error()
	}
}

// Harness executes one scenario against one store.
type Harness struct {
	store   *store.Store
	result  *Result
	aliases map[string]model.Ref
	txn     *history.Transaction
	seq     int64
	step    int
}

// Run executes a scenario in a fresh temporary tree and returns the trace
// and any failures. The error is reserved for failures of the harness
// itself.
//
// Execution flow:
//  1. Open a store with sequential handles and an in-memory undo log
//  2. Execute the steps, recording each and the signals it causes
//  3. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "lineage-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create tree directory: %w", err)
	}
	defer os.RemoveAll(dir)

	h := &Harness{
		result:  NewResult(),
		aliases: map[string]model.Ref{},
	}

	ctx := context.Background()
	st, err := store.Open(ctx, dir,
		store.WithSettings(scenario.settings()),
		store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		store.WithHandleGenerator(testutil.NewSequentialHandles("H")),
		store.WithUndoLog(history.NewMemoryLog()),
		store.WithEventSink(store.EventSinkFunc(h.record)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	h.store = st

	for i, step := range scenario.Steps {
		h.step = i + 1
		h.execute(ctx, step)
	}
	if h.txn != nil && h.txn.IsOpen() {
		h.result.AddError("transaction left open at end of scenario")
	}

	for _, msg := range EvaluateAssertions(ctx, st, h.aliases, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

// record appends an emitted store event to the trace.
func (h *Harness) record(e store.Event) {
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:     h.next(),
		Step:    h.step,
		Type:    EventSignal,
		Signal:  e.Signal(),
		Handles: e.Handles,
	})
}

// execute runs one step. Its trace entry is appended before the store is
// touched so the signals it causes follow it.
func (h *Harness) execute(ctx context.Context, step Step) {
	idx := len(h.result.Trace)
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:   h.next(),
		Step:  h.step,
		Type:  EventStep,
		Op:    step.Op,
		Alias: step.As + step.Ref,
	})

	entry := TraceEvent{}
	err := h.apply(ctx, step, &entry)

	ev := &h.result.Trace[idx]
	ev.Kind = entry.Kind
	ev.Handle = entry.Handle
	ev.HumanID = entry.HumanID
	ev.Description = entry.Description
	ev.Batch = entry.Batch
	ev.Error = ErrorCode(err)

	if ev.Error != step.ExpectError {
		switch {
		case step.ExpectError == "":
			h.result.AddError(fmt.Sprintf("step %d (%s): %v", h.step, step.Op, err))
		default:
			h.result.AddError(fmt.Sprintf("step %d (%s): expected error %q, got %q",
				h.step, step.Op, step.ExpectError, ev.Error))
		}
	}
}

func (h *Harness) apply(ctx context.Context, step Step, entry *TraceEvent) error {
	st := h.store
	switch step.Op {
	case OpBegin:
		if h.txn != nil && h.txn.IsOpen() {
			return fmt.Errorf("begin: %w", history.ErrClosed)
		}
		h.txn = st.Begin(step.Description, step.Batch)
		entry.Description, entry.Batch = step.Description, step.Batch
		return nil

	case OpCommit, OpAbort:
		if h.txn == nil {
			return errNoTransaction
		}
		entry.Description, entry.Batch = h.txn.Description(), h.txn.Batch()
		if step.Op == OpAbort {
			return st.Abort(h.txn)
		}
		return st.CommitTransaction(ctx, h.txn)

	case OpUndo, OpRedo:
		descs := st.History().UndoDescriptions()
		apply := st.Undo
		if step.Op == OpRedo {
			descs = st.History().RedoDescriptions()
			apply = st.Redo
		}
		if len(descs) > 0 {
			entry.Description = descs[0]
		}
		return apply(ctx)
	}

	return h.write(ctx, step, entry)
}

// write runs add, update and remove, inside the open transaction or in one
// of their own.
func (h *Harness) write(ctx context.Context, step Step, entry *TraceEvent) error {
	st := h.store

	var (
		kind model.Kind
		ref  model.Ref
		err  error
	)
	if step.Op != OpAdd {
		var ok bool
		if ref, ok = h.aliases[step.Ref]; !ok {
			return fmt.Errorf("%s %q: %w", step.Op, step.Ref, errUnknownAlias)
		}
		kind = ref.Kind
	}
	if step.Kind != "" {
		if kind, err = model.ParseKind(step.Kind); err != nil {
			return err
		}
	}
	entry.Kind = kind.Table()

	txn := h.txn
	own := txn == nil || !txn.IsOpen()
	if own {
		txn = st.Begin(strings.TrimSpace(fmt.Sprintf("%s %s %s", step.Op, kind.Table(), step.As+step.Ref)), false)
	}

	switch step.Op {
	case OpAdd:
		var r model.Record
		if r, err = h.build(model.New(kind), step.Record); err == nil {
			var handle string
			if handle, err = st.Add(ctx, txn, r); err == nil {
				entry.Handle, entry.HumanID = handle, r.Meta().ID
				if step.As != "" {
					h.aliases[step.As] = model.Ref{Kind: kind, Handle: handle}
				}
			}
		}
	case OpUpdate:
		var (
			r     model.Record
			found bool
		)
		r, found, err = st.Get(ctx, kind, ref.Handle)
		if err == nil && !found {
			err = &store.Error{Code: store.CodeInvalidRecord, Op: "update " + kind.Table(), Key: ref.Handle}
		}
		if err == nil {
			if r, err = h.build(r, step.Record); err == nil {
				err = st.CommitRecord(ctx, txn, r)
				entry.Handle, entry.HumanID = ref.Handle, r.Meta().ID
			}
		}
	case OpRemove:
		entry.Handle = ref.Handle
		err = st.Remove(ctx, txn, kind, ref.Handle)
	}

	if !own {
		return err
	}
	if err != nil {
		if abortErr := st.Abort(txn); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	return st.CommitTransaction(ctx, txn)
}

// build overwrites r's fields with fields, after replacing "@alias" strings
// by handles.
func (h *Harness) build(r model.Record, fields map[string]any) (model.Record, error) {
	resolved, err := h.resolve(fields)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(resolved)
	if err != nil {
		return nil, &store.Error{Code: store.CodeInvalidRecord, Op: "build " + r.Kind().Table(), Err: err}
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, &store.Error{Code: store.CodeInvalidRecord, Op: "build " + r.Kind().Table(), Err: err}
	}
	return r, nil
}

func (h *Harness) resolve(v any) (any, error) {
	switch val := v.(type) {
	case string:
		if alias, ok := strings.CutPrefix(val, "@"); ok {
			ref, found := h.aliases[alias]
			if !found {
				return nil, fmt.Errorf("%q: %w", val, errUnknownAlias)
			}
			return ref.Handle, nil
		}
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			r, err := h.resolve(elem)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := h.resolve(elem)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}
