// Package storage is the single source of truth for all records. It keeps
// the whole store in memory, applies every mutation under one lock, and
// persists the full state to a single (optionally encrypted) JSON file
// through one writer goroutine, so writes land on disk in the order they
// were applied in memory.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/cryptox"
	"github.com/dmitrijs2005/dailyops/internal/filex"
	"github.com/dmitrijs2005/dailyops/internal/logging"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Options configure Open.
type Options struct {
	// Path of the data file. Its directory is created if missing.
	Path string
	// Secret enables encryption at rest when non-empty.
	Secret string
	Logger logging.Logger
	// Now overrides the clock used for createdAt/updatedAt.
	Now func() time.Time
}

type persistJob struct {
	// payload is the plaintext store JSON; nil marks a flush barrier.
	payload []byte
	result  chan error
}

type Engine struct {
	mu     sync.Mutex
	store  *models.Store
	closed bool

	path   string
	key    []byte
	logger logging.Logger
	now    func() time.Time

	// qmu guards pending and stopping. It is taken after mu, never before.
	qmu      sync.Mutex
	pending  []*persistJob
	stopping bool
	wake     chan struct{}
	done     chan struct{}

	// writeFile is swapped in tests to inject faults and delays.
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// Open loads the data file at opts.Path, creating it with an empty store if
// it does not exist, and starts the writer goroutine.
//
// A file that cannot be decrypted is fatal (common.ErrDecryption). A file
// that decrypts but does not parse is copied aside as <path>.corrupt-<unix>,
// logged, and replaced in memory by an empty store.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: data file path is empty", common.ErrValidation)
	}

	e := &Engine{
		path:      opts.Path,
		logger:    opts.Logger,
		now:       opts.Now,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		writeFile: filex.WriteFileAtomic,
	}
	if e.logger == nil {
		e.logger = logging.Nop{}
	}
	e.logger = e.logger.With("module", "storage")
	if e.now == nil {
		e.now = time.Now
	}

	if opts.Secret != "" {
		key, err := cryptox.DeriveStoreKey(opts.Secret)
		if err != nil {
			return nil, fmt.Errorf("derive store key: %w", err)
		}
		e.key = key
	}

	if err := filex.EnsureDir(filepath.Dir(e.path), dirPerm); err != nil {
		return nil, err
	}

	store, fresh, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	e.store = store

	go e.writer()

	if fresh {
		// Establish the file (and its envelope) right away.
		if err := e.persistNow(ctx, "init"); err != nil {
			_ = e.Close(ctx)
			return nil, err
		}
	}

	e.logger.Info(ctx, "store loaded",
		"path", e.path,
		"encrypted", e.key != nil,
		"users", len(store.Users),
		"tasks", len(store.Tasks),
	)
	return e, nil
}

// Path returns the data file location.
func (e *Engine) Path() string { return e.path }

// Running reports whether the engine still accepts mutations.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

// Snapshot returns a deep copy of every collection.
func (e *Engine) Snapshot() *models.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Clone()
}

// Flush blocks until everything enqueued before the call is on disk, or ctx
// is done.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return common.ErrClosed
	}
	job := &persistJob{result: make(chan error, 1)}
	e.push(job)
	e.mu.Unlock()

	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting mutations, drains the persist queue and stops the
// writer. It is safe to call more than once.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		e.qmu.Lock()
		e.stopping = true
		e.qmu.Unlock()
		e.signal()
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mutate applies fn to the store and enqueues the resulting state in one
// critical section, then waits for that state to reach disk. If fn fails
// nothing is enqueued. A persistence failure leaves the change in memory and
// is returned wrapped in common.ErrPersistence.
func (e *Engine) mutate(ctx context.Context, op string, fn func(s *models.Store) error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return common.ErrClosed
	}
	if err := fn(e.store); err != nil {
		e.mu.Unlock()
		return err
	}
	job, err := e.enqueueLocked()
	e.mu.Unlock()

	if err != nil {
		e.logger.Error(ctx, "failed to encode store", "op", op, "error", err)
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return e.await(ctx, op, job)
}

func (e *Engine) persistNow(ctx context.Context, op string) error {
	return e.mutate(ctx, op, func(*models.Store) error { return nil })
}

func (e *Engine) enqueueLocked() (*persistJob, error) {
	payload, err := json.MarshalIndent(e.store, "", "  ")
	if err != nil {
		return nil, err
	}
	job := &persistJob{payload: payload, result: make(chan error, 1)}
	e.push(job)
	return job, nil
}

// push appends job to the pending queue and wakes the writer. It never blocks.
func (e *Engine) push(job *persistJob) {
	e.qmu.Lock()
	e.pending = append(e.pending, job)
	e.qmu.Unlock()
	e.signal()
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// take removes every pending job. stop is true once Close was called and
// nothing is left to write.
func (e *Engine) take() (batch []*persistJob, stop bool) {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	batch, e.pending = e.pending, nil
	return batch, len(batch) == 0 && e.stopping
}

func (e *Engine) await(ctx context.Context, op string, job *persistJob) error {
	if err := <-job.result; err != nil {
		e.logger.Error(ctx, "failed to persist store", "op", op, "path", e.path, "error", err)
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

// writer is the only goroutine that touches the data file. Jobs already
// waiting in the queue are coalesced: only the newest payload is written,
// since it contains every earlier mutation, and its result is reported to
// every job of the batch.
func (e *Engine) writer() {
	defer close(e.done)

	for range e.wake {
		for {
			batch, stop := e.take()
			if stop {
				return
			}
			if len(batch) == 0 {
				break
			}
			e.writeBatch(batch)
		}
	}
}

func (e *Engine) writeBatch(batch []*persistJob) {
	var payload []byte
	for i := len(batch) - 1; i >= 0; i-- {
		if batch[i].payload != nil {
			payload = batch[i].payload
			break
		}
	}

	var err error
	if payload != nil {
		err = e.write(payload)
	}
	for _, j := range batch {
		j.result <- err
	}
}

func (e *Engine) write(payload []byte) error {
	data := payload
	if e.key != nil {
		env, err := cryptox.Seal(payload, e.key)
		if err != nil {
			return fmt.Errorf("encrypt store: %w", err)
		}
		data, err = json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encode envelope: %w", err)
		}
	}
	return e.writeFile(e.path, data, filePerm)
}

// load reads the data file. fresh is true when there was nothing to read
// and the caller must persist the empty store.
func (e *Engine) load(ctx context.Context) (store *models.Store, fresh bool, err error) {
	data, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewStore(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read data file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewStore(), true, nil
	}

	text, err := e.decode(ctx, data)
	if err != nil {
		return nil, false, err
	}

	store, err = parseStore(text)
	if err != nil {
		e.logger.Error(ctx, "failed to parse data store, resetting to defaults", "path", e.path, "error", err)
		e.quarantine(ctx, data)
		return models.NewStore(), false, nil
	}
	return store, false, nil
}

// decode turns the file content into store JSON. An envelope always needs
// the key; plaintext is accepted even with a secret configured so a secret
// can be introduced on an existing file.
func (e *Engine) decode(ctx context.Context, data []byte) ([]byte, error) {
	env, isEnvelope := cryptox.ParseEnvelope(data)

	if e.key == nil {
		if isEnvelope {
			return nil, fmt.Errorf("%w: data file is encrypted but no secret is configured", common.ErrDecryption)
		}
		return data, nil
	}

	if !isEnvelope {
		e.logger.Warn(ctx, "data file is not encrypted, reading it as plaintext", "path", e.path)
		return data, nil
	}

	plain, err := cryptox.Open(env, e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plain, nil
}

func (e *Engine) quarantine(ctx context.Context, data []byte) {
	dst := fmt.Sprintf("%s.corrupt-%d", e.path, e.now().Unix())
	if err := os.WriteFile(dst, data, filePerm); err != nil {
		e.logger.Error(ctx, "failed to keep a copy of the corrupt data file", "path", dst, "error", err)
		return
	}
	e.logger.Warn(ctx, "corrupt data file copied aside", "path", dst)
}

func parseStore(text []byte) (*models.Store, error) {
	store := &models.Store{}
	if err := json.Unmarshal(text, store); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptStore, err)
	}
	store.Normalize()
	return store, nil
}

// stamp returns the current time at millisecond precision, strictly after
// prev, so updatedAt always advances.
func (e *Engine) stamp(prev time.Time) time.Time {
	now := e.now().UTC().Truncate(time.Millisecond)
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}
