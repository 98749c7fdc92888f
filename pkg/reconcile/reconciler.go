// Package reconcile checks that every file of a left folder has a fingerprint
// match in a right folder, and optionally copies what is missing.
package reconcile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/foldercheck/pkg/compare"
	"github.com/sdejongh/foldercheck/pkg/hashing"
	"github.com/sdejongh/foldercheck/pkg/index"
	"github.com/sdejongh/foldercheck/pkg/logging"
	"github.com/sdejongh/foldercheck/pkg/models"
	"github.com/sdejongh/foldercheck/pkg/output"
	"github.com/sdejongh/foldercheck/pkg/ratelimit"
	"github.com/sdejongh/foldercheck/pkg/report"
	"github.com/sdejongh/foldercheck/pkg/storage"
)

const (
	sideLeft  = "left"
	sideRight = "right"
)

// State is a step of the reconciliation loop
type State string

const (
	StateScanning  State = "scanning"
	StateDiffing   State = "diffing"
	StateClean     State = "clean"
	StateReporting State = "reporting"
	StateRepairing State = "repairing"
	StateCleanup   State = "cleanup"
	StateDone      State = "done"
)

// Reconciler drives scan, diff, report and repair passes over two folders
type Reconciler struct {
	op        *models.CheckOperation
	left      storage.Backend
	right     storage.Backend
	builders  map[string]*index.Builder
	repairer  *Repairer
	writer    report.Writer
	formatter output.Formatter
	logger    logging.Logger
	out       io.Writer

	contentsName string
	missingName  string

	mu      sync.Mutex
	actions int
	state   State
	report  *models.RunReport
	onState func(State)
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithWriter replaces the report writer
func WithWriter(w report.Writer) Option {
	return func(r *Reconciler) { r.writer = w }
}

// WithOutput sets where the formatter writes (default stdout)
func WithOutput(w io.Writer) Option {
	return func(r *Reconciler) { r.out = w }
}

// WithStateHook is called on every state transition
func WithStateHook(fn func(State)) Option {
	return func(r *Reconciler) { r.onState = fn }
}

// New validates op and opens both folders. Missing, unset or identical
// folders fail with a config error before anything is hashed.
func New(op *models.CheckOperation, formatter output.Formatter, logger logging.Logger, opts ...Option) (*Reconciler, error) {
	if err := op.Validate(); err != nil {
		return nil, models.NewError(models.KindConfig, "validate", "", err)
	}

	left, err := storage.NewLocal(op.LeftFolder)
	if err != nil {
		return nil, err
	}
	right, err := storage.NewLocal(op.RightFolder)
	if err != nil {
		return nil, err
	}
	if left.Root() == right.Root() {
		return nil, models.NewError(models.KindConfig, "open folders", left.Root(), errors.New("left and right folders are the same"))
	}

	alg, err := hashing.Lookup(op.HashAlgorithm)
	if err != nil {
		return nil, models.NewError(models.KindConfig, "hash algorithm", "", err)
	}

	if formatter == nil {
		formatter = output.NewHumanFormatter(op.Verbose)
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}

	r := &Reconciler{
		op:           op,
		left:         left,
		right:        right,
		writer:       report.NewFileWriter(),
		formatter:    formatter,
		logger:       logger.WithFields(logging.Fields{"operation_id": op.ID}),
		out:          os.Stdout,
		contentsName: report.ContentsFilename(op.WriteMode, op.ContentsFilename),
		missingName:  op.MissingFilesFilename,
		builders:     make(map[string]*index.Builder, 2),
	}
	for _, opt := range opts {
		opt(r)
	}

	left.SetLogger(r.logger.WithFields(logging.Fields{"side": sideLeft}))
	right.SetLogger(r.logger.WithFields(logging.Fields{"side": sideRight}))

	limiter := ratelimit.NewLimiter(op.BandwidthLimit)
	r.repairer = NewRepairer(left, right, op.MaxWorkers, limiter)

	for _, side := range []string{sideLeft, sideRight} {
		hasher, err := hashing.NewHasher(alg, op.HashType, op.BufferSize)
		if err != nil {
			return nil, models.NewError(models.KindConfig, "hasher", "", err)
		}
		if limiter != nil {
			hasher.SetReaderWrapper(limiter.Wrap)
		}
		r.builders[side] = index.NewBuilder(hasher,
			index.WithProtected(r.contentsName, r.missingName),
			index.WithExclude(op.ExcludePatterns...),
			index.WithWorkers(op.MaxWorkers),
			index.WithLogger(r.logger.WithFields(logging.Fields{"side": side})),
			index.WithObserver(r.observe(side)),
		)
	}

	return r, nil
}

// ContentsFilename returns the index report name in use
func (r *Reconciler) ContentsFilename() string {
	return r.contentsName
}

// Run executes passes until the left folder is covered, nothing more can be
// done, or the repair budget is spent. The report is returned even on error.
func (r *Reconciler) Run(ctx context.Context) (*models.RunReport, error) {
	rep := &models.RunReport{
		OperationID:   r.op.ID,
		LeftFolder:    r.left.Root(),
		RightFolder:   r.right.Root(),
		HashAlgorithm: r.op.HashAlgorithm,
		HashType:      r.op.HashType,
		WriteMode:     r.op.WriteMode,
		FixMissing:    r.op.FixMissingFiles,
		StartTime:     time.Now(),
	}
	r.report = rep

	r.formatter.Start(r.out, r.op)
	r.logger.Info(ctx, "Starting check", logging.Fields{
		"left":       rep.LeftFolder,
		"right":      rep.RightFolder,
		"algorithm":  r.op.HashAlgorithm,
		"hash_type":  string(r.op.HashType),
		"write_mode": string(r.op.WriteMode),
		"fix":        r.op.FixMissingFiles,
	})

	status, err := r.loop(ctx, rep)
	rep.Status = status
	rep.EndTime = time.Now()
	rep.Duration = rep.EndTime.Sub(rep.StartTime)
	r.setState(StateDone)

	if err != nil {
		r.logger.Error(ctx, "Check aborted", err, logging.Fields{"status": string(status)})
		r.formatter.Error(err)
	} else {
		r.logger.Info(ctx, "Check finished", logging.Fields{
			"status":  string(status),
			"passes":  len(rep.Passes),
			"missing": len(rep.Missing()),
		})
	}
	r.formatter.Complete(rep)

	return rep, err
}

func (r *Reconciler) loop(ctx context.Context, rep *models.RunReport) (models.RunStatus, error) {
	repairs := 0
	prevMissing := -1

	for number := 1; ; number++ {
		pass, err := r.scanAndDiff(ctx, number)
		if err != nil {
			return failureStatus(err), err
		}
		rep.Passes = append(rep.Passes, pass)
		missing := len(pass.Missing)

		if missing == 0 {
			r.setState(StateClean)
			if r.op.WriteMode.Enabled() {
				r.writeIndexes(ctx, pass)
			}
			pass.Actions = r.actionCount()
			if repairs > 0 {
				return models.StatusRepaired, nil
			}
			return models.StatusClean, nil
		}

		r.setState(StateReporting)
		if !r.op.WriteMode.Enabled() {
			// Missing paths were already printed with the diff
			pass.Actions = r.actionCount()
			return models.StatusMissing, nil
		}

		r.writeList(ctx, pass.Missing)
		r.writeIndexes(ctx, pass)

		if !r.op.FixMissingFiles {
			pass.Actions = r.actionCount()
			return models.StatusMissing, nil
		}

		if prevMissing >= 0 && missing >= prevMissing {
			r.logger.Warn(ctx, "Repair made no progress", logging.Fields{"pass": number, "missing": missing})
			pass.Actions = r.actionCount()
			return models.StatusStalled, nil
		}
		if repairs >= r.op.MaxPasses {
			r.logger.Warn(ctx, "Repair pass limit reached", logging.Fields{"max_passes": r.op.MaxPasses, "missing": missing})
			pass.Actions = r.actionCount()
			return models.StatusStalled, nil
		}

		copied, err := r.repair(ctx, pass)
		repairs++
		if err != nil {
			return failureStatus(err), err
		}

		r.cleanup(ctx)
		pass.Actions = r.actionCount()

		if copied == 0 {
			r.logger.Warn(ctx, "Nothing could be copied", logging.Fields{"pass": number, "missing": missing})
			return models.StatusStalled, nil
		}
		prevMissing = missing
	}
}

// scanAndDiff builds both indexes concurrently and compares them
func (r *Reconciler) scanAndDiff(ctx context.Context, number int) (*models.Pass, error) {
	r.setState(StateScanning)
	r.notify(output.ProgressUpdate{Type: output.UpdatePassStart, Action: r.nextAction(), Pass: number})

	pass := &models.Pass{Number: number}
	g, gctx := errgroup.WithContext(ctx)

	for _, side := range []string{sideLeft, sideRight} {
		side := side
		g.Go(func() error {
			backend := r.backend(side)
			start := time.Now()
			r.notify(output.ProgressUpdate{Type: output.UpdateScanStart, Action: r.nextAction(), Pass: number, Side: side, FilePath: backend.Root()})

			res, err := r.builders[side].Build(gctx, backend)
			if err != nil {
				return err
			}

			r.report.Stats.BytesHashed.Add(res.Bytes)
			r.notify(output.ProgressUpdate{
				Type:    output.UpdateScanComplete,
				Action:  r.nextAction(),
				Pass:    number,
				Side:    side,
				Count:   res.Index.Len(),
				Elapsed: time.Since(start),
			})

			r.mu.Lock()
			if side == sideLeft {
				pass.Left = res.Index
			} else {
				pass.Right = res.Index
			}
			r.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	r.setState(StateDiffing)
	pass.Missing = compare.Diff(pass.Left, pass.Right)
	r.notify(output.ProgressUpdate{Type: output.UpdateDiffComplete, Action: r.nextAction(), Pass: number, Missing: pass.Missing})
	r.logger.Info(ctx, "Pass compared", logging.Fields{
		"pass":          number,
		"left_entries":  pass.Left.Len(),
		"right_entries": pass.Right.Len(),
		"missing":       len(pass.Missing),
	})

	return pass, nil
}

// repair copies the missing set and returns how many files were copied
func (r *Reconciler) repair(ctx context.Context, pass *models.Pass) (int, error) {
	r.setState(StateRepairing)
	r.notify(output.ProgressUpdate{Type: output.UpdateRepairStart, Action: r.nextAction(), Pass: pass.Number, Count: len(pass.Missing)})

	results, err := r.repairer.Repair(ctx, pass.Missing, func(res CopyResult) {
		switch res.Outcome {
		case CopyDone:
			r.report.Stats.FilesCopied.Add(1)
			r.report.Stats.BytesCopied.Add(res.Bytes)
			r.notify(output.ProgressUpdate{Type: output.UpdateCopyComplete, Pass: pass.Number, FilePath: res.Source, Dest: res.Dest, Bytes: res.Bytes})
		case CopyExists:
			r.report.Stats.CopiesSkipped.Add(1)
			r.notify(output.ProgressUpdate{Type: output.UpdateCopySkipped, Pass: pass.Number, FilePath: res.Source, Dest: res.Dest})
		case CopyFailure:
			if ctx.Err() != nil {
				return
			}
			r.report.Stats.CopiesFailed.Add(1)
			r.recordError(ctx, res.Err, res.Source)
			r.notify(output.ProgressUpdate{Type: output.UpdateCopyError, Pass: pass.Number, FilePath: res.Source, Dest: res.Dest, Error: res.Err})
		}
	})

	// Results are in missing-set order regardless of completion order
	for _, res := range results {
		switch res.Outcome {
		case CopyDone:
			pass.Copied = append(pass.Copied, res.Source)
		case CopyExists:
			pass.Skipped = append(pass.Skipped, res.Source)
		case CopyFailure:
			pass.Failed = append(pass.Failed, res.Source)
		}
	}

	return len(pass.Copied), err
}

// cleanup removes this tool's report files from both folders so the next
// pass starts from the same inputs
func (r *Reconciler) cleanup(ctx context.Context) {
	r.setState(StateCleanup)
	for _, backend := range []storage.Backend{r.left, r.right} {
		for _, name := range []string{r.contentsName, r.missingName} {
			path := filepath.Join(backend.Root(), name)
			exists, _ := backend.Exists(ctx, name)
			if err := backend.Delete(ctx, name); err != nil {
				r.recordError(ctx, models.NewError(models.KindWrite, "remove report", path, err), path)
				continue
			}
			if exists {
				r.notify(output.ProgressUpdate{Type: output.UpdateCleanup, Action: r.nextAction(), FilePath: path})
			}
		}
	}
}

func (r *Reconciler) writeIndexes(ctx context.Context, pass *models.Pass) {
	for _, idx := range []*models.FingerprintIndex{pass.Left, pass.Right} {
		path := filepath.Join(idx.Dir, r.contentsName)
		r.persist(ctx, path, func() error { return r.writer.WriteIndex(idx, r.op.WriteMode, path) })
	}
}

func (r *Reconciler) writeList(ctx context.Context, missing models.MissingSet) {
	path := filepath.Join(r.left.Root(), r.missingName)
	r.persist(ctx, path, func() error { return r.writer.WriteList(missing, path) })
}

// persist runs a report write; failures are recorded and the run goes on
func (r *Reconciler) persist(ctx context.Context, path string, write func() error) {
	if err := write(); err != nil {
		r.recordError(ctx, err, path)
		r.notify(output.ProgressUpdate{Type: output.UpdateReportError, FilePath: path, Error: err})
		return
	}
	r.report.Stats.ReportsWritten.Add(1)
	r.notify(output.ProgressUpdate{Type: output.UpdateReportWritten, Action: r.nextAction(), FilePath: path})
}

// observe turns builder events for one side into stats and progress
func (r *Reconciler) observe(side string) index.Observer {
	return func(ev index.Event) {
		switch ev.Type {
		case index.EventListed:
			r.notify(output.ProgressUpdate{Type: output.UpdateScanListed, Action: r.nextAction(), Side: side, FilePath: ev.Dir, Count: ev.Count})
		case index.EventHashed, index.EventReplaced:
			if side == sideLeft {
				r.report.Stats.LeftFilesHashed.Add(1)
			} else {
				r.report.Stats.RightFilesHashed.Add(1)
			}
			r.notify(output.ProgressUpdate{Type: output.UpdateFileHashed, Side: side, FilePath: ev.Path, Bytes: ev.Size})
		case index.EventFailed:
			r.report.Stats.FilesSkipped.Add(1)
			r.recordError(context.Background(), ev.Err, ev.Path)
			r.notify(output.ProgressUpdate{Type: output.UpdateFileSkipped, Side: side, FilePath: ev.Path, Error: ev.Err})
		}
	}
}

func (r *Reconciler) recordError(ctx context.Context, err error, path string) {
	if err == nil {
		return
	}
	kind := models.KindOf(err)
	r.mu.Lock()
	r.report.Errors = append(r.report.Errors, models.RunError{
		Kind:      kind,
		FilePath:  path,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
	r.mu.Unlock()
	if kind == models.KindWrite {
		r.logger.Warn(ctx, "Write failed", logging.Fields{"file": path, "error": err.Error()})
	}
}

func (r *Reconciler) notify(u output.ProgressUpdate) {
	r.formatter.Progress(u)
}

func (r *Reconciler) nextAction() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions++
	return r.actions
}

func (r *Reconciler) actionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actions
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	hook := r.onState
	r.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

// State returns the current state
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) backend(side string) storage.Backend {
	if side == sideLeft {
		return r.left
	}
	return r.right
}

func failureStatus(err error) models.RunStatus {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.StatusCancelled
	}
	return models.StatusFailed
}
