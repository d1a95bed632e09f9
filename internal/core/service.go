package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultConversionTimeout is the maximum duration for a batch conversion.
var DefaultConversionTimeout = 2 * time.Minute

// resultRetention is how long a finished batch stays available for download
// before it is dropped from memory.
var resultRetention = 10 * time.Minute

// BatchRecord is the metadata persisted for a completed or failed batch.
// CSV payloads are never part of the record.
type BatchRecord struct {
	BatchID   string
	FileNames []string
	Documents int
	TotalRows int
	Duration  time.Duration
	Error     string
	IPAddress string
	UserAgent string
}

// BatchRecorder persists conversion batch metadata. Implementations must be
// safe for concurrent use. A nil recorder disables history.
type BatchRecorder interface {
	RecordBatch(ctx context.Context, rec BatchRecord) error
}

// ServiceConfig carries the tunables for a Service.
type ServiceConfig struct {
	MaxConcurrent int           // parallel batches; 0 means default
	MaxWait       time.Duration // slot wait before rejecting; 0 means default
	Timeout       time.Duration // per-batch deadline; 0 means default
	Recorder      BatchRecorder // optional history sink
}

// Service provides the core business logic for conversion operations.
// Batches run asynchronously; within a batch, files are processed strictly
// one after another.
type Service struct {
	limiter  *ConversionLimiter
	timeout  time.Duration
	recorder BatchRecorder

	mu      sync.RWMutex
	batches map[string]*activeBatch
}

type activeBatch struct {
	ID         string
	Files      []InputFile
	Cancel     context.CancelFunc
	Progress   ConversionProgress // guarded by ListenerMu
	Result     *BatchResult       // written before Done closes, read after
	Done       chan struct{}
	Listeners  []chan ConversionProgress
	ListenerMu sync.Mutex
	IPAddress  string
	UserAgent  string
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConversionTimeout
	}

	return &Service{
		limiter:  NewConversionLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		timeout:  timeout,
		recorder: cfg.Recorder,
		batches:  make(map[string]*activeBatch),
	}
}

// StartConversion begins an asynchronous batch conversion and returns the
// batch ID immediately. Use SubscribeProgress for updates and GetBatchResult
// for the outcome. Returns ErrTooManyConversions when no slot frees up in
// time.
func (s *Service) StartConversion(ctx context.Context, files []InputFile) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no file provided")
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	batchID := uuid.New().String()
	batchCtx, cancel := context.WithTimeout(context.Background(), s.timeout)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	batch := &activeBatch{
		ID:     batchID,
		Files:  files,
		Cancel: cancel,
		Progress: ConversionProgress{
			BatchID:    batchID,
			Phase:      PhaseStarting,
			TotalFiles: len(files),
		},
		Done:      make(chan struct{}),
		Listeners: make([]chan ConversionProgress, 0),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
	}

	s.mu.Lock()
	s.batches[batchID] = batch
	s.mu.Unlock()

	go s.processBatch(batchCtx, batch, names)

	return batchID, nil
}

// processBatch runs one batch to completion: for each file in order, unpack
// if needed, extract, encode. Fail-fast: the first error discards everything,
// including documents already converted.
func (s *Service) processBatch(ctx context.Context, batch *activeBatch, names []string) {
	startTime := time.Now()

	defer func() {
		batch.closeListeners()
		close(batch.Done)
		s.limiter.Release()
		s.cleanup(batch.ID, resultRetention)
	}()

	result := &BatchResult{BatchID: batch.ID, FileNames: names}

	fail := func(phase ConversionPhase, err error) {
		batch.setProgress(func(p *ConversionProgress) {
			p.Phase = phase
			p.Error = err.Error()
		})
		result.Results = nil
		result.TotalRows = 0
		result.Error = err.Error()
		result.Duration = time.Since(startTime)
		batch.Result = result
		s.record(result, startTime, batch)
	}

	for i, f := range batch.Files {
		if ctx.Err() != nil {
			fail(PhaseCancelled, ctx.Err())
			return
		}

		name := f.Name
		current := i + 1
		batch.setProgress(func(p *ConversionProgress) {
			p.Phase = PhaseExtracting
			p.FileName = name
			p.CurrentFile = current
		})

		fileResults, err := ConvertFile(f.Name, f.Data)
		if err != nil {
			fail(PhaseFailed, err)
			return
		}

		result.Results = append(result.Results, fileResults...)
		for _, r := range fileResults {
			result.TotalRows += r.RowCount
		}
		produced := len(result.Results)
		batch.setProgress(func(p *ConversionProgress) {
			p.DocsProduced = produced
		})
	}

	result.Duration = time.Since(startTime)
	batch.Result = result

	batch.setProgress(func(p *ConversionProgress) {
		p.Phase = PhaseComplete
		p.FileName = ""
	})

	s.record(result, startTime, batch)
}

// record persists batch metadata when a recorder is configured. Failures are
// swallowed: history is best-effort and must never affect the conversion.
func (s *Service) record(result *BatchResult, startTime time.Time, batch *activeBatch) {
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = s.recorder.RecordBatch(ctx, BatchRecord{
		BatchID:   result.BatchID,
		FileNames: result.FileNames,
		Documents: len(result.Results),
		TotalRows: result.TotalRows,
		Duration:  time.Since(startTime),
		Error:     result.Error,
		IPAddress: batch.IPAddress,
		UserAgent: batch.UserAgent,
	})
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the batch completes.
func (s *Service) SubscribeProgress(batchID string) (<-chan ConversionProgress, error) {
	s.mu.RLock()
	batch, ok := s.batches[batchID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("batch not found: %s", batchID)
	}

	ch := make(chan ConversionProgress, 10)

	batch.ListenerMu.Lock()
	batch.Listeners = append(batch.Listeners, ch)
	// Send current progress immediately
	select {
	case ch <- batch.Progress:
	default:
	}
	batch.ListenerMu.Unlock()

	return ch, nil
}

// CancelConversion cancels an in-progress batch.
func (s *Service) CancelConversion(batchID string) error {
	s.mu.RLock()
	batch, ok := s.batches[batchID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("batch not found: %s", batchID)
	}

	batch.Cancel()
	return nil
}

// GetBatchResult returns the result of a completed batch.
// Blocks until the batch completes if still in progress.
func (s *Service) GetBatchResult(batchID string) (*BatchResult, error) {
	s.mu.RLock()
	batch, ok := s.batches[batchID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("batch not found: %s", batchID)
	}

	<-batch.Done

	return batch.Result, nil
}

// GetBatchProgress returns the current progress without blocking.
func (s *Service) GetBatchProgress(batchID string) (ConversionProgress, error) {
	s.mu.RLock()
	batch, ok := s.batches[batchID]
	s.mu.RUnlock()

	if !ok {
		return ConversionProgress{}, fmt.Errorf("batch not found: %s", batchID)
	}

	return batch.currentProgress(), nil
}

// GetDocument returns one converted document from a completed batch by its
// position in the result list. Blocks until the batch completes.
func (s *Service) GetDocument(batchID string, index int) (ConversionResult, error) {
	result, err := s.GetBatchResult(batchID)
	if err != nil {
		return ConversionResult{}, err
	}
	if result.Error != "" {
		return ConversionResult{}, fmt.Errorf("batch failed: %s", result.Error)
	}
	if index < 0 || index >= len(result.Results) {
		return ConversionResult{}, fmt.Errorf("document index out of range: %d", index)
	}
	return result.Results[index], nil
}

// LimiterStatus returns the conversion limiter state for monitoring.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until all active batches finish or ctx expires.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// setProgress mutates the batch progress and fans the new value out to all
// listeners in a single critical section. Mutation and reads share
// ListenerMu, so subscribers never observe a half-updated struct.
func (batch *activeBatch) setProgress(mutate func(*ConversionProgress)) {
	batch.ListenerMu.Lock()
	defer batch.ListenerMu.Unlock()

	mutate(&batch.Progress)

	for _, ch := range batch.Listeners {
		select {
		case ch <- batch.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// currentProgress returns a consistent snapshot of the batch progress.
func (batch *activeBatch) currentProgress() ConversionProgress {
	batch.ListenerMu.Lock()
	defer batch.ListenerMu.Unlock()
	return batch.Progress
}

// closeListeners closes all listener channels.
func (batch *activeBatch) closeListeners() {
	batch.ListenerMu.Lock()
	defer batch.ListenerMu.Unlock()

	for _, ch := range batch.Listeners {
		close(ch)
	}
	batch.Listeners = nil
}

// cleanup removes the batch from tracking after a delay.
func (s *Service) cleanup(batchID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.batches, batchID)
		s.mu.Unlock()
	})
}
