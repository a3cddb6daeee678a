package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/expensehub/refund-api/internal/api/metrics"
	"github.com/expensehub/refund-api/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
	deleteTimeout  = 30 * time.Second
)

// Dispatcher removes every file enqueued on it without checking who still
// uses it. Callers decide a file is unreferenced before enqueueing.
// Filenames are routed to a fixed set of workers by hash, so removals of
// the same file never run concurrently.
type Dispatcher struct {
	workers []chan string
	storage ports.FileStorage
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.FileCleaner = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, storage ports.FileStorage, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		storage: storage,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a filename to its worker. When that worker's buffer is full
// the file is dropped and left on storage.
func (d *Dispatcher) Enqueue(filename string) {
	idx := d.shardIndex(filename)
	select {
	case d.workers[idx] <- filename:
		metrics.FileCleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.FileCleanupTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("filename", filename).Int("worker_id", idx).Msg("cleanup queue full, file left in storage")
	}
}

// shardIndex maps a filename deterministically to a worker index.
func (d *Dispatcher) shardIndex(filename string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(filename))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	depth := metrics.FileCleanupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case filename, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.remove(ctx, id, filename)
		}
	}
}

func (d *Dispatcher) remove(ctx context.Context, id int, filename string) {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := d.storage.Delete(ctx, filename); err != nil {
		metrics.FileCleanupTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("filename", filename).
			Int("worker_id", id).
			Msg("file cleanup failed")
		return
	}
	metrics.FileCleanupTotal.WithLabelValues("deleted").Inc()
	d.log.Debug().Str("filename", filename).Int("worker_id", id).Msg("file removed")
}
