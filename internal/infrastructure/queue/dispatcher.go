package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saudijob/jobboard/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	drainTimeout   = 5 * time.Second
)

// ViewRecorder persists a single view of a job.
type ViewRecorder interface {
	RecordView(ctx context.Context, id string) error
}

// Dispatcher fans view increments out to a fixed set of workers using
// consistent hashing on the job id, so increments for one job are applied by
// one worker in arrival order.
type Dispatcher struct {
	workers  []chan string
	recorder ViewRecorder
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder ViewRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan string, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// flushes what is already buffered and exits; Wait blocks until they have.
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

// Enqueue hands a view to the worker responsible for id. It never blocks:
// when the worker's buffer is full the view is dropped and false returned.
func (d *Dispatcher) Enqueue(id string) bool {
	idx := d.shardIndex(id)
	select {
	case d.workers[idx] <- id:
		metrics.ViewQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return true
	default:
		metrics.ViewIncrementsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("job_id", id).Int("worker_id", idx).Msg("view queue full, increment dropped")
		return false
	}
}

// shardIndex maps a job id deterministically to a worker index.
func (d *Dispatcher) shardIndex(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case jobID := <-ch:
			d.apply(ctx, id, jobID)
		}
	}
}

func (d *Dispatcher) drain(id int, ch <-chan string) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case jobID := <-ch:
			d.apply(ctx, id, jobID)
		default:
			return
		}
	}
}

func (d *Dispatcher) apply(ctx context.Context, id int, jobID string) {
	metrics.ViewQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	start := time.Now()
	result := "applied"
	if err := d.recorder.RecordView(ctx, jobID); err != nil {
		result = "error"
		d.log.Warn().Err(err).
			Str("job_id", jobID).
			Int("worker_id", id).
			Msg("view increment failed")
	}
	metrics.ViewIncrementsTotal.WithLabelValues(result).Inc()
	metrics.ViewIncrementDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
