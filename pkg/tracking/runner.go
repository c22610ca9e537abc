package tracking

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Runner drives a fixed set of channels, one goroutine each, each
// against its own SampleSource, publishing every channel's
// measurements on one shared Go channel. Loss-of-lock events go to the
// ControlQueue each Channel was constructed with. It is the multi-channel
// analogue of a receiver flow graph where each tracking block runs on
// its own scheduler thread.
type Runner struct {
	id       string
	channels []*Channel
	sources  []SampleSource
	queue    *ControlQueue
	logger   logrus.FieldLogger

	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	mutex   sync.Mutex
	wg      sync.WaitGroup

	measurements chan Measurement
}

// NewRunner builds a runner for the given channels, each paired with
// the SampleSource it reads from (same length, index-aligned). queue is
// stored and returned by Queue; it is not handed to the channels, which
// post to the queue they were constructed with. Start stamps each
// channel with this runner's RunID.
func NewRunner(channels []*Channel, sources []SampleSource, queue *ControlQueue, logger logrus.FieldLogger) (*Runner, error) {
	if len(channels) != len(sources) {
		return nil, fmt.Errorf("%w: %d channels but %d sources", ErrConfigInvalid, len(channels), len(sources))
	}
	return &Runner{
		id:           uuid.NewString(),
		channels:     channels,
		sources:      sources,
		queue:        queue,
		logger:       logger,
		measurements: make(chan Measurement, len(channels)*cn0Window),
	}, nil
}

// ID returns the runner's uuid, stamped onto every ControlEvent a
// channel under this runner posts. Dump filenames do not include it.
func (r *Runner) ID() string { return r.id }

// Measurements returns the channel every channel's Measurement is
// published on, one per epoch per channel.
func (r *Runner) Measurements() <-chan Measurement { return r.measurements }

// Queue returns the control queue passed to NewRunner.
func (r *Runner) Queue() *ControlQueue { return r.queue }

// Start launches one goroutine per channel.
func (r *Runner) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.running {
		return fmt.Errorf("tracking: runner %s already running", r.id)
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.running = true

	for i, ch := range r.channels {
		ch.SetRunID(r.id)
		r.wg.Add(1)
		go r.runChannel(ch, r.sources[i])
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"run_id":   r.id,
			"channels": len(r.channels),
		}).Info("runner started")
	}
	return nil
}

// Stop requests every channel to return to Idle and waits for their
// goroutines to exit.
func (r *Runner) Stop() error {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return nil
	}
	r.cancel()
	for _, ch := range r.channels {
		ch.Stop()
	}
	r.running = false
	r.mutex.Unlock()

	r.wg.Wait()
	close(r.measurements)
	return nil
}

func (r *Runner) runChannel(ch *Channel, src SampleSource) {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		meas, err := ch.Process(src)

		select {
		case r.measurements <- meas:
		case <-r.ctx.Done():
			return
		default:
			// Measurement buffer full: drop rather than block a
			// tracking goroutine on a slow consumer.
		}

		if err != nil {
			if r.logger != nil {
				r.logger.WithError(err).WithField("channel_id", ch.ID()).Warn("sample source exhausted, channel stopping")
			}
			return
		}
	}
}
