package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrDeliveryTimeout = errors.New("notification: delivery timed out")

// Delivery is the outcome for one recipient.
type Delivery struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Report aggregates the outcome of a fan-out.
type Report struct {
	Sent    int        `json:"sent"`
	Failed  int        `json:"failed"`
	Total   int        `json:"total"`
	Details []Delivery `json:"details"`
}

type Options struct {
	// Timeout bounds the whole dispatch, retries included.
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed send.
	Retries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
	// Concurrency caps the number of sends in flight.
	Concurrency int
}

// Dispatcher fans messages out to a Notifier.
type Dispatcher struct {
	notifier Notifier
	opts     Options
	log      zerolog.Logger
}

func NewDispatcher(notifier Notifier, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	return &Dispatcher{
		notifier: notifier,
		opts:     opts,
		log:      log,
	}
}

type result struct {
	index int
	err   error
}

// Dispatch sends every message concurrently and returns once all of them are
// settled or the timeout expires. Recipients still pending at the deadline
// are reported as failed. Dispatch is detached from ctx cancellation so a
// client hanging up does not abort deliveries already under way.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []Message) Report {
	report := Report{
		Total:   len(messages),
		Details: make([]Delivery, len(messages)),
	}
	if len(messages) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
	defer cancel()

	results := make(chan result, len(messages))
	go func() {
		g := new(errgroup.Group)
		g.SetLimit(d.opts.Concurrency)
		for i, msg := range messages {
			i, msg := i, msg
			g.Go(func() error {
				results <- result{index: i, err: d.deliver(ctx, msg)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	settled := make([]bool, len(messages))
	record := func(r result) {
		settled[r.index] = true
		report.Details[r.index] = delivery(messages[r.index].To, r.err)
	}

	pending := len(messages)
wait:
	for pending > 0 {
		select {
		case r := <-results:
			record(r)
			pending--
		case <-ctx.Done():
			break wait
		}
	}

	// Results that raced with the deadline still count.
drain:
	for pending > 0 {
		select {
		case r := <-results:
			record(r)
			pending--
		default:
			break drain
		}
	}

	for i, ok := range settled {
		if !ok {
			report.Details[i] = delivery(messages[i].To, ErrDeliveryTimeout)
		}
	}

	for _, detail := range report.Details {
		if detail.Success {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	return report
}

// SendOne delivers a single message synchronously with the same retry and
// timeout rules as Dispatch, returning the final error.
func (d *Dispatcher) SendOne(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
	defer cancel()

	return d.deliver(ctx, msg)
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	var err error
	delay := d.opts.Backoff

	for attempt := 0; attempt <= d.opts.Retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %v", ErrDeliveryTimeout, err)
			case <-timer.C:
			}
			delay *= 2
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryTimeout, ctxErr)
		}

		err = d.notifier.Send(ctx, msg)
		if err == nil {
			return nil
		}

		d.log.Warn().
			Err(err).
			Str("to", msg.To).
			Int("attempt", attempt+1).
			Msg("notification delivery failed")
	}

	return err
}

// Include adds outcomes settled outside Dispatch, such as messages that could
// not be rendered, to the report.
func (r *Report) Include(details ...Delivery) {
	for _, detail := range details {
		r.Details = append(r.Details, detail)
		r.Total++
		if detail.Success {
			r.Sent++
		} else {
			r.Failed++
		}
	}
}

// Failure is the outcome for a recipient whose message was never sent.
func Failure(email string, err error) Delivery {
	return delivery(email, err)
}

func delivery(email string, err error) Delivery {
	if err != nil {
		return Delivery{Email: email, Error: err.Error()}
	}
	return Delivery{Email: email, Success: true}
}
