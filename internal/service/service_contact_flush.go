package service

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/MKhiriev/go-contact-attrs/internal/contact"
	"github.com/MKhiriev/go-contact-attrs/internal/logger"
	"github.com/MKhiriev/go-contact-attrs/internal/store"
)

func (s *contactService) Flush(ctx context.Context, p Publisher) (FlushResult, error) {
	if p == nil {
		return FlushResult{}, ErrNilPublisher
	}

	pending, err := s.Pending(ctx)
	if err != nil {
		return FlushResult{}, err
	}

	var res FlushResult
	for _, pc := range pending {
		if err = ctx.Err(); err != nil {
			return res, err
		}

		opCtx, log := s.begin(ctx, "flush", pc.Handle)
		if err = p.Publish(opCtx, pc); err != nil {
			log.Warn().Err(err).Msg("publisher rejected pending contact")
			res.Failed++
			continue
		}
		if err = s.acknowledgePublished(opCtx, pc); err != nil {
			log.Err(err).Str("func", "*contactService.Flush").Msg("error acknowledging published contact")
			res.Failed++
			continue
		}
		res.Published++
	}
	return res, nil
}

// acknowledgePublished clears the keys of pc whose attributes still hold the
// published values. A key edited while the publish was in flight stays
// pending for the next flush.
func (s *contactService) acknowledgePublished(ctx context.Context, pc PendingContact) error {
	log := logger.FromContext(ctx)
	published := entriesByKey(pc.Attributes)

	err := s.mutate(ctx, pc.Handle, false, func(u *contact.User) (bool, error) {
		current := entriesByKey(u.AttributeEntries())

		keys := make([]attr.ChangeKey, 0, len(pc.Keys))
		for _, k := range pc.Keys {
			if !slices.EqualFunc(published[k], current[k], sameEntry) {
				log.Debug().Str("key", string(k)).Msg("attribute changed during publish, keeping it pending")
				continue
			}
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			return false, nil
		}

		before := u.PendingCount()
		u.ClearChanged(keys...)
		return u.PendingCount() != before, nil
	})
	if errors.Is(err, store.ErrContactNotFound) {
		return nil
	}
	return err
}

func entriesByKey(entries []attr.Entry) map[attr.ChangeKey][]attr.Entry {
	out := make(map[attr.ChangeKey][]attr.Entry, len(entries))
	for _, e := range entries {
		k := attr.KeyFor(e.Kind)
		out[k] = append(out[k], e)
	}
	return out
}

func sameEntry(a, b attr.Entry) bool {
	return a.Kind == b.Kind &&
		a.Version == b.Version &&
		a.Valid == b.Valid &&
		(a.Value == nil) == (b.Value == nil) &&
		bytes.Equal(a.Value, b.Value)
}

type flushJob struct {
	contactService ContactService
	logger         *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFlushJob creates a job that calls contactService.Flush on a ticker.
// The job is idle until Start is called.
func NewFlushJob(contactService ContactService, logger *logger.Logger) FlushJob {
	return &flushJob{contactService: contactService, logger: logger}
}

// Start stops any previously running job, then launches a goroutine that
// flushes every interval. A non-positive interval defaults to one minute.
// The goroutine exits when ctx is cancelled or Stop is called.
func (j *flushJob) Start(ctx context.Context, p Publisher, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				res, err := j.contactService.Flush(jobCtx, p)
				if err != nil {
					j.logger.Err(err).Str("func", "*flushJob.Start").Msg("flush failed")
					continue
				}
				j.logger.Debug().Int("published", res.Published).Int("failed", res.Failed).Msg("flushed pending contacts")
			}
		}
	}()
}

// Stop cancels the running goroutine and waits for it to exit. Safe to call
// when the job is not running.
func (j *flushJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
