// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Tally is the outcome of a delivery run.
type Tally struct {
	Sent   int
	Failed int
}

// Broadcaster delivers one piece of content to many recipients. Delivery
// is strictly sequential with a fixed pause after every attempt, which
// bounds the outbound request rate and keeps the failure accounting
// race-free without extra locking. A delivery error never aborts the
// batch; it is logged, counted and the run continues.
type Broadcaster struct {
	gw            Gateway
	log           zerolog.Logger
	delay         time.Duration
	progressEvery int
}

func NewBroadcaster(gw Gateway, log zerolog.Logger, delay time.Duration, progressEvery int) *Broadcaster {
	if progressEvery <= 0 {
		progressEvery = 1
	}
	return &Broadcaster{
		gw:            gw,
		log:           log.With().Str("component", "broadcast").Logger(),
		delay:         delay,
		progressEvery: progressEvery,
	}
}

// Run delivers content to every recipient in order and returns the final
// tally. There is no mid-run cancellation: once started, the run covers
// the whole recipient snapshot. The optional progress callback fires
// every progressEvery processed recipients.
func (b *Broadcaster) Run(ctx context.Context, jobID string, content Content, recipients []Address, progress func(done, total int, t Tally)) Tally {
	log := b.log.With().Str("job_id", jobID).Logger()
	log.Info().Int("recipients", len(recipients)).Msg("Starting delivery run")

	var tally Tally
	for i, recipient := range recipients {
		if err := b.deliver(ctx, recipient, content); err != nil {
			tally.Failed++
			log.Warn().Err(err).Str("recipient", string(recipient)).Msg("Delivery failed")
		} else {
			tally.Sent++
		}

		done := i + 1
		if progress != nil && done%b.progressEvery == 0 && done < len(recipients) {
			progress(done, len(recipients), tally)
		}
		// Throttle, not a correctness mechanism.
		if b.delay > 0 && done < len(recipients) {
			time.Sleep(b.delay)
		}
	}

	log.Info().Int("sent", tally.Sent).Int("failed", tally.Failed).Msg("Delivery run finished")
	return tally
}

// deliver dispatches one payload by content kind.
func (b *Broadcaster) deliver(ctx context.Context, to Address, content Content) error {
	if content.Media != nil {
		return b.gw.SendMedia(ctx, to, *content.Media)
	}
	return b.gw.SendText(ctx, to, content.Text)
}
