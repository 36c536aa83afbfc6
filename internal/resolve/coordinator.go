package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/apkfetch/apkfetch/internal/log"
)

// Per-probe timeouts. Tier 1 is a single HEAD and gets the short
// bound; tier 2 fetches and parses a page.
const (
	DefaultTier1Timeout = 5 * time.Second
	DefaultTier2Timeout = 6 * time.Second
)

// Coordinator races probers in tiers to produce the first usable
// candidate.
type Coordinator struct {
	tiers    [][]Prober
	timeouts []time.Duration
	logger   log.Logger
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	// Timeouts holds the per-probe timeout for each tier. Missing
	// entries fall back to the tier defaults.
	Timeouts []time.Duration

	// Logger for probe outcomes. If nil, uses log.Default().
	Logger log.Logger
}

// NewCoordinator builds a coordinator over ordered tiers of probers.
func NewCoordinator(tiers [][]Prober, opts CoordinatorOptions) *Coordinator {
	timeouts := make([]time.Duration, len(tiers))
	for i := range tiers {
		switch {
		case i < len(opts.Timeouts) && opts.Timeouts[i] > 0:
			timeouts[i] = opts.Timeouts[i]
		case i == 0:
			timeouts[i] = DefaultTier1Timeout
		default:
			timeouts[i] = DefaultTier2Timeout
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{tiers: tiers, timeouts: timeouts, logger: logger}
}

type probeOutcome struct {
	index     int
	candidate *Candidate
	err       error
}

// Resolve races the tiers in order and returns the first usable
// candidate. Tier 1 short-circuits on the first success; losing tier-1
// probes are abandoned, not cancelled, and their late results are
// discarded. Later tiers are fully joined and the winner is the first
// success in declaration order. Returns *NotFoundError when no tier
// yields a candidate.
func (c *Coordinator) Resolve(ctx context.Context, packageID string) (*Candidate, error) {
	var causes *multierror.Error

	for tier, probers := range c.tiers {
		if len(probers) == 0 {
			continue
		}
		var (
			candidate *Candidate
			errs      []error
		)
		if tier == 0 {
			candidate, errs = c.raceFirstSuccess(ctx, probers, c.timeouts[tier], packageID)
		} else {
			candidate, errs = c.joinAll(ctx, probers, c.timeouts[tier], packageID)
		}
		for _, err := range errs {
			c.logger.Debug("probe failed", "package", packageID, "error", err)
			causes = multierror.Append(causes, err)
		}
		if candidate != nil {
			c.logger.Info("candidate resolved", "package", packageID, "source", candidate.Source, "tier", tier+1)
			return candidate, nil
		}
	}
	return nil, &NotFoundError{Package: packageID, Causes: causes.ErrorOrNil()}
}

// raceFirstSuccess launches all probers concurrently and returns the
// first success without waiting for the rest. Each probe carries its
// own timeout derived inside its goroutine, so returning early never
// cancels a straggler's outbound request.
func (c *Coordinator) raceFirstSuccess(ctx context.Context, probers []Prober, timeout time.Duration, packageID string) (*Candidate, []error) {
	ch := make(chan probeOutcome, len(probers))
	for i, p := range probers {
		go func(i int, p Prober) {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			candidate, err := p.Probe(pctx, packageID)
			ch <- probeOutcome{index: i, candidate: candidate, err: err}
		}(i, p)
	}

	var errs []error
	for range probers {
		out := <-ch
		if out.err != nil {
			errs = append(errs, out.err)
			continue
		}
		if out.candidate != nil {
			return out.candidate, errs
		}
	}
	return nil, errs
}

// joinAll awaits every prober and picks the first success in
// declaration order, not arrival order.
func (c *Coordinator) joinAll(ctx context.Context, probers []Prober, timeout time.Duration, packageID string) (*Candidate, []error) {
	outcomes := make([]probeOutcome, len(probers))
	var wg sync.WaitGroup
	for i, p := range probers {
		wg.Add(1)
		go func(i int, p Prober) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			candidate, err := p.Probe(pctx, packageID)
			outcomes[i] = probeOutcome{index: i, candidate: candidate, err: err}
		}(i, p)
	}
	wg.Wait()

	var errs []error
	var winner *Candidate
	for _, out := range outcomes {
		if out.err != nil {
			errs = append(errs, out.err)
			continue
		}
		if out.candidate != nil && winner == nil {
			winner = out.candidate
		}
	}
	return winner, errs
}
