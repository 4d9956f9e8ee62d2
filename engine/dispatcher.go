package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Dispatcher serves fetch_mode=auto. The cheapest engine starts at once and
// heavier ones join the race after their escalation delay, unless a product
// has already been produced.
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
	log     *slog.Logger
}

// NewDispatcher creates a Dispatcher. engines[i] joins the race delays[i]
// after it begins; missing delays are zero. memory may be nil.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory) *Dispatcher {
	padded := make([]time.Duration, len(engines))
	copy(padded, delays)
	return &Dispatcher{
		engines: engines,
		delays:  padded,
		memory:  memory,
		log:     slog.Default().With("component", "dispatcher"),
	}
}

// Use runs the named engine alone. Domain memory is neither read nor
// written.
func (d *Dispatcher) Use(ctx context.Context, name string, req *FetchRequest) (*FetchResult, error) {
	eng := d.engine(name)
	if eng == nil {
		return nil, fmt.Errorf("dispatcher: no engine named %q", name)
	}
	return eng.Fetch(ctx, req)
}

// Dispatch returns the first successful result. When the domain has a
// remembered winner that engine runs alone first; on failure the entry is
// forgotten and the full race runs. If every engine fails, the last error
// is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	domain := extractDomain(req.URL)

	if res, ok := d.tryRemembered(ctx, req, domain); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.race(ctx, req, domain)
}

func (d *Dispatcher) tryRemembered(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, bool) {
	name := d.memory.Get(domain)
	if name == "" {
		return nil, false
	}
	eng := d.engine(name)
	if eng == nil {
		d.memory.Delete(domain)
		return nil, false
	}

	res, err := eng.Fetch(ctx, req)
	if err == nil {
		d.log.Debug("remembered engine served domain", "domain", domain, "engine", name)
		return res, true
	}
	d.log.Info("remembered engine failed, racing all engines",
		"domain", domain, "engine", name, "error", err)
	d.memory.Delete(domain)
	return nil, false
}

func (d *Dispatcher) engine(name string) Engine {
	for _, eng := range d.engines {
		if eng.Name() == name {
			return eng
		}
	}
	return nil
}

// attempt is what one racer reports. started is false when the race ended
// before the racer's delay elapsed.
type attempt struct {
	name    string
	started bool
	res     *FetchResult
	err     error
}

// race starts every engine on its delay and returns the first success.
// Each racer reports exactly once on a buffered channel, so racers never
// block after the winner returns.
func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	raceCtx, stop := context.WithCancel(ctx)
	defer stop()

	outcomes := make(chan attempt, len(d.engines))
	for i := range d.engines {
		go d.runRacer(raceCtx, d.engines[i], d.delays[i], req, outcomes)
	}

	var lastErr error
	for range d.engines {
		a := <-outcomes
		if !a.started {
			continue
		}
		if a.err != nil {
			d.log.Debug("engine lost", "engine", a.name, "url", req.URL, "error", a.err)
			lastErr = a.err
			continue
		}
		stop()
		d.log.Info("engine won race", "engine", a.res.EngineName, "url", req.URL)
		d.memory.Set(domain, a.res.EngineName)
		return a.res, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
}

func (d *Dispatcher) runRacer(ctx context.Context, eng Engine, delay time.Duration, req *FetchRequest, out chan<- attempt) {
	a := attempt{name: eng.Name()}
	if !sleepCtx(ctx, delay) {
		out <- a
		return
	}
	a.started = true
	a.res, a.err = eng.Fetch(ctx, req)
	out <- a
}

// sleepCtx waits for delay and reports whether ctx was still live
// afterwards.
func sleepCtx(ctx context.Context, delay time.Duration) bool {
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
	return ctx.Err() == nil
}

// extractDomain returns the lower-cased hostname of rawURL.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
