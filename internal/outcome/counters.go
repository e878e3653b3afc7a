package outcome

import "sync/atomic"

// Counters are the per-period resolution counts. They are reset atomically
// on each flush.
type Counters struct {
	total          atomic.Int64
	async          atomic.Int64
	errors         atomic.Int64
	asyncLatencyMs atomic.Int64
	cacheHits      atomic.Int64
	envHits        atomic.Int64
	settingsHits   atomic.Int64
	loopbackBypass atomic.Int64
	noProxyBypass  atomic.Int64
}

func newCounters() *Counters {
	return &Counters{}
}

func (c *Counters) IncTotal()          { c.total.Add(1) }
func (c *Counters) IncAsync()          { c.async.Add(1) }
func (c *Counters) IncErrors()         { c.errors.Add(1) }
func (c *Counters) IncCacheHits()      { c.cacheHits.Add(1) }
func (c *Counters) IncEnvHits()        { c.envHits.Add(1) }
func (c *Counters) IncSettingsHits()   { c.settingsHits.Add(1) }
func (c *Counters) IncLoopbackBypass() { c.loopbackBypass.Add(1) }
func (c *Counters) IncNoProxyBypass()  { c.noProxyBypass.Add(1) }

func (c *Counters) AddAsyncLatencyMs(ms int64) { c.asyncLatencyMs.Add(ms) }

func (c *Counters) snapshot() (total, async, errors, latencyMs, cacheHits, envHits, settingsHits, loopback, noProxy int64) {
	return c.total.Load(), c.async.Load(), c.errors.Load(), c.asyncLatencyMs.Load(),
		c.cacheHits.Load(), c.envHits.Load(), c.settingsHits.Load(),
		c.loopbackBypass.Load(), c.noProxyBypass.Load()
}

func (c *Counters) reset() {
	c.total.Store(0)
	c.async.Store(0)
	c.errors.Store(0)
	c.asyncLatencyMs.Store(0)
	c.cacheHits.Store(0)
	c.envHits.Store(0)
	c.settingsHits.Store(0)
	c.loopbackBypass.Store(0)
	c.noProxyBypass.Store(0)
}
