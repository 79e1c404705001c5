package editor

// GetChangesCount sums the pending changes of every node. Nodes whose
// properties were never built count zero.
func (e *Engine) GetChangesCount() int {
	if e.pkg == nil {
		return 0
	}
	count := 0
	for _, n := range e.nodes {
		count += n.CountChanges()
	}
	return count
}

// UpdateStats recomputes the cached change count and notifies listeners.
func (e *Engine) UpdateStats() {
	e.statsStale = false
	e.cachedChanges = e.GetChangesCount()
	for _, fn := range e.statsListeners {
		fn(e.cachedChanges)
	}
}

// ConditionalUpdateStats recomputes the stats when a change marked them
// stale.
func (e *Engine) ConditionalUpdateStats() {
	if e.statsStale {
		e.UpdateStats()
	}
}

// CachedChangeCount returns the change count as of the last UpdateStats.
func (e *Engine) CachedChangeCount() int { return e.cachedChanges }

// StatsStale reports whether changes happened since the last UpdateStats.
func (e *Engine) StatsStale() bool { return e.statsStale }
