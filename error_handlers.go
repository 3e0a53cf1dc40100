package engine

// reportInternalError reports an internal engine error.
//
// Internal errors are failures of the engine's own machinery, such as
// CPU pinning or a shutdown that overran its deadline. They never stop
// the run. If no handler is registered, the error is only counted.
func (e *Engine) reportInternalError(err error) {
	e.internalErrors.Add(1)
	if e.opts.OnInternalError != nil {
		e.opts.OnInternalError(err)
	}
}

// reportItemError reports an error returned by Process or produced by
// panic recovery. The consumer moves on to the next item.
func (e *Engine) reportItemError(it *WorkItem, err error) {
	e.itemErrors.Add(1)
	if e.opts.OnItemError != nil {
		e.opts.OnItemError(it, err)
	}
}
