package health

import "sync/atomic"

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the process readiness gate. Shutdown flips it off so load
// balancers drain traffic before connections close.
func SetReady(v bool) { ready.Store(v) }

// IsReady reports the current readiness gate state.
func IsReady() bool { return ready.Load() }
