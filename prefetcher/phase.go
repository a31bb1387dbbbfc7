package prefetcher

// PhaseMonitor is the transformer variant's sliding-window churn
// detector. When too many streams die within one window of misses, the
// engine throttles its prefetch degree until behavior looks stable
// again.
type PhaseMonitor struct {
	windowSize          uint64
	transitionThreshold uint32
	recoveryWindow      uint32
	baseDegree          uint32
	minDegree           uint32

	missesInWindow      uint64
	terminatedInWindow  uint32
	currentDegree       uint32
	inTransition        bool
	recoveryCounter     uint32
}

// NewPhaseMonitor creates a phase monitor with the given window
// parameters, starting outside of a transition at baseDegree.
func NewPhaseMonitor(windowSize uint64, transitionThreshold, recoveryWindow, baseDegree, minDegree uint32) *PhaseMonitor {
	return &PhaseMonitor{
		windowSize:          windowSize,
		transitionThreshold: transitionThreshold,
		recoveryWindow:      recoveryWindow,
		baseDegree:          baseDegree,
		minDegree:           minDegree,
		currentDegree:       baseDegree,
	}
}

// OnEvent folds one more miss into the current window, optionally
// counting it as a stream termination, and evaluates the window boundary
// and any in-progress recovery. It is called once per miss dispatched
// through the engine and once more per stream terminated during that
// miss's processing (dead-stream sweeps can terminate several streams
// per call), exactly mirroring the reference implementation's call
// sites.
func (p *PhaseMonitor) OnEvent(terminated bool) {
	p.missesInWindow++
	if terminated {
		p.terminatedInWindow++
	}

	if p.missesInWindow >= p.windowSize {
		if p.terminatedInWindow >= p.transitionThreshold {
			p.inTransition = true
			p.currentDegree = p.minDegree
			p.recoveryCounter = 0
		}
		p.terminatedInWindow = 0
		p.missesInWindow = 0
	}

	if p.inTransition {
		p.recoveryCounter++
		if p.recoveryCounter >= p.recoveryWindow {
			p.inTransition = false
			p.currentDegree = p.baseDegree
			p.recoveryCounter = 0
		}
	}
}

// InTransition reports whether the monitor currently believes the
// working set is churning.
func (p *PhaseMonitor) InTransition() bool { return p.inTransition }

// CurrentDegree returns the phase-throttled prefetch degree ceiling.
func (p *PhaseMonitor) CurrentDegree() uint32 { return p.currentDegree }
