package riscv

// FetchResult reports what the Fetch Gate did with a fetch request,
// distinguishing a completed exception from a merely-pending one so a
// speculative probe can be retried without side effects (spec.md 4.8).
type FetchResult uint8

const (
	// FetchNone means the fetch may proceed normally.
	FetchNone FetchResult = iota
	// FetchException means an exception was taken (PC now points at its
	// handler), Debug mode was entered, or Host.VMMiss handled the fault
	// itself.
	FetchException
	// FetchPending means an exception would be taken on a complete call,
	// but this call was a speculative probe.
	FetchPending
)

// FetchGate is called by the host before every fetch, per spec.md 4.8.
// complete distinguishes a speculative probe from a committed fetch:
// only a committed fetch may actually take an exception or enter Debug
// mode.
func (h *Hart) FetchGate(address uint64, complete bool) FetchResult {
	if h.net.resethaltreqS {
		if !complete {
			return FetchPending
		}
		h.net.resethaltreqS = false
		h.enterDebug(DMCauseResetHaltReq)
		return FetchException
	}

	if h.net.haltreq && !h.dm {
		if !complete {
			return FetchPending
		}
		h.enterDebug(DMCauseHaltReq)
		return FetchException
	}

	if _, ok := h.selectInterrupt(); ok {
		if !complete {
			return FetchPending
		}
		h.doInterrupt()
		return FetchException
	}

	return h.validateFetchAddress(address, complete)
}

// validateFetchAddress checks that address, and address+2 when the
// instruction there spans more than two bytes, is executable, raising
// InstructionAccessFault on a committed fetch that still cannot resolve
// (spec.md 4.8).
func (h *Hart) validateFetchAddress(address uint64, complete bool) FetchResult {
	res := h.checkFetchExecutable(address, complete)
	if res != FetchNone {
		return res
	}

	if h.host.InstructionSize(address) > 2 {
		return h.checkFetchExecutable(address+2, complete)
	}

	return FetchNone
}

// checkFetchExecutable probes a single address for fetch executability,
// giving the VM subsystem a chance to materialize a mapping before
// deciding whether a fault applies. A truthy VMMiss is terminal: it
// either materialized a mapping (re-checked below) or handled a fault of
// its own, so no further action is taken here either way. Only a false
// VMMiss falls through to the ordinary access-fault check.
func (h *Hart) checkFetchExecutable(address uint64, complete bool) FetchResult {
	if h.host.IsExecutable(address) {
		return FetchNone
	}

	if h.host.VMMiss(address, AccessExecute, complete) {
		if h.host.IsExecutable(address) {
			return FetchNone
		}
		if !complete {
			return FetchPending
		}
		return FetchException
	}

	if !complete {
		return FetchPending
	}

	e := MakeException(ExcInstructionAccessFault, false)
	h.reportMemoryException(e, address)
	h.TakeException(e, address)
	return FetchException
}
