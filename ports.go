package riscv

// SetReset drives the reset input port (spec.md 4.7): the rising edge
// halts the hart with reason Reset; the falling edge runs the full reset
// sequence.
func (h *Hart) SetReset(level bool) {
	prev := h.net.reset
	h.net.reset = level

	switch {
	case level && !prev:
		h.halt(DisableReset)
	case !level && prev:
		h.Reset()
	}
}

// SetNMI drives the nmi input port. The level is always mirrored into
// dcsr.nmip; a falling edge observed outside Debug mode delivers a
// non-maskable interrupt (spec.md 4.7).
func (h *Hart) SetNMI(level bool) {
	prev := h.net.nmi
	h.net.nmi = level
	h.csr.SetDCSRNMIP(level)

	if !level && prev && !h.dm {
		h.doNMI()
	}
}

// SetHaltReq drives the haltreq input port. A rising edge observed
// outside Debug mode schedules a synchronous interrupt so the Fetch Gate
// enters Debug mode on the next fetch (spec.md 4.7).
func (h *Hart) SetHaltReq(level bool) {
	prev := h.net.haltreq
	h.net.haltreq = level

	if level && !prev && !h.dm {
		h.host.PostSyncInterrupt()
	}
}

// SetResetHaltReq drives the level-latched resethaltreq input port; its
// value is sampled into resethaltreqS only at reset (spec.md 4.7).
func (h *Hart) SetResetHaltReq(level bool) {
	h.net.resethaltreq = level
}

// SetInterruptLine drives a standard or local interrupt source line
// identified by its architectural or local code, updating the pending
// vector and re-arbitrating (spec.md 4.7).
func (h *Hart) SetInterruptLine(code uint32, level bool) {
	idx := code / 64
	bit := uint64(1) << (code % 64)
	if level {
		h.ip[idx] |= bit
	} else {
		h.ip[idx] &^= bit
	}
	h.updatePending()
}

// SetSoftwarePending sets or clears a bit of the software-pending shadow
// swip, the path used by CSR writes to mip rather than by an external
// port (spec.md 3, "swip").
func (h *Hart) SetSoftwarePending(code uint32, level bool) {
	bit := uint64(1) << code
	if level {
		h.swip |= bit
	} else {
		h.swip &^= bit
	}
	h.updatePending()
}

// SetExternalInterruptID stores the claimed external-interrupt source ID
// for a mode, consumed by trap entry when reporting an external
// interrupt's cause (spec.md 6). A no-op unless the hart is configured
// with ExternalIntID.
func (h *Hart) SetExternalInterruptID(mode Mode, id uint32) {
	if !h.config.ExternalIntID {
		return
	}
	h.extInt[mode] = id
}

// updatePending recomputes mip = ip[0] | swip and re-arbitrates,
// funneling every write to the pending-bit vector through one place
// (spec.md 5, "Shared resources").
func (h *Hart) updatePending() {
	h.csr.SetMIP(h.ip[0] | h.swip)
	h.arbitrate()
}

// doNMI delivers a non-maskable interrupt: it always wakes a WFI-halted
// hart, switches to Machine mode with mcause=0, latches EPC, and
// redirects the PC to the configured NMI address (spec.md 4.7).
func (h *Hart) doNMI() {
	h.restart(DisableWFI)

	epc := h.getEPC()
	h.mode = ModeMachine
	h.csr.SetCause(ModeMachine, Cause{Interrupt: false, Code: 0})
	h.csr.SetEPC(ModeMachine, epc&h.csr.EPCMask(ModeMachine))
	h.host.SetPC(h.config.NMIAddress)
}

// Reset clears every disable reason (spec.md invariant 6: after reset all
// disable bits clear except any reset-pin-asserted reason), leaves Debug
// mode, switches to Machine mode, resets every CSR, notifies reset
// observers, clears the last-taken exception, and sets PC to the
// configured reset address. resethaltreq is sampled into resethaltreqS
// for the Fetch Gate to consume on the first fetch after reset (spec.md
// 4.7).
func (h *Hart) Reset() {
	h.restart(DisableReset | DisableWFI | DisableDebug | DisableRestartPending)
	h.dm = false
	h.mode = ModeMachine
	h.csr.ResetAll()

	for _, obs := range h.observers {
		if obs.ResetNotifier != nil {
			obs.ResetNotifier()
		}
	}

	h.lastException = 0
	h.host.SetPC(h.config.ResetAddress)
	h.net.resethaltreqS = h.net.resethaltreq
}

// WFI halts the hart with reason WFI unless already in Debug mode or an
// interrupt is already pending in mip (spec.md 4.9). The arbiter clears
// this disable reason the moment any mip bit becomes set, independent of
// enable or delegation state.
func (h *Hart) WFI() {
	if h.dm {
		return
	}
	if h.csr.MIP() == 0 {
		h.halt(DisableWFI)
	}
}
