package riscv

// targetMode computes the privilege mode a trap should be taken to,
// given the delegation masks that apply to it, per spec.md 4.2: walk
// down from Machine through Supervisor to User while the corresponding
// delegation bit is set, then clamp upward so a trap never lowers
// privilege below the mode it was taken from (spec.md invariant 6).
func targetMode(currentMode Mode, mMask, sMask uint64, code uint32) Mode {
	var modeX Mode
	bit := uint64(1) << code

	switch {
	case mMask&bit == 0:
		modeX = ModeMachine
	case sMask&bit == 0:
		modeX = ModeSupervisor
	default:
		modeX = ModeUser
	}

	if modeX > currentMode {
		return modeX
	}
	return currentMode
}

// interruptTargetMode returns the mode an interrupt of the given
// architectural code should be taken to, per mideleg/sideleg.
func (h *Hart) interruptTargetMode(code uint32) Mode {
	return targetMode(h.mode, h.csr.MIDeleg(), h.csr.SIDeleg(), code)
}

// exceptionTargetMode returns the mode a synchronous exception of the
// given architectural code should be taken to, per medeleg/sedeleg.
func (h *Hart) exceptionTargetMode(code uint32) Mode {
	return targetMode(h.mode, h.csr.MEDeleg(), h.csr.SEDeleg(), code)
}
