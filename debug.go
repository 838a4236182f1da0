package riscv

// enterDebug transitions the hart into Debug mode for the given cause,
// or simply refreshes the stall if already there (spec.md 4.6, enterDM).
func (h *Hart) enterDebug(cause DebugCause) {
	if h.dm {
		h.updateDMStall(true)
		return
	}

	prevMode := h.mode
	h.dm = true
	h.csr.SetDCSRPrv(prevMode)
	h.csr.SetDCSRCause(cause)
	h.csr.SetDPC(h.getEPC())
	h.mode = ModeMachine

	h.updateDMStall(true)

	if h.config.DebugMode == DebugPolicyInterrupt {
		h.host.PostSyncInterrupt()
	}
}

// leaveDM leaves Debug mode: restores mode from dcsr.prv, clears the
// exclusive tag unless XRETPreservesLR is set, clears MPRV under the same
// rule MRET uses, runs the common ERET postlude with dpc
// as the return address, and unstalls (spec.md 4.6, leaveDM).
func (h *Hart) leaveDM() {
	prv := h.csr.DCSRPrv()
	h.dm = false

	h.clearExclusiveOnXRET()

	if h.config.PrivVersion >= PrivVersion20211203 && prv != ModeMachine {
		h.csr.SetStatusMPRV(false)
	}

	h.eretCommon(ModeMachine, prv, h.csr.DPC())
	h.updateDMStall(false)
}

// updateDMStall records the debug-stall flag and, unless the debug-entry
// policy is Interrupt (in which case the host owns scheduling), drives
// the Disable bitset's Debug reason to match (spec.md 4.6).
func (h *Hart) updateDMStall(flag bool) {
	h.dmStall = flag
	if h.config.DebugMode == DebugPolicyInterrupt {
		return
	}
	if flag {
		h.halt(DisableDebug)
	} else {
		h.restart(DisableDebug)
	}
}

// ArmSingleStep arms the one-shot step timer to fire after the next
// instruction retires (spec.md 4.6). A no-op if
// the hart was constructed without debug support.
func (h *Hart) ArmSingleStep() {
	if h.stepTimer != nil {
		h.stepTimer.Set(1)
	}
}

// onStepTimer is the step-timer callback (spec.md 4.6):
// if the hart is still outside Debug mode and single-stepping is still
// enabled, it enters Debug mode with cause STEP.
func (h *Hart) onStepTimer() {
	if !h.dm && h.csr.DCSRStep() {
		h.enterDebug(DMCauseStep)
	}
}

// ebreakEnabledForMode reports dcsr.ebreak{u,s,m} for the given mode.
func (h *Hart) ebreakEnabledForMode(mode Mode) bool {
	switch mode {
	case ModeUser:
		return h.csr.DCSREBreakU()
	case ModeSupervisor:
		return h.csr.DCSREBreakS()
	case ModeMachine:
		return h.csr.DCSREBreakM()
	default:
		return false
	}
}

// EBREAK routes an executed EBREAK instruction, per spec.md 4.6: already
// in Debug mode it only refreshes the debug stall, leaving dcsr.cause as
// it was; outside Debug mode, with EnableDebug set, a dcsr.ebreak{m,s,u}
// bit set for the current mode redirects to Debug mode with cause EBREAK
// instead of the architectural Breakpoint exception, and when
// dcsr.stopcount is set it first increments baseInstructions and
// baseCycles by one, each only if mcountinhibit does not inhibit that
// counter; otherwise the architectural exception is taken with tval = PC.
func (h *Hart) EBREAK() {
	if h.dm {
		h.enterDebug(DMCauseEBreak)
		return
	}

	if h.config.EnableDebug && h.ebreakEnabledForMode(h.mode) {
		if h.csr.DCSRStopCount() {
			if !h.csr.MCountInhibitIR() {
				h.baseInstructions++
			}
			if !h.csr.MCountInhibitCY() {
				h.baseCycles++
			}
		}
		h.enterDebug(DMCauseEBreak)
		return
	}

	h.TakeException(MakeException(ExcBreakpoint, false), h.host.PC())
}
