package riscv

import "log"

// interruptPriority is the fixed architectural tiebreak order used within
// a destination mode, per spec.md 4.5. Lower values win. Codes absent
// from this table (locals and custom causes) rank below every
// architectural cause and tie-break on lowest numeric code.
var interruptPriority = map[uint32]int{
	IntMachineExternal:    0,
	IntMachineSoftware:    1,
	IntMachineTimer:       2,
	IntSupervisorExternal: 3,
	IntSupervisorSoftware: 4,
	IntSupervisorTimer:    5,
	IntUserExternal:       6,
	IntUserSoftware:       7,
	IntUserTimer:          8,
}

const localInterruptPriority = 1000

func priorityRank(code uint32) int {
	if p, ok := interruptPriority[code]; ok {
		return p
	}
	return localInterruptPriority
}

// pendingAndEnabled computes the set of interrupt codes that are both
// pending and enabled to fire right now, per spec.md 4.5: mask by
// mie & mip, cleared entirely while in Debug mode, then cleared per-mode
// by the effective-enable rule so a currently-disabled mode's delegated
// interrupts are excluded.
func (h *Hart) pendingAndEnabled() uint64 {
	if h.dm {
		return 0
	}

	pending := h.csr.MIEMask() & h.csr.MIP()
	if pending == 0 {
		return 0
	}

	mideleg := h.csr.MIDeleg()
	sideleg := h.csr.SIDeleg()

	mMask := ^mideleg
	sMask := mideleg &^ sideleg
	uMask := sideleg & mideleg

	mieEff := effectiveEnable(h.mode, ModeMachine, h.csr.StatusMIE())
	sieEff := effectiveEnable(h.mode, ModeSupervisor, h.csr.StatusSIE())
	uieEff := effectiveEnable(h.mode, ModeUser, h.csr.StatusUIE())

	if !mieEff {
		pending &^= mMask
	}
	if !sieEff {
		pending &^= sMask
	}
	if !uieEff {
		pending &^= uMask
	}

	return pending
}

// effectiveEnable computes MIE_eff/SIE_eff/UIE_eff for a mode's global
// interrupt-enable flag: forced on if current privilege is strictly
// below that mode, forced off if strictly above, else the flag itself
// (spec.md 4.5).
func effectiveEnable(current, target Mode, flag bool) bool {
	switch {
	case current < target:
		return true
	case current > target:
		return false
	default:
		return flag
	}
}

// selectInterrupt picks the highest-priority pending-and-enabled
// interrupt: destination mode dominates, then the fixed architectural
// priority table, then lowest numeric code (spec.md 4.5, invariant in
// spec.md 8).
func (h *Hart) selectInterrupt() (uint32, bool) {
	pending := h.pendingAndEnabled()
	if pending == 0 {
		return 0, false
	}

	best := uint32(0)
	bestMode := Mode(0)
	bestRank := 0
	found := false

	for code := uint32(0); code < 64*uint32(len(h.ip)); code++ {
		if pending&(1<<uint(code)) == 0 {
			continue
		}
		mode := h.interruptTargetMode(code)
		rank := priorityRank(code)

		switch {
		case !found:
			found = true
		case mode > bestMode:
		case mode < bestMode:
			continue
		case rank < bestRank:
		case rank > bestRank:
			continue
		case code < best:
		default:
			continue
		}

		best, bestMode, bestRank = code, mode, rank
	}

	return best, found
}

// doInterrupt dispatches the currently selected interrupt via ordinary
// trap entry, per spec.md 4.5's "take_exception(INT_BIT | code, 0)".
func (h *Hart) doInterrupt() {
	code, ok := h.selectInterrupt()
	if !ok {
		return
	}
	h.TakeException(MakeException(code, true), 0)
}

// arbitrate re-evaluates interrupt state after any change to mip, the
// enable stack, delegation, or mode: it restarts a WFI-halted hart the
// moment any mip bit becomes set (spec.md 4.9), and asks the host to
// schedule a synchronous interrupt callback so the next Fetch Gate call
// observes a newly pending-and-enabled interrupt (spec.md 5, "Ordering
// guarantees").
func (h *Hart) arbitrate() {
	if h.disable&DisableWFI != 0 && h.csr.MIP() != 0 {
		h.restart(DisableWFI)
	}

	if _, ok := h.selectInterrupt(); ok {
		h.host.PostSyncInterrupt()
	}

	h.logIntStateChange()
}

// logIntStateChange emits a verbose-mode trace of the arbiter's inputs
// whenever they differ from the last logged snapshot, avoiding a log
// line on every arbitrate() call when nothing actually changed
// (SPEC_FULL.md 6.1).
func (h *Hart) logIntStateChange() {
	if !h.Verbose {
		return
	}

	mip := h.csr.MIP()
	cur := intState{
		pendingEnabled:  h.pendingAndEnabled(),
		pending:         mip & h.csr.MIEMask(),
		pendingExternal: mip & (1<<IntMachineExternal | 1<<IntSupervisorExternal | 1<<IntUserExternal),
		pendingInternal: mip &^ (1<<IntMachineExternal | 1<<IntSupervisorExternal | 1<<IntUserExternal),
		mideleg:         h.csr.MIDeleg(),
		sideleg:         h.csr.SIDeleg(),
		mie:             h.csr.StatusMIE(),
		sie:             h.csr.StatusSIE(),
		uie:             h.csr.StatusUIE(),
	}

	if h.haveIntState && cur == h.lastIntState {
		return
	}
	h.lastIntState = cur
	h.haveIntState = true

	log.Printf("[riscv] interrupt state: pending&enabled=0x%x pending=0x%x mideleg=0x%x sideleg=0x%x mie=%v sie=%v uie=%v",
		cur.pendingEnabled, cur.pending, cur.mideleg, cur.sideleg, cur.mie, cur.sie, cur.uie)
}
