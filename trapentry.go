package riscv

import "log"

// modeFieldOps is a small closures table over the mstatus fields that vary
// by target privilege mode, replacing three near-identical MIE/SIE/UIE and
// MPIE/SPIE/UPIE code paths with one parameterized lookup (spec.md 9,
// "replace TARGET_MODE_X with a small table keyed by target mode").
type modeFieldOps struct {
	ie     func() bool
	setIE  func(bool)
	pie    func() bool
	setPIE func(bool)
	pp     func() Mode
	setPP  func(Mode)
}

// modeOps returns the mstatus field accessors for the given target mode.
// User mode has no PP field; its pp/setPP are inert stubs.
func (h *Hart) modeOps(mode Mode) modeFieldOps {
	switch mode {
	case ModeSupervisor:
		return modeFieldOps{
			ie:     h.csr.StatusSIE,
			setIE:  h.csr.SetStatusSIE,
			pie:    h.csr.StatusSPIE,
			setPIE: h.csr.SetStatusSPIE,
			pp:     h.csr.StatusSPP,
			setPP:  h.csr.SetStatusSPP,
		}
	case ModeMachine:
		return modeFieldOps{
			ie:     h.csr.StatusMIE,
			setIE:  h.csr.SetStatusMIE,
			pie:    h.csr.StatusMPIE,
			setPIE: h.csr.SetStatusMPIE,
			pp:     h.csr.StatusMPP,
			setPP:  h.csr.SetStatusMPP,
		}
	default:
		return modeFieldOps{
			ie:     h.csr.StatusUIE,
			setIE:  h.csr.SetStatusUIE,
			pie:    h.csr.StatusUPIE,
			setPIE: h.csr.SetStatusUPIE,
			pp:     func() Mode { return ModeUser },
			setPP:  func(Mode) {},
		}
	}
}

// isExternalInterrupt reports whether code is one of the three
// architectural external-interrupt causes, the only ones subject to
// per-mode ExternalInterruptID substitution (spec.md 6).
func isExternalInterrupt(code uint32) bool {
	switch code {
	case IntUserExternal, IntSupervisorExternal, IntMachineExternal:
		return true
	}
	return false
}

// isAccessFaultCode reports whether code is one of the three synchronous
// access-fault exceptions that latch AFErrorOut on entry.
func isAccessFaultCode(code uint32, isInt bool) bool {
	if isInt {
		return false
	}
	switch code {
	case ExcInstructionAccessFault, ExcLoadAccessFault, ExcStoreAMOAccessFault:
		return true
	}
	return false
}

// isRetiredCode reports whether taking this exception counts as retiring
// the faulting instruction for minstret purposes (spec.md 4.3 step 3):
// true for Breakpoint and the four ECALL causes, false for every other
// exception and for all interrupts.
func isRetiredCode(code uint32, isInt bool) bool {
	if isInt {
		return false
	}
	switch code {
	case ExcBreakpoint, ExcEnvironmentCallFromU, ExcEnvironmentCallFromS, ExcEnvironmentCallFromH, ExcEnvironmentCallFromM:
		return true
	}
	return false
}

// getIMode resolves the effective vectoring mode for a target mode's
// tvec: the register's own MODE field if set, else the legacy per-mode
// configuration override (spec.md 9, Open Question on legacy vectored
// mode).
func (h *Hart) getIMode(mode Mode, tvecMode TVecMode) TVecMode {
	if tvecMode != TVecDirect {
		return tvecMode
	}
	switch mode {
	case ModeSupervisor:
		return h.config.SIMode
	case ModeMachine:
		return h.config.MIMode
	default:
		return h.config.UIMode
	}
}

// reportMemoryException logs a verbose-mode diagnostic for a memory
// exception before it is taken, naming the cause the same way
// ExceptionByCause would once the trap completes (spec.md 7).
func (h *Hart) reportMemoryException(exception Exception, tval uint64) {
	if !h.Verbose {
		return
	}
	log.Printf("[riscv] %s tval=0x%x pc=0x%x", h.describeException(exception), tval, h.host.PC())
}

// TakeException performs trap entry for exception, per spec.md 4.3: while
// in Debug mode any trap re-enters Debug mode instead of running the
// architectural trap sequence; otherwise it computes the delegated target
// mode, saves xepc/xcause/xtval, updates xstatus's interrupt-enable
// stack, and dispatches to the vectored or direct handler address.
func (h *Hart) TakeException(exception Exception, tval uint64) {
	if h.dm {
		h.host.AbortRepeat()
		h.enterDebug(DMCauseNone)
		return
	}

	isInt := exception.IsInterrupt()
	ecode := exception.Code()

	if !isRetiredCode(ecode, isInt) && !h.csr.MCountInhibitIR() {
		h.baseInstructions++
	}
	if isAccessFaultCode(ecode, isInt) {
		h.afErrorOut = h.afErrorIn
	} else {
		h.afErrorOut = AFaultNone
	}

	h.clearExclusive()

	var modeX Mode
	if isInt {
		modeX = h.interruptTargetMode(ecode)
	} else {
		modeX = h.exceptionTargetMode(ecode)
	}

	ecodeMod := ecode
	if h.config.ExternalIntID && isExternalInterrupt(ecode) && h.extInt[modeX] != 0 {
		ecodeMod = h.extInt[modeX]
	}

	epc := h.getEPC()
	prevMode := h.mode

	ops := h.modeOps(modeX)
	ops.setPIE(ops.ie())
	ops.setIE(false)
	if modeX != ModeUser {
		ops.setPP(prevMode)
	}

	h.csr.SetCause(modeX, Cause{Interrupt: isInt, Code: ecodeMod})
	h.csr.SetEPC(modeX, epc&h.csr.EPCMask(modeX))
	h.csr.SetTVal(modeX, tval)

	base := h.csr.TVecBase(modeX)
	tvecMode := h.getIMode(modeX, h.csr.TVecMode(modeX))

	handler := base
	if tvecMode == TVecVectored && isInt {
		handler = base + 4*uint64(ecode)
	}

	h.mode = modeX
	h.lastException = exception
	h.host.SetPC(handler)

	for _, obs := range h.observers {
		if obs.TrapNotifier != nil {
			obs.TrapNotifier(modeX)
		}
	}
}

// handleFirstOnlyFault consumes an armed fault-only-first request,
// truncating the active vector operation to the elements already
// processed instead of taking the fault (spec.md 4.3, "Memory fault").
// It returns true if the fault was suppressed this way.
func (h *Hart) handleFirstOnlyFault() bool {
	if !h.firstOnlyFault {
		return false
	}
	h.firstOnlyFault = false
	if h.csr.VStart() > 0 {
		h.csr.SetVL(h.csr.VStart())
		h.csr.RefreshVectorPolymorphicKey()
		return true
	}
	return false
}

// TakeMemoryException takes a load/store/AMO or fetch fault, applying
// vstart masking and fault-only-first suppression before falling back to
// ordinary trap entry (spec.md 4.3, "Memory fault").
func (h *Hart) TakeMemoryException(exception Exception, tval uint64) {
	h.csr.SetVStart(h.csr.VStart() & h.csr.VStartMask())

	if h.handleFirstOnlyFault() {
		return
	}

	h.reportMemoryException(exception, tval)
	h.TakeException(exception, tval)
}

// IllegalInstruction takes the Illegal Instruction exception, reporting
// the raw instruction word as tval when the hart is configured to do so
// (spec.md 4.3).
func (h *Hart) IllegalInstruction() {
	var tval uint64
	if h.config.TValIICode {
		tval = uint64(h.host.FetchInstructionWord(h.host.PC()))
	}
	h.TakeException(MakeException(ExcIllegalInstruction, false), tval)
}

// InstructionAddressMisaligned takes the Instruction Address Misaligned
// exception for a fetch at addr, reporting addr with its low alignment
// bit cleared as tval.
func (h *Hart) InstructionAddressMisaligned(addr uint64) {
	e := MakeException(ExcInstructionAddressMisaligned, false)
	h.reportMemoryException(e, addr&^1)
	h.TakeException(e, addr&^1)
}

// ECALL takes the environment-call exception for the hart's current
// privilege mode (spec.md 4.3): U/S/H/M ECALL causes are consecutive
// architectural codes starting at ExcEnvironmentCallFromU.
func (h *Hart) ECALL() {
	code := ExcEnvironmentCallFromU + uint32(h.mode)
	h.TakeException(MakeException(code, false), 0)
}
