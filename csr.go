package riscv

// TVecMode is the interrupt-vectoring mode encoded in the low bits of an
// [msu]tvec CSR.
type TVecMode uint8

const (
	// TVecDirect routes all traps to the tvec base address.
	TVecDirect TVecMode = 0
	// TVecVectored routes interrupts to base + 4*code; exceptions still
	// go to base.
	TVecVectored TVecMode = 1
)

// DebugCause identifies why the hart entered Debug mode (dcsr.cause).
type DebugCause uint8

const (
	DMCauseNone DebugCause = iota
	DMCauseHaltReq
	DMCauseStep
	DMCauseEBreak
	DMCauseResetHaltReq
)

// CSR is the typed accessor this package uses to read and write
// privileged control-and-status register fields. CSR storage and bit
// layout are out of scope for this module (spec.md 1); a host embeds this
// interface over its own register file. Every field this package touches
// during trap entry, trap return, delegation, or debug-mode transitions
// is named here individually rather than exposed as whole registers, so
// trap entry updates one field at a time (spec.md 4.3).
type CSR interface {
	// mstatus fields.
	StatusMIE() bool
	SetStatusMIE(bool)
	StatusSIE() bool
	SetStatusSIE(bool)
	StatusUIE() bool
	SetStatusUIE(bool)
	StatusMPIE() bool
	SetStatusMPIE(bool)
	StatusSPIE() bool
	SetStatusSPIE(bool)
	StatusUPIE() bool
	SetStatusUPIE(bool)
	StatusMPP() Mode
	SetStatusMPP(Mode)
	StatusSPP() Mode
	SetStatusSPP(Mode)
	StatusMPRV() bool
	SetStatusMPRV(bool)

	// Per-target-mode trap CSRs. mode is one of ModeUser, ModeSupervisor,
	// ModeMachine; callers never pass ModeHypervisor.
	Cause(mode Mode) Cause
	SetCause(mode Mode, c Cause)
	EPC(mode Mode) uint64
	SetEPC(mode Mode, pc uint64)
	EPCMask(mode Mode) uint64
	TVal(mode Mode) uint64
	SetTVal(mode Mode, v uint64)
	TVecBase(mode Mode) uint64
	TVecMode(mode Mode) TVecMode

	// Delegation registers.
	MEDeleg() uint64
	SEDeleg() uint64
	MIDeleg() uint64
	SIDeleg() uint64

	// Interrupt pending/enable views. MIP/SetMIP back the derived mip
	// register (spec.md invariant 2: mip = ip[0] | swip); MIEMask exposes
	// the mie register's enabled-interrupt mask.
	MIP() uint64
	SetMIP(uint64)
	MIEMask() uint64

	// dcsr fields.
	DCSRPrv() Mode
	SetDCSRPrv(Mode)
	DCSRCause() DebugCause
	SetDCSRCause(DebugCause)
	DCSRStep() bool
	SetDCSRNMIP(bool)
	DCSREBreakU() bool
	DCSREBreakS() bool
	DCSREBreakM() bool
	DCSRStopCount() bool

	DPC() uint64
	SetDPC(uint64)

	VStart() uint64
	SetVStart(uint64)
	VStartMask() uint64
	// VL and SetVL back the vector-extension vector-length CSR, clamped
	// by the fault-only-first path (spec.md 4.3, "Memory fault").
	VL() uint64
	SetVL(uint64)
	// RefreshVectorPolymorphicKey recomputes whatever polymorphic
	// dispatch key the vector unit derives from VL/vtype after a
	// fault-only-first clamp (spec.md 4.3, "Memory fault").
	RefreshVectorPolymorphicKey()

	// MCountInhibitIR reports whether mcountinhibit.IR suppresses
	// baseInstructions accounting (spec.md 4.3 step 3).
	MCountInhibitIR() bool
	// MCountInhibitCY reports whether mcountinhibit.CY suppresses
	// baseCycles accounting (spec.md 4.6, dcsr.stopcount pre-increment).
	MCountInhibitCY() bool

	// ResetAll restores every CSR field to its power-on value.
	ResetAll()
}

// Cause is the decoded value of an m/s/ucause register: an architectural
// code and the interrupt tag reported alongside it.
type Cause struct {
	Interrupt bool
	Code      uint32
}
