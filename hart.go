// Package riscv implements the trap-and-interrupt subsystem of a RISC-V
// instruction-set simulator hart: exception entry, interrupt
// prioritization and delegation, exception return, debug-mode
// transitions, WFI stalling, NMI, reset, and the external signal ports
// through which a surrounding simulation host drives these events.
//
// Instruction decode, functional execution of non-trap instructions,
// virtual-memory translation, and CSR storage are out of scope: this
// package consumes them through the Host and CSR interfaces rather than
// implementing them.
package riscv

// DisableReason is one bit of the reasons a hart may be halted. The hart
// runs iff no bit is set (spec.md 3, "Disable bitset").
type DisableReason uint8

const (
	DisableReset DisableReason = 1 << iota
	DisableWFI
	DisableDebug
	// DisableRestartPending marks a hart blocked for a reason not
	// otherwise visible in this bitset (spec.md 3, "RestartPending").
	DisableRestartPending
)

// DebugEntryPolicy controls how the Debug-Mode Controller informs the
// host that the hart has entered Debug mode (spec.md 4.6).
type DebugEntryPolicy uint8

const (
	// DebugPolicyHalt halts the hart's simulation thread directly.
	DebugPolicyHalt DebugEntryPolicy = iota
	// DebugPolicyInterrupt posts a synchronous interrupt instead of
	// halting, leaving scheduling to the host.
	DebugPolicyInterrupt
)

// PrivVersion identifies a Privileged Architecture revision, used only to
// gate the MPRV-clearing behavior introduced in version 1.12 (spec.md
// 4.4).
type PrivVersion uint32

const (
	PrivVersion20190405 PrivVersion = 20190405
	PrivVersion20211203 PrivVersion = 20211203
)

// AFError is an opaque access-fault detail code, supplied by the host
// through SetAccessFaultDetail and latched into AFErrorOut on access-fault
// exception entry (spec.md 3, "AF error latch"). Its value space belongs
// to the host; this package only copies it.
type AFError uint8

// AFaultNone means no access-fault detail is latched.
const AFaultNone AFError = 0

// HartConfig configures a Hart at construction. Fields correspond to the
// "configInfo" knobs referenced throughout spec.md 4.
type HartConfig struct {
	ISA                 ISA
	LocalInterruptCount  uint32
	ResetAddress         uint64
	NMIAddress           uint64
	PrivVersion          PrivVersion
	DebugMode            DebugEntryPolicy
	// EnableDebug creates the single-step timer and turns on EBREAK-to-debug
	// routing through dcsr.ebreak{m,s,u}. When false, ArmSingleStep is a
	// no-op and EBREAK outside Debug mode always takes the architectural
	// Breakpoint exception; haltreq, resethaltreq and DRET are not gated
	// by this field.
	EnableDebug bool

	// TValIICode reports the raw instruction word as tval on Illegal
	// Instruction exceptions instead of 0 (spec.md 4.3).
	TValIICode bool
	// XRETPreservesLR suppresses the exclusive-access tag clear normally
	// performed on MRET/SRET/URET/DRET (spec.md 6.2).
	XRETPreservesLR bool
	// ExternalIntID enables the per-mode ExternalInterruptID ports
	// (spec.md 6).
	ExternalIntID bool

	// UIMode, SIMode, MIMode are legacy vectored-mode overrides used only
	// when the corresponding tvec.MODE field reads zero (spec.md 4.3
	// step 9, and the Open Question in spec.md 9).
	UIMode, SIMode, MIMode TVecMode
}

// netValue latches the levels of the reset, nmi, haltreq and resethaltreq
// input ports, plus resethaltreqS, the copy of resethaltreq sampled at
// reset, per spec.md 3, "netValue". Interrupt lines are held in ip.
type netValue struct {
	reset         bool
	nmi           bool
	haltreq       bool
	resethaltreq  bool
	resethaltreqS bool
}

// intState is a diagnostic snapshot used only to dedupe verbose-mode
// interrupt-state log lines (SPEC_FULL.md 6.1).
type intState struct {
	pendingEnabled uint64
	pending        uint64
	pendingExternal uint64
	pendingInternal uint64
	mideleg        uint64
	sideleg        uint64
	mie, sie, uie  bool
}

// Observer is a derived-model callback registration: an ordered fan-out
// list notified on trap entry, ERET, and reset, plus an optional
// contribution to the enumerated exception list (spec.md 3,
// "Derived-model callback list", and spec.md 9, "extCBs").
type Observer struct {
	// TrapNotifier is called after every completed trap entry, with the
	// mode the trap was taken to.
	TrapNotifier func(mode Mode)
	// ERETNotifier is called after every completed exception return
	// (MRET/SRET/URET/DRET), with the mode being returned from.
	ERETNotifier func(mode Mode)
	// ResetNotifier is called after Reset finishes reinitializing
	// CSR state.
	ResetNotifier func()
	// FirstException, if non-nil, contributes additional exception
	// descriptors to (*Hart).Exceptions.
	FirstException func() []ExceptionDescriptor
}

// Hart is a single RISC-V hardware thread's trap-and-interrupt state
// machine. All mutation happens through port callbacks, the CSR
// accessor, and the trap engines exposed by this package; there is no
// concurrency control because a Hart is only ever driven by the one host
// simulation thread that owns it (spec.md 5).
type Hart struct {
	csr    CSR
	host   Host
	config HartConfig

	// Verbose gates the diagnostic log.Printf calls this package makes
	// for memory-access traps, the DRET-outside-debug case, and
	// interrupt-state-change tracing (spec.md 7; SPEC_FULL.md 6.1).
	Verbose bool

	mode Mode

	dm      bool
	dmStall bool

	disable DisableReason

	// ip holds one bit per interrupt source: bits 0..15 architectural,
	// bits >=16 local. Width is fixed at construction and never resized
	// (spec.md 9).
	ip []uint64
	// swip is the software-pending shadow: bits set by CSR writes to
	// mip rather than by an external port.
	swip uint64

	// extInt holds the claimed external-interrupt ID for each mode,
	// indexed by Mode. Only ModeUser, ModeSupervisor, ModeMachine slots
	// are used.
	extInt [4]uint32

	net netValue

	exclusiveValid bool

	afErrorIn  AFError
	afErrorOut AFError

	firstOnlyFault bool

	lastException Exception

	observers []Observer

	exceptions     []ExceptionDescriptor
	exceptionMask  uint64
	interruptMask  uint64

	baseInstructions uint64
	baseCycles       uint64

	stepTimer Timer

	lastIntState intState
	haveIntState bool
}

// New creates a Hart wired to the given CSR accessor and host, and
// performs an implicit reset, taking its collaborators at construction
// and resetting immediately (spec.md 5).
func New(csr CSR, host Host, config HartConfig) *Hart {
	h := &Hart{
		csr:    csr,
		host:   host,
		config: config,
	}
	h.buildExceptionMasks()

	numInts := FirstLocalInterrupt + config.LocalInterruptCount
	h.ip = make([]uint64, (numInts+63)/64)

	if config.EnableDebug {
		h.stepTimer = host.CreateTimer(h.onStepTimer)
	}

	h.Reset()
	return h
}

// AddObserver registers a derived-model callback set. Iteration order on
// notification is registration order (spec.md 3).
func (h *Hart) AddObserver(o Observer) {
	h.observers = append(h.observers, o)
	// A newly registered FirstException contributor invalidates the
	// cached enumeration.
	h.exceptions = nil
}

// Mode returns the hart's current privilege level.
func (h *Hart) Mode() Mode { return h.mode }

// InDebugMode reports whether the hart is currently in Debug mode.
func (h *Hart) InDebugMode() bool { return h.dm }

// DM returns the current value of the DM output port (spec.md 6).
func (h *Hart) DM() bool { return h.dm }

// LastException returns the most recently taken trap cause, or the zero
// Exception if none has been taken since reset.
func (h *Hart) LastException() Exception { return h.lastException }

// SetAccessFaultDetail latches an opaque access-fault detail code from the
// host, to be copied into AFErrorOut the next time an access-fault
// exception is taken (spec.md 3, "AF error latch").
func (h *Hart) SetAccessFaultDetail(e AFError) { h.afErrorIn = e }

// AccessFaultDetail returns the detail latched by the most recently taken
// access-fault exception.
func (h *Hart) AccessFaultDetail() AFError { return h.afErrorOut }

// SetFirstOnlyFault arms the fault-only-first suppression for the next
// memory exception taken through TakeMemoryException (spec.md 4.3,
// "Memory fault"). Cleared automatically once consumed.
func (h *Hart) SetFirstOnlyFault(v bool) { h.firstOnlyFault = v }

// FirstOnlyFault reports whether fault-only-first suppression is armed.
func (h *Hart) FirstOnlyFault() bool { return h.firstOnlyFault }

// halt sets reason in the disable bitset, halting the host thread only on
// the 0->nonzero transition (spec.md 4.7, haltProcessor).
func (h *Hart) halt(reason DisableReason) {
	if h.disable == 0 {
		h.host.Halt()
	}
	h.disable |= reason
}

// restart clears reason from the disable bitset, restarting the host
// thread only on the nonzero->0 transition (spec.md 4.7, restartProcessor).
func (h *Hart) restart(reason DisableReason) {
	if h.disable == 0 {
		return
	}
	h.disable &^= reason
	if h.disable == 0 {
		h.host.Restart()
	}
}

// clearExclusive clears any active load-reserved exclusive-access tag.
func (h *Hart) clearExclusive() {
	h.exclusiveValid = false
}

// clearExclusiveOnXRET clears the exclusive tag on an xRET unless the
// configuration asks to preserve it across returns (spec.md 6.2,
// clearEAxRET).
func (h *Hart) clearExclusiveOnXRET() {
	if !h.config.XRETPreservesLR {
		h.clearExclusive()
	}
}

// getEPC returns the address to record as EPC on trap entry: the queried
// PC, or the original call site if the host reports a nonzero delay-slot
// offset (spec.md 4.3, "EPC semantics").
func (h *Hart) getEPC() uint64 {
	pc, jumpBase, offset := h.host.PCDelaySlot()
	if offset != 0 {
		return jumpBase
	}
	return pc
}

// setPCxRET sets the PC for an exception return, masking the low bits per
// spec.md 4.4: two bits unless the C extension is currently enabled, in
// which case only the low bit is masked.
func (h *Hart) setPCxRET(pc uint64) {
	if h.config.ISA&ISACompressed == 0 {
		pc &^= 3
	} else {
		pc &^= 1
	}
	h.host.SetPC(pc)
}
