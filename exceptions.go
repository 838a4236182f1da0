package riscv

import "fmt"

// Exception identifies an architectural trap: either a synchronous
// exception or an interrupt, disambiguated by the high bit, matching the
// RISC-V convention that cause.Interrupt and cause.ExceptionCode are
// reported together.
type Exception uint64

// interruptBit marks an Exception as an interrupt rather than a
// synchronous exception. It has no relation to any XLEN-sized cause
// register layout; it is purely this package's internal tag.
const interruptBit Exception = 1 << 63

// MakeException packs an architectural code and interrupt flag into an
// Exception value suitable for TakeException.
func MakeException(code uint32, isInterrupt bool) Exception {
	e := Exception(code)
	if isInterrupt {
		e |= interruptBit
	}
	return e
}

// IsInterrupt reports whether e is an interrupt rather than a synchronous
// exception.
func (e Exception) IsInterrupt() bool { return e&interruptBit != 0 }

// Code returns the architectural exception/interrupt code, with the
// interrupt tag masked off.
func (e Exception) Code() uint32 { return uint32(e &^ interruptBit) }

func (e Exception) String() string {
	if e.IsInterrupt() {
		return fmt.Sprintf("interrupt(%d)", e.Code())
	}
	return fmt.Sprintf("exception(%d)", e.Code())
}

// Standard synchronous exception codes, per the RISC-V Privileged
// Architecture. Values are architectural and never renumbered.
const (
	ExcInstructionAddressMisaligned uint32 = 0
	ExcInstructionAccessFault       uint32 = 1
	ExcIllegalInstruction           uint32 = 2
	ExcBreakpoint                   uint32 = 3
	ExcLoadAddressMisaligned        uint32 = 4
	ExcLoadAccessFault              uint32 = 5
	ExcStoreAMOAddressMisaligned    uint32 = 6
	ExcStoreAMOAccessFault          uint32 = 7
	ExcEnvironmentCallFromU         uint32 = 8
	ExcEnvironmentCallFromS         uint32 = 9
	ExcEnvironmentCallFromH         uint32 = 10
	ExcEnvironmentCallFromM         uint32 = 11
	ExcInstructionPageFault         uint32 = 12
	ExcLoadPageFault                uint32 = 13
	ExcStoreAMOPageFault            uint32 = 15
)

// Standard interrupt codes. Bits 0..15 are architectural; local interrupts
// (spec.md data model "ip[]") start at 16.
const (
	IntUserSoftware       uint32 = 0
	IntSupervisorSoftware uint32 = 1
	IntMachineSoftware    uint32 = 3
	IntUserTimer          uint32 = 4
	IntSupervisorTimer    uint32 = 5
	IntMachineTimer       uint32 = 7
	IntUserExternal       uint32 = 8
	IntSupervisorExternal uint32 = 9
	IntMachineExternal    uint32 = 11

	// FirstLocalInterrupt is the first implementation-defined local
	// interrupt code (spec.md 3, "bits >=16 are implementation-defined
	// locals").
	FirstLocalInterrupt uint32 = 16
)

// ExceptionDescriptor is a static, immutable record describing one
// architectural trap: its name, code, ISA prerequisite, and a short
// description. This mirrors the RISCV_EXCEPTION table in the model this
// subsystem was ported from: a flat, append-only, sentinel-terminated
// list, never mutated at run time.
type ExceptionDescriptor struct {
	Name        string
	Code        uint32
	Interrupt   bool
	RequiredISA ISA
	Description string
}

// exceptionTable is the static list of the 14 standard synchronous
// exceptions and 9 standard interrupts defined by the Privileged
// Architecture. Entries whose RequiredISA bits are absent from a hart's
// configured ISA are filtered out by (*Hart).Exceptions.
var exceptionTable = []ExceptionDescriptor{
	{"InstructionAddressMisaligned", ExcInstructionAddressMisaligned, false, 0, "Fetch from unaligned address"},
	{"InstructionAccessFault", ExcInstructionAccessFault, false, 0, "No access permission for fetch"},
	{"IllegalInstruction", ExcIllegalInstruction, false, 0, "Undecoded, unimplemented or disabled instruction"},
	{"Breakpoint", ExcBreakpoint, false, 0, "EBREAK instruction executed"},
	{"LoadAddressMisaligned", ExcLoadAddressMisaligned, false, 0, "Load from unaligned address"},
	{"LoadAccessFault", ExcLoadAccessFault, false, 0, "No access permission for load"},
	{"StoreAMOAddressMisaligned", ExcStoreAMOAddressMisaligned, false, 0, "Store/atomic memory operation at unaligned address"},
	{"StoreAMOAccessFault", ExcStoreAMOAccessFault, false, 0, "No access permission for store/atomic memory operation"},
	{"EnvironmentCallFromUMode", ExcEnvironmentCallFromU, false, ISAUser, "ECALL instruction executed in User mode"},
	{"EnvironmentCallFromSMode", ExcEnvironmentCallFromS, false, ISASupervisor, "ECALL instruction executed in Supervisor mode"},
	{"EnvironmentCallFromMMode", ExcEnvironmentCallFromM, false, 0, "ECALL instruction executed in Machine mode"},
	{"InstructionPageFault", ExcInstructionPageFault, false, 0, "Page fault at fetch address"},
	{"LoadPageFault", ExcLoadPageFault, false, 0, "Page fault at load address"},
	{"StoreAMOPageFault", ExcStoreAMOPageFault, false, 0, "Page fault at store/atomic memory operation address"},

	{"USWInterrupt", IntUserSoftware, true, ISAUserInterrupts, "User software interrupt"},
	{"SSWInterrupt", IntSupervisorSoftware, true, ISASupervisor, "Supervisor software interrupt"},
	{"MSWInterrupt", IntMachineSoftware, true, 0, "Machine software interrupt"},
	{"UTimerInterrupt", IntUserTimer, true, ISAUserInterrupts, "User timer interrupt"},
	{"STimerInterrupt", IntSupervisorTimer, true, ISASupervisor, "Supervisor timer interrupt"},
	{"MTimerInterrupt", IntMachineTimer, true, 0, "Machine timer interrupt"},
	{"UExternalInterrupt", IntUserExternal, true, ISAUserInterrupts, "User external interrupt"},
	{"SExternalInterrupt", IntSupervisorExternal, true, ISASupervisor, "Supervisor external interrupt"},
	{"MExternalInterrupt", IntMachineExternal, true, 0, "Machine external interrupt"},
}

// hasException reports whether the hart implements the given exception or
// interrupt, based on its configured ISA and local-interrupt count.
func (h *Hart) hasException(e Exception) bool {
	if e.IsInterrupt() {
		return h.interruptMask&(1<<e.Code()) != 0
	}
	return h.exceptionMask&(1<<e.Code()) != 0
}

// buildExceptionMasks computes the implemented exception and interrupt
// masks from the configured ISA and local interrupt count, matching
// spec.md 4.1's exception-enumeration rules.
func (h *Hart) buildExceptionMasks() {
	var exceptionMask, interruptMask uint64

	for _, d := range exceptionTable {
		if h.config.ISA&d.RequiredISA != d.RequiredISA {
			continue
		}
		if d.Interrupt {
			interruptMask |= 1 << d.Code
		} else {
			exceptionMask |= 1 << d.Code
		}
	}

	for i := uint32(0); i < h.config.LocalInterruptCount; i++ {
		interruptMask |= 1 << (FirstLocalInterrupt + i)
	}

	h.exceptionMask = exceptionMask
	h.interruptMask = interruptMask
}

// Exceptions returns the implemented exception and interrupt descriptors
// for this hart: the standard table filtered by ISA, any derived-model
// contributions registered via AddObserver, and synthesized
// LocalInterrupt<i> entries. The result is built once and cached (spec.md
// 3, "Exception-descriptor cache") until AddObserver registers another
// observer.
func (h *Hart) Exceptions() []ExceptionDescriptor {
	if h.exceptions != nil {
		return h.exceptions
	}

	var all []ExceptionDescriptor
	for _, d := range exceptionTable {
		if h.hasException(MakeException(d.Code, d.Interrupt)) {
			all = append(all, d)
		}
	}

	for _, obs := range h.observers {
		if obs.FirstException != nil {
			all = append(all, obs.FirstException()...)
		}
	}

	for i := uint32(0); i < h.config.LocalInterruptCount; i++ {
		all = append(all, ExceptionDescriptor{
			Name:        fmt.Sprintf("LocalInterrupt%d", i),
			Code:        FirstLocalInterrupt + i,
			Interrupt:   true,
			Description: fmt.Sprintf("Local interrupt %d", i),
		})
	}

	h.exceptions = all
	return all
}

// ExceptionByCause looks up the descriptor matching the hart's last-taken
// exception, or false if it is not implemented. Before any trap is taken
// the last-taken exception is the zero Exception, which matches the
// InstructionAddressMisaligned descriptor (code 0).
func (h *Hart) ExceptionByCause() (ExceptionDescriptor, bool) {
	return h.descriptorFor(h.lastException)
}

// descriptorFor looks up the descriptor matching e among this hart's
// implemented exceptions and interrupts, or false if e is not
// implemented. Shared by ExceptionByCause and the trap-entry diagnostic
// log so both name a cause the same way.
func (h *Hart) descriptorFor(e Exception) (ExceptionDescriptor, bool) {
	for _, d := range h.Exceptions() {
		if d.Code == e.Code() && d.Interrupt == e.IsInterrupt() {
			return d, true
		}
	}
	return ExceptionDescriptor{}, false
}

// describeException renders e as a short diagnostic name: its descriptor
// name if implemented, else its raw String() form.
func (h *Hart) describeException(e Exception) string {
	if d, ok := h.descriptorFor(e); ok {
		return d.Name
	}
	return e.String()
}
