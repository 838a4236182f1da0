package riscv

// AccessType distinguishes the kind of memory access a fetch or VM-miss
// probe is performed for.
type AccessType uint8

const (
	AccessExecute AccessType = iota
	AccessRead
	AccessWrite
)

// Host is the simulation kernel this hart is embedded in. It supplies the
// PC, scheduling, memory-executability, and timer primitives that this
// package treats as external collaborators (spec.md 1: "the host
// simulation kernel"). A hart never owns memory or instruction decode; it
// only calls out through Host at the points spec.md 5 designates as
// suspension points.
type Host interface {
	// PC returns the current program counter.
	PC() uint64
	// SetPC sets the program counter, used for both normal control flow
	// and trap/ERET destinations.
	SetPC(uint64)

	// PCDelaySlot returns the address to use as EPC (the "return here"
	// address for an exception): the queried PC, and if the host
	// implements an instruction-table/delay-slot extension, the
	// original call site (jumpBase) to use instead when offset is
	// nonzero (spec.md 4.3, "EPC semantics").
	PCDelaySlot() (pc uint64, jumpBase uint64, offset uint8)

	// Halt suspends the simulation thread for this hart. Called only on
	// a 0->nonzero transition of the disable bitset.
	Halt()
	// Restart resumes the simulation thread for this hart. Called only
	// on a nonzero->0 transition of the disable bitset.
	Restart()

	// IsExecutable reports whether address is currently mapped
	// executable, without attempting to fault it in.
	IsExecutable(address uint64) bool
	// VMMiss asks the virtual-memory subsystem to resolve a fetch/load/
	// store miss at address, possibly raising a page fault of its own.
	// It returns true if it materialized a mapping (fetch should be
	// retried) or handled the fault itself, false if the caller should
	// continue treating this as a plain access fault.
	VMMiss(address uint64, access AccessType, complete bool) bool

	// InstructionSize returns the size in bytes of the instruction at
	// address, used by the Fetch Gate to decide whether a second,
	// cross-page probe is required.
	InstructionSize(address uint64) int
	// FetchInstructionWord returns the raw instruction bits at address,
	// used only when HartConfig.TValIICode requests the illegal
	// instruction word as tval.
	FetchInstructionWord(address uint64) uint32

	// PostSyncInterrupt asks the host to schedule this hart for a
	// synchronous-interrupt callback at the next fetch, so that a port
	// write is observed by the very next Fetch Gate call (spec.md 5,
	// "Ordering guarantees").
	PostSyncInterrupt()

	// CreateTimer allocates a one-shot model timer that invokes fn when
	// it expires. Used for the debug single-step timer.
	CreateTimer(fn func()) Timer

	// AbortRepeat terminates execution of any in-progress debug
	// program-buffer repeat instruction (spec.md 4.3 step 1).
	AbortRepeat()
}

// Timer is a one-shot host-scheduled callback, armed in units of
// retired instructions (spec.md 4.6, "a host model-timer, armed to fire
// after one instruction").
type Timer interface {
	// Set arms the timer to fire after count instructions.
	Set(count uint64)
	// Cancel disarms the timer if armed. A no-op if already fired or
	// never armed.
	Cancel()
	// Remaining reports the instructions left before the timer fires and
	// whether it is currently armed, so the step timer's deadline can be
	// captured and restored across save/restore (spec.md 6, "Persisted
	// state").
	Remaining() (count uint64, armed bool)
}
