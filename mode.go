package riscv

// Mode is a RISC-V privilege level.
type Mode uint8

const (
	ModeUser Mode = iota
	ModeSupervisor
	ModeHypervisor
	ModeMachine
)

// String returns a human-readable name for the privilege mode.
func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "U"
	case ModeSupervisor:
		return "S"
	case ModeHypervisor:
		return "H"
	case ModeMachine:
		return "M"
	default:
		return "?"
	}
}

// ISA is a bitmask of optional instruction-set features that gate which
// exceptions and interrupts a hart implements.
type ISA uint32

const (
	// ISAUser gates the U (user mode) extension.
	ISAUser ISA = 1 << iota
	// ISASupervisor gates the S (supervisor mode) extension.
	ISASupervisor
	// ISAUserInterrupts gates the N extension (user-mode interrupts).
	ISAUserInterrupts
	// ISACompressed gates the C extension, which relaxes xRET PC masking
	// to a single low bit instead of two.
	ISACompressed
)

// hasMode reports whether the configured hart implements the given
// privilege mode.
func (h *Hart) hasMode(m Mode) bool {
	switch m {
	case ModeMachine:
		return true
	case ModeSupervisor:
		return h.config.ISA&ISASupervisor != 0
	case ModeUser:
		return h.config.ISA&ISAUser != 0
	default:
		return false
	}
}

// minSupportedMode returns the lowest implemented privilege mode: User if
// implemented, otherwise Machine. Supervisor-only configurations (S without
// U) are not modeled by the Privileged Architecture, so Machine is the
// fallback whenever User is absent.
func (h *Hart) minSupportedMode() Mode {
	if h.hasMode(ModeUser) {
		return ModeUser
	}
	return ModeMachine
}

// clampMode returns newMode if the hart implements it, else the minimum
// supported mode. Used by xRET instructions returning to an unimplemented
// mode (spec.md 4.4).
func (h *Hart) clampMode(newMode Mode) Mode {
	if h.hasMode(newMode) {
		return newMode
	}
	return h.minSupportedMode()
}
