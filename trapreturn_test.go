package riscv

import "testing"

// TestMRETClamp is boundary scenario 4 (spec.md 8): MRET to an
// unimplemented Supervisor mode clamps to the minimum supported mode.
func TestMRETClamp(t *testing.T) {
	h, csr, _ := newTestHart(func(c *HartConfig) { c.ISA = ISAUser })
	csr.mpp = ModeSupervisor

	h.MRET()

	if h.Mode() != ModeUser {
		t.Errorf("mode = %v, want User", h.Mode())
	}
	if csr.mpp != ModeUser {
		t.Errorf("MPP = %v, want User (reset to min supported mode)", csr.mpp)
	}
}

func TestMRETRestoresIEStackAndClearsMPRV(t *testing.T) {
	h, csr, host := newTestHart(func(c *HartConfig) { c.PrivVersion = PrivVersion20211203 })
	csr.mpp = ModeUser
	csr.mpie = true
	csr.mprv = true
	csr.epc[causeIdx(ModeMachine)] = 0x4000

	h.MRET()

	if !csr.mie {
		t.Error("MIE = false, want true (restored from MPIE)")
	}
	if !csr.mpie {
		t.Error("MPIE = false, want true (set to 1)")
	}
	if h.Mode() != ModeUser {
		t.Errorf("mode = %v, want User", h.Mode())
	}
	if csr.mprv {
		t.Error("MPRV = true, want cleared (returning below Machine on priv >= 1.12)")
	}
	if host.pc != 0x4000 {
		t.Errorf("PC = 0x%x, want 0x4000", host.pc)
	}
}

func TestMRETNopInDebugMode(t *testing.T) {
	h, _, host := newTestHart(nil)
	h.dm = true
	host.pc = 0x9999

	h.MRET()

	if host.pc != 0x9999 {
		t.Errorf("PC changed to 0x%x, MRET should be a NOP in Debug mode", host.pc)
	}
}

func TestSRETRestoresSFields(t *testing.T) {
	h, csr, host := newTestHart(nil)
	csr.spp = ModeUser
	csr.spie = true
	csr.epc[causeIdx(ModeSupervisor)] = 0x2000

	h.SRET()

	if !csr.sie {
		t.Error("SIE = false, want true")
	}
	if h.Mode() != ModeUser {
		t.Errorf("mode = %v, want User", h.Mode())
	}
	if host.pc != 0x2000 {
		t.Errorf("PC = 0x%x, want 0x2000", host.pc)
	}
}

func TestURETAlwaysReturnsToUser(t *testing.T) {
	h, csr, host := newTestHart(nil)
	csr.upie = true
	csr.epc[causeIdx(ModeUser)] = 0x3000

	h.URET()

	if h.Mode() != ModeUser {
		t.Errorf("mode = %v, want User", h.Mode())
	}
	if host.pc != 0x3000 {
		t.Errorf("PC = 0x%x, want 0x3000", host.pc)
	}
}

func TestDRETOutsideDebugIsIllegal(t *testing.T) {
	h, csr, _ := newTestHart(nil)
	h.mode = ModeMachine

	h.DRET()

	if got := csr.Cause(ModeMachine); got.Code != ExcIllegalInstruction {
		t.Errorf("mcause = %+v, want IllegalInstruction", got)
	}
}

func TestDRETLeavesDebugMode(t *testing.T) {
	h, csr, host := newTestHart(nil)
	h.dm = true
	csr.dcsrPrv = ModeSupervisor
	csr.dpc = 0x5000

	h.DRET()

	if h.dm {
		t.Error("dm = true, want false after DRET")
	}
	if h.Mode() != ModeSupervisor {
		t.Errorf("mode = %v, want Supervisor (restored from dcsr.prv)", h.Mode())
	}
	if host.pc != 0x5000 {
		t.Errorf("PC = 0x%x, want 0x5000 (dpc)", host.pc)
	}
}

func TestXRETClearsExclusiveUnlessConfiguredToPreserve(t *testing.T) {
	h, _, _ := newTestHart(nil)
	h.exclusiveValid = true
	h.MRET()
	if h.exclusiveValid {
		t.Error("exclusiveValid = true, want cleared by MRET")
	}

	h2, _, _ := newTestHart(func(c *HartConfig) { c.XRETPreservesLR = true })
	h2.exclusiveValid = true
	h2.MRET()
	if !h2.exclusiveValid {
		t.Error("exclusiveValid = false, want preserved (XRETPreservesLR configured)")
	}
}
