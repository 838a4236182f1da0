package riscv

import "log"

// eretCommon performs the state transition shared by MRET, SRET, URET,
// and DRET: switch to newMode, set PC (masked per the current C-extension
// state), notify ERET observers, and re-run interrupt arbitration since
// the enable-stack change may unmask a pending interrupt (spec.md 4.4).
func (h *Hart) eretCommon(returnMode, newMode Mode, pc uint64) {
	h.mode = newMode
	h.setPCxRET(pc)

	for _, obs := range h.observers {
		if obs.ERETNotifier != nil {
			obs.ERETNotifier(returnMode)
		}
	}

	h.arbitrate()
}

// MRET returns from an M-mode trap. A NOP while in Debug mode (spec.md
// 4.4).
func (h *Hart) MRET() {
	if h.dm {
		return
	}

	mpp := h.clampMode(h.csr.StatusMPP())

	h.clearExclusiveOnXRET()

	mpie := h.csr.StatusMPIE()
	h.csr.SetStatusMIE(mpie)
	h.csr.SetStatusMPIE(true)
	h.csr.SetStatusMPP(h.minSupportedMode())

	if h.config.PrivVersion >= PrivVersion20211203 && mpp != ModeMachine {
		h.csr.SetStatusMPRV(false)
	}

	h.eretCommon(ModeMachine, mpp, h.csr.EPC(ModeMachine))
}

// SRET returns from an S-mode trap, symmetric with MRET over the S
// fields (spec.md 4.4).
func (h *Hart) SRET() {
	if h.dm {
		return
	}

	spp := h.clampMode(h.csr.StatusSPP())

	h.clearExclusiveOnXRET()

	spie := h.csr.StatusSPIE()
	h.csr.SetStatusSIE(spie)
	h.csr.SetStatusSPIE(true)
	h.csr.SetStatusSPP(h.minSupportedMode())

	if h.config.PrivVersion >= PrivVersion20211203 && spp != ModeMachine {
		h.csr.SetStatusMPRV(false)
	}

	h.eretCommon(ModeSupervisor, spp, h.csr.EPC(ModeSupervisor))
}

// URET returns from a U-mode trap. U has no PP field to restore, so the
// return mode is always User (spec.md 4.4).
func (h *Hart) URET() {
	if h.dm {
		return
	}

	h.clearExclusiveOnXRET()

	upie := h.csr.StatusUPIE()
	h.csr.SetStatusUIE(upie)
	h.csr.SetStatusUPIE(true)

	h.eretCommon(ModeUser, ModeUser, h.csr.EPC(ModeUser))
}

// DRET leaves Debug mode. Outside Debug mode it is illegal (spec.md 4.4).
func (h *Hart) DRET() {
	if !h.dm {
		if h.Verbose {
			log.Printf("[riscv] DRET outside debug mode at pc=0x%x", h.host.PC())
		}
		h.IllegalInstruction()
		return
	}
	h.leaveDM()
}
