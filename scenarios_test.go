package riscv

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// This suite restates the boundary scenarios from spec.md 8 as Ginkgo
// specs, reusing the same testCSR/testHost doubles as the table-driven
// tests in trapentry_test.go/trapreturn_test.go/debug_test.go.
var _ = Describe("trap entry and return boundary scenarios", func() {
	It("delegates a U-mode ECALL to Supervisor mode", func() {
		h, csr, host := newTestHart(nil)
		csr.medeleg = 1 << ExcEnvironmentCallFromU
		csr.tvecBase[causeIdx(ModeSupervisor)] = 0x80
		csr.tvecMode[causeIdx(ModeSupervisor)] = TVecDirect
		csr.sie = true
		h.mode = ModeUser
		host.pc = 0x1000

		h.ECALL()

		got := csr.Cause(ModeSupervisor)
		Expect(got.Interrupt).To(BeFalse())
		Expect(got.Code).To(Equal(ExcEnvironmentCallFromU))
		Expect(csr.EPC(ModeSupervisor)).To(Equal(uint64(0x1000)))
		Expect(csr.TVal(ModeSupervisor)).To(Equal(uint64(0)))
		Expect(h.Mode()).To(Equal(ModeSupervisor))
		Expect(host.pc).To(Equal(uint64(0x80)))
		Expect(csr.spp).To(Equal(ModeUser))
		Expect(csr.spie).To(BeTrue())
		Expect(csr.sie).To(BeFalse())
	})

	It("dispatches a non-delegated M-timer interrupt while in U-mode", func() {
		h, csr, host := newTestHart(nil)
		csr.tvecBase[causeIdx(ModeMachine)] = 0x100
		csr.tvecMode[causeIdx(ModeMachine)] = TVecVectored
		csr.mieMask = 1 << IntMachineTimer
		csr.mip = 1 << IntMachineTimer
		csr.mie = true
		h.mode = ModeUser

		h.doInterrupt()

		Expect(host.pc).To(Equal(uint64(0x11C)))
		got := csr.Cause(ModeMachine)
		Expect(got.Interrupt).To(BeTrue())
		Expect(got.Code).To(Equal(IntMachineTimer))
		Expect(csr.mpp).To(Equal(ModeUser))
		Expect(csr.mpie).To(BeTrue())
		Expect(csr.mie).To(BeFalse())
	})

	It("breaks the tie between MEIP and MTIP in favor of MEIP", func() {
		h, csr, _ := newTestHart(nil)
		csr.mieMask = 1<<IntMachineExternal | 1<<IntMachineTimer
		csr.mip = 1<<IntMachineExternal | 1<<IntMachineTimer
		csr.mie = true

		code, ok := h.selectInterrupt()

		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(IntMachineExternal))
	})

	It("clamps MRET to the minimum supported mode when MPP names an absent mode", func() {
		h, csr, _ := newTestHart(func(c *HartConfig) { c.ISA = ISAUser })
		csr.mpp = ModeSupervisor

		h.MRET()

		Expect(h.Mode()).To(Equal(ModeUser))
		Expect(csr.mpp).To(Equal(ModeUser))
	})

	It("suppresses a fault-only-first memory exception and clamps vl to vstart", func() {
		h, csr, host := newTestHart(nil)
		csr.vstart = 3
		csr.vl = 8
		h.SetFirstOnlyFault(true)
		initialPC := host.pc

		h.TakeMemoryException(MakeException(ExcLoadAccessFault, false), 0x9000)

		Expect(host.pc).To(Equal(initialPC))
		Expect(csr.vl).To(Equal(uint64(3)))
		Expect(h.FirstOnlyFault()).To(BeFalse())
		Expect(csr.pmKeyRefreshed).To(BeTrue())
	})

	It("enters Debug mode when the single-step timer fires", func() {
		h, csr, _ := newTestHart(func(c *HartConfig) { c.EnableDebug = true })
		csr.dcsrStep = true
		h.mode = ModeSupervisor
		h.ArmSingleStep()

		h.stepTimer.(*testTimer).fire()

		Expect(h.dm).To(BeTrue())
		Expect(csr.dcsrCause).To(Equal(DMCauseStep))
		Expect(csr.dcsrPrv).To(Equal(ModeSupervisor))
		Expect(h.Mode()).To(Equal(ModeMachine))
	})
})
