// Command rvsim is a worked example of a host wiring riscv.Hart to a
// flat-memory bus: enough CSR storage and fetch plumbing to demonstrate a
// delegated ECALL trap from User mode and an SRET back to the faulting
// instruction.
package main

import (
	"fmt"
	"log"

	"github.com/user-none/go-riscv-hart"
)

// bus is the simulation host: flat memory plus the CSR fields the Hart
// touches during trap entry, return, and delegation. Real hosts back this
// with a full register file; rvsim keeps only what the demo exercises.
type bus struct {
	mem []byte
	pc  uint64

	mie, sie, mpie, spie bool
	mpp, spp             riscv.Mode
	mprv                 bool

	cause    map[riscv.Mode]riscv.Cause
	epc      map[riscv.Mode]uint64
	tval     map[riscv.Mode]uint64
	tvecBase map[riscv.Mode]uint64
	tvecMode map[riscv.Mode]riscv.TVecMode

	medeleg, mideleg uint64
	mip, mieMask     uint64

	dcsrPrv   riscv.Mode
	dcsrCause riscv.DebugCause
	dpc       uint64

	halted bool
}

func newBus(size int) *bus {
	return &bus{
		mem:      make([]byte, size),
		cause:    map[riscv.Mode]riscv.Cause{},
		epc:      map[riscv.Mode]uint64{},
		tval:     map[riscv.Mode]uint64{},
		tvecBase: map[riscv.Mode]uint64{},
		tvecMode: map[riscv.Mode]riscv.TVecMode{},
	}
}

// mstatus fields.
func (b *bus) StatusMIE() bool       { return b.mie }
func (b *bus) SetStatusMIE(v bool)   { b.mie = v }
func (b *bus) StatusSIE() bool       { return b.sie }
func (b *bus) SetStatusSIE(v bool)   { b.sie = v }
func (b *bus) StatusUIE() bool       { return false }
func (b *bus) SetStatusUIE(bool)     {}
func (b *bus) StatusMPIE() bool      { return b.mpie }
func (b *bus) SetStatusMPIE(v bool)  { b.mpie = v }
func (b *bus) StatusSPIE() bool      { return b.spie }
func (b *bus) SetStatusSPIE(v bool)  { b.spie = v }
func (b *bus) StatusUPIE() bool      { return false }
func (b *bus) SetStatusUPIE(bool)    {}
func (b *bus) StatusMPP() riscv.Mode { return b.mpp }
func (b *bus) SetStatusMPP(m riscv.Mode) { b.mpp = m }
func (b *bus) StatusSPP() riscv.Mode { return b.spp }
func (b *bus) SetStatusSPP(m riscv.Mode) { b.spp = m }
func (b *bus) StatusMPRV() bool      { return b.mprv }
func (b *bus) SetStatusMPRV(v bool)  { b.mprv = v }

// Per-target-mode trap CSRs.
func (b *bus) Cause(mode riscv.Mode) riscv.Cause       { return b.cause[mode] }
func (b *bus) SetCause(mode riscv.Mode, c riscv.Cause) { b.cause[mode] = c }
func (b *bus) EPC(mode riscv.Mode) uint64              { return b.epc[mode] }
func (b *bus) SetEPC(mode riscv.Mode, pc uint64)       { b.epc[mode] = pc }
func (b *bus) EPCMask(riscv.Mode) uint64               { return ^uint64(1) }
func (b *bus) TVal(mode riscv.Mode) uint64             { return b.tval[mode] }
func (b *bus) SetTVal(mode riscv.Mode, v uint64)       { b.tval[mode] = v }
func (b *bus) TVecBase(mode riscv.Mode) uint64         { return b.tvecBase[mode] }
func (b *bus) TVecMode(mode riscv.Mode) riscv.TVecMode { return b.tvecMode[mode] }

// Delegation registers.
func (b *bus) MEDeleg() uint64 { return b.medeleg }
func (b *bus) SEDeleg() uint64 { return 0 }
func (b *bus) MIDeleg() uint64 { return b.mideleg }
func (b *bus) SIDeleg() uint64 { return 0 }

// Interrupt pending/enable views.
func (b *bus) MIP() uint64     { return b.mip }
func (b *bus) SetMIP(v uint64) { b.mip = v }
func (b *bus) MIEMask() uint64 { return b.mieMask }

// dcsr fields. rvsim never drives Debug mode, so these are inert.
func (b *bus) DCSRPrv() riscv.Mode             { return b.dcsrPrv }
func (b *bus) SetDCSRPrv(m riscv.Mode)         { b.dcsrPrv = m }
func (b *bus) DCSRCause() riscv.DebugCause     { return b.dcsrCause }
func (b *bus) SetDCSRCause(c riscv.DebugCause) { b.dcsrCause = c }
func (b *bus) DCSRStep() bool                  { return false }
func (b *bus) SetDCSRNMIP(bool)                {}
func (b *bus) DCSREBreakU() bool               { return false }
func (b *bus) DCSREBreakS() bool               { return false }
func (b *bus) DCSREBreakM() bool               { return false }
func (b *bus) DCSRStopCount() bool             { return false }

func (b *bus) DPC() uint64     { return b.dpc }
func (b *bus) SetDPC(v uint64) { b.dpc = v }

func (b *bus) VStart() uint64               { return 0 }
func (b *bus) SetVStart(uint64)             {}
func (b *bus) VStartMask() uint64           { return ^uint64(0) }
func (b *bus) VL() uint64                   { return 0 }
func (b *bus) SetVL(uint64)                 {}
func (b *bus) RefreshVectorPolymorphicKey() {}

func (b *bus) MCountInhibitIR() bool { return false }
func (b *bus) MCountInhibitCY() bool { return false }

func (b *bus) ResetAll() {
	mem := b.mem
	*b = *newBus(0)
	b.mem = mem
}

// Host interface.
func (b *bus) PC() uint64      { return b.pc }
func (b *bus) SetPC(pc uint64) { b.pc = pc }
func (b *bus) PCDelaySlot() (pc uint64, jumpBase uint64, offset uint8) {
	return b.pc, 0, 0
}
func (b *bus) Halt()    { b.halted = true }
func (b *bus) Restart() { b.halted = false }
func (b *bus) IsExecutable(address uint64) bool {
	return address < uint64(len(b.mem))
}
func (b *bus) VMMiss(uint64, riscv.AccessType, bool) bool { return false }
func (b *bus) InstructionSize(uint64) int                 { return 4 }
func (b *bus) FetchInstructionWord(address uint64) uint32 {
	if int(address)+4 > len(b.mem) {
		return 0
	}
	return uint32(b.mem[address]) | uint32(b.mem[address+1])<<8 |
		uint32(b.mem[address+2])<<16 | uint32(b.mem[address+3])<<24
}
func (b *bus) PostSyncInterrupt()             {}
func (b *bus) CreateTimer(fn func()) riscv.Timer { return &oneShotTimer{fn: fn} }
func (b *bus) AbortRepeat()                   {}

// oneShotTimer is a minimal Timer; rvsim never arms the debug single-step
// timer, so Set/Cancel only need to track state honestly for Remaining.
type oneShotTimer struct {
	fn    func()
	armed bool
	count uint64
}

func (t *oneShotTimer) Set(count uint64)          { t.armed = true; t.count = count }
func (t *oneShotTimer) Cancel()                   { t.armed = false }
func (t *oneShotTimer) Remaining() (uint64, bool) { return t.count, t.armed }

func main() {
	fmt.Println("--- RISC-V trap/interrupt hart demo ---")

	b := newBus(64 * 1024)
	h := riscv.New(b, b, riscv.HartConfig{
		ISA:          riscv.ISAUser | riscv.ISASupervisor,
		ResetAddress: 0x1000,
	})
	h.Verbose = true

	h.AddObserver(riscv.Observer{
		TrapNotifier: func(mode riscv.Mode) {
			fmt.Printf("trap entered %s mode, cause=%v\n", mode, h.LastException())
		},
		ERETNotifier: func(mode riscv.Mode) {
			fmt.Printf("returned from %s mode\n", mode)
		},
	})

	fmt.Printf("after reset: mode=%s pc=0x%x\n", h.Mode(), b.PC())

	// Delegate U-mode ECALL to Supervisor, matching the delegated-ECALL
	// boundary scenario, then fault it from User mode.
	b.medeleg = 1 << riscv.ExcEnvironmentCallFromU
	b.tvecBase[riscv.ModeSupervisor] = 0x8000
	b.sie = true
	h.SetInterruptLine(riscv.IntMachineTimer, false)

	// Drop from Machine to User mode with an MRET to 0x1000.
	b.mpp = riscv.ModeUser
	b.epc[riscv.ModeMachine] = 0x1000
	h.MRET()

	b.pc = 0x1000
	h.ECALL()
	fmt.Printf("after ECALL: mode=%s pc=0x%x scause=%+v\n", h.Mode(), b.PC(), b.Cause(riscv.ModeSupervisor))

	h.SRET()
	fmt.Printf("after SRET: mode=%s pc=0x%x\n", h.Mode(), b.PC())

	if err := demoSerializeRoundTrip(h); err != nil {
		log.Fatalf("serialize round-trip failed: %v", err)
	}
	fmt.Println("serialize round-trip ok")
}

func demoSerializeRoundTrip(h *riscv.Hart) error {
	buf := make([]byte, h.SerializeSize())
	if err := h.Serialize(buf); err != nil {
		return err
	}
	return h.Deserialize(buf)
}
