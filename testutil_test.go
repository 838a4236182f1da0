package riscv

// testCSR is an in-memory CSR implementation used by tests: every field
// spec.md 3 lists is a plain struct field rather than a packed bit
// layout, since bit packing is explicitly out of scope for this package
// (spec.md 1).
type testCSR struct {
	mie, sie, uie    bool
	mpie, spie, upie bool
	mpp, spp         Mode
	mprv             bool

	cause [3]Cause // indexed by Mode: User=0, Supervisor=1, Machine=3 via causeIdx
	epc   [3]uint64
	tval  [3]uint64
	tvecBase [3]uint64
	tvecMode [3]TVecMode

	medeleg, sedeleg uint64
	mideleg, sideleg uint64

	mip     uint64
	mieMask uint64

	dcsrPrv       Mode
	dcsrCause     DebugCause
	dcsrStep      bool
	dcsrNMIP      bool
	dcsrEBreakU   bool
	dcsrEBreakS   bool
	dcsrEBreakM   bool
	dcsrStopCount bool

	dpc uint64

	vstart, vl uint64
	pmKeyRefreshed bool

	mcountinhibitIR, mcountinhibitCY bool

	resetCount int
}

// causeIdx maps a target Mode to the 0..2 slot used by testCSR's
// per-mode arrays; Hypervisor is never passed by this package.
func causeIdx(mode Mode) int {
	switch mode {
	case ModeSupervisor:
		return 1
	case ModeMachine:
		return 2
	default:
		return 0
	}
}

func (c *testCSR) StatusMIE() bool       { return c.mie }
func (c *testCSR) SetStatusMIE(v bool)   { c.mie = v }
func (c *testCSR) StatusSIE() bool       { return c.sie }
func (c *testCSR) SetStatusSIE(v bool)   { c.sie = v }
func (c *testCSR) StatusUIE() bool       { return c.uie }
func (c *testCSR) SetStatusUIE(v bool)   { c.uie = v }
func (c *testCSR) StatusMPIE() bool      { return c.mpie }
func (c *testCSR) SetStatusMPIE(v bool)  { c.mpie = v }
func (c *testCSR) StatusSPIE() bool      { return c.spie }
func (c *testCSR) SetStatusSPIE(v bool)  { c.spie = v }
func (c *testCSR) StatusUPIE() bool      { return c.upie }
func (c *testCSR) SetStatusUPIE(v bool)  { c.upie = v }
func (c *testCSR) StatusMPP() Mode       { return c.mpp }
func (c *testCSR) SetStatusMPP(m Mode)   { c.mpp = m }
func (c *testCSR) StatusSPP() Mode       { return c.spp }
func (c *testCSR) SetStatusSPP(m Mode)   { c.spp = m }
func (c *testCSR) StatusMPRV() bool      { return c.mprv }
func (c *testCSR) SetStatusMPRV(v bool)  { c.mprv = v }

func (c *testCSR) Cause(mode Mode) Cause        { return c.cause[causeIdx(mode)] }
func (c *testCSR) SetCause(mode Mode, v Cause)  { c.cause[causeIdx(mode)] = v }
func (c *testCSR) EPC(mode Mode) uint64         { return c.epc[causeIdx(mode)] }
func (c *testCSR) SetEPC(mode Mode, v uint64)   { c.epc[causeIdx(mode)] = v }
func (c *testCSR) EPCMask(Mode) uint64          { return ^uint64(1) }
func (c *testCSR) TVal(mode Mode) uint64        { return c.tval[causeIdx(mode)] }
func (c *testCSR) SetTVal(mode Mode, v uint64)  { c.tval[causeIdx(mode)] = v }
func (c *testCSR) TVecBase(mode Mode) uint64    { return c.tvecBase[causeIdx(mode)] }
func (c *testCSR) TVecMode(mode Mode) TVecMode  { return c.tvecMode[causeIdx(mode)] }

func (c *testCSR) MEDeleg() uint64 { return c.medeleg }
func (c *testCSR) SEDeleg() uint64 { return c.sedeleg }
func (c *testCSR) MIDeleg() uint64 { return c.mideleg }
func (c *testCSR) SIDeleg() uint64 { return c.sideleg }

func (c *testCSR) MIP() uint64      { return c.mip }
func (c *testCSR) SetMIP(v uint64)  { c.mip = v }
func (c *testCSR) MIEMask() uint64  { return c.mieMask }

func (c *testCSR) DCSRPrv() Mode          { return c.dcsrPrv }
func (c *testCSR) SetDCSRPrv(m Mode)      { c.dcsrPrv = m }
func (c *testCSR) DCSRCause() DebugCause  { return c.dcsrCause }
func (c *testCSR) SetDCSRCause(v DebugCause) { c.dcsrCause = v }
func (c *testCSR) DCSRStep() bool         { return c.dcsrStep }
func (c *testCSR) SetDCSRNMIP(v bool)     { c.dcsrNMIP = v }
func (c *testCSR) DCSREBreakU() bool      { return c.dcsrEBreakU }
func (c *testCSR) DCSREBreakS() bool      { return c.dcsrEBreakS }
func (c *testCSR) DCSREBreakM() bool      { return c.dcsrEBreakM }
func (c *testCSR) DCSRStopCount() bool    { return c.dcsrStopCount }

func (c *testCSR) DPC() uint64     { return c.dpc }
func (c *testCSR) SetDPC(v uint64) { c.dpc = v }

func (c *testCSR) VStart() uint64      { return c.vstart }
func (c *testCSR) SetVStart(v uint64)  { c.vstart = v }
func (c *testCSR) VStartMask() uint64  { return ^uint64(0) }
func (c *testCSR) VL() uint64          { return c.vl }
func (c *testCSR) SetVL(v uint64)      { c.vl = v }
func (c *testCSR) RefreshVectorPolymorphicKey() { c.pmKeyRefreshed = true }

func (c *testCSR) MCountInhibitIR() bool { return c.mcountinhibitIR }
func (c *testCSR) MCountInhibitCY() bool { return c.mcountinhibitCY }

func (c *testCSR) ResetAll() {
	c.resetCount++
	*c = testCSR{resetCount: c.resetCount, mieMask: c.mieMask}
}

// testTimer is a manually-driven Timer used by debug-controller tests.
type testTimer struct {
	armed bool
	count uint64
	fn    func()
}

func (t *testTimer) Set(count uint64) { t.armed = true; t.count = count }
func (t *testTimer) Cancel()          { t.armed = false }
func (t *testTimer) Remaining() (uint64, bool) { return t.count, t.armed }

// fire invokes the timer callback as if count reached zero, mirroring
// what a host's instruction-retirement loop would do.
func (t *testTimer) fire() {
	if t.armed {
		t.armed = false
		t.fn()
	}
}

// testHost is an in-memory Host implementation used by tests.
type testHost struct {
	pc uint64

	jumpBase uint64
	offset   uint8

	halted   bool
	haltN    int
	restartN int

	executable map[uint64]bool
	vmMissFn   func(addr uint64, access AccessType, complete bool) bool

	instrSize map[uint64]int
	instrWord map[uint64]uint32

	syncPosted int

	timers []*testTimer

	repeatAborted int
}

func newTestHost() *testHost {
	return &testHost{
		executable: map[uint64]bool{},
		instrSize:  map[uint64]int{},
		instrWord:  map[uint64]uint32{},
	}
}

func (h *testHost) PC() uint64     { return h.pc }
func (h *testHost) SetPC(pc uint64) { h.pc = pc }

func (h *testHost) PCDelaySlot() (uint64, uint64, uint8) { return h.pc, h.jumpBase, h.offset }

func (h *testHost) Halt()    { h.halted = true; h.haltN++ }
func (h *testHost) Restart() { h.halted = false; h.restartN++ }

func (h *testHost) IsExecutable(addr uint64) bool { return h.executable[addr] }

func (h *testHost) VMMiss(addr uint64, access AccessType, complete bool) bool {
	if h.vmMissFn != nil {
		return h.vmMissFn(addr, access, complete)
	}
	return false
}

func (h *testHost) InstructionSize(addr uint64) int {
	if sz, ok := h.instrSize[addr]; ok {
		return sz
	}
	return 4
}

func (h *testHost) FetchInstructionWord(addr uint64) uint32 { return h.instrWord[addr] }

func (h *testHost) PostSyncInterrupt() { h.syncPosted++ }

func (h *testHost) CreateTimer(fn func()) Timer {
	t := &testTimer{fn: fn}
	h.timers = append(h.timers, t)
	return t
}

func (h *testHost) AbortRepeat() { h.repeatAborted++ }

// newTestHart builds a Hart wired to fresh testCSR/testHost mocks with a
// full RV64IMASU-equivalent ISA and one local interrupt, ready for
// direct manipulation by tests.
func newTestHart(configure func(*HartConfig)) (*Hart, *testCSR, *testHost) {
	csr := &testCSR{mieMask: ^uint64(0)}
	host := newTestHost()

	cfg := HartConfig{
		ISA:                 ISAUser | ISASupervisor | ISAUserInterrupts,
		LocalInterruptCount: 1,
		ResetAddress:        0x1000,
		NMIAddress:          0x4000,
		PrivVersion:         PrivVersion20211203,
	}
	if configure != nil {
		configure(&cfg)
	}

	h := New(csr, host, cfg)
	return h, csr, host
}
