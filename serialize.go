package riscv

import (
	"encoding/binary"
	"errors"
)

// hartSerializeVersion is incremented whenever the binary layout changes.
const hartSerializeVersion = 1

// hartSerializeFixedSize is the portion of SerializeSize that does not
// depend on the configured local-interrupt count.
const hartSerializeFixedSize = 1 + // version
	5 + // netValue bools
	8 + // swip
	1 + 1 + 1 + 1 + // mode, dm, dmStall, disable
	1 + 1 + 1 + // exclusiveValid, afErrorIn, afErrorOut
	1 + // firstOnlyFault
	8 + // lastException
	4*4 + // extInt[4]
	8 + 8 + // baseInstructions, baseCycles
	6*8 + 3 + 1 + // intState words, bools, haveIntState
	1 + 8 // step timer armed + count

// SerializeSize returns the number of bytes Serialize needs for this
// hart's configuration. It depends on the configured local-interrupt
// count via the width of ip[] (spec.md 3, "ip[] width").
func (h *Hart) SerializeSize() int {
	return hartSerializeFixedSize + 8*len(h.ip)
}

// Serialize writes the hart's persisted state into buf, which must be at
// least SerializeSize() bytes: the pending-interrupt vector, latched
// port levels, the diagnostic interrupt-state snapshot, and the debug
// single-step timer deadline if armed (spec.md 6, "Persisted state").
// CSR storage, the Host and CSR collaborators, and the observer list are
// not included.
func (h *Hart) Serialize(buf []byte) error {
	if len(buf) < h.SerializeSize() {
		return errors.New("riscv: serialize buffer too small")
	}

	be := binary.BigEndian
	buf[0] = hartSerializeVersion
	off := 1

	for _, word := range h.ip {
		be.PutUint64(buf[off:], word)
		off += 8
	}

	buf[off] = boolByte(h.net.reset)
	off++
	buf[off] = boolByte(h.net.nmi)
	off++
	buf[off] = boolByte(h.net.haltreq)
	off++
	buf[off] = boolByte(h.net.resethaltreq)
	off++
	buf[off] = boolByte(h.net.resethaltreqS)
	off++

	be.PutUint64(buf[off:], h.swip)
	off += 8

	buf[off] = uint8(h.mode)
	off++
	buf[off] = boolByte(h.dm)
	off++
	buf[off] = boolByte(h.dmStall)
	off++
	buf[off] = uint8(h.disable)
	off++

	buf[off] = boolByte(h.exclusiveValid)
	off++
	buf[off] = uint8(h.afErrorIn)
	off++
	buf[off] = uint8(h.afErrorOut)
	off++

	buf[off] = boolByte(h.firstOnlyFault)
	off++

	be.PutUint64(buf[off:], uint64(h.lastException))
	off += 8

	for _, id := range h.extInt {
		be.PutUint32(buf[off:], id)
		off += 4
	}

	be.PutUint64(buf[off:], h.baseInstructions)
	off += 8
	be.PutUint64(buf[off:], h.baseCycles)
	off += 8

	for _, word := range []uint64{
		h.lastIntState.pendingEnabled,
		h.lastIntState.pending,
		h.lastIntState.pendingExternal,
		h.lastIntState.pendingInternal,
		h.lastIntState.mideleg,
		h.lastIntState.sideleg,
	} {
		be.PutUint64(buf[off:], word)
		off += 8
	}
	buf[off] = boolByte(h.lastIntState.mie)
	off++
	buf[off] = boolByte(h.lastIntState.sie)
	off++
	buf[off] = boolByte(h.lastIntState.uie)
	off++
	buf[off] = boolByte(h.haveIntState)
	off++

	armed := false
	var count uint64
	if h.stepTimer != nil {
		count, armed = h.stepTimer.Remaining()
	}
	buf[off] = boolByte(armed)
	be.PutUint64(buf[off+1:], count)

	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Deserialize restores hart state from buf, which must be at least
// SerializeSize() bytes for this hart's configuration. It rearms the
// step timer if one was captured armed, then recomputes mip and
// re-arbitrates so a pending-and-enabled trap the original hart would
// have taken is reconstituted immediately (spec.md 6, "Persisted state").
func (h *Hart) Deserialize(buf []byte) error {
	if len(buf) < h.SerializeSize() {
		return errors.New("riscv: deserialize buffer too small")
	}
	if buf[0] != hartSerializeVersion {
		return errors.New("riscv: unsupported serialize version")
	}

	be := binary.BigEndian
	off := 1

	for i := range h.ip {
		h.ip[i] = be.Uint64(buf[off:])
		off += 8
	}

	h.net.reset = buf[off] != 0
	off++
	h.net.nmi = buf[off] != 0
	off++
	h.net.haltreq = buf[off] != 0
	off++
	h.net.resethaltreq = buf[off] != 0
	off++
	h.net.resethaltreqS = buf[off] != 0
	off++

	h.swip = be.Uint64(buf[off:])
	off += 8

	h.mode = Mode(buf[off])
	off++
	h.dm = buf[off] != 0
	off++
	h.dmStall = buf[off] != 0
	off++
	h.disable = DisableReason(buf[off])
	off++

	h.exclusiveValid = buf[off] != 0
	off++
	h.afErrorIn = AFError(buf[off])
	off++
	h.afErrorOut = AFError(buf[off])
	off++

	h.firstOnlyFault = buf[off] != 0
	off++

	h.lastException = Exception(be.Uint64(buf[off:]))
	off += 8

	for i := range h.extInt {
		h.extInt[i] = be.Uint32(buf[off:])
		off += 4
	}

	h.baseInstructions = be.Uint64(buf[off:])
	off += 8
	h.baseCycles = be.Uint64(buf[off:])
	off += 8

	words := [6]*uint64{
		&h.lastIntState.pendingEnabled,
		&h.lastIntState.pending,
		&h.lastIntState.pendingExternal,
		&h.lastIntState.pendingInternal,
		&h.lastIntState.mideleg,
		&h.lastIntState.sideleg,
	}
	for _, w := range words {
		*w = be.Uint64(buf[off:])
		off += 8
	}
	h.lastIntState.mie = buf[off] != 0
	off++
	h.lastIntState.sie = buf[off] != 0
	off++
	h.lastIntState.uie = buf[off] != 0
	off++
	h.haveIntState = buf[off] != 0
	off++

	armed := buf[off] != 0
	count := be.Uint64(buf[off+1:])
	if h.stepTimer != nil {
		if armed {
			h.stepTimer.Set(count)
		} else {
			h.stepTimer.Cancel()
		}
	}

	h.updatePending()
	return nil
}
