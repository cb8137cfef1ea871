// SPDX-License-Identifier: MIT
/*
Package boundary adapts the selected demo app to a C-style calling
convention: opaque integer handles, raw sample pointers and single-byte
event codes. It is the only package that touches unsafe memory.

Misuse (unknown handles, oversized or overlapping frames, a full handle
table) panics. There is nobody on the other side of the boundary to return
an error to, and a halted device is easier to diagnose than a device
producing wrong audio.
*/
package boundary

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"audiodemo/internal/app"
	"audiodemo/internal/event"
)

// MaxHandles is the number of apps that can be live at once.
const MaxHandles = 8

// Handle identifies a created app. The zero Handle is never issued.
type Handle uintptr

var (
	createMu sync.Mutex
	slots    [MaxHandles]atomic.Pointer[app.Selected]
)

// Create constructs the selected variant and returns its handle.
func Create(sampleRate float32) Handle {
	createMu.Lock()
	defer createMu.Unlock()

	for i := range slots {
		if slots[i].Load() == nil {
			slots[i].Store(app.NewSelected(sampleRate))
			return Handle(i + 1)
		}
	}
	panic(fmt.Sprintf("boundary: all %d app handles in use", MaxHandles))
}

// Release frees h. The handle must not be used afterwards.
func Release(h Handle) {
	createMu.Lock()
	defer createMu.Unlock()

	lookup(h)
	slots[h-1].Store(nil)
}

// Live returns the number of handles currently issued.
func Live() int {
	n := 0
	for i := range slots {
		if slots[i].Load() != nil {
			n++
		}
	}
	return n
}

func lookup(h Handle) *app.Selected {
	if h == 0 || h > MaxHandles {
		panic(fmt.Sprintf("boundary: invalid handle %d", h))
	}
	a := slots[h-1].Load()
	if a == nil {
		panic(fmt.Sprintf("boundary: handle %d is not live", h))
	}
	return a
}

// Process runs one frame of n samples read from in and accumulated into out.
func Process(h Handle, out, in *float32, n int) {
	a := lookup(h)
	view := NewFrameView(out, in, n)
	a.Process(view.In, view.Out)
}

// HandleEvent forwards an event code. Codes the app does not know are
// ignored by it.
func HandleEvent(h Handle, code uint8) {
	lookup(h).HandleEvent(event.Event(code))
}

// NextOutgoingEvent pops the next event code, or 0 when none is pending.
func NextOutgoingEvent(h Handle) uint8 {
	ev, ok := lookup(h).NextOutgoingEvent()
	if !ok {
		return uint8(event.None)
	}
	return uint8(ev)
}

// FrameView is a validated pair of sample slices over caller memory.
type FrameView struct {
	In  []float32
	Out []float32
}

const sampleSize = unsafe.Sizeof(float32(0))

// NewFrameView checks the raw frame once and wraps it in slices: n must be
// in [0, app.MaxFrameSize], both pointers non-nil and float aligned when
// n > 0, and the two regions must not overlap.
func NewFrameView(out, in *float32, n int) FrameView {
	if n < 0 || n > app.MaxFrameSize {
		panic(fmt.Sprintf("boundary: frame of %d samples outside [0, %d]", n, app.MaxFrameSize))
	}
	if n == 0 {
		return FrameView{}
	}
	if out == nil || in == nil {
		panic("boundary: nil sample pointer")
	}

	o, i := uintptr(unsafe.Pointer(out)), uintptr(unsafe.Pointer(in))
	if o%sampleSize != 0 || i%sampleSize != 0 {
		panic("boundary: misaligned sample pointer")
	}
	size := uintptr(n) * sampleSize
	if o < i+size && i < o+size {
		panic("boundary: input and output frames overlap")
	}

	return FrameView{
		In:  unsafe.Slice(in, n),
		Out: unsafe.Slice(out, n),
	}
}
