// SPDX-License-Identifier: MIT

// Command libdemo builds the selected demo app as a C shared or static
// library for firmware and native hosts:
//
//	go build -buildmode=c-shared -tags pitch -o libdemo.so ./cmd/libdemo
//
// The exported symbols are declared in demo_app.h.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"audiodemo/internal/boundary"
)

//export demo_app_create
func demo_app_create(sampleRate C.float) C.uintptr_t {
	return C.uintptr_t(boundary.Create(float32(sampleRate)))
}

//export demo_app_release
func demo_app_release(handle C.uintptr_t) {
	boundary.Release(boundary.Handle(handle))
}

//export demo_app_process
func demo_app_process(handle C.uintptr_t, tx *C.float, rx *C.float, sampleCount C.uint32_t) {
	boundary.Process(
		boundary.Handle(handle),
		(*float32)(unsafe.Pointer(tx)),
		(*float32)(unsafe.Pointer(rx)),
		int(sampleCount),
	)
}

//export demo_app_handle_message
func demo_app_handle_message(handle C.uintptr_t, message C.uint8_t) {
	boundary.HandleEvent(boundary.Handle(handle), uint8(message))
}

//export demo_app_next_outgoing_message
func demo_app_next_outgoing_message(handle C.uintptr_t) C.uint8_t {
	return C.uint8_t(boundary.NextOutgoingEvent(boundary.Handle(handle)))
}

func main() {}
