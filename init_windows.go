//go:build windows

package main

import (
	"syscall"
	"unsafe"
)

const enableVirtualTerminalProcessing = 0x0004

func init() {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")

	// UTF-8 console output
	kernel32.NewProc("SetConsoleOutputCP").Call(uintptr(65001))

	// ANSI colors for the stderr log stream
	getConsoleMode := kernel32.NewProc("GetConsoleMode")
	setConsoleMode := kernel32.NewProc("SetConsoleMode")
	handle := uintptr(syscall.Stderr)
	var mode uint32
	if ok, _, _ := getConsoleMode.Call(handle, uintptr(unsafe.Pointer(&mode))); ok != 0 {
		setConsoleMode.Call(handle, uintptr(mode|enableVirtualTerminalProcessing))
	}
}
