package main

import "golang.org/x/sys/windows"

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	getAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

const vkShift = 0x10

func isShiftHeld() bool {
	ret, _, _ := getAsyncKeyState.Call(vkShift)
	return ret&0x8000 != 0
}
