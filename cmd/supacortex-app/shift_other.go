//go:build !windows

package main

// isShiftHeld has no portable implementation; close always hides to tray.
func isShiftHeld() bool { return false }
