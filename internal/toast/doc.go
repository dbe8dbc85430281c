// Package toast shows native desktop notifications: notify-send on Linux,
// osascript on macOS and the ToastNotificationManager API on Windows.
package toast
