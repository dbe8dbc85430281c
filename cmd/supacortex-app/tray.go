package main

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"runtime"

	"github.com/energye/systray"
)

//go:embed appicon.png
var trayIcon []byte

const trayIconSize = 64

// runTray starts the system tray icon. Must be called in a goroutine;
// systray.Run blocks until Quit is called.
func runTray(app *App) {
	// The hidden window created by systray and its message loop must share
	// one OS thread.
	runtime.LockOSThread()
	systray.Run(func() { onTrayReady(app) }, func() {})
}

// pngToICO wraps raw PNG bytes in a minimal ICO container.
// Windows LoadImage(IMAGE_ICON) requires ICO format; since Vista,
// ICO supports embedded PNG data directly.
func pngToICO(png []byte, size int) []byte {
	dim := byte(size)
	if size >= 256 {
		dim = 0 // 0 = 256
	}
	buf := new(bytes.Buffer)
	// ICONDIR header
	binary.Write(buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(buf, binary.LittleEndian, uint16(1)) // type: 1 = ICO
	binary.Write(buf, binary.LittleEndian, uint16(1)) // count: 1 image

	// ICONDIRENTRY
	buf.WriteByte(dim) // width
	buf.WriteByte(dim) // height
	buf.WriteByte(0)   // color count
	buf.WriteByte(0)   // reserved
	binary.Write(buf, binary.LittleEndian, uint16(1))        // color planes
	binary.Write(buf, binary.LittleEndian, uint16(32))       // bits per pixel
	binary.Write(buf, binary.LittleEndian, uint32(len(png))) // image data size
	binary.Write(buf, binary.LittleEndian, uint32(6+1*16))   // offset to image data

	buf.Write(png)
	return buf.Bytes()
}

func trayIconBytes() []byte {
	if runtime.GOOS == "windows" {
		return pngToICO(trayIcon, trayIconSize)
	}
	return trayIcon
}

func onTrayReady(app *App) {
	systray.SetIcon(trayIconBytes())
	systray.SetTooltip("supacortex")
	systray.SetOnDClick(func(menu systray.IMenu) { app.ShowWindow() })

	mOpen := systray.AddMenuItem("Open supacortex", "Show the main window")
	mOpen.Click(func() { app.ShowWindow() })

	mReconnect := systray.AddMenuItem("Reconnect stream", "Restart the event stream listener")
	mReconnect.Click(func() {
		started, err := app.stream.Restart()
		switch {
		case err != nil:
			app.log.Warn("tray: reconnect failed", "error", err)
		case !started:
			app.log.Info("tray: no stream to reconnect")
		}
	})

	mUpdate := systray.AddMenuItem("Check for updates", "Check, download and install a newer build")
	mUpdate.Click(func() { go app.updates.CheckAndInstall(app.bg) })

	if app.journal != nil {
		mClear := systray.AddMenuItem("Clear activity", "Empty the activity journal")
		mClear.Click(func() {
			if err := app.ClearActivity(); err != nil {
				app.log.Warn("tray: clear activity failed", "error", err)
			}
		})
	}

	systray.AddSeparator()

	mQuit := systray.AddMenuItem("Quit", "Exit supacortex")
	mQuit.Click(func() { app.quit() })
}
