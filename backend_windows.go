//go:build windows

package tray

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const backendName = "Shell_NotifyIcon"

const trayWindowClass = "PChatTrayWindow"

// trayWindows maps the hidden window back to its backend inside the window
// procedure. Callbacks arrive on the window's message loop thread.
var (
	trayWindowsMu sync.Mutex
	trayWindows   = map[windows.Handle]*winBackend{}

	wndProcOnce sync.Once
	wndProcPtr  uintptr
)

// winBackend owns a hidden message-only window and a Shell_NotifyIcon
// descriptor. The descriptor is staged locally and only submitted to the
// shell while the icon is shown: NIM_ADD on the hidden-to-shown edge,
// NIM_MODIFY for updates while shown, NIM_DELETE on the shown-to-hidden
// edge.
type winBackend struct {
	mu    sync.Mutex
	hwnd  windows.Handle
	nid   notifyIconData
	hicon windows.Handle
	icon  *Image

	visible   bool
	destroyed bool

	activateFn func()
	menuFn     MenuFunc
	embeddedFn func()
}

func newPlatformBackend(img *Image, tooltip string) (backend, error) {
	b := &winBackend{}
	b.nid.Size = uint32(unsafe.Sizeof(b.nid))
	b.nid.ID = trayID
	b.nid.Flags = nifMessage | nifIcon | nifTip
	b.nid.CallbackMessage = wmTrayIcon

	if img != nil {
		hicon, err := createTrayIcon(img)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to build tray icon")
		} else {
			b.icon = img
			b.hicon = hicon
			b.nid.Icon = hicon
		}
	}

	b.storeTooltip(tooltip)

	ready := make(chan error, 1)
	go b.windowLoop(ready)

	if err := <-ready; err != nil {
		// Partial construction: the window never existed, so only the icon
		// needs releasing.
		destroyIcon(b.hicon)
		return nil, err
	}

	return b, nil
}

// windowLoop creates the hidden window and pumps its messages. The window
// and its loop must share one OS thread, so both live on this locked
// goroutine; tray callbacks are delivered from here.
func (b *winBackend) windowLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd, err := createTrayWindow()
	if err != nil {
		ready <- err
		return
	}

	trayWindowsMu.Lock()
	trayWindows[hwnd] = b
	trayWindowsMu.Unlock()

	b.mu.Lock()
	b.hwnd = hwnd
	b.nid.Wnd = hwnd
	b.mu.Unlock()

	ready <- nil

	var msg winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if ret == 0 || int32(ret) == -1 {
			break
		}

		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}

	trayWindowsMu.Lock()
	delete(trayWindows, hwnd)
	trayWindowsMu.Unlock()
}

func createTrayWindow() (windows.Handle, error) {
	instance, err := windows.GetModuleHandle(nil)
	if err != nil {
		return 0, fmt.Errorf("tray: GetModuleHandle: %w", err)
	}

	wndProcOnce.Do(func() {
		wndProcPtr = windows.NewCallback(trayWndProc)
	})

	className, err := windows.UTF16PtrFromString(trayWindowClass)
	if err != nil {
		return 0, fmt.Errorf("tray: %w", err)
	}

	wc := wndClassExW{
		WndProc:   wndProcPtr,
		Instance:  instance,
		ClassName: className,
	}
	wc.Size = uint32(unsafe.Sizeof(wc))

	// Re-registration after a previous destroy fails benignly; the class
	// sticks around for the process lifetime.
	procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))

	windowName, err := windows.UTF16PtrFromString("PChat Tray")
	if err != nil {
		return 0, fmt.Errorf("tray: %w", err)
	}

	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		0, 0, 0, 0, 0,
		hwndMessage,
		0,
		uintptr(instance),
		0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("tray: CreateWindowEx: %w", callErr)
	}

	return windows.Handle(hwnd), nil
}

// trayWndProc handles callback messages from the shell for every tray
// window in the process.
func trayWndProc(hwnd, msgID, wParam, lParam uintptr) uintptr {
	switch msgID {
	case wmTrayIcon:
		trayWindowsMu.Lock()
		b := trayWindows[windows.Handle(hwnd)]
		trayWindowsMu.Unlock()

		if b != nil {
			b.handleTrayEvent(uint32(lParam & 0xFFFF))
		}
		return 0

	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}

	ret, _, _ := procDefWindowProcW.Call(hwnd, msgID, wParam, lParam)
	return ret
}

func (b *winBackend) handleTrayEvent(event uint32) {
	b.mu.Lock()
	activate := b.activateFn
	menu := b.menuFn
	hwnd := b.hwnd
	b.mu.Unlock()

	switch event {
	case wmLButtonUp:
		if activate != nil {
			activate()
		}

	case wmRButtonUp:
		if menu != nil {
			// The shell requires the window to be foreground before a
			// popup menu can receive input focus.
			procSetForegroundWindow.Call(uintptr(hwnd))

			menu(nil, SecondaryButton, tickCount())

			// A no-op message afterwards makes the popup dismiss cleanly
			// when the user clicks elsewhere.
			postMessage(hwnd, wmNull, 0, 0)
		}
	}
}

func (b *winBackend) storeTooltip(text string) {
	encoded, err := windows.UTF16FromString(text)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid tooltip text")
		return
	}

	if len(encoded) > len(b.nid.Tip) {
		encoded = encoded[:len(b.nid.Tip)-1]
		encoded = append(encoded, 0)
	}

	for i := range b.nid.Tip {
		b.nid.Tip[i] = 0
	}
	copy(b.nid.Tip[:], encoded)
}

func (b *winBackend) setIcon(img *Image) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed || img == nil {
		return
	}

	hicon, err := createTrayIcon(img)
	if err != nil {
		// Previous icon stays in place.
		logger.Warn().Err(err).Msg("failed to build tray icon")
		return
	}

	destroyIcon(b.hicon)
	b.icon = img
	b.hicon = hicon
	b.nid.Icon = hicon

	if b.visible {
		if err := shellNotifyIcon(nimModify, &b.nid); err != nil {
			logger.Warn().Err(err).Msg("failed to update tray icon")
		}
	}
}

func (b *winBackend) setTooltip(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}

	b.storeTooltip(text)

	if b.visible {
		if err := shellNotifyIcon(nimModify, &b.nid); err != nil {
			logger.Warn().Err(err).Msg("failed to update tray tooltip")
		}
	}
}

func (b *winBackend) setVisible(visible bool) {
	b.mu.Lock()

	if b.destroyed || visible == b.visible {
		b.mu.Unlock()
		return
	}

	if visible {
		if err := shellNotifyIcon(nimAdd, &b.nid); err != nil {
			logger.Warn().Err(err).Msg("failed to add tray icon")
			b.mu.Unlock()
			return
		}

		b.visible = true
		embedded := b.embeddedFn
		b.mu.Unlock()

		if embedded != nil {
			embedded()
		}
		return
	}

	if err := shellNotifyIcon(nimDelete, &b.nid); err != nil {
		logger.Warn().Err(err).Msg("failed to remove tray icon")
	}
	b.visible = false
	b.mu.Unlock()
}

func (b *winBackend) isEmbedded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.visible
}

func (b *winBackend) setActivateCallback(fn func()) {
	b.mu.Lock()
	b.activateFn = fn
	b.mu.Unlock()
}

func (b *winBackend) setMenuCallback(fn MenuFunc) {
	b.mu.Lock()
	b.menuFn = fn
	b.mu.Unlock()
}

func (b *winBackend) setEmbeddedCallback(fn func()) {
	b.mu.Lock()
	b.embeddedFn = fn
	b.mu.Unlock()
}

// rebuildMenu is a no-op: this backend has no persistent menu, the host
// creates an ephemeral popup on each menu callback.
func (b *winBackend) rebuildMenu() {}

func (b *winBackend) destroy() {
	b.mu.Lock()

	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true

	if b.visible {
		shellNotifyIcon(nimDelete, &b.nid)
		b.visible = false
	}

	destroyIcon(b.hicon)
	b.hicon = 0
	b.nid.Icon = 0
	b.icon = nil

	hwnd := b.hwnd
	b.hwnd = 0
	b.mu.Unlock()

	// The window must be destroyed on its own thread; WM_CLOSE makes
	// DefWindowProc call DestroyWindow there, which ends the message loop.
	if hwnd != 0 {
		postMessage(hwnd, wmClose, 0, 0)
	}
}
