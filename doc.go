// Package tray places a persistent icon in the desktop notification area
// and delivers its click and menu events back to the application. It exposes
// one uniform operation set over three native mechanisms:
//
//   - Linux: a [StatusNotifierItem] exported on the D-Bus session bus,
//     including a com.canonical.dbusmenu menu object.
//   - Windows: a Shell_NotifyIcon entry backed by a hidden message-only
//     window.
//   - macOS: an NSStatusItem in the menu bar.
//
// Exactly one backend is compiled per platform; on platforms with no native
// tray a no-op backend is used so that builds never break. The active
// backend can be queried with [BackendName].
//
// # Usage
//
// A [Tray] is created with an optional initial icon and tooltip, updated any
// number of times, and destroyed exactly once:
//
//	t, err := tray.New(icon, "Idle")
//	if err != nil { ... }
//	t.OnActivate(func() { ... })
//	t.OnMenu(func(menu *tray.Menu, button int, when uint32) { ... })
//	t.SetVisible(true)
//	defer t.Destroy()
//
// All operations must be driven from the host GUI thread; the package is not
// a general-purpose concurrent API. Failures to convert or apply an icon are
// logged and degrade to "previous icon retained"; they are never fatal.
//
// # Per-backend menu semantics
//
// The Linux backend keeps one persistent menu object: the menu callback
// receives a non-nil [Menu] container to populate, and [Tray.RebuildMenu]
// clears and repopulates it on demand. The Windows and macOS backends create
// no persistent menu; their menu callback receives a nil container together
// with the click button and timestamp, and the host pops its own ephemeral
// menu. Likewise, only the Windows and macOS backends ever invoke the
// activation callback on a primary click: the Linux protocol has no direct
// activation, so there the callback is reached only through a menu item the
// host installs itself.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
package tray
