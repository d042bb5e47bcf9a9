//go:build linux

package tray

import (
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

const backendName = "StatusNotifierItem"

const (
	StatusNotifierItemInterface    = "org.kde.StatusNotifierItem"
	StatusNotifierItemPath         = "/StatusNotifierItem"
	StatusNotifierWatcherInterface = "org.kde.StatusNotifierWatcher"
	StatusNotifierWatcherPath      = "/StatusNotifierWatcher"
)

// sniPixmap is a binary icon representation, wire signature (iiay).
type sniPixmap struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// sniTooltip is the StatusNotifierItem ToolTip property, wire signature
// (sa(iiay)ss).
type sniTooltip struct {
	IconName    string
	Pixmaps     []sniPixmap
	Title       string
	Description string
}

// sniBackend exports the application as a StatusNotifierItem on the session
// bus. Icons are resolved by the shell through an icon-theme path and name
// pair, so every applied image is serialized to a temp file first; the menu
// is one persistent exported dbusmenu object.
type sniBackend struct {
	mu         sync.Mutex
	conn       *dbus.Conn
	name       string
	props      *prop.Properties
	menu       *Menu
	menuServer *menuServer
	signals    chan *dbus.Signal

	status   string
	tooltip  string
	icon     *Image
	iconFile *iconFile

	activateFn func()
	menuFn     MenuFunc
	embeddedFn func()

	destroyed bool
}

func newPlatformBackend(img *Image, tooltip string) (backend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("tray: failed to connect to session bus: %w", err)
	}

	ok := false
	defer func() {
		if !ok {
			conn.Close()
		}
	}()

	b := &sniBackend{
		conn:    conn,
		name:    fmt.Sprintf("org.kde.StatusNotifierItem-%d-1", os.Getpid()),
		menu:    newMenu(),
		signals: make(chan *dbus.Signal, 16),
		status:  "Active",
		tooltip: tooltip,
	}

	b.menuServer = newMenuServer(b.menu)
	b.menuServer.emitLayoutUpdated = func(revision uint32, parentID int32) {
		conn.Emit(MenuObjectPath, MenuInterface+".LayoutUpdated", revision, parentID)
	}
	b.menu.setOnChange(b.menuServer.bump)

	reply, err := conn.RequestName(b.name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("tray: failed to request name %s: %w", b.name, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("tray: name %s already taken", b.name)
	}

	if img != nil {
		file, err := writeIconFile(img, initialIconName)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to save tray icon")
		} else {
			b.icon = img
			b.iconFile = file
		}
	}

	if err := conn.Export(b, StatusNotifierItemPath, StatusNotifierItemInterface); err != nil {
		return nil, fmt.Errorf("tray: failed to export item: %w", err)
	}

	if err := conn.Export(b.menuServer, MenuObjectPath, MenuInterface); err != nil {
		return nil, fmt.Errorf("tray: failed to export menu: %w", err)
	}

	if err := b.exportProperties(); err != nil {
		return nil, fmt.Errorf("tray: failed to export properties: %w", err)
	}

	// The watcher may not be up yet; registration is retried whenever its
	// name gains an owner.
	b.register()

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	); err != nil {
		return nil, fmt.Errorf("tray: failed to watch for watcher: %w", err)
	}

	conn.Signal(b.signals)
	go b.watchWatcher()

	ok = true
	return b, nil
}

// register announces the item to the StatusNotifierWatcher.
func (b *sniBackend) register() {
	call := b.conn.Object(
		StatusNotifierWatcherInterface,
		StatusNotifierWatcherPath,
	).Call(StatusNotifierWatcherInterface+".RegisterStatusNotifierItem", 0, b.name)

	if call.Err != nil {
		logger.Warn().Err(call.Err).Msg("failed to register with status notifier watcher")
	}
}

// watchWatcher re-registers the item whenever the watcher service restarts.
// A replacement watcher loses all previously registered items, so without
// this the icon would silently disappear after a shell restart.
func (b *sniBackend) watchWatcher() {
	for signal := range b.signals {
		if signal.Name != "org.freedesktop.DBus.NameOwnerChanged" {
			continue
		}

		if len(signal.Body) < 3 {
			continue
		}

		name, ok := signal.Body[0].(string)
		if !ok || name != StatusNotifierWatcherInterface {
			continue
		}

		newOwner, ok := signal.Body[2].(string)
		if !ok || newOwner == "" {
			continue
		}

		b.register()
	}
}

func (b *sniBackend) exportProperties() error {
	iconName, iconThemePath := b.iconSpec()

	props, err := prop.Export(b.conn, StatusNotifierItemPath, prop.Map{
		StatusNotifierItemInterface: map[string]*prop.Prop{
			"Category":      {Value: "Communications", Writable: false, Emit: prop.EmitTrue},
			"Id":            {Value: "pchat-tray", Writable: false, Emit: prop.EmitTrue},
			"Title":         {Value: b.tooltip, Writable: false, Emit: prop.EmitTrue},
			"Status":        {Value: b.status, Writable: false, Emit: prop.EmitTrue},
			"WindowId":      {Value: uint32(0), Writable: false, Emit: prop.EmitTrue},
			"IconName":      {Value: iconName, Writable: false, Emit: prop.EmitTrue},
			"IconThemePath": {Value: iconThemePath, Writable: false, Emit: prop.EmitTrue},
			"IconPixmap":    {Value: []sniPixmap{}, Writable: false, Emit: prop.EmitTrue},
			"ItemIsMenu":    {Value: true, Writable: false, Emit: prop.EmitTrue},
			"Menu":          {Value: dbus.ObjectPath(MenuObjectPath), Writable: false, Emit: prop.EmitTrue},
			"ToolTip":       {Value: b.tooltipProperty(), Writable: false, Emit: prop.EmitTrue},
		},
	})
	if err != nil {
		return err
	}

	b.props = props

	_, err = prop.Export(b.conn, MenuObjectPath, prop.Map{
		MenuInterface: map[string]*prop.Prop{
			"Version":       {Value: uint32(3), Writable: false, Emit: prop.EmitTrue},
			"Status":        {Value: "normal", Writable: false, Emit: prop.EmitTrue},
			"TextDirection": {Value: "ltr", Writable: false, Emit: prop.EmitTrue},
			"IconThemePath": {Value: []string{}, Writable: false, Emit: prop.EmitTrue},
		},
	})

	return err
}

// iconSpec returns the theme name and search path of the current icon file.
func (b *sniBackend) iconSpec() (string, string) {
	if b.iconFile == nil {
		return "", ""
	}

	return b.iconFile.name, b.iconFile.dir
}

func (b *sniBackend) tooltipProperty() sniTooltip {
	return sniTooltip{Title: b.tooltip}
}

// Activate implements org.kde.StatusNotifierItem.Activate. The item is
// menu-only (ItemIsMenu), matching the desktop-indicator protocol this
// replaces: activation is reachable solely through a menu entry installed
// by the host, never invoked by the backend itself.
func (b *sniBackend) Activate(x, y int32) *dbus.Error {
	return nil
}

// SecondaryActivate implements org.kde.StatusNotifierItem.SecondaryActivate.
func (b *sniBackend) SecondaryActivate(x, y int32) *dbus.Error {
	return nil
}

// ContextMenu implements org.kde.StatusNotifierItem.ContextMenu. Shells
// that honor the Menu property never call it; others fall back to it, and
// the persistent menu already carries the current layout.
func (b *sniBackend) ContextMenu(x, y int32) *dbus.Error {
	return nil
}

// Scroll implements org.kde.StatusNotifierItem.Scroll.
func (b *sniBackend) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}

func (b *sniBackend) setIcon(img *Image) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed || img == nil {
		return
	}

	file, err := writeIconFile(img, updateIconName())
	if err != nil {
		// Previous icon stays in place.
		logger.Warn().Err(err).Msg("failed to save tray icon")
		return
	}

	old := b.iconFile
	b.icon = img
	b.iconFile = file
	old.remove()

	b.props.SetMust(StatusNotifierItemInterface, "IconThemePath", file.dir)
	b.props.SetMust(StatusNotifierItemInterface, "IconName", file.name)
	b.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewIcon")
}

func (b *sniBackend) setTooltip(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}

	b.tooltip = text

	// The desktop-indicator protocol has no dedicated tooltip; the title
	// is what shells display on hover.
	b.props.SetMust(StatusNotifierItemInterface, "Title", text)
	b.props.SetMust(StatusNotifierItemInterface, "ToolTip", b.tooltipProperty())
	b.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewTitle")
	b.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewToolTip")
}

func (b *sniBackend) setVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}

	status := "Passive"
	if visible {
		status = "Active"
	}

	if status == b.status {
		return
	}

	b.status = status
	b.props.SetMust(StatusNotifierItemInterface, "Status", status)
	b.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewStatus", status)
}

// isEmbedded reports whether the indicator is Active: this backend treats
// visible and embedded as the same concept.
func (b *sniBackend) isEmbedded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return !b.destroyed && b.status == "Active"
}

func (b *sniBackend) setActivateCallback(fn func()) {
	b.mu.Lock()
	b.activateFn = fn
	b.mu.Unlock()
}

// setMenuCallback records the menu delegate and immediately invokes it once
// to build the initial persistent menu.
func (b *sniBackend) setMenuCallback(fn MenuFunc) {
	b.mu.Lock()
	b.menuFn = fn
	menu := b.menu
	destroyed := b.destroyed
	b.mu.Unlock()

	if fn != nil && !destroyed {
		fn(menu, SecondaryButton, 0)
	}
}

func (b *sniBackend) setEmbeddedCallback(fn func()) {
	b.mu.Lock()
	b.embeddedFn = fn
	b.mu.Unlock()

	// No native embedded notification exists on this backend; the callback
	// is recorded but never fired from here.
}

// rebuildMenu destroys every entry of the persistent menu container and
// re-invokes the menu delegate to repopulate it. The shell is notified
// through the dbusmenu revision bump that each edit produces.
func (b *sniBackend) rebuildMenu() {
	b.mu.Lock()
	fn := b.menuFn
	menu := b.menu
	destroyed := b.destroyed
	b.mu.Unlock()

	if fn == nil || destroyed {
		return
	}

	menu.Clear()
	fn(menu, SecondaryButton, 0)
}

func (b *sniBackend) destroy() {
	b.mu.Lock()

	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true

	// Go Passive first so hosts drop the icon before the name vanishes.
	b.status = "Passive"
	b.props.SetMust(StatusNotifierItemInterface, "Status", "Passive")
	b.conn.Emit(StatusNotifierItemPath, StatusNotifierItemInterface+".NewStatus", "Passive")

	b.iconFile.remove()
	b.iconFile = nil
	b.icon = nil

	b.mu.Unlock()

	b.conn.RemoveMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	)
	b.conn.RemoveSignal(b.signals)
	close(b.signals)

	b.conn.ReleaseName(b.name)
	b.conn.Close()
}
