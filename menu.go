package tray

import "sync"

// Menu is the persistent context-menu container attached to the tray icon
// on backends whose native protocol keeps one long-lived menu object
// (currently the Linux StatusNotifierItem backend). The host's menu
// callback populates it; [Tray.RebuildMenu] clears and repopulates it.
//
// Backends without a persistent native menu pass a nil *Menu to the menu
// callback, and the host presents its own ephemeral menu instead.
type Menu struct {
	mu     sync.Mutex
	nextID int32
	items  []*MenuItem

	// onChange is set by the owning backend so structural edits can be
	// propagated to the host shell (dbusmenu LayoutUpdated).
	onChange func()
}

// newMenu returns an empty menu container.
func newMenu() *Menu {
	return &Menu{nextID: 1}
}

// MenuItem is a single entry of a [Menu].
type MenuItem struct {
	menu      *Menu
	id        int32
	label     string
	separator bool
	disabled  bool
	onClick   func()
}

// AddItem appends a clickable entry. The onClick handler may be nil.
func (m *Menu) AddItem(label string, onClick func()) *MenuItem {
	m.mu.Lock()

	item := &MenuItem{
		menu:    m,
		id:      m.nextID,
		label:   label,
		onClick: onClick,
	}
	m.nextID++
	m.items = append(m.items, item)

	m.mu.Unlock()
	m.changed()

	return item
}

// AddSeparator appends a separator entry.
func (m *Menu) AddSeparator() {
	m.mu.Lock()

	m.items = append(m.items, &MenuItem{
		menu:      m,
		id:        m.nextID,
		separator: true,
	})
	m.nextID++

	m.mu.Unlock()
	m.changed()
}

// Clear removes every entry. Item IDs are not reused afterwards, so a stale
// shell-side reference to a removed entry can never dispatch to a new one.
func (m *Menu) Clear() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
	m.changed()
}

// Items returns a snapshot of the current entries in order.
func (m *Menu) Items() []*MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*MenuItem(nil), m.items...)
}

// Len returns the number of entries.
func (m *Menu) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}

// item returns the entry with the given id, or nil.
func (m *Menu) item(id int32) *MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.id == id {
			return item
		}
	}

	return nil
}

// activate dispatches a click on the entry with the given id and reports
// whether a handler ran. Disabled entries and separators never dispatch.
func (m *Menu) activate(id int32) bool {
	item := m.item(id)
	if item == nil || item.separator || item.disabled || item.onClick == nil {
		return false
	}

	item.onClick()
	return true
}

// changed notifies the owning backend about a structural edit.
func (m *Menu) changed() {
	m.mu.Lock()
	notify := m.onChange
	m.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// setOnChange installs the backend notification hook.
func (m *Menu) setOnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Label returns the entry label.
func (item *MenuItem) Label() string {
	item.menu.mu.Lock()
	defer item.menu.mu.Unlock()

	return item.label
}

// SetLabel updates the entry label.
func (item *MenuItem) SetLabel(label string) {
	item.menu.mu.Lock()
	item.label = label
	item.menu.mu.Unlock()
	item.menu.changed()
}

// Enabled reports whether the entry reacts to clicks.
func (item *MenuItem) Enabled() bool {
	item.menu.mu.Lock()
	defer item.menu.mu.Unlock()

	return !item.disabled
}

// SetEnabled toggles whether the entry reacts to clicks.
func (item *MenuItem) SetEnabled(enabled bool) {
	item.menu.mu.Lock()
	item.disabled = !enabled
	item.menu.mu.Unlock()
	item.menu.changed()
}

// IsSeparator reports whether the entry is a separator.
func (item *MenuItem) IsSeparator() bool {
	return item.separator
}
