package tray

import "sync"

// SecondaryButton is the button code delivered with every menu-callback
// invocation, regardless of backend.
const SecondaryButton = 3

// MenuFunc builds or presents a context menu. On the Linux backend, menu is
// the persistent container to populate; elsewhere menu is nil and the host
// pops its own ephemeral menu. The button code is always [SecondaryButton];
// when carries the native event timestamp, or zero where none exists.
type MenuFunc func(menu *Menu, button int, when uint32)

// backend is the uniform operation set implemented once per platform.
// Exactly one concrete implementation is compiled into any given binary;
// newPlatformBackend constructs it.
type backend interface {
	setIcon(img *Image)
	setTooltip(text string)
	setVisible(visible bool)
	isEmbedded() bool
	setActivateCallback(fn func())
	setMenuCallback(fn MenuFunc)
	setEmbeddedCallback(fn func())
	rebuildMenu()
	destroy()
}

// Tray is the opaque handle for the application's notification-area entry.
// At most one native tray object exists per handle. Every method is safe on
// a nil or destroyed handle, where it is a no-op.
type Tray struct {
	mu      sync.Mutex
	backend backend
}

// New creates the tray entry with an optional initial icon and tooltip;
// both may be empty. Whether the icon is immediately visible depends on the
// backend: the Linux entry starts Active, the Windows entry stays hidden
// until [Tray.SetVisible] is called, and the macOS entry appears as soon as
// its deferred creation completes.
func New(img *Image, tooltip string) (*Tray, error) {
	b, err := newPlatformBackend(img, tooltip)
	if err != nil {
		return nil, err
	}

	return &Tray{backend: b}, nil
}

// BackendName identifies the compiled backend, for diagnostics only.
func BackendName() string {
	return backendName
}

// SetIcon replaces the tray icon. If conversion to the native format fails,
// the previously applied icon stays in place.
func (t *Tray) SetIcon(img *Image) {
	if b := t.get(); b != nil {
		b.setIcon(img)
	}
}

// SetTooltip replaces the tooltip text.
func (t *Tray) SetTooltip(text string) {
	if b := t.get(); b != nil {
		b.setTooltip(text)
	}
}

// SetVisible shows or hides the tray entry. Repeating the current state is
// a no-op.
func (t *Tray) SetVisible(visible bool) {
	if b := t.get(); b != nil {
		b.setVisible(visible)
	}
}

// IsEmbedded reports whether the entry is currently realized in the host
// shell. The exact meaning is per-backend: the Linux backend equates it
// with visibility of the indicator, the others with the native object being
// shown.
func (t *Tray) IsEmbedded() bool {
	if b := t.get(); b != nil {
		return b.isEmbedded()
	}

	return false
}

// OnActivate registers the primary-activation callback. The Windows and
// macOS backends invoke it on a primary click; the Linux backend never
// invokes it itself (see the package documentation).
func (t *Tray) OnActivate(fn func()) {
	if b := t.get(); b != nil {
		b.setActivateCallback(fn)
	}
}

// OnMenu registers the menu callback. On the Linux backend, registration
// immediately invokes fn once to build the initial persistent menu.
func (t *Tray) OnMenu(fn MenuFunc) {
	if b := t.get(); b != nil {
		b.setMenuCallback(fn)
	}
}

// OnEmbedded registers the embedded-state callback. The Windows backend
// fires it when the shell accepts the icon; the macOS backend fires it
// immediately once the status item exists; the Linux backend only records
// it.
func (t *Tray) OnEmbedded(fn func()) {
	if b := t.get(); b != nil {
		b.setEmbeddedCallback(fn)
	}
}

// RebuildMenu clears the persistent menu container and re-invokes the menu
// callback to repopulate it. Meaningful only on the Linux backend; a no-op
// elsewhere.
func (t *Tray) RebuildMenu() {
	if b := t.get(); b != nil {
		b.rebuildMenu()
	}
}

// Destroy removes the tray entry and releases every native resource the
// handle acquired. The handle must not be used afterwards; further calls on
// it are no-ops.
func (t *Tray) Destroy() {
	if t == nil {
		return
	}

	t.mu.Lock()
	b := t.backend
	t.backend = nil
	t.mu.Unlock()

	if b != nil {
		b.destroy()
	}
}

func (t *Tray) get() backend {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.backend
}
