package tray

import (
	"errors"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	MenuInterface  = "com.canonical.dbusmenu"
	MenuObjectPath = "/MenuBar"
)

var (
	errUnknownMenuNode     = errors.New("unknown menu node")
	errUnknownMenuProperty = errors.New("unknown menu property")
)

// layoutNode is one node of a dbusmenu layout tree. Its wire signature is
// (ia{sv}av): node id, properties, child nodes wrapped in variants.
type layoutNode struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// idProperties pairs a node id with its properties, the element type of the
// GetGroupProperties reply.
type idProperties struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// menuServer exports a [Menu] container as a com.canonical.dbusmenu object.
// The menu applet of the host shell reads the layout from it and reports
// clicks back through Event.
type menuServer struct {
	mu       sync.Mutex
	menu     *Menu
	revision uint32

	// emitLayoutUpdated is set by the owning backend; it sends the
	// LayoutUpdated signal on the session bus.
	emitLayoutUpdated func(revision uint32, parentID int32)
}

// newMenuServer returns a server for the given container.
func newMenuServer(menu *Menu) *menuServer {
	return &menuServer{menu: menu, revision: 1}
}

// bump increments the layout revision and notifies the shell that the whole
// layout changed.
func (s *menuServer) bump() {
	s.mu.Lock()
	s.revision++
	revision := s.revision
	emit := s.emitLayoutUpdated
	s.mu.Unlock()

	if emit != nil {
		emit(revision, 0)
	}
}

// itemProperties encodes one menu entry as dbusmenu node properties.
func itemProperties(item *MenuItem) map[string]dbus.Variant {
	props := map[string]dbus.Variant{
		"visible": dbus.MakeVariant(true),
	}

	if item.IsSeparator() {
		props["type"] = dbus.MakeVariant("separator")
		return props
	}

	props["label"] = dbus.MakeVariant(item.Label())
	props["enabled"] = dbus.MakeVariant(item.Enabled())

	return props
}

// rootProperties encodes the (invisible) root node.
func rootProperties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"children-display": dbus.MakeVariant("submenu"),
	}
}

// layout builds the layout tree below parentID. The menu is a single flat
// level, so any recursion depth other than 0 includes the entries.
func (s *menuServer) layout(parentID int32, recursionDepth int32) layoutNode {
	if parentID != 0 {
		// Leaf entry requested directly.
		if item := s.menu.item(parentID); item != nil {
			return layoutNode{ID: item.id, Properties: itemProperties(item)}
		}
		return layoutNode{ID: parentID, Properties: map[string]dbus.Variant{}}
	}

	root := layoutNode{ID: 0, Properties: rootProperties()}

	if recursionDepth == 0 {
		return root
	}

	for _, item := range s.menu.Items() {
		child := layoutNode{ID: item.id, Properties: itemProperties(item)}
		root.Children = append(root.Children, dbus.MakeVariant(child))
	}

	return root
}

// GetLayout implements com.canonical.dbusmenu.GetLayout.
func (s *menuServer) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, layoutNode, *dbus.Error) {
	s.mu.Lock()
	revision := s.revision
	s.mu.Unlock()

	return revision, s.layout(parentID, recursionDepth), nil
}

// GetGroupProperties implements com.canonical.dbusmenu.GetGroupProperties.
func (s *menuServer) GetGroupProperties(ids []int32, propertyNames []string) ([]idProperties, *dbus.Error) {
	result := make([]idProperties, 0, len(ids))

	for _, id := range ids {
		if id == 0 {
			result = append(result, idProperties{ID: 0, Properties: rootProperties()})
			continue
		}

		item := s.menu.item(id)
		if item == nil {
			continue
		}

		result = append(result, idProperties{ID: id, Properties: itemProperties(item)})
	}

	return result, nil
}

// GetProperty implements com.canonical.dbusmenu.GetProperty.
func (s *menuServer) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	props := rootProperties()

	if id != 0 {
		item := s.menu.item(id)
		if item == nil {
			return dbus.Variant{}, dbus.MakeFailedError(errUnknownMenuNode)
		}
		props = itemProperties(item)
	}

	value, ok := props[name]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(errUnknownMenuProperty)
	}

	return value, nil
}

// Event implements com.canonical.dbusmenu.Event. Only "clicked" dispatches;
// other event ids ("hovered", vendor events) are accepted and ignored.
func (s *menuServer) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	if eventID == "clicked" {
		s.menu.activate(id)
	}

	return nil
}

// EventGroup implements com.canonical.dbusmenu.EventGroup.
func (s *menuServer) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	for _, ev := range events {
		if ev.EventID == "clicked" {
			s.menu.activate(ev.ID)
		}
	}

	return nil, nil
}

// AboutToShow implements com.canonical.dbusmenu.AboutToShow. The layout is
// kept current by the backend, so applets never need a refresh here.
func (s *menuServer) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

// AboutToShowGroup implements com.canonical.dbusmenu.AboutToShowGroup.
func (s *menuServer) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	return nil, nil, nil
}

// menuEvent is the element type of the EventGroup argument, signature
// (isvu).
type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}
