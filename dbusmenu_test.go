package tray

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuServerGetLayout(t *testing.T) {
	menu := newMenu()
	menu.AddItem("Restore", nil)
	menu.AddSeparator()
	quit := menu.AddItem("Quit", nil)
	quit.SetEnabled(false)

	s := newMenuServer(menu)

	revision, root, derr := s.GetLayout(0, -1, nil)
	require.Nil(t, derr)
	assert.Equal(t, uint32(1), revision)

	assert.Equal(t, int32(0), root.ID)
	assert.Equal(t, "submenu", root.Properties["children-display"].Value())
	require.Len(t, root.Children, 3)

	first, ok := root.Children[0].Value().(layoutNode)
	require.True(t, ok)
	assert.Equal(t, "Restore", first.Properties["label"].Value())
	assert.Equal(t, true, first.Properties["enabled"].Value())

	sep, ok := root.Children[1].Value().(layoutNode)
	require.True(t, ok)
	assert.Equal(t, "separator", sep.Properties["type"].Value())

	last, ok := root.Children[2].Value().(layoutNode)
	require.True(t, ok)
	assert.Equal(t, "Quit", last.Properties["label"].Value())
	assert.Equal(t, false, last.Properties["enabled"].Value())
}

func TestMenuServerGetLayoutDepthZero(t *testing.T) {
	menu := newMenu()
	menu.AddItem("Restore", nil)

	s := newMenuServer(menu)

	_, root, derr := s.GetLayout(0, 0, nil)
	require.Nil(t, derr)
	assert.Empty(t, root.Children)
}

func TestMenuServerGetLayoutLeaf(t *testing.T) {
	menu := newMenu()
	item := menu.AddItem("Restore", nil)

	s := newMenuServer(menu)

	_, node, derr := s.GetLayout(item.id, 0, nil)
	require.Nil(t, derr)
	assert.Equal(t, item.id, node.ID)
	assert.Equal(t, "Restore", node.Properties["label"].Value())
}

func TestMenuServerGetGroupProperties(t *testing.T) {
	menu := newMenu()
	a := menu.AddItem("A", nil)
	b := menu.AddItem("B", nil)

	s := newMenuServer(menu)

	props, derr := s.GetGroupProperties([]int32{0, a.id, b.id, 42}, nil)
	require.Nil(t, derr)

	// Root, both items; the unknown id is skipped rather than failed.
	require.Len(t, props, 3)
	assert.Equal(t, int32(0), props[0].ID)
	assert.Equal(t, "A", props[1].Properties["label"].Value())
	assert.Equal(t, "B", props[2].Properties["label"].Value())
}

func TestMenuServerGetProperty(t *testing.T) {
	menu := newMenu()
	item := menu.AddItem("Restore", nil)

	s := newMenuServer(menu)

	value, derr := s.GetProperty(item.id, "label")
	require.Nil(t, derr)
	assert.Equal(t, "Restore", value.Value())

	_, derr = s.GetProperty(item.id, "no-such-property")
	assert.NotNil(t, derr)

	_, derr = s.GetProperty(999, "label")
	assert.NotNil(t, derr)
}

func TestMenuServerEventClicked(t *testing.T) {
	menu := newMenu()

	clicked := 0
	item := menu.AddItem("Restore", func() { clicked++ })

	s := newMenuServer(menu)

	derr := s.Event(item.id, "clicked", dbus.MakeVariant(0), 12345)
	require.Nil(t, derr)
	assert.Equal(t, 1, clicked)

	// Hover events are accepted and ignored.
	derr = s.Event(item.id, "hovered", dbus.MakeVariant(0), 12346)
	require.Nil(t, derr)
	assert.Equal(t, 1, clicked)
}

func TestMenuServerEventGroup(t *testing.T) {
	menu := newMenu()

	clicks := []string{}
	a := menu.AddItem("A", func() { clicks = append(clicks, "A") })
	b := menu.AddItem("B", func() { clicks = append(clicks, "B") })

	s := newMenuServer(menu)

	failed, derr := s.EventGroup([]menuEvent{
		{ID: a.id, EventID: "clicked"},
		{ID: b.id, EventID: "hovered"},
		{ID: b.id, EventID: "clicked"},
	})
	require.Nil(t, derr)
	assert.Empty(t, failed)
	assert.Equal(t, []string{"A", "B"}, clicks)
}

func TestMenuServerRevisionBump(t *testing.T) {
	menu := newMenu()
	s := newMenuServer(menu)

	var gotRevision uint32
	var gotParent int32 = -1
	s.emitLayoutUpdated = func(revision uint32, parentID int32) {
		gotRevision = revision
		gotParent = parentID
	}

	// Structural edits propagate through the change hook, exactly as the
	// backend wires it.
	menu.setOnChange(s.bump)
	menu.AddItem("Restore", nil)

	assert.Equal(t, uint32(2), gotRevision)
	assert.Equal(t, int32(0), gotParent)

	revision, _, derr := s.GetLayout(0, -1, nil)
	require.Nil(t, derr)
	assert.Equal(t, uint32(2), revision)
}

func TestMenuServerAboutToShow(t *testing.T) {
	s := newMenuServer(newMenu())

	needUpdate, derr := s.AboutToShow(0)
	require.Nil(t, derr)
	assert.False(t, needUpdate)
}
