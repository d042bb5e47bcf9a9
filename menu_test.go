package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuAddAndActivate(t *testing.T) {
	menu := newMenu()

	clicked := 0
	item := menu.AddItem("Restore", func() { clicked++ })
	menu.AddSeparator()
	quit := menu.AddItem("Quit", nil)

	require.Equal(t, 3, menu.Len())
	assert.Equal(t, "Restore", item.Label())
	assert.True(t, item.Enabled())

	assert.True(t, menu.activate(item.id))
	assert.Equal(t, 1, clicked)

	// No handler, nothing to dispatch.
	assert.False(t, menu.activate(quit.id))

	// Unknown id.
	assert.False(t, menu.activate(999))
}

func TestMenuSeparatorNeverDispatches(t *testing.T) {
	menu := newMenu()
	menu.AddSeparator()

	sep := menu.Items()[0]
	require.True(t, sep.IsSeparator())
	assert.False(t, menu.activate(sep.id))
}

func TestMenuDisabledItem(t *testing.T) {
	menu := newMenu()

	clicked := 0
	item := menu.AddItem("Connect", func() { clicked++ })
	item.SetEnabled(false)

	assert.False(t, item.Enabled())
	assert.False(t, menu.activate(item.id))
	assert.Equal(t, 0, clicked)

	item.SetEnabled(true)
	assert.True(t, menu.activate(item.id))
	assert.Equal(t, 1, clicked)
}

func TestMenuRebuildLeavesOnlyLatestItems(t *testing.T) {
	menu := newMenu()

	// Simulates the rebuild operation: clear, then re-invoke the menu
	// delegate. Whatever the previous build added must be gone.
	build := func(labels []string) {
		menu.Clear()
		for _, label := range labels {
			menu.AddItem(label, nil)
		}
	}

	build([]string{"Restore", "Quit"})
	build([]string{"Hide", "Reconnect", "Quit"})

	items := menu.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Hide", items[0].Label())
	assert.Equal(t, "Reconnect", items[1].Label())
	assert.Equal(t, "Quit", items[2].Label())
}

func TestMenuItemIDsNotReusedAfterClear(t *testing.T) {
	menu := newMenu()

	old := menu.AddItem("Old", nil)
	menu.Clear()
	fresh := menu.AddItem("Fresh", nil)

	// A stale shell-side reference to a removed entry must never reach a
	// new one.
	assert.NotEqual(t, old.id, fresh.id)
	assert.Nil(t, menu.item(old.id))
}

func TestMenuChangeNotification(t *testing.T) {
	menu := newMenu()

	changes := 0
	menu.setOnChange(func() { changes++ })

	item := menu.AddItem("Restore", nil)
	require.Equal(t, 1, changes)

	item.SetLabel("Hide")
	require.Equal(t, 2, changes)

	menu.Clear()
	assert.Equal(t, 3, changes)
}

func TestMenuSetLabel(t *testing.T) {
	menu := newMenu()

	item := menu.AddItem("Connect", nil)
	item.SetLabel("Disconnect")

	assert.Equal(t, "Disconnect", item.Label())
}
