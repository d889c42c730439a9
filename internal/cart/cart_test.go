package cart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/catalog"
)

func testMenu() *catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Item{
		{ID: "nasi-goreng", Name: "Nasi Goreng", Category: "mains", UnitPrice: 500},
		{ID: "es-teh", Name: "Es Teh", Category: "drinks", UnitPrice: 300},
		{ID: "sate-ayam", Name: "Sate Ayam", Category: "mains", UnitPrice: 750},
	})
}

func TestAddItemCreatesAndIncrements(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("nasi-goreng"))
	require.NoError(t, c.AddItem("nasi-goreng"))
	require.NoError(t, c.AddItem("es-teh"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "nasi-goreng", entries[0].Item.ID)
	require.Equal(t, 2, entries[0].Qty)
	require.Equal(t, "es-teh", entries[1].Item.ID)
	require.Equal(t, 1, entries[1].Qty)
}

func TestAddUnknownItemLeavesCartUnchanged(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("es-teh"))
	err := c.AddItem("burger")
	require.ErrorIs(t, err, ErrUnknownItem)
	entries := c.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "es-teh", entries[0].Item.ID)
	require.Zero(t, c.Quantity("burger"))
}

func TestRemoveOneDeletesAtZero(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("sate-ayam"))
	require.NoError(t, c.AddItem("sate-ayam"))

	c.RemoveOne("sate-ayam")
	require.Equal(t, 1, c.Quantity("sate-ayam"))

	c.RemoveOne("sate-ayam")
	require.Zero(t, c.Quantity("sate-ayam"))
	require.Empty(t, c.Entries())

	// and again: absent removal is a no-op, never recreates the entry
	c.RemoveOne("sate-ayam")
	require.Empty(t, c.Entries())
}

func TestRemoveAll(t *testing.T) {
	c := New(testMenu())
	for i := 0; i < 5; i++ {
		require.NoError(t, c.AddItem("es-teh"))
	}
	c.RemoveAll("es-teh")
	require.Empty(t, c.Entries())
	c.RemoveAll("es-teh")
	require.Empty(t, c.Entries())
}

func TestEntriesSnapshotIsDetached(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("nasi-goreng"))
	snapshot := c.Entries()
	require.NoError(t, c.AddItem("nasi-goreng"))
	c.RemoveAll("nasi-goreng")
	require.Len(t, snapshot, 1)
	require.Equal(t, 1, snapshot[0].Qty)
}

func TestInsertionOrderStableAfterRemoval(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("nasi-goreng"))
	require.NoError(t, c.AddItem("es-teh"))
	require.NoError(t, c.AddItem("sate-ayam"))
	c.RemoveAll("es-teh")
	require.NoError(t, c.AddItem("es-teh"))

	entries := c.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "nasi-goreng", entries[0].Item.ID)
	require.Equal(t, "sate-ayam", entries[1].Item.ID)
	// re-added items join at the end, they do not keep their old slot
	require.Equal(t, "es-teh", entries[2].Item.ID)
}

func TestClear(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("nasi-goreng"))
	require.NoError(t, c.AddItem("es-teh"))
	c.Clear()
	require.Zero(t, c.Len())
	require.Empty(t, c.Entries())
	require.NoError(t, c.AddItem("es-teh"))
	require.Equal(t, 1, c.Len())
}

func TestQuantityIsNetOfAddsAndRemovesFlooredAtZero(t *testing.T) {
	type op struct {
		kind string
		id   string
	}
	ops := []op{
		{"add", "nasi-goreng"}, {"add", "nasi-goreng"}, {"remove", "nasi-goreng"},
		{"remove", "es-teh"}, {"add", "es-teh"},
		{"add", "sate-ayam"}, {"removeAll", "sate-ayam"}, {"remove", "sate-ayam"},
		{"add", "nasi-goreng"}, {"remove", "nasi-goreng"}, {"remove", "nasi-goreng"},
		{"remove", "nasi-goreng"},
	}
	c := New(testMenu())
	for _, o := range ops {
		switch o.kind {
		case "add":
			require.NoError(t, c.AddItem(o.id))
		case "remove":
			c.RemoveOne(o.id)
		case "removeAll":
			c.RemoveAll(o.id)
		}
	}
	require.Zero(t, c.Quantity("nasi-goreng"))
	require.Equal(t, 1, c.Quantity("es-teh"))
	require.Zero(t, c.Quantity("sate-ayam"))
}

func TestLinesMatchEntries(t *testing.T) {
	c := New(testMenu())
	require.NoError(t, c.AddItem("nasi-goreng"))
	require.NoError(t, c.AddItem("nasi-goreng"))
	require.NoError(t, c.AddItem("es-teh"))
	lines := c.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, 2, lines[0].Qty)
	require.EqualValues(t, 500, lines[0].UnitPrice)
	require.Equal(t, 1, lines[1].Qty)
	require.EqualValues(t, 300, lines[1].UnitPrice)
}
