package shopclient

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
)

func testProduct(id int64, name string, price float64) catalog.Product {
	return catalog.Product{ID: id, Name: name, Price: price, Images: []string{}}
}

func TestCart_AddDuplicateKeepsSeparateLines(t *testing.T) {
	cart, err := OpenCart(filepath.Join(t.TempDir(), "cart.json"))
	require.NoError(t, err)

	p := testProduct(1, "Handset", 100)
	require.NoError(t, cart.Add(p))
	require.NoError(t, cart.Add(p))

	items := cart.Items()
	require.Len(t, items, 2, "adding the same product twice keeps two lines")
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 2, cart.TotalItems())
}

func TestCart_RemoveDropsAllLinesForID(t *testing.T) {
	cart, err := OpenCart(filepath.Join(t.TempDir(), "cart.json"))
	require.NoError(t, err)

	require.NoError(t, cart.Add(testProduct(1, "Handset", 100)))
	require.NoError(t, cart.Add(testProduct(2, "Case", 10)))
	require.NoError(t, cart.Add(testProduct(1, "Handset", 100)))

	require.NoError(t, cart.Remove(1))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestCart_SetQuantityClampsToOne(t *testing.T) {
	cart, err := OpenCart(filepath.Join(t.TempDir(), "cart.json"))
	require.NoError(t, err)

	require.NoError(t, cart.Add(testProduct(1, "Handset", 100)))

	require.NoError(t, cart.SetQuantity(1, 3))
	assert.Equal(t, 3, cart.Items()[0].Quantity)

	require.NoError(t, cart.SetQuantity(1, 0))
	assert.Equal(t, 1, cart.Items()[0].Quantity)
}

func TestCart_Totals(t *testing.T) {
	cart, err := OpenCart(filepath.Join(t.TempDir(), "cart.json"))
	require.NoError(t, err)

	require.NoError(t, cart.Add(testProduct(1, "Handset", 100)))
	require.NoError(t, cart.Add(testProduct(2, "Case", 9.5)))
	require.NoError(t, cart.SetQuantity(1, 2))

	assert.Equal(t, 3, cart.TotalItems())
	assert.InDelta(t, 209.5, cart.TotalPrice(), 1e-9)
}

func TestCart_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")

	cart, err := OpenCart(path)
	require.NoError(t, err)
	require.NoError(t, cart.Add(testProduct(1, "Handset", 100)))
	require.NoError(t, cart.SetQuantity(1, 4))

	reopened, err := OpenCart(path)
	require.NoError(t, err)

	items := reopened.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Handset", items[0].Name)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestCart_ClearPersistsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")

	cart, err := OpenCart(path)
	require.NoError(t, err)
	require.NoError(t, cart.Add(testProduct(1, "Handset", 100)))
	require.NoError(t, cart.Clear())

	assert.Empty(t, cart.Items())
	assert.Equal(t, 0, cart.TotalItems())

	reopened, err := OpenCart(path)
	require.NoError(t, err)
	assert.Empty(t, reopened.Items())
}
