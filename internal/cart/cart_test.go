package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id uint, price string, qty int) Line {
	return Line{ItemID: id, Name: "item", UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestCart_AddMergesSameItem(t *testing.T) {
	c, err := Cart{}.Add(line(1, "10.99", 1))
	require.NoError(t, err)
	c, err = c.Add(line(1, "10.99", 2))
	require.NoError(t, err)
	c, err = c.Add(line(2, "24.99", 1))
	require.NoError(t, err)

	require.Len(t, c.Lines, 2)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, 4, c.ItemCount())
}

func TestCart_OperationsDoNotMutateReceiver(t *testing.T) {
	original, err := Cart{}.Add(line(1, "5.00", 1))
	require.NoError(t, err)

	updated, err := original.SetQuantity(1, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, original.Lines[0].Quantity)
	assert.Equal(t, 5, updated.Lines[0].Quantity)

	removed := updated.Remove(1)
	assert.True(t, removed.IsEmpty())
	assert.Len(t, updated.Lines, 1)
}

func TestCart_RejectsInvalidLines(t *testing.T) {
	_, err := Cart{}.Add(line(1, "5.00", 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Cart{}.Add(line(1, "-1.00", 1))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestCart_SetQuantity(t *testing.T) {
	c, _ := Cart{}.Add(line(1, "5.00", 2))

	_, err := c.SetQuantity(9, 1)
	assert.ErrorIs(t, err, ErrItemNotInCart)

	_, err = c.SetQuantity(1, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	emptied, err := c.SetQuantity(1, 0)
	require.NoError(t, err)
	assert.True(t, emptied.IsEmpty())
}

func TestCart_ClearAndValidate(t *testing.T) {
	c, _ := Cart{}.Add(line(1, "5.00", 2))
	assert.True(t, c.Clear().IsEmpty())

	bad := Cart{Lines: []Line{line(3, "1.00", 0)}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidQuantity)
	assert.NoError(t, c.Validate())
}

func TestCart_JSONRoundTripKeepsPrices(t *testing.T) {
	c, _ := Cart{}.Add(line(7, "10.99", 2))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Cart
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Lines[0].UnitPrice.Equal(decimal.RequireFromString("10.99")))
	assert.Equal(t, 2, decoded.Lines[0].Quantity)
}
