package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordParser_SplitsOnConjunctions(t *testing.T) {
	p := NewKeywordParser()

	items, err := p.Parse("I need a mechanical keyboard and a USB-C hub")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, "mechanical keyboard", items[0].Query)
	assert.Equal(t, "item-2", items[1].ID)
	assert.Equal(t, "usb-c hub", items[1].Query)
}

func TestKeywordParser_CommaAndSemicolonSeparators(t *testing.T) {
	p := NewKeywordParser()

	items, err := p.Parse("desk lamp, office chair; monitor stand")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "desk lamp", items[0].Query)
	assert.Equal(t, "office chair", items[1].Query)
	assert.Equal(t, "monitor stand", items[2].Query)
}

func TestKeywordParser_BudgetDetection(t *testing.T) {
	p := NewKeywordParser()

	items, err := p.Parse("a mechanical keyboard under $100 and a webcam")
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].MaxPrice)
	assert.Equal(t, "100", items[0].MaxPrice.String())
	assert.Equal(t, "mechanical keyboard", items[0].Query)

	assert.Nil(t, items[1].MaxPrice)
}

func TestKeywordParser_BudgetPhrasings(t *testing.T) {
	p := NewKeywordParser()

	for _, query := range []string{
		"keyboard under $75.50",
		"keyboard below 75.50",
		"keyboard less than $75.50",
		"keyboard max of 75.50",
		"keyboard up to $75.50",
	} {
		items, err := p.Parse(query)
		require.NoError(t, err, query)
		require.Len(t, items, 1, query)
		require.NotNil(t, items[0].MaxPrice, query)
		assert.Equal(t, "75.5", items[0].MaxPrice.String(), query)
		assert.Equal(t, "keyboard", items[0].Query, query)
	}
}

func TestKeywordParser_UnintelligibleInput(t *testing.T) {
	p := NewKeywordParser()

	for _, query := range []string{"", "   ", "a the some", "and, and"} {
		_, err := p.Parse(query)
		assert.ErrorIs(t, err, ErrUnintelligible, "query %q", query)
	}
}

func TestKeywordParser_DeterministicIDs(t *testing.T) {
	p := NewKeywordParser()

	first, err := p.Parse("keyboard and mouse and monitor")
	require.NoError(t, err)
	second, err := p.Parse("keyboard and mouse and monitor")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Query, second[i].Query)
	}
}
