package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	c, err := NewCategory(" Software Development ", "")
	require.NoError(t, err)
	assert.Equal(t, "Software Development", c.Name)

	_, err = NewCategory("", "")
	assert.EqualError(t, err, "Category name is required")
}

func TestChartColorFor(t *testing.T) {
	assert.Equal(t, "hsl(173, 80%, 36%)", ChartColorFor("SOFTWARE_DEV"))
	assert.Equal(t, "hsl(173, 80%, 36%)", ChartColorFor("Custom Software"))
	assert.Equal(t, "hsl(190, 70%, 40%)", ChartColorFor("Planning"))
}
