package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestBounds(t *testing.T) {
	tests := []struct {
		name       string
		req        PageRequest
		wantOffset int
		wantUpper  int
	}{
		{"first page", PageRequest{Page: 1, Limit: 12}, 0, 11},
		{"second page", PageRequest{Page: 2, Limit: 12}, 12, 23},
		{"zero page clamps to first", PageRequest{Page: 0, Limit: 5}, 0, 4},
		{"missing limit uses default", PageRequest{Page: 3}, 24, 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, upper := tt.req.Bounds()
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantUpper, upper)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(25, 12))
	assert.Equal(t, 2, TotalPages(24, 12))
	assert.Equal(t, 1, TotalPages(1, 12))
	assert.Equal(t, 0, TotalPages(0, 12))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestParseContentRangeTotal(t *testing.T) {
	total, ok := parseContentRangeTotal("12-23/25")
	assert.True(t, ok)
	assert.EqualValues(t, 25, total)

	total, ok = parseContentRangeTotal("*/0")
	assert.True(t, ok)
	assert.EqualValues(t, 0, total)

	_, ok = parseContentRangeTotal("0-11/*")
	assert.False(t, ok)
	_, ok = parseContentRangeTotal("")
	assert.False(t, ok)
}

func TestFieldsCloneDropsID(t *testing.T) {
	f := Fields{"id": 9, "name": "DHL"}
	c := f.Clone()
	assert.NotContains(t, c, "id")
	assert.Equal(t, "DHL", c["name"])
	assert.Contains(t, f, "id")
}
