package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaleIDs(t *testing.T) {
	tests := []struct {
		name  string
		local []int64
		fresh []int64
		want  []int64
	}{
		{"identical", []int64{1, 2, 3}, []int64{1, 2, 3}, nil},
		{"all stale", []int64{1, 2}, nil, []int64{1, 2}},
		{"nothing local", nil, []int64{1, 2}, nil},
		{"interleaved", []int64{1, 2, 4, 6}, []int64{2, 3, 6}, []int64{1, 4}},
		{"tail stale", []int64{1, 5, 9}, []int64{1}, []int64{5, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, staleIDs(tt.local, tt.fresh))
		})
	}
}
