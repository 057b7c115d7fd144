package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

func TestPaginationOffset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{3, 10, 20},
		{0, 20, 0},  // clamped to first page
		{-5, 20, 0}, // clamped to first page
	}
	for _, tc := range tests {
		p := repository.Pagination{Page: tc.page, Limit: tc.limit}
		assert.Equal(t, tc.want, p.Offset(), "page=%d limit=%d", tc.page, tc.limit)
	}
}
