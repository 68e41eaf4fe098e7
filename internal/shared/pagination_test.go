package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 41)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPagination(2, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
}

func TestPageFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("page", "3")
	q.Set("per_page", "500")
	req := PageFromQuery(q)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, MaxPerPage, req.PerPage)
	assert.Equal(t, 200, req.Offset())

	req = PageFromQuery(url.Values{"page": {"-1"}, "per_page": {"abc"}})
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPerPage, req.Limit())
	assert.Equal(t, 0, req.Offset())
}
