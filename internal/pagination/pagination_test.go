package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisiblePages(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		window  int
		want    []int
	}{
		{"near start", 3, 10, 5, []int{1, 2, 3, 4, 5}},
		{"near end", 8, 10, 5, []int{6, 7, 8, 9, 10}},
		{"fewer pages than window", 1, 3, 5, []int{1, 2, 3}},
		{"exactly window", 5, 5, 5, []int{1, 2, 3, 4, 5}},
		{"middle", 6, 10, 5, []int{4, 5, 6, 7, 8}},
		{"first page", 1, 10, 5, []int{1, 2, 3, 4, 5}},
		{"last page", 10, 10, 5, []int{6, 7, 8, 9, 10}},
		{"single page", 1, 1, 5, []int{1}},
		{"current past total", 42, 10, 5, []int{6, 7, 8, 9, 10}},
		{"current below one", -3, 10, 5, []int{1, 2, 3, 4, 5}},
		{"window of one", 4, 10, 1, []int{4}},
		{"even window", 5, 10, 4, []int{3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisiblePages(tt.current, tt.total, tt.window))
		})
	}
}

func TestVisiblePages_Properties(t *testing.T) {
	for total := 1; total <= 25; total++ {
		for window := 1; window <= 9; window++ {
			for current := 1; current <= total; current++ {
				got := VisiblePages(current, total, window)
				if len(got) != min(total, window) {
					t.Fatalf("VisiblePages(%d, %d, %d) len = %d, want %d", current, total, window, len(got), min(total, window))
				}
				for i, p := range got {
					if p < 1 || p > total {
						t.Fatalf("VisiblePages(%d, %d, %d) = %v: %d out of range", current, total, window, got, p)
					}
					if i > 0 && p != got[i-1]+1 {
						t.Fatalf("VisiblePages(%d, %d, %d) = %v: not strictly increasing", current, total, window, got)
					}
				}
				assert.Contains(t, got, current)
			}
		}
	}
}

func TestNew(t *testing.T) {
	p := New(1, 10, 20)
	assert.Equal(t, 1, p.First)
	assert.Equal(t, 1, p.Prev)
	assert.Equal(t, 2, p.Next)
	assert.Equal(t, 10, p.Last)
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, p.Pages)

	last := New(10, 10, 10)
	assert.Equal(t, 9, last.Prev)
	assert.Equal(t, 10, last.Next)
	assert.False(t, last.HasNext())

	empty := New(1, 0, 10)
	assert.Equal(t, 1, empty.Total)
	assert.Equal(t, []int{1}, empty.Pages)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, PerPage: 10}},
		{"page=3&per_page=20", Params{Page: 3, PerPage: 20}},
		{"page=0&per_page=15", Params{Page: 1, PerPage: 10}},
		{"page=abc", Params{Page: 1, PerPage: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			assert.Equal(t, tt.want, ParseParams(q))
		})
	}
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 40, Params{Page: 3, PerPage: 20}.Offset())
	assert.Equal(t, 0, Params{Page: 0, PerPage: 20}.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(41, 20))
}
