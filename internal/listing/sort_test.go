package listing

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CatalogDash/internal/catalogapi"
)

func prices(ps []catalogapi.Product) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Price
	}
	return out
}

func ids(ps []catalogapi.Product) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestSortByPrice(t *testing.T) {
	in := []catalogapi.Product{
		{ID: 1, Title: "a", Price: 30},
		{ID: 2, Title: "b", Price: 10},
		{ID: 3, Title: "c", Price: 20},
	}

	assert.Equal(t, []float64{10, 20, 30}, prices(Sort(in, SortPriceAsc)))
	assert.Equal(t, []float64{30, 20, 10}, prices(Sort(in, SortPriceDesc)))
	assert.Equal(t, []float64{30, 10, 20}, prices(in), "input must not be reordered")
}

func TestSortLatestIsIDDescending(t *testing.T) {
	in := []catalogapi.Product{{ID: 4}, {ID: 9}, {ID: 1}}
	assert.Equal(t, []int{9, 4, 1}, ids(Sort(in, SortLatest)))
}

func TestSortNameIsCaseAwareWithIDTieBreak(t *testing.T) {
	in := []catalogapi.Product{
		{ID: 3, Title: "banana"},
		{ID: 2, Title: "Cherry"},
		{ID: 5, Title: "apple"},
		{ID: 1, Title: "apple"},
	}
	assert.Equal(t, []int{2, 1, 5, 3}, ids(Sort(in, SortNameAsc)))
}

func TestSortPriceIsStable(t *testing.T) {
	in := []catalogapi.Product{{ID: 1, Price: 5}, {ID: 2, Price: 5}, {ID: 3, Price: 1}}
	assert.Equal(t, []int{3, 1, 2}, ids(Sort(in, SortPriceAsc)))
	assert.Equal(t, []int{1, 2, 3}, ids(Sort(in, SortPriceDesc)))
}

func TestSortNilInput(t *testing.T) {
	out := Sort(nil, SortLatest)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestParseSortKey(t *testing.T) {
	cases := map[string]SortKey{
		"":           SortLatest,
		"latest":     SortLatest,
		"bogus":      SortLatest,
		"name-asc":   SortNameAsc,
		"nameAsc":    SortNameAsc,
		"price-asc":  SortPriceAsc,
		"priceAsc":   SortPriceAsc,
		"price-desc": SortPriceDesc,
		"priceDesc":  SortPriceDesc,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseSortKey(in), in)
	}
}

func TestSortProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	toProducts := func(ps []float64) []catalogapi.Product {
		out := make([]catalogapi.Product, len(ps))
		for i, p := range ps {
			out[i] = catalogapi.Product{ID: i + 1, Price: p}
		}
		return out
	}

	properties.Property("price-asc is non-decreasing and keeps every product", prop.ForAll(
		func(ps []float64) bool {
			out := Sort(toProducts(ps), SortPriceAsc)
			if len(out) != len(ps) {
				return false
			}
			for i := 1; i < len(out); i++ {
				if out[i-1].Price > out[i].Price {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 1000)),
	))

	properties.Property("price-desc is the reverse order of price-asc on distinct prices", prop.ForAll(
		func(ps []float64) bool {
			seen := map[float64]bool{}
			var distinct []float64
			for _, p := range ps {
				if !seen[p] {
					seen[p] = true
					distinct = append(distinct, p)
				}
			}
			asc := prices(Sort(toProducts(distinct), SortPriceAsc))
			desc := prices(Sort(toProducts(distinct), SortPriceDesc))
			for i := range asc {
				if asc[i] != desc[len(desc)-1-i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 1000)),
	))

	properties.TestingRun(t)
}
