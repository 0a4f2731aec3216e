package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func parseQuery(t *testing.T, raw string) *Options {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return Parse(values)
}

func TestParseFilters(t *testing.T) {
	opts := parseQuery(t, "housing=true&careers[in]=Business,UI/UX&averageCost[lte]=10000&name=Devworks")

	assert.Equal(t, true, opts.Filter["housing"])
	assert.Equal(t, "Devworks", opts.Filter["name"])
	assert.Equal(t, bson.M{"$lte": 10000}, opts.Filter["averageCost"])
	assert.Equal(t, bson.M{"$in": []interface{}{"Business", "UI/UX"}}, opts.Filter["careers"])
}

func TestParseOperatorRange(t *testing.T) {
	opts := parseQuery(t, "tuition[gte]=5000&tuition[lt]=12000")

	assert.Equal(t, bson.M{"$gte": 5000, "$lt": 12000}, opts.Filter["tuition"])
}

func TestParseUnknownSuffixIsExactMatch(t *testing.T) {
	opts := parseQuery(t, "name[foo]=x")

	assert.Equal(t, "x", opts.Filter["name[foo]"])
}

func TestParseRemovesControlKeys(t *testing.T) {
	opts := parseQuery(t, "select=name&sort=-name&page=2&limit=10&city=Boston")

	assert.Equal(t, bson.M{"city": "Boston"}, opts.Filter)
}

func TestParseSelect(t *testing.T) {
	opts := parseQuery(t, "select=name,description, tuition")

	assert.Equal(t, bson.M{"name": 1, "description": 1, "tuition": 1}, opts.Projection)
}

func TestParseNoSelectMeansNoProjection(t *testing.T) {
	opts := parseQuery(t, "name=x")

	assert.Nil(t, opts.Projection)
}

func TestParseSort(t *testing.T) {
	opts := parseQuery(t, "sort=-averageCost,name")

	assert.Equal(t, bson.D{
		{Key: "averageCost", Value: -1},
		{Key: "name", Value: 1},
	}, opts.Sort)
}

func TestParseDefaultSortIsNewestFirst(t *testing.T) {
	opts := parseQuery(t, "")

	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
}

func TestParsePaginationDefaults(t *testing.T) {
	opts := parseQuery(t, "")

	assert.Equal(t, DefaultPage, opts.Page)
	assert.Equal(t, DefaultLimit, opts.Limit)
	assert.Equal(t, int64(0), opts.Skip())
}

func TestParsePaginationClampsMalformedValues(t *testing.T) {
	for _, raw := range []string{
		"page=0&limit=0",
		"page=-3&limit=-1",
		"page=abc&limit=xyz",
	} {
		opts := parseQuery(t, raw)
		assert.Equal(t, DefaultPage, opts.Page, raw)
		assert.Equal(t, DefaultLimit, opts.Limit, raw)
	}
}

func TestSkip(t *testing.T) {
	opts := parseQuery(t, "page=3&limit=10")

	assert.Equal(t, int64(20), opts.Skip())
}

func TestValueCoercion(t *testing.T) {
	assert.Equal(t, true, coerce("true"))
	assert.Equal(t, false, coerce("false"))
	assert.Equal(t, 42, coerce("42"))
	assert.Equal(t, 4.5, coerce("4.5"))
	assert.Equal(t, "Boston", coerce("Boston"))
}

func TestPaginateMiddlePage(t *testing.T) {
	p := paginate(2, 10, 25)

	require.NotNil(t, p.Next)
	require.NotNil(t, p.Prev)
	assert.Equal(t, 3, *p.Next)
	assert.Equal(t, 1, *p.Prev)
}

func TestPaginateFirstPageHasNoPrev(t *testing.T) {
	p := paginate(1, 10, 25)

	require.NotNil(t, p.Next)
	assert.Equal(t, 2, *p.Next)
	assert.Nil(t, p.Prev)
}

func TestPaginateLastPageHasNoNext(t *testing.T) {
	p := paginate(3, 10, 25)

	assert.Nil(t, p.Next)
	require.NotNil(t, p.Prev)
	assert.Equal(t, 2, *p.Prev)
}

func TestPaginateSinglePage(t *testing.T) {
	p := paginate(1, 25, 10)

	assert.Nil(t, p.Next)
	assert.Nil(t, p.Prev)
}

func TestPaginateExactBoundaryHasNoNext(t *testing.T) {
	// page 2 of limit 10 over 20 records: no page 3
	p := paginate(2, 10, 20)

	assert.Nil(t, p.Next)
	require.NotNil(t, p.Prev)
}

func TestPaginatePrevOnlyWhenItWouldHoldARecord(t *testing.T) {
	// page 5 of an empty result set: neither neighbour exists
	p := paginate(5, 10, 0)

	assert.Nil(t, p.Next)
	assert.Nil(t, p.Prev)
}
