package util

import (
	"math"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pageFor(query string) Page {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/feed?"+query, nil)
	return ParsePage(c)
}

func TestParsePageDefaults(t *testing.T) {
	p := pageFor("")
	assert.Equal(t, Page{Page: 1, Limit: DefaultPageSize, Offset: 0}, p)

	p = pageFor("page=3&limit=10")
	assert.Equal(t, Page{Page: 3, Limit: 10, Offset: 20}, p)

	p = pageFor("page=-2&limit=500")
	assert.Equal(t, Page{Page: 1, Limit: MaxPageSize, Offset: 0}, p)

	p = pageFor("page=4&limit=10&offset=5")
	assert.Equal(t, Page{Page: 1, Limit: 10, Offset: 5}, p)
}

func TestParsePageClampsHugeValues(t *testing.T) {
	for _, q := range []string{
		"page=184467440737095518",
		"page=" + strconv.Itoa(math.MaxInt),
		"page=" + strconv.Itoa(math.MaxInt/20+1) + "&limit=20",
		"offset=" + strconv.Itoa(math.MaxInt),
		"offset=" + strconv.Itoa(math.MaxInt-5) + "&limit=50",
	} {
		t.Run(q, func(t *testing.T) {
			p := pageFor(q)
			assert.GreaterOrEqual(t, p.Offset, 0)
			assert.LessOrEqual(t, p.Offset, MaxOffset)
			assert.GreaterOrEqual(t, p.Page, 1)
			// callers compute offset+limit for has-more checks
			assert.Greater(t, p.Offset+p.Limit, p.Offset)
		})
	}
}
