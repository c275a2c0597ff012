package domain

import (
	"testing"

	"github.com/localcircle/localcircle-server/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("coffee").Valid(), "categories are case sensitive")
	assert.False(t, Category("").Valid())
}

func TestPost_SetLocationDerivesGeohash(t *testing.T) {
	p := &Post{ID: "post-1"}
	assert.False(t, p.HasLocation())

	pt := geo.Point{Lat: 40.7, Lng: -74.0}
	p.SetLocation(pt)

	require.True(t, p.HasLocation())
	assert.Equal(t, geo.Encode(pt), p.Geohash)
	assert.Equal(t, pt, *p.Location)
}

func TestPost_IsAuthor(t *testing.T) {
	p := &Post{AuthorID: "user-v"}
	assert.True(t, p.IsAuthor("user-v"))
	assert.False(t, p.IsAuthor("user-u"))
	assert.False(t, (&Post{}).IsAuthor(""), "empty ids never match")
}

func TestPost_CloneIsIndependent(t *testing.T) {
	p := &Post{ID: "post-1", Likes: 3}
	p.SetLocation(geo.Point{Lat: 1, Lng: 2})

	c := p.Clone()
	c.Likes++
	c.Location.Lat = 50

	assert.Equal(t, 3, p.Likes)
	assert.InDelta(t, 1, p.Location.Lat, 0)
}
