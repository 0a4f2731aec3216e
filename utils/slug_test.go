package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Devworks Bootcamp", "devworks-bootcamp"},
		{"ModernTech Bootcamp", "moderntech-bootcamp"},
		{"  Leading & Trailing!  ", "leading-trailing"},
		{"C++ / Go 101", "c-go-101"},
		{"", ""},
		{"---", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Slugify(c.name), "name %q", c.name)
	}
}
