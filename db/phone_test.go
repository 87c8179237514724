package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0521234567", "0521234567"},
		{"052-123-4567", "0521234567"},
		{"+972521234567", "0521234567"},
		{"972-52-123-4567", "0521234567"},
		{"+972 52 123 4567", "0521234567"},
		{"(052) 1234567", "0521234567"},
		// Too short to be a country-coded number, passes through.
		{"972", "972"},
		{"", ""},
		{"abc", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePhone(c.in), "input %q", c.in)
	}
}

func TestNormalizePhoneVariantsCollide(t *testing.T) {
	variants := []string{"0521234567", "+972521234567", "972-521234567", "052 123 4567"}
	want := NormalizePhone(variants[0])
	for _, v := range variants {
		assert.Equal(t, want, NormalizePhone(v))
	}
}
