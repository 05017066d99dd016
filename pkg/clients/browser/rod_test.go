package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1 - BV (Boa Viagem)", want: `"1 - BV (Boa Viagem)"`},
		{in: `say "hi"`, want: `'say "hi"'`},
		{in: `it's "x"`, want: `concat("it's ", '"', "x", '"', "")`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, xpathLiteral(tt.in))
		})
	}
}

func TestContainsAll(t *testing.T) {
	label := "Unidade 2 - CD keyboard_arrow_down"
	assert.True(t, containsAll(label, []string{"Unidade", "keyboard_arrow_down"}))
	assert.False(t, containsAll(label, []string{"Unidade", "swap_vert"}))
	assert.True(t, containsAll(label, nil))
}
