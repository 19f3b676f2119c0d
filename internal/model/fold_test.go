package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"São Paulo", "sao paulo"},
		{"SÃO  PAULO", "sao paulo"},
		{"Florianópolis", "florianopolis"},
		{"Itaquaquecetuba", "itaquaquecetuba"},
		{"  Mogi das Cruzes ", "mogi das cruzes"},
		{"Conceição do Araguaia", "conceicao do araguaia"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FoldName(tt.in))
		})
	}
}

func TestMunicipality_HasCoordinates(t *testing.T) {
	t.Parallel()

	lat, lon := -23.55, -46.63
	assert.True(t, Municipality{Lat: &lat, Lon: &lon}.HasCoordinates())
	assert.False(t, Municipality{Lat: &lat}.HasCoordinates())
	assert.False(t, Municipality{}.HasCoordinates())
}
