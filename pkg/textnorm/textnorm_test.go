package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Télécom", "telecom"},
		{"  Énergie ", "energie"},
		{"RDV pris", "rdv_pris"},
		{"Pas  intéressé", "pas_interesse"},
		{"Argumenté", "argumente"},
		{"signé", "signe"},
		{"Sécurité", "securite"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Telecom", "TÉLÉCOM"))
	assert.False(t, Equal("Mobile", "Fibre"))
}
