package transliterate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToGujarati(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"greeting", "नमस्ते", "નમસ્તે"},
		{"mixed", "IT042 की हाजरी?", "IT042 કી હાજરી?"},
		{"gujarati passthrough", "હાજરી", "હાજરી"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToGujarati(tt.in))
		})
	}
}
