package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsMedicalKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain keyword", "new antibiotic stock available", true},
		{"case insensitive", "PARACETAMOL Tablet 500mg", true},
		{"keyword inside word", "multivitamin syrup for kids", true},
		{"transliterated amharic", "yale medhanit bet", true},
		{"no keyword", "good morning everyone", false},
		{"empty text", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ContainsMedicalKeywords(tt.text))
		})
	}
}

func TestContainsPriceInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"birr after number", "only 250 birr today", true},
		{"birr before number", "birr 1200 per pack", true},
		{"etb uppercase", "500 ETB free delivery", true},
		{"amharic birr", "ዋጋ 300 ብር", true},
		{"dollar sign", "special offer $ 20", true},
		{"usd word", "15 usd per unit", true},
		{"euro sign", "€ 45 imported", true},
		{"price prefix", "price: 800", true},
		{"cost prefix", "cost 950", true},
		{"number without currency", "call 0911223344", false},
		{"currency without number", "pay in birr", false},
		{"empty text", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ContainsPriceInfo(tt.text))
		})
	}
}

func TestMessageLengthCountsRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, MessageLength(""))
	assert.Equal(t, 5, MessageLength("hello"))
	// Amharic script, 5 characters but 15 bytes
	assert.Equal(t, 5, MessageLength("መድኃኒት"))
}
