package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryPrecedence(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"busco una laptop", "laptop"},
		{"un portátil para la universidad", "laptop"},
		{"una computadora de escritorio", "pc"},
		{"necesito memoria ram", "componente_pc"},
		{"un monitor curvo", "monitor"},
	}

	for _, tt := range tests {
		got := ""
		for _, rule := range Categories {
			if rule.Pattern.MatchString(tt.message) {
				got = rule.Name
				break
			}
		}
		assert.Equal(t, tt.want, got, tt.message)
	}
}

func TestScrapeProductNames_Formats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"bold numbered",
			"**1. Laptop HP Pavilion 15**\n💰 **S/ 2500**\n**2. Laptop Asus Vivobook 16**",
			[]string{"Laptop HP Pavilion 15", "Laptop Asus Vivobook 16"},
		},
		{
			"number then bold",
			"1. **Lenovo V15 G4** (S/ 1800)\n2. **Dell Inspiron 3520** (S/ 2100)",
			[]string{"Lenovo V15 G4", "Dell Inspiron 3520"},
		},
		{
			"plain numbered",
			"1. Laptop Acer Aspire 5\n2. Laptop MSI Modern 14",
			[]string{"Laptop Acer Aspire 5", "Laptop MSI Modern 14"},
		},
		{
			"no listing",
			"¡Hola! ¿En qué puedo ayudarte hoy?",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrapeProductNames(tt.text))
		})
	}
}

func TestScrapeProductNames_RejectsArtifacts(t *testing.T) {
	text := "1. Precio\n2. Laptop HP Pavilion 15\n3. ab"
	got := ScrapeProductNames(text)
	assert.Equal(t, []string{"Laptop HP Pavilion 15"}, got)
}

func TestScrapeProductNames_Deduplicates(t *testing.T) {
	text := "1. Laptop HP Pavilion 15\n2. Laptop HP Pavilion 15"
	got := ScrapeProductNames(text)
	assert.Equal(t, []string{"Laptop HP Pavilion 15"}, got)
}
