package services

import "strings"

// categoryKeywords maps product-name substrings to expense categories.
// Matching is case-insensitive, first hit wins, and the table order is
// fixed so detection stays deterministic.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"pain", "Boulangerie"},
	{"baguette", "Boulangerie"},
	{"croissant", "Boulangerie"},
	{"brioche", "Boulangerie"},
	{"poulet", "Boucherie"},
	{"boeuf", "Boucherie"},
	{"steak", "Boucherie"},
	{"jambon", "Boucherie"},
	{"saucisse", "Boucherie"},
	{"lait", "Crèmerie"},
	{"fromage", "Crèmerie"},
	{"yaourt", "Crèmerie"},
	{"beurre", "Crèmerie"},
	{"oeuf", "Crèmerie"},
	{"pomme", "Fruits et Légumes"},
	{"banane", "Fruits et Légumes"},
	{"tomate", "Fruits et Légumes"},
	{"salade", "Fruits et Légumes"},
	{"carotte", "Fruits et Légumes"},
	{"eau", "Boissons"},
	{"jus", "Boissons"},
	{"café", "Boissons"},
	{"thé", "Boissons"},
	{"vin", "Boissons"},
	{"bière", "Boissons"},
	{"pâtes", "Épicerie"},
	{"riz", "Épicerie"},
	{"farine", "Épicerie"},
	{"sucre", "Épicerie"},
	{"huile", "Épicerie"},
	{"conserve", "Épicerie"},
	{"surgelé", "Surgelés"},
	{"glace", "Surgelés"},
	{"savon", "Hygiène"},
	{"shampoing", "Hygiène"},
	{"dentifrice", "Hygiène"},
	{"lessive", "Entretien"},
	{"éponge", "Entretien"},
}

// DetectCategory returns the category for a product name based on the fixed
// keyword table, or the empty string when nothing matches. No external calls.
func DetectCategory(productName string) string {
	name := strings.ToLower(productName)
	for _, entry := range categoryKeywords {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}
	return ""
}
