package domain

import "strings"

type EquipmentCategory string

const (
	CategoryLighting      EquipmentCategory = "lighting"
	CategoryCooling       EquipmentCategory = "cooling"
	CategoryRefrigeration EquipmentCategory = "refrigeration"
	CategoryCooking       EquipmentCategory = "cooking"
	CategoryIT            EquipmentCategory = "it"
	CategoryElectronics   EquipmentCategory = "electronics"
	CategoryAppliances    EquipmentCategory = "appliances"
	CategoryOther         EquipmentCategory = "other"
)

var categoryKeywords = []struct {
	category EquipmentCategory
	keywords []string
}{
	{CategoryLighting, []string{"led", "ampoule", "tube", "lampe", "néon", "neon", "spot", "lamp", "bulb"}},
	{CategoryCooling, []string{"climatiseur", "clim", "ventilateur", "split", "air conditioner", "fan"}},
	{CategoryRefrigeration, []string{"réfrigérateur", "refrigerateur", "frigo", "congélateur", "congelateur", "fridge", "freezer"}},
	{CategoryCooking, []string{"micro-ondes", "micro-onde", "four", "plaque", "bouilloire", "cafetière", "cafetiere", "microwave", "oven", "kettle"}},
	{CategoryIT, []string{"ordinateur", "écran", "ecran", "imprimante", "photocopieuse", "serveur", "computer", "laptop", "monitor", "printer"}},
	{CategoryElectronics, []string{"télévision", "television", "téléviseur", "tv", "routeur", "projecteur", "router", "projector"}},
	{CategoryAppliances, []string{"chauffe-eau", "machine", "sèche-linge", "seche-linge", "fer", "aspirateur", "water heater", "washer", "dryer", "iron", "vacuum"}},
}

// InferCategory assigns a display category from an equipment name. The first
// matching keyword group wins; unknown names fall into CategoryOther.
func InferCategory(name string) EquipmentCategory {
	words := tokenize(name)
	if len(words) == 0 {
		return CategoryOther
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, group := range categoryKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(joined, " "+keyword+" ") || hasWordPrefix(words, keyword) {
				return group.category
			}
		}
	}
	return CategoryOther
}

// ParseCategory accepts a known category code, or returns false.
func ParseCategory(raw string) (EquipmentCategory, bool) {
	value := EquipmentCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case CategoryLighting, CategoryCooling, CategoryRefrigeration, CategoryCooking,
		CategoryIT, CategoryElectronics, CategoryAppliances, CategoryOther:
		return value, true
	default:
		return "", false
	}
}

func tokenize(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		switch r {
		case ' ', '\t', '/', ',', '(', ')', '_', '.', ':':
			return true
		default:
			return false
		}
	})
}

// hasWordPrefix matches plural or suffixed forms such as "ampoules" or "climatiseurs".
func hasWordPrefix(words []string, keyword string) bool {
	if strings.Contains(keyword, " ") || len(keyword) < 4 {
		return false
	}
	for _, word := range words {
		if strings.HasPrefix(word, keyword) {
			return true
		}
	}
	return false
}
