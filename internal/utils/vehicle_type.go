package utils

import "strings"

// vehicleClassAliases maps spellings seen from booking clients onto canonical class names.
var vehicleClassAliases = map[string]string{
	"ev":             "electric",
	"hyper":          "hyper_sports",
	"hypersports":    "hyper_sports",
	"hypercar":       "hyper_sports",
	"sport":          "sports",
	"compactsuv":     "compact_suv",
	"mini_suv":       "compact_suv",
	"saloon":         "sedan",
	"plug_in":        "hybrid",
	"plug_in_hybrid": "hybrid",
}

// NormalizeVehicleClass lower-cases the input and folds spaces and dashes into underscores.
// Unknown values come back normalized but otherwise untouched; validation happens in the caller.
func NormalizeVehicleClass(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if alias, ok := vehicleClassAliases[s]; ok {
		return alias
	}
	return s
}
