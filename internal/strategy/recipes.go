package strategy

import (
	"sort"
	"strings"

	"github.com/jwaldner/optionlab/internal/models"
)

// LegSpec describes a leg before strikes and prices are known
type LegSpec struct {
	Direction  models.Direction `json:"direction"`
	Instrument Instrument       `json:"instrument"`
	Moneyness  models.Moneyness `json:"moneyness,omitempty"`
	Depth      int              `json:"depth,omitempty"`
	Units      int              `json:"units"`
}

// Recipe is a named, ordered set of legs
type Recipe struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Legs        []LegSpec `json:"legs"`
}

func leg(dir models.Direction, inst Instrument, m models.Moneyness, depth, units int) LegSpec {
	return LegSpec{Direction: dir, Instrument: inst, Moneyness: m, Depth: depth, Units: units}
}

func share(dir models.Direction) LegSpec {
	return LegSpec{Direction: dir, Instrument: Stock, Units: 1}
}

var recipes = map[string]Recipe{}

func register(name, description string, legs ...LegSpec) {
	recipes[name] = Recipe{Name: name, Description: description, Legs: legs}
}

func init() {
	for _, dir := range []models.Direction{models.Long, models.Short} {
		for _, m := range []models.Moneyness{models.ATM, models.ITM, models.OTM} {
			for _, inst := range []Instrument{Call, Put} {
				depth := 1
				if m == models.ATM {
					depth = 0
				}
				name := string(dir) + "_" + string(m) + "_" + string(inst)
				register(name, "single "+string(dir)+" "+strings.ToUpper(string(m))+" "+string(inst), leg(dir, inst, m, depth, 1))
			}
		}
	}

	register("covered_call", "long stock, short OTM call",
		share(models.Long),
		leg(models.Short, Call, models.OTM, 1, 1))
	register("married_put", "long stock, long ATM put",
		share(models.Long),
		leg(models.Long, Put, models.ATM, 0, 1))
	register("bull_call_spread", "long ITM call, short OTM call",
		leg(models.Long, Call, models.ITM, 1, 1),
		leg(models.Short, Call, models.OTM, 1, 1))
	register("bear_put_spread", "long ITM put, short OTM put",
		leg(models.Long, Put, models.ITM, 1, 1),
		leg(models.Short, Put, models.OTM, 1, 1))
	register("credit_call_spread", "short ITM call, long OTM call",
		leg(models.Short, Call, models.ITM, 1, 1),
		leg(models.Long, Call, models.OTM, 1, 1))
	register("credit_put_spread", "short ITM put, long OTM put",
		leg(models.Short, Put, models.ITM, 1, 1),
		leg(models.Long, Put, models.OTM, 1, 1))
	register("protective_collar", "long stock, long OTM put, short OTM call",
		share(models.Long),
		leg(models.Long, Put, models.OTM, 1, 1),
		leg(models.Short, Call, models.OTM, 1, 1))
	register("long_straddle", "long ATM call and put",
		leg(models.Long, Call, models.ATM, 0, 1),
		leg(models.Long, Put, models.ATM, 0, 1))
	register("short_straddle", "short ATM call and put",
		leg(models.Short, Call, models.ATM, 0, 1),
		leg(models.Short, Put, models.ATM, 0, 1))
	register("long_strangle", "long OTM call and put",
		leg(models.Long, Call, models.OTM, 1, 1),
		leg(models.Long, Put, models.OTM, 1, 1))
	register("short_strangle", "short OTM call and put",
		leg(models.Short, Call, models.OTM, 1, 1),
		leg(models.Short, Put, models.OTM, 1, 1))
	register("long_call_butterfly", "long ITM call, short two ATM calls, long OTM call",
		leg(models.Long, Call, models.ITM, 1, 1),
		leg(models.Short, Call, models.ATM, 0, 2),
		leg(models.Long, Call, models.OTM, 1, 1))
	register("short_call_butterfly", "short ITM call, long two ATM calls, short OTM call",
		leg(models.Short, Call, models.ITM, 1, 1),
		leg(models.Long, Call, models.ATM, 0, 2),
		leg(models.Short, Call, models.OTM, 1, 1))
	register("iron_condor", "short OTM put and call, long further OTM put and call",
		leg(models.Long, Put, models.OTM, 2, 1),
		leg(models.Short, Put, models.OTM, 1, 1),
		leg(models.Short, Call, models.OTM, 1, 1),
		leg(models.Long, Call, models.OTM, 2, 1))
}

// normalizeName accepts "Iron Condor", "iron-condor" and "iron_condor"
func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Lookup returns the recipe registered under name
func Lookup(name string) (Recipe, error) {
	r, ok := recipes[normalizeName(name)]
	if !ok {
		return Recipe{}, models.NewInvalidInputError("strategy", name, "unknown strategy")
	}
	return r, nil
}

// Recipes lists every recipe sorted by name
func Recipes() []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
