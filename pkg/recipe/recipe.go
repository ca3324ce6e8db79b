package recipe

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/openfroyo/barista/pkg/reservoir"
)

// Product is one of the drinks a machine can brew.
type Product int

const (
	// Unknown is the zero value and has no recipe.
	Unknown Product = iota

	// Coffee is a regular filter-style coffee.
	Coffee

	// Espresso is a single shot.
	Espresso

	// DoubleEspresso is a double shot.
	DoubleEspresso

	// Latte is espresso with a large amount of milk.
	Latte

	// Cappuccino is espresso topped with foamed milk.
	Cappuccino

	// Macchiato is espresso marked with a little milk.
	Macchiato
)

// ErrUnknownProduct is returned when a name does not match any product.
var ErrUnknownProduct = errors.New("unknown product")

// Recipe is the amount of each consumable required for one unit of a product.
type Recipe struct {
	Water int `json:"water" yaml:"water"`
	Beans int `json:"beans" yaml:"beans"`
	Milk  int `json:"milk" yaml:"milk"`
}

// Requirement returns the amount required from the given reservoir kind.
func (r Recipe) Requirement(kind reservoir.Kind) int {
	switch kind {
	case reservoir.Water:
		return r.Water
	case reservoir.Beans:
		return r.Beans
	case reservoir.Milk:
		return r.Milk
	default:
		return 0
	}
}

type entry struct {
	name   string
	recipe Recipe
}

// table is indexed by Product; index 0 is Unknown.
var table = [...]entry{
	Unknown:        {name: "UNKNOWN"},
	Coffee:         {name: "COFFEE", recipe: Recipe{Water: 200, Beans: 20, Milk: 0}},
	Espresso:       {name: "ESPRESSO", recipe: Recipe{Water: 100, Beans: 30, Milk: 0}},
	DoubleEspresso: {name: "DOUBLE_ESPRESSO", recipe: Recipe{Water: 150, Beans: 40, Milk: 0}},
	Latte:          {name: "LATTE", recipe: Recipe{Water: 150, Beans: 20, Milk: 100}},
	Cappuccino:     {name: "CAPPUCCINO", recipe: Recipe{Water: 100, Beans: 25, Milk: 150}},
	Macchiato:      {name: "MACCHIATO", recipe: Recipe{Water: 100, Beans: 15, Milk: 50}},
}

// Products returns every brewable product in table order.
func Products() []Product {
	products := make([]Product, 0, len(table)-1)
	for p := Coffee; int(p) < len(table); p++ {
		products = append(products, p)
	}
	return products
}

// Valid reports whether p is a brewable product.
func (p Product) Valid() bool {
	return p > Unknown && int(p) < len(table)
}

// Lookup returns the recipe for p.
func Lookup(p Product) (Recipe, bool) {
	if !p.Valid() {
		return Recipe{}, false
	}
	return table[p].recipe, true
}

// Recipe returns the recipe for p, or the zero Recipe for an unknown product.
func (p Product) Recipe() Recipe {
	r, _ := Lookup(p)
	return r
}

// String returns the canonical name, e.g. DOUBLE_ESPRESSO.
func (p Product) String() string {
	if !p.Valid() {
		return table[Unknown].name
	}
	return table[p].name
}

// Label returns the lowercase name with spaces, e.g. "double espresso".
func (p Product) Label() string {
	return strings.ReplaceAll(strings.ToLower(p.String()), "_", " ")
}

// DisplayName returns the title-cased label, e.g. "Double Espresso".
func (p Product) DisplayName() string {
	// A Caser keeps state between calls and must not be shared.
	return cases.Title(language.English).String(p.Label())
}

// Parse resolves a canonical name, label or kebab-case name to a Product.
// Matching is case-insensitive.
func Parse(s string) (Product, error) {
	key := normalize(s)
	for _, p := range Products() {
		if table[p].name == key {
			return p, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownProduct, s)
}

func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return s
}

// MarshalText encodes the product by canonical name.
func (p Product) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes any name accepted by Parse.
func (p *Product) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
