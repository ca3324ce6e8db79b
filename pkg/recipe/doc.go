// Package recipe defines the closed set of products a machine can brew and
// the fixed amount of each consumable every product requires.
//
// The table is part of the public contract and is not mutable at runtime:
//
//	Product          Water (ml)  Beans (g)  Milk (ml)
//	COFFEE                  200         20          0
//	ESPRESSO                100         30          0
//	DOUBLE_ESPRESSO         150         40          0
//	LATTE                   150         20        100
//	CAPPUCCINO              100         25        150
//	MACCHIATO               100         15         50
//
// Products have three renderings: the canonical name (DOUBLE_ESPRESSO), the
// label used in confirmations (double espresso) and a display name for tables
// (Double Espresso). Parse accepts any of them, as well as kebab-case.
package recipe
