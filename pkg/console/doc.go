// Package console provides a line-oriented interactive session around a
// single machine.
//
// Each input line is one command:
//
//	on | off
//	brew <product>
//	refill <water|beans|milk> <amount>
//	status | counts | recipes
//	help | quit | exit
//
// Product names are case-insensitive and may use spaces, dashes or
// underscores ("double espresso", "DOUBLE_ESPRESSO"). A refused brew prints
// "error: <message>" and the session keeps going.
package console
