// Package machine implements the brewing state machine.
//
// # Overview
//
// A Machine owns exactly one water, one beans and one milk reservoir, a power
// switch and a counter per product. It has two states, OFF (initial) and ON.
// PowerOn and PowerOff are idempotent; Brew never changes the power state.
//
// # Brewing
//
// Brew runs its checks in a fixed order and stops at the first failure:
//
//  1. the product must be in the recipe table (ErrUnknownProduct)
//  2. the machine must be ON (ErrMachineOff)
//  3. water, then beans, then milk must cover the recipe
//     (ErrInsufficientWater, ErrInsufficientBeans, ErrInsufficientMilk)
//
// Only when every check passes are the three amounts drawn from the
// reservoirs and the product's counter incremented, so a failed brew leaves
// levels and counters untouched. The whole sequence runs under one lock.
//
//	m, err := machine.New(water, beans, milk)
//	if err != nil {
//	    return err
//	}
//	m.PowerOn()
//	msg, err := m.Brew(ctx, recipe.Latte)
//	switch {
//	case machine.IsResourceShortage(err):
//	    // refill and retry
//	case err != nil:
//	    return err
//	}
//	fmt.Println(msg) // Your latte is ready!
//
// # Errors
//
// Every error returned by the package is a *Error classified by an
// ErrorCode. Use errors.Is against the exported sentinels, or CodeOf for the
// code alone.
//
// # Telemetry
//
// Options wire a zerolog logger and the telemetry package's metrics, tracer
// and event publisher. All of them are optional.
package machine
