// Package reservoir provides the bounded resource counter used for every
// consumable a machine holds.
//
// A Reservoir starts full, is drawn down with Use and topped up with Refill.
// Refill never raises the level above capacity; Use never lets it go negative.
//
//	water, err := reservoir.New(reservoir.Water, 2000)
//	if err != nil {
//	    return err
//	}
//	if err := water.Use(200); err != nil {
//	    // errors.Is(err, reservoir.ErrInsufficientResource)
//	}
//	_ = water.Refill(500)
//
// The insufficiency check in Use is a guard for callers that skipped their own
// level check. Callers that pre-check levels (such as the machine package)
// should never trigger it.
package reservoir
