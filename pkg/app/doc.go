// Package app turns registered templates, components and helpers into a
// running Application.
//
// A Builder accumulates registrations and validates them in Boot, which
// compiles every template and renders the root component ("Main" by default)
// into a wrapper element appended to the document body:
//
//	a, err := app.New().
//		Component("Main", newMain).
//		Template("Main", `<HelloWorld @name={{salutation}} />`).
//		Template("HelloWorld", `<h1>Hello {{@name}}!</h1>`).
//		Boot(ctx)
//
// After boot, ScheduleRerender queues a pass and DidRender waits for it.
package app
