// Package view composes trees of asynchronously rendered views.
//
// A root view writes to a real response; each child created with Child
// buffers its rendered output and, once it ends, stores it in the parent's
// data under the child's key. A parent only renders after it was asked to
// render and every child completed, whichever comes last, so
//
//	header := root.Child("header")
//	header.Render("partials/header")
//	root.Render("pages/index")
//
// and
//
//	root.Render("pages/index")
//	header.Render("partials/header")
//
// produce the same output. A child finishing after its parent asked to render
// schedules the parent's render on the next tick of the tree's loop rather
// than calling it inline.
//
// # Cancellation
//
// CancelRender tears down a subtree synchronously. Renderers already in
// flight may still write or end later; those events are discarded.
// ForceRender cancels, pins a new template and starts over; the status
// helpers (NotFound, ServerError, Unauthorized) use it to replace whatever the
// tree was rendering with a fallback page.
//
// # Errors
//
// Render failures go to the nearest error handler, copied from the parent at
// creation time. If the 500 fallback rendered by ServerError fails too, the
// response is closed and the failure is only logged.
package view
