// Package render defines the collaborator contracts a view tree renders
// through: the Renderer strategy, the Job a renderer works on, the Sink it
// writes into, and the content-type Registry used to pick a renderer.
//
// Renderers are independent variants selected by content type, not a class
// hierarchy. A renderer receives a *Job, reads Job.Data, writes to the job and
// finishes it with End or Fail. Handlers registered on a job after it already
// finished are replayed on the next tick of the job's Scheduler.
//
//	registry := render.NewRegistry()
//	registry.MustRegister("application/json", structured.NewJSON())
//	renderer, err := registry.Resolve("application/json; charset=utf-8")
package render
