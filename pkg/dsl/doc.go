/*
Package dsl provides a fluent Go builder for autopilot tasks.

It allows developers to define tasks in code instead of editing records by hand. This is
particularly useful for generated tasks, unit tests and IDE autocompletion.

Example usage:

	package main

	import (
		"github.com/aretw0/autopilot/pkg/domain"
		"github.com/aretw0/autopilot/pkg/dsl"
	)

	func main() {
		b := dsl.New("accept-dialog")

		b.Logic("dialog_open").
			At("300x40+600+400").
			OnStart().
			Every(5).
			Text(domain.OpContains, "Accept").
			Success("click_accept", 1)

		b.Action("click_accept").
			At("120x40+690+460").
			Exact()

		task, err := b.Build()
		// ... import with Engine.ImportTask(ctx, task.Name, schema.TaskRecords(task))
	}
*/
package dsl
