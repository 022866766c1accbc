/*
Package autopilot is a UI-automation engine that drives a desktop or browser session through a
graph of named nodes.

A task is a set of nodes connected by delayed edges. Action nodes move the pointer, click and type;
Logic nodes sample a screen region (recognized text or a pixel color), compare it against a
reference and follow a success or fail edge. Nodes flagged to run at start are launched together
when the task starts; repeating nodes re-schedule themselves after their repeat delay.

# Concept

The engine never races the human at the keyboard. Before each node body runs, an activity guard
watches the pointer for a short window and asks the backend whether a key or button is held down.
If the user is active the node is deferred and retried a few seconds later.

Node bodies never overlap. A single scheduler loop drains start requests, and every delay is a
timer that only enqueues the next request. Stopping a task is a flag flip: anything queued or
timed is dropped, and a body already in progress finishes.

The engine is hexagonal: storage (file, Redis, memory), the capability backend (desktop tools,
Chrome via the DevTools protocol, dry-run) and the UI overlay are ports implemented by adapters.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/autopilot"
		"github.com/aretw0/autopilot/pkg/adapters/dryrun"
		"github.com/aretw0/autopilot/pkg/adapters/memory"
		"github.com/aretw0/autopilot/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		eng := autopilot.New(memory.NewStore(), dryrun.New(nil, dryrun.Samples{Text: "OK"}))
		defer eng.Close()

		if _, err := eng.CreateTask(ctx, "demo"); err != nil {
			log.Fatal(err)
		}
		if _, err := eng.AddNode(domain.KindAction, "click", "100x40+200+100"); err != nil {
			log.Fatal(err)
		}
		if _, err := eng.UpdateField("click", "run_at_start", true); err != nil {
			log.Fatal(err)
		}

		if err := eng.Start(ctx); err != nil {
			log.Fatal(err)
		}
		go eng.Run(ctx)
	}
*/
package autopilot
