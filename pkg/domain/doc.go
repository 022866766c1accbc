/*
Package domain contains the core models of the autopilot engine.

It defines the entities of an automation task: Nodes (Action or Logic), the Edges that
link them by name, the Task graph that owns them, and the execution state of a run.
The package is kept free of I/O so that stores, backends and transports can be swapped.

# Key Entities

  - Node: one addressable step, either an Action (input simulation) or a Logic check.
  - Edge: a (target name, delay) pair deciding what runs next.
  - Task: a named, ordered collection of nodes addressed by name.
  - Report: an operator-visible record of a failure caught during a run.
*/
package domain
