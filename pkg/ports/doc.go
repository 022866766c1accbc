/*
Package ports defines the driven ports (interfaces) of the autopilot engine.

These interfaces decouple the scheduler from the outside world, allowing the engine to run
against different input backends, task stores and UI collaborators.

# Key Interfaces

  - Backend: the capability layer that moves the pointer, presses keys and samples the screen.
  - TaskStore: persists tasks as ordered record sequences.
  - RunLocker: guarantees a single running task across processes.
  - Overlay: the UI collaborator that shows or hides node overlays.
  - Reporter: the operator-visible failure channel.
  - Clock: schedules delayed continuations.
*/
package ports
