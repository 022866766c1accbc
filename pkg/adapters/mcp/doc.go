/*
Package mcp serves the autopilot engine over the Model Context Protocol.

Tools:

  - list_tasks, show_task: inspect the task store.
  - open_task: select a task for running.
  - get_graph: Mermaid flowchart of the selected task.
  - start, stop, status: control the scheduler.
  - reports: recent failures caught while running.

The selected task is also published as the autopilot://task resource.
*/
package mcp
