// Package schema defines the persisted record form of autopilot tasks.
//
// A task is stored as an ordered sequence of flat records, one per node, keyed the way the
// editor writes them ("event_type", "event_name", "geometry", "next_event", ...). This package
// converts between records and the domain graph losslessly and validates graphs.
//
// Basic usage:
//
//	task, err := schema.BuildTask("login", records)
//	if err != nil {
//	    return err
//	}
//	if err := schema.Validate(task); err != nil {
//	    for _, problem := range schema.ValidationErrors(err) {
//	        fmt.Println(problem)
//	    }
//	}
//	records = schema.TaskRecords(task)
package schema
