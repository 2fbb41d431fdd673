// Package operations runs the air-quality report pipeline.
//
// A run is a fixed sequence of steps: validate, load, derive, aggregate,
// render, compose, export and manifest. Each Step declares the steps it
// depends on; the Registry orders them and the Manager executes them one at
// a time, recording a StepState (pending, active, completed, failed or
// skipped) with timings for each. Results pass between steps through the
// OperationState, which also keeps the manifest of every file written.
//
// The first failing step ends the run; later steps are marked skipped and
// the files already written stay on disk. Every step runs inside its own
// trace span and reports its duration to the run metrics.
//
// Example usage:
//
//	manager, err := operations.NewManager(cfg, logger, telemetry)
//	if err != nil {
//		return err
//	}
//	state, err := manager.Run(ctx)
//	if err != nil {
//		return err
//	}
//	fmt.Println(state.ReportPath())
package operations
