package site

import (
	"context"
	"errors"
	"time"
)

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled error. Warning-kind errors are recorded and the
// pipeline continues.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.StageErrorKinds[st.Name] = se.Kind
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.recordStageResult(st.Name, StageResultCanceled, bs.Builder.recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Timings[st.Name] = dur
		bs.Report.StageDurations[string(st.Name)] = dur
		if bs.Builder.recorder != nil {
			bs.Builder.recorder.ObserveStageDuration(string(st.Name), dur)
		}

		if err == nil {
			bs.Report.recordStageResult(st.Name, StageResultSuccess, bs.Builder.recorder)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(st.Name, err)
		}
		bs.Report.StageErrorKinds[st.Name] = se.Kind

		switch se.Kind {
		case StageErrorWarning:
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			bs.Report.recordStageResult(st.Name, StageResultWarning, bs.Builder.recorder)
		case StageErrorCanceled:
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.recordStageResult(st.Name, StageResultCanceled, bs.Builder.recorder)
			return se
		default:
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.recordStageResult(st.Name, StageResultFatal, bs.Builder.recorder)
			return se
		}
	}
	return nil
}
