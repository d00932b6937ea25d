package council

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/llmcouncil/llmcouncil/pkg/event"
	"github.com/llmcouncil/llmcouncil/pkg/model"
)

// Stage identifies a pipeline stage boundary for checkpoint callbacks.
type Stage string

const (
	StageAnswers   Stage = "stage1"
	StageRankings  Stage = "stage2"
	StageSynthesis Stage = "stage3"
)

// Stage2Metadata accompanies the stage2_complete event payload.
type Stage2Metadata struct {
	LabelToModel map[string]string `json:"label_to_model"`
	Aggregate    AggregateRanking  `json:"aggregate_rankings"`
}

// TitlePayload is the data of a title_complete event.
type TitlePayload struct {
	Title string `json:"title"`
}

// StreamOptions configures one incremental pipeline run.
type StreamOptions struct {
	// GenerateTitle starts a best-effort title generation task concurrent
	// with the three-stage critical path; its result is surfaced as a
	// title_complete event after stage3_complete.
	GenerateTitle bool

	// Checkpoint, when set, runs before each stage. A non-nil error is an
	// unrecoverable collaborator fault: the pipeline stops and the stream
	// terminates with an error event. This is how callers gate stages on
	// storage availability.
	Checkpoint func(ctx context.Context, stage Stage) error

	// Finalize, when set, runs after all stages succeed and before the
	// terminal complete event, typically to persist the assembled run. A
	// failure terminates the stream with an error event instead.
	Finalize func(ctx context.Context, run *PipelineRun) error
}

// Stream executes the pipeline incrementally, emitting a discrete event after
// each stage transition. The returned channel is closed after exactly one
// terminal event (complete or error). Abandoning ctx stops emission; in-flight
// model calls then fail through their own context handling.
func (c *Council) Stream(ctx context.Context, content string, history []model.Message, opts StreamOptions) <-chan event.Event {
	out := make(chan event.Event, 1)

	go func() {
		defer close(out)

		emit := func(evt event.Event) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- evt:
				return true
			}
		}
		fail := func(err error) {
			c.logger.Error("pipeline failed", "error", err)
			emit(event.Errorf("%v", err))
		}
		checkpoint := func(stage Stage) error {
			if opts.Checkpoint == nil {
				return nil
			}
			return opts.Checkpoint(ctx, stage)
		}

		var titleWG conc.WaitGroup
		defer titleWG.Wait()
		var title string
		var titleErr error
		if opts.GenerateTitle {
			titleWG.Go(func() {
				title, titleErr = c.GenerateTitle(ctx, content)
			})
		}

		if err := checkpoint(StageAnswers); err != nil {
			fail(err)
			return
		}
		if !emit(event.New(event.Stage1Start, nil)) {
			return
		}
		stage1, err := c.Stage1(ctx, content, history)
		if err != nil {
			fail(err)
			return
		}
		if !emit(event.New(event.Stage1Complete, stage1)) {
			return
		}

		if err := checkpoint(StageRankings); err != nil {
			fail(err)
			return
		}
		if !emit(event.New(event.Stage2Start, nil)) {
			return
		}
		stage2, labelToModel, aggregate, err := c.Stage2(ctx, content, stage1)
		if err != nil {
			fail(err)
			return
		}
		stage2Complete := event.New(event.Stage2Complete, stage2)
		stage2Complete.Metadata = Stage2Metadata{LabelToModel: labelToModel, Aggregate: aggregate}
		if !emit(stage2Complete) {
			return
		}

		if err := checkpoint(StageSynthesis); err != nil {
			fail(err)
			return
		}
		if !emit(event.New(event.Stage3Start, nil)) {
			return
		}
		stage3, err := c.Stage3(ctx, content, stage1, stage2, aggregate)
		if err != nil {
			fail(err)
			return
		}
		if !emit(event.New(event.Stage3Complete, stage3)) {
			return
		}

		if opts.GenerateTitle {
			titleWG.Wait()
			if titleErr == nil && title != "" {
				if !emit(event.New(event.TitleComplete, TitlePayload{Title: title})) {
					return
				}
			} else if titleErr != nil {
				c.logger.Warn("title generation failed", "error", titleErr)
			}
		}

		run := &PipelineRun{
			Stage1:       stage1,
			Stage2:       stage2,
			LabelToModel: labelToModel,
			Aggregate:    aggregate,
			Stage3:       stage3,
		}
		if opts.Finalize != nil {
			if err := opts.Finalize(ctx, run); err != nil {
				fail(err)
				return
			}
		}

		emit(event.New(event.Complete, nil))
	}()

	return out
}
