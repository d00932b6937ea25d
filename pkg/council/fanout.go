package council

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/llmcouncil/llmcouncil/pkg/model"
)

// RunFunc produces one model's terminal outcome for a shared message
// sequence. Implementations receive their own private copy of the messages.
type RunFunc func(ctx context.Context, modelID string, messages []model.Message) Outcome

// FanOut runs fn concurrently for every council member and joins all results.
// The returned map always has exactly one entry per member; a failure in one
// member never cancels or delays the others.
func FanOut(ctx context.Context, members []string, messages []model.Message, fn RunFunc) map[string]Outcome {
	results := make(map[string]Outcome, len(members))
	var mu sync.Mutex
	var wg conc.WaitGroup

	for _, member := range members {
		member := member
		private := model.Clone(messages)
		wg.Go(func() {
			outcome := fn(ctx, member, private)
			mu.Lock()
			results[member] = outcome
			mu.Unlock()
		})
	}
	wg.Wait()

	return results
}
