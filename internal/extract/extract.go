// Package extract turns raw fetched content into candidate company
// records, either by structural selectors or via a text-extraction model.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/sells-group/moverscan/internal/model"
)

// Content is the raw input to an extractor: one page (or listing body)
// plus the identity of the fetcher that produced it.
type Content struct {
	Source string // provenance tag stamped onto every extracted record
	URL    string
	Body   string
}

// Extractor maps raw content to zero or more candidate records.
// Implementations never treat "nothing found" as an error; an empty batch
// is a valid result.
type Extractor interface {
	Extract(ctx context.Context, content Content) (model.CandidateBatch, error)
	Name() string
}

// ExtractionParseError indicates model output that is not valid JSON or
// does not match the target schema. It degrades the source to an empty
// batch at the orchestrator boundary.
type ExtractionParseError struct {
	Source string
	Err    error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("extract %s: parse model output: %v", e.Source, e.Err)
}

func (e *ExtractionParseError) Unwrap() error { return e.Err }

// stamp fills provenance and freshness on every record in the batch.
func stamp(batch model.CandidateBatch, source string, now time.Time) model.CandidateBatch {
	for i := range batch {
		batch[i].Source = source
		batch[i].LastUpdated = now
	}
	return batch
}
