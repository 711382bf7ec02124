package groupd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/kbukum/streamgroup/logger"
	"github.com/kbukum/streamgroup/pipeline"
)

// GroupNDJSON groups the records read from r by path and writes one
// GroupView per line to w as each group completes. It returns the number
// of groups written.
func GroupNDJSON(ctx context.Context, r io.Reader, w io.Writer, path KeyPath, cfg GroupingConfig, log *logger.Logger) (int, error) {
	src := newRecordSource(io.NopCloser(r), cfg.MaxItems)
	groups := pipeline.GroupBy(pipeline.From[Record](src), newKeyFunc(path, cfg.KeyTimeout),
		pipeline.WithName(ServiceName+"-"+path.String()),
		pipeline.WithLogger(log),
	)

	enc := json.NewEncoder(w)
	total := 0
	err := pipeline.ForEach(ctx, groups, func(_ context.Context, g pipeline.Group[Key, Record]) error {
		total++
		return enc.Encode(GroupView{Key: g.Key, Items: g.Items})
	})
	return total, err
}
