package groupd

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamgroup/errors"
	"github.com/kbukum/streamgroup/logger"
	"github.com/kbukum/streamgroup/observability"
	"github.com/kbukum/streamgroup/pipeline"
	"github.com/kbukum/streamgroup/server"
	"github.com/kbukum/streamgroup/sse"
	"github.com/kbukum/streamgroup/validation"
)

// SSE event names.
const (
	EventGroup = "group"
	EventEnd   = "end"
	EventError = sse.EventError
)

// GroupView is the wire form of one group.
type GroupView struct {
	Key   Key      `json:"key"`
	Items []Record `json:"items"`
}

// EndView is the payload of the final event of a stream.
type EndView struct {
	Total int `json:"total"`
}

type groupsQuery struct {
	Key string `form:"key" validate:"omitempty,keypath"`
}

// Handler serves the grouping endpoints.
type Handler struct {
	cfg      GroupingConfig
	observer pipeline.GroupObserver
	resolver func(KeyPath) KeyResolver
	log      *logger.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithObserver reports engine events to o.
func WithObserver(o pipeline.GroupObserver) HandlerOption {
	return func(h *Handler) { h.observer = o }
}

// WithResolver replaces the JSON path lookup used to compute keys.
func WithResolver(fn func(KeyPath) KeyResolver) HandlerOption {
	return func(h *Handler) { h.resolver = fn }
}

// NewHandler creates a Handler.
func NewHandler(cfg GroupingConfig, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg:      cfg,
		resolver: func(p KeyPath) KeyResolver { return p },
		log:      log.WithComponent("groups"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/groups", h.Groups)
}

// Groups groups an NDJSON body by the key path in the "key" query
// parameter, or the configured default. Runs of consecutive records with
// equal keys form one group.
//
// The response is a JSON envelope, or an event stream when the client
// accepts text/event-stream.
func (h *Handler) Groups(c *gin.Context) {
	var q groupsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		server.RespondWithError(c, apperrors.Validation("invalid query").WithCause(err))
		return
	}
	if err := validation.Validate(q); err != nil {
		server.RespondWithError(c, err)
		return
	}
	raw := q.Key
	if raw == "" {
		raw = h.cfg.DefaultKeyPath
	}
	path, err := ParseKeyPath(raw)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanGroupStream)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrKeyPath, path.String())

	opts := []pipeline.GroupOption{
		pipeline.WithName(ServiceName + "-" + path.String()),
		pipeline.WithLogger(h.log.WithContext(ctx)),
	}
	if h.observer != nil {
		opts = append(opts, pipeline.WithObserver(h.observer))
	}
	src := newRecordSource(c.Request.Body, h.cfg.MaxItems)
	groups := pipeline.GroupBy(pipeline.From[Record](src), newKeyFunc(h.resolver(path), h.cfg.KeyTimeout), opts...)

	start := time.Now()
	var total int
	if acceptsEventStream(c.GetHeader("Accept")) {
		total, err = h.stream(ctx, c, groups)
	} else {
		total, err = h.collect(ctx, c, groups)
	}
	observability.SetSpanAttribute(ctx, observability.AttrGroupCount, total)

	fields := logger.Fields("key_path", path.String(), "groups", total)
	for k, v := range logger.DurationFields("group", time.Since(start)) {
		fields[k] = v
	}
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Warn("grouping request failed", fields)
		return
	}
	h.log.WithContext(ctx).Debug("grouping request completed", fields)
}

type groupPipeline = pipeline.Pipeline[pipeline.Group[Key, Record]]

// collect runs the engine to completion and writes one JSON envelope.
func (h *Handler) collect(ctx context.Context, c *gin.Context, groups *groupPipeline) (int, error) {
	out, err := pipeline.Collect(ctx, groups)
	if err != nil {
		server.RespondWithError(c, toAppError(ctx, err))
		return len(out), err
	}
	views := make([]GroupView, len(out))
	for i, g := range out {
		views[i] = GroupView{Key: g.Key, Items: g.Items}
	}
	server.RespondOKWithMeta(c, views, &server.Meta{Total: len(views)})
	return len(views), nil
}

// stream writes each group as an event as soon as the engine emits it.
// Once the stream is open, failures are reported as an error event since
// the status line has already been sent.
func (h *Handler) stream(ctx context.Context, c *gin.Context, groups *groupPipeline) (int, error) {
	stream, err := sse.Open(c.Writer)
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return 0, err
	}
	stop := stream.KeepAlive(ctx, h.cfg.KeepAlive)
	defer stop()

	it := groups.Iter(ctx)
	defer it.Close()

	total := 0
	for {
		g, ok, err := it.Next(ctx)
		if err != nil {
			appErr := toAppError(ctx, err)
			_ = c.Error(err)
			if sendErr := stream.Send(EventError, appErr.ToResponse().Error); sendErr != nil {
				h.log.WithContext(ctx).Debug("error event not delivered", logger.ErrorFields(EventError, sendErr))
			}
			return total, err
		}
		if !ok {
			return total, stream.Send(EventEnd, EndView{Total: total})
		}
		total++
		if err := stream.Send(EventGroup, GroupView{Key: g.Key, Items: g.Items}); err != nil {
			return total, err
		}
	}
}

// toAppError maps an engine failure to the error reported to the client.
func toAppError(ctx context.Context, err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	if pipeline.IsSuspended(err) && ctx.Err() != nil {
		return apperrors.ServiceUnavailable(ServiceName).WithCause(err)
	}
	return apperrors.Internal(err)
}

func acceptsEventStream(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(mediaType), sse.ContentType) {
			return true
		}
	}
	return false
}
