// Package request implements the coordinator: a sequential state machine
// that routes one free-text request across domain workers, one dispatched
// task at a time, and finalizes exactly once when every task is terminal.
// Progress is decided only by typed worker results and the transition table,
// never inferred from response text.
package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/logger"
	"github.com/kailas-cloud/crossdex/internal/metrics"
)

// Service coordinates requests across domain workers.
type Service struct {
	classifier Classifier
	worker     Worker
	agg        Aggregator
	states     StateStore // optional; nil runs without persistence
	timeout    time.Duration
	parallel   bool
}

// New creates a coordinator. The timeout bounds each domain task; a slow
// domain times out individually and never blocks the remaining domains.
func New(classifier Classifier, worker Worker, agg Aggregator, timeout time.Duration) *Service {
	return &Service{classifier: classifier, worker: worker, agg: agg, timeout: timeout}
}

// WithStateStore enables write-through persistence of every transition.
func (s *Service) WithStateStore(states StateStore) *Service {
	s.states = states
	return s
}

// WithParallel dispatches independent domain tasks concurrently instead of
// one at a time. Results and ordering stay deterministic; only wall time
// changes.
func (s *Service) WithParallel(parallel bool) *Service {
	s.parallel = parallel
	return s
}

// Submit classifies the text, creates the request with one pending task per
// required domain, and runs it to a terminal state. The returned request is
// terminal: DONE, or CANCELLED when ctx was cancelled at a state boundary.
func (s *Service) Submit(ctx context.Context, text string) (*domain.Request, error) {
	cls, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}

	tasks := make([]domain.DomainTask, 0, len(cls.Domains))
	for _, d := range cls.Domains {
		tasks = append(tasks, domain.DomainTask{
			Domain:   d,
			SubQuery: s.classifier.SubQuery(d, text, cls.Matched[d]),
			State:    domain.TaskPending,
		})
	}

	req := domain.NewRequest(uuid.NewString(), text, tasks)
	if cls.Fallback {
		req.Warnings = append(req.Warnings,
			fmt.Sprintf("no domain matched the request; routed to default domain %q", cls.Domains[0]))
	}

	logger.FromContext(ctx).Info("request created",
		zap.String("request_id", req.ID),
		zap.Strings("domains", cls.Domains),
		zap.Bool("fallback", cls.Fallback),
	)

	if err := s.persist(ctx, req); err != nil {
		return nil, err
	}
	if err := s.run(ctx, req); err != nil {
		return req, err
	}
	return req, nil
}

// Get returns a persisted request by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Request, error) {
	if s.states == nil {
		return nil, domain.ErrRequestNotFound
	}
	return s.states.Get(ctx, id)
}

// List returns all persisted requests, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.Request, error) {
	if s.states == nil {
		return nil, nil
	}
	return s.states.List(ctx)
}

// Report aggregates a finished request into its final result. Aggregation is
// deterministic over the persisted task table, so the report can be served
// repeatedly without re-running any domain.
func (s *Service) Report(ctx context.Context, id string) (*domain.AggregatedResult, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Aggregate(req)
}

// Aggregate produces the final result for an already terminal request.
func (s *Service) Aggregate(req *domain.Request) (*domain.AggregatedResult, error) {
	switch req.State {
	case domain.StateDone, domain.StateCancelled:
		return s.agg.Aggregate(req), nil
	default:
		return nil, fmt.Errorf("request %s in state %s: %w", req.ID, req.State, domain.ErrRequestNotDone)
	}
}

// run drives the request through the transition table to a terminal state.
func (s *Service) run(ctx context.Context, req *domain.Request) error {
	if err := s.step(ctx, req, domain.StateRouting); err != nil {
		return err
	}

	if s.parallel {
		if err := s.runParallel(ctx, req); err != nil {
			return err
		}
	} else if err := s.runSequential(ctx, req); err != nil {
		return err
	}
	if req.State == domain.StateCancelled {
		return nil
	}

	if err := s.step(ctx, req, domain.StateFinalize); err != nil {
		return err
	}
	if err := s.step(ctx, req, domain.StateDone); err != nil {
		return err
	}
	metrics.RequestsTotal.WithLabelValues(string(domain.StateDone)).Inc()

	logger.FromContext(ctx).Info("request finished",
		zap.String("request_id", req.ID),
		zap.Int("tasks", len(req.Tasks)),
	)
	return nil
}

// runSequential dispatches exactly one domain task at a time, re-entering
// routing after each handoff check until no pending task remains.
func (s *Service) runSequential(ctx context.Context, req *domain.Request) error {
	for {
		if ctx.Err() != nil {
			return s.cancel(ctx, req)
		}
		next := req.NextPending()
		if next == nil {
			return nil
		}

		if err := s.step(ctx, req, domain.StateAwaitingDomain); err != nil {
			return err
		}
		if err := s.dispatch(ctx, req, next); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return s.cancel(ctx, req)
		}
		if err := s.step(ctx, req, domain.StateHandoffCheck); err != nil {
			return err
		}
		if req.AllTerminal() {
			return nil
		}
		if err := s.step(ctx, req, domain.StateRouting); err != nil {
			return err
		}
	}
}

// runParallel dispatches every pending task at once. One awaiting/handoff
// cycle covers the whole batch; per-task timeouts still apply individually.
func (s *Service) runParallel(ctx context.Context, req *domain.Request) error {
	if ctx.Err() != nil {
		return s.cancel(ctx, req)
	}
	if err := s.step(ctx, req, domain.StateAwaitingDomain); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range req.Tasks {
		task := &req.Tasks[i]
		if task.State != domain.TaskPending {
			continue
		}
		if err := task.Transition(domain.TaskDispatched); err != nil {
			return err
		}
		g.Go(func() error {
			return s.execute(gctx, task)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return s.cancel(ctx, req)
	}
	return s.step(ctx, req, domain.StateHandoffCheck)
}

// dispatch moves one task to dispatched and executes it.
func (s *Service) dispatch(ctx context.Context, req *domain.Request, task *domain.DomainTask) error {
	if err := task.Transition(domain.TaskDispatched); err != nil {
		return err
	}
	if err := s.persist(ctx, req); err != nil {
		return err
	}
	return s.execute(ctx, task)
}

// execute runs one dispatched task under its own timeout and records the
// terminal task state. A timed-out domain is marked and skipped; the rest of
// the request proceeds. Only a parent cancellation or an unexpected worker
// failure aborts the run.
func (s *Service) execute(ctx context.Context, task *domain.DomainTask) error {
	log := logger.FromContext(ctx)

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		res *domain.DomainResult
		err error
	}
	// The wait is bounded by tctx even when the worker ignores its context.
	// Buffered so an abandoned worker can still deliver and exit.
	done := make(chan outcome, 1)
	go func() {
		res, err := s.worker.Execute(tctx, task.Domain, task.SubQuery)
		done <- outcome{res: res, err: err}
	}()

	var res *domain.DomainResult
	var err error
	select {
	case out := <-done:
		res, err = out.res, out.err
	case <-tctx.Done():
		err = tctx.Err()
	}

	switch {
	case err == nil:
		to := domain.TaskCompleted
		if res.Status == domain.ResultNoData {
			to = domain.TaskNoData
		}
		task.Result = res
		if terr := task.Transition(to); terr != nil {
			return terr
		}
	case ctx.Err() != nil:
		if terr := task.Transition(domain.TaskCancelled); terr != nil {
			return terr
		}
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("domain task timed out",
			zap.String("domain", task.Domain),
			zap.Duration("timeout", s.timeout),
		)
		if terr := task.Transition(domain.TaskTimedOut); terr != nil {
			return terr
		}
	default:
		return fmt.Errorf("domain %s: %w", task.Domain, err)
	}

	metrics.DomainTasksTotal.WithLabelValues(task.Domain, string(task.State)).Inc()
	return nil
}

// cancel marks the request and every non-terminal task cancelled. The write
// uses a detached context: the trigger is the parent cancellation itself.
func (s *Service) cancel(ctx context.Context, req *domain.Request) error {
	for i := range req.Tasks {
		if !req.Tasks[i].State.Terminal() {
			if err := req.Tasks[i].Transition(domain.TaskCancelled); err != nil {
				return err
			}
		}
	}
	if err := req.Transition(domain.StateCancelled); err != nil {
		return err
	}
	metrics.RequestsTotal.WithLabelValues(string(domain.StateCancelled)).Inc()

	logger.FromContext(ctx).Warn("request cancelled",
		zap.String("request_id", req.ID),
	)
	return s.persist(context.WithoutCancel(ctx), req)
}

// step performs one request transition and writes it through.
func (s *Service) step(ctx context.Context, req *domain.Request, to domain.RequestState) error {
	if err := req.Transition(to); err != nil {
		return err
	}
	return s.persist(ctx, req)
}

func (s *Service) persist(ctx context.Context, req *domain.Request) error {
	if s.states == nil {
		return nil
	}
	if err := s.states.Save(ctx, req); err != nil {
		return fmt.Errorf("persist request %s: %w", req.ID, err)
	}
	return nil
}
