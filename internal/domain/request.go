package domain

import "time"

// RequestState is a coordinator lifecycle state for a request.
type RequestState string

const (
	// StateCreated is the initial state after request construction.
	StateCreated RequestState = "CREATED"
	// StateRouting means the coordinator is selecting the next pending domain.
	StateRouting RequestState = "ROUTING"
	// StateAwaitingDomain means one domain task is dispatched and in flight.
	StateAwaitingDomain RequestState = "AWAITING_DOMAIN"
	// StateHandoffCheck means a domain result arrived and terminality is being evaluated.
	StateHandoffCheck RequestState = "HANDOFF_CHECK"
	// StateFinalize means all tasks are terminal and aggregation is running.
	StateFinalize RequestState = "FINALIZE"
	// StateDone means the aggregated result has been produced.
	StateDone RequestState = "DONE"
	// StateCancelled means the request was cancelled at a state boundary.
	StateCancelled RequestState = "CANCELLED"
)

// requestTransitions is the coordinator transition table. Progress is never
// inferred from free text; only these edges are legal.
var requestTransitions = map[RequestState][]RequestState{
	StateCreated:        {StateRouting, StateCancelled},
	StateRouting:        {StateAwaitingDomain, StateFinalize, StateCancelled},
	StateAwaitingDomain: {StateHandoffCheck, StateCancelled},
	StateHandoffCheck:   {StateRouting, StateFinalize, StateCancelled},
	StateFinalize:       {StateDone, StateCancelled},
}

// CanTransition reports whether the edge from -> to is in the transition table.
func (s RequestState) CanTransition(to RequestState) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends the request lifecycle.
func (s RequestState) Terminal() bool {
	return s == StateDone || s == StateCancelled
}

// TaskState is the state of one domain task.
type TaskState string

const (
	// TaskPending means the task has not been dispatched yet.
	TaskPending TaskState = "pending"
	// TaskDispatched means the task is in flight with a domain worker.
	TaskDispatched TaskState = "dispatched"
	// TaskCompleted means the worker returned data.
	TaskCompleted TaskState = "completed"
	// TaskNoData means the worker verified that the domain holds no answer.
	TaskNoData TaskState = "no_data"
	// TaskTimedOut means the worker did not answer within the bounded wait.
	TaskTimedOut TaskState = "timed_out"
	// TaskCancelled means the request was cancelled before the task finished.
	TaskCancelled TaskState = "cancelled"
)

// taskRank orders task states monotonically; a task never moves to a lower rank.
var taskRank = map[TaskState]int{
	TaskPending:    0,
	TaskDispatched: 1,
	TaskCompleted:  2,
	TaskNoData:     2,
	TaskTimedOut:   2,
	TaskCancelled:  2,
}

// Terminal reports whether the task state is final.
func (s TaskState) Terminal() bool {
	return taskRank[s] == 2
}

// DomainTask is one domain's attempt to answer a sub-query for a request.
type DomainTask struct {
	Domain   string        `json:"domain"`
	SubQuery string        `json:"sub_query"`
	State    TaskState     `json:"state"`
	Result   *DomainResult `json:"result,omitempty"`
}

// Transition moves the task to a new state, enforcing monotonicity.
// A domain is never dispatched twice: Dispatched is only reachable from Pending.
func (t *DomainTask) Transition(to TaskState) error {
	if taskRank[to] < taskRank[t.State] || (to == TaskDispatched && t.State != TaskPending) {
		return NewInvalidTransition(t.Domain, t.State, to)
	}
	if t.State.Terminal() && to != t.State {
		return NewInvalidTransition(t.Domain, t.State, to)
	}
	t.State = to
	return nil
}

// Request is a single free-text query with its per-domain task table.
// The required domain set is fixed at creation; only task states and result
// payloads mutate until the aggregated result is produced.
type Request struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	State     RequestState `json:"state"`
	Tasks     []DomainTask `json:"tasks"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Warnings records non-fatal conditions (e.g. classification fell back
	// to the default domain). Surfaced in the final report.
	Warnings []string `json:"warnings,omitempty"`
}

// NewRequest creates a request with one pending task per required domain,
// preserving the classifier's domain order.
func NewRequest(id, text string, tasks []DomainTask) *Request {
	now := time.Now().UTC()
	return &Request{
		ID:        id,
		Text:      text,
		State:     StateCreated,
		Tasks:     tasks,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the request to a new lifecycle state.
func (r *Request) Transition(to RequestState) error {
	if !r.State.CanTransition(to) {
		return &RequestTransitionError{RequestID: r.ID, From: r.State, To: to}
	}
	r.State = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Task returns the task for a domain, or nil.
func (r *Request) Task(domain string) *DomainTask {
	for i := range r.Tasks {
		if r.Tasks[i].Domain == domain {
			return &r.Tasks[i]
		}
	}
	return nil
}

// NextPending returns the first task still pending in classifier priority
// order, or nil when none remain.
func (r *Request) NextPending() *DomainTask {
	for i := range r.Tasks {
		if r.Tasks[i].State == TaskPending {
			return &r.Tasks[i]
		}
	}
	return nil
}

// AllTerminal reports whether every task reached a terminal state.
func (r *Request) AllTerminal() bool {
	for i := range r.Tasks {
		if !r.Tasks[i].State.Terminal() {
			return false
		}
	}
	return true
}
