// Package orchestrator implements the workflow state machine. It drives the
// planner interview, plan review, bounded code generation, and output
// refinement phases, persisting the workflow state after every transition.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/coder"
	"irabuilder/pkg/config"
	"irabuilder/pkg/logx"
	"irabuilder/pkg/metrics"
	"irabuilder/pkg/persistence"
	"irabuilder/pkg/proto"
	"irabuilder/pkg/state"
	"irabuilder/pkg/utils"
)

// PlannerAgent is the planning collaborator the orchestrator drives.
type PlannerAgent interface {
	Initialize(ctx context.Context, name, description string, csvPaths []string) (proto.AgentReply, error)
	Answer(ctx context.Context, answer string) (proto.AgentReply, error)
	GeneratePlan(ctx context.Context) (proto.AgentReply, error)
	Refine(ctx context.Context, feedback string) (proto.AgentReply, error)
	Restore(history []agent.CompletionMessage)
}

// CoderAgent is the code generation collaborator.
type CoderAgent interface {
	StartWorkflow(name, plan string, csvPaths []string, outputPath, workDir string)
	GenerateAndExecute(ctx context.Context) (*coder.RunResult, error)
	Refine(ctx context.Context, feedback string) (*coder.RunResult, error)
}

// Orchestrator is the state machine for one workflow. Methods serialize
// behind a mutex: the contract is one caller at a time, and concurrent calls
// queue rather than corrupt state.
type Orchestrator struct {
	mu sync.Mutex

	cfg     *config.Config
	st      *state.WorkflowState
	store   *state.Store
	planner PlannerAgent
	coder   CoderAgent

	// audit and recorder are optional; nil disables them.
	audit    *persistence.DatabaseOperations
	recorder *metrics.Recorder

	events *eventBus
	logger *logx.Logger
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithAudit wires the SQLite audit trail.
func WithAudit(ops *persistence.DatabaseOperations) Option {
	return func(o *Orchestrator) { o.audit = ops }
}

// WithMetrics wires the Prometheus recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator for a fresh workflow in NOT_STARTED.
func New(cfg *config.Config, store *state.Store, plannerAgent PlannerAgent, coderAgent CoderAgent,
	name, description string, csvPaths []string, opts ...Option) *Orchestrator {

	o := &Orchestrator{
		cfg:     cfg,
		st:      state.NewWorkflowState(name, description, csvPaths),
		store:   store,
		planner: plannerAgent,
		coder:   coderAgent,
		events:  newEventBus(),
		logger:  logx.NewLogger("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resume reconstructs an orchestrator from a persisted snapshot. The planner
// conversation is rebuilt from the stored history, and the coder is reseeded
// with the current plan when one exists.
func Resume(cfg *config.Config, store *state.Store, plannerAgent PlannerAgent, coderAgent CoderAgent,
	workflowID string, opts ...Option) (*Orchestrator, error) {

	st, err := store.Load(workflowID)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", workflowID, err)
	}

	o := &Orchestrator{
		cfg:     cfg,
		st:      st,
		store:   store,
		planner: plannerAgent,
		coder:   coderAgent,
		events:  newEventBus(),
		logger:  logx.NewLogger("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}

	var history []agent.CompletionMessage
	for i := range st.ConversationHistory {
		history = append(history, agent.CompletionMessage{
			Role:    agent.CompletionRole(st.ConversationHistory[i].Role),
			Content: st.ConversationHistory[i].Text,
		})
	}
	o.planner.Restore(history)

	if plan := st.CurrentPlan(); plan != "" {
		o.coder.StartWorkflow(st.Name, plan, st.CSVPaths, o.outputPath(), cfg.OutputDir)
	}

	o.logger.Info("resumed workflow %s at phase %s", st.WorkflowID, st.Phase)
	return o, nil
}

// Subscribe returns a channel of workflow events and a cancel function.
func (o *Orchestrator) Subscribe() (<-chan *proto.WorkflowEvent, func()) {
	return o.events.Subscribe()
}

// WorkflowID returns the workflow's unique identifier.
func (o *Orchestrator) WorkflowID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.WorkflowID
}

// Start transitions NOT_STARTED -> PLANNING and issues the first planner
// call seeded with the workflow description and CSV structure. The planner
// call happens before any mutation, so a failed call leaves the workflow
// startable again.
func (o *Orchestrator) Start(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requirePhase("start", proto.PhaseNotStarted); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	reply, err := o.callPlanner(ctx, "planner", func(callCtx context.Context) (proto.AgentReply, error) {
		return o.planner.Initialize(callCtx, o.st.Name, o.st.Description, o.st.CSVPaths)
	})
	if err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	prev := o.st.Clone()
	o.transition(proto.PhasePlanning, "workflow started")
	o.st.AppendHistory(proto.RoleAssistant, reply.Text)
	o.absorbPlannerReply(reply)

	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	o.publishPlannerReply(reply)
	return o.replyResult(reply), nil
}

// ProcessUserInput feeds the user's answer to the planner. Valid only in
// PLANNING. When the question budget is exhausted without a plan, plan
// generation is forced to guarantee the phase terminates.
func (o *Orchestrator) ProcessUserInput(ctx context.Context, answer string) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requirePhase("process_user_input", proto.PhasePlanning); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	reply, err := o.callPlanner(ctx, "planner", func(callCtx context.Context) (proto.AgentReply, error) {
		return o.planner.Answer(callCtx, answer)
	})
	if err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	prev := o.st.Clone()
	o.st.AppendHistory(proto.RoleUser, answer)
	o.st.AppendHistory(proto.RoleAssistant, reply.Text)
	o.absorbPlannerReply(reply)

	// Budget exhausted with no plan yet: force generation rather than loop.
	if o.st.Phase == proto.PhasePlanning && o.st.QuestionsAsked >= o.cfg.MaxPlannerQuestions {
		o.logger.Info("question budget exhausted (%d), forcing plan generation", o.st.QuestionsAsked)
		forced, ferr := o.callPlanner(ctx, "planner", func(callCtx context.Context) (proto.AgentReply, error) {
			return o.planner.GeneratePlan(callCtx)
		})
		if ferr != nil {
			o.st = prev
			return errorResult(o.st.Phase, ferr.Error()), ferr
		}
		o.st.AppendHistory(proto.RoleAssistant, forced.Text)
		o.absorbPlannerReply(forced)
		reply = forced
	}

	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	o.publishPlannerReply(reply)
	return o.replyResult(reply), nil
}

// RefinePlan reworks the plan from user feedback. Valid only in PLAN_REVIEW.
// The planner may answer with a revised plan (stays in PLAN_REVIEW as a new
// version) or a follow-up question (reopens PLANNING; questions_asked is not
// reset).
func (o *Orchestrator) RefinePlan(ctx context.Context, feedback string) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requirePhase("refine_plan", proto.PhasePlanReview); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}
	if o.cfg.MaxPlanRefinements > 0 && o.st.PlanRefinementCount >= o.cfg.MaxPlanRefinements {
		err := &IterationLimitError{Kind: "plan_refinements", Limit: o.cfg.MaxPlanRefinements, Context: "plan refinement budget exhausted"}
		return errorResult(o.st.Phase, err.Error()), err
	}

	reply, err := o.callPlanner(ctx, "planner", func(callCtx context.Context) (proto.AgentReply, error) {
		return o.planner.Refine(callCtx, feedback)
	})
	if err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	prev := o.st.Clone()
	o.st.PlanRefinementCount++
	o.st.AppendHistory(proto.RoleUser, feedback)
	o.st.AppendHistory(proto.RoleAssistant, reply.Text)

	switch reply.Type {
	case proto.ReplyPlanReady:
		version := o.st.SetPlan(reply.Text)
		o.logger.Info("plan revised to version %d", version)
	default:
		// The interview reopens; the question budget carries over.
		o.transition(proto.PhasePlanning, "plan refinement reopened the interview")
		if reply.Type == proto.ReplyQuestion {
			o.st.QuestionsAsked++
		}
	}

	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	o.publishPlannerReply(reply)
	return o.replyResult(reply), nil
}

// ApprovePlanAndGenerateCode accepts the plan and runs the bounded code
// generation loop. Valid only in PLAN_REVIEW. Success lands in
// OUTPUT_REVIEW; an exhausted coder budget lands in FAILED.
func (o *Orchestrator) ApprovePlanAndGenerateCode(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requirePhase("approve_plan_and_generate_code", proto.PhasePlanReview); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	prev := o.st.Clone()
	o.transition(proto.PhaseCoding, "plan approved")
	o.st.CodeIterationCount = 0
	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	o.coder.StartWorkflow(o.st.Name, o.st.CurrentPlan(), o.st.CSVPaths, o.outputPath(), o.cfg.OutputDir)
	return o.runCodingLoop(ctx, prev, func(loopCtx context.Context) (*coder.RunResult, error) {
		return o.coder.GenerateAndExecute(loopCtx)
	})
}

// RefineOutput feeds user feedback on the produced output back into the
// coder and reruns the generation loop. Valid only in OUTPUT_REVIEW. The
// refinement counter increments exactly once per call regardless of how many
// internal coder retries happen; the coder iteration counter restarts.
func (o *Orchestrator) RefineOutput(ctx context.Context, feedback string) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requirePhase("refine_output", proto.PhaseOutputReview); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}
	if o.st.RefinementIterationCount >= o.cfg.MaxRefinementIterations {
		err := &RefinementLimitError{Limit: o.cfg.MaxRefinementIterations}
		return errorResult(o.st.Phase, err.Error()), err
	}

	prev := o.st.Clone()
	o.st.RefinementIterationCount++
	o.st.AddRefinement(feedback, o.st.RefinementIterationCount)
	o.st.AppendHistory(proto.RoleUser, feedback)
	o.transition(proto.PhaseCoding, "output refinement requested")
	o.st.CodeIterationCount = 0
	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	o.recorder.IncRefinement()
	if o.audit != nil {
		if err := o.audit.RecordRefinement(o.st.WorkflowID, o.st.RefinementIterationCount, feedback); err != nil {
			o.logger.Warn("audit write failed: %v", err)
		}
	}
	o.publish(proto.EventRefinement, "", map[string]any{"iteration": o.st.RefinementIterationCount})

	return o.runCodingLoop(ctx, prev, func(loopCtx context.Context) (*coder.RunResult, error) {
		return o.coder.Refine(loopCtx, feedback)
	})
}

// ApproveOutputAndComplete accepts the output and finalizes the workflow.
// Valid only in OUTPUT_REVIEW. Terminal.
func (o *Orchestrator) ApproveOutputAndComplete(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.requirePhase("approve_output_and_complete", proto.PhaseOutputReview); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	prev := o.st.Clone()
	from := o.st.Phase
	o.st.MarkCompleted(proto.PhaseCompleted)
	o.st.Error = ""
	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}

	o.recorder.ObserveTransition(from, proto.PhaseCompleted)
	o.recorder.ObserveWorkflowDuration(time.Since(o.st.StartedAt))
	o.publish(proto.EventCompleted, "workflow completed", nil)
	o.logger.Info("workflow %s completed", o.st.WorkflowID)

	result := successResult(proto.PhaseCompleted)
	result.IsFinal = true
	result.OutputPath = o.st.OutputPath
	o.fillCounters(&result)
	return result, nil
}

// IsPlanReady reports whether a plan is awaiting review. Pure query.
func (o *Orchestrator) IsPlanReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.Phase == proto.PhasePlanReview && o.st.CurrentPlan() != ""
}

// IsOutputReady reports whether an output artifact is awaiting review.
// Pure query.
func (o *Orchestrator) IsOutputReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.Phase == proto.PhaseOutputReview && o.st.OutputPath != ""
}

// GetWorkflowSummary returns a deep snapshot of the workflow state,
// including full plan-version and refinement history. Pure query.
func (o *Orchestrator) GetWorkflowSummary() *state.WorkflowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.Clone()
}

// GetPlannerSummary returns the interview view. Pure query.
func (o *Orchestrator) GetPlannerSummary() state.PlannerView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.PlannerSummary()
}

// GetCoderSummary returns the code generation view. Pure query.
func (o *Orchestrator) GetCoderSummary() state.CoderView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.CoderSummary()
}

// GetReviewSummary returns the output review view. Pure query.
func (o *Orchestrator) GetReviewSummary() state.ReviewView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.ReviewSummary()
}

// runCodingLoop executes one full coder loop invocation and applies its
// outcome to the state machine. Caller holds the mutex, has already
// transitioned to CODING and persisted, and passes its pre-transition
// snapshot so a transient coder failure restores a retryable review phase
// both in memory and on disk.
func (o *Orchestrator) runCodingLoop(ctx context.Context, prev *state.WorkflowState, run func(context.Context) (*coder.RunResult, error)) (Result, error) {
	runResult, err := run(ctx)
	if err != nil {
		agentErr := &AgentCallError{Agent: "coder", Err: err}
		o.st = prev
		o.st.UpdatedAt = time.Now().UTC()
		if saveErr := o.store.Save(o.st); saveErr != nil {
			o.logger.Warn("rollback snapshot write failed: %v", saveErr)
		}
		return errorResult(o.st.Phase, agentErr.Error()), agentErr
	}

	// Record every attempt: artifacts for audit, corrective context into the
	// shared conversation history.
	for i := range runResult.Attempts {
		attempt := &runResult.Attempts[i]
		o.st.AddCodeArtifact(attempt.Code, runResult.ScriptPath)
		o.recorder.ObserveCoderAttempt(attempt.Succeeded)
		if o.audit != nil {
			if aerr := o.audit.RecordArtifact(o.st.WorkflowID, attempt.Iteration, runResult.ScriptPath, attempt.Succeeded); aerr != nil {
				o.logger.Warn("audit write failed: %v", aerr)
			}
		}
		if !attempt.Succeeded {
			detail := attempt.Stderr
			if detail == "" {
				detail = "execution failed"
			}
			o.st.AppendHistory(proto.RoleUser, fmt.Sprintf("execution attempt %d failed: %s", attempt.Iteration, detail))
		}
		o.publish(proto.EventCoderAttempt, "", map[string]any{
			"iteration": attempt.Iteration,
			"succeeded": attempt.Succeeded,
		})
	}
	o.st.CodeIterationCount = runResult.Iterations

	if runResult.Succeeded {
		o.st.OutputPath = runResult.OutputPath
		o.st.Error = ""
		o.transition(proto.PhaseOutputReview, "execution succeeded")
		if err := o.persist(prev); err != nil {
			return errorResult(o.st.Phase, err.Error()), err
		}

		result := successResult(o.st.Phase)
		result.OutputPath = runResult.OutputPath
		o.fillCounters(&result)
		return result, nil
	}

	// Coder budget exhausted: deterministic FAILED, not a crash.
	execErr := &ExecutionError{Iterations: runResult.Iterations, LastError: runResult.LastError}
	limitErr := &IterationLimitError{
		Kind:    "coder_iterations",
		Limit:   o.cfg.MaxCoderIterations,
		Context: execErr.Error(),
	}
	o.st.Error = limitErr.Error()
	o.st.MarkCompleted(proto.PhaseFailed)
	if err := o.persist(prev); err != nil {
		return errorResult(o.st.Phase, err.Error()), err
	}
	o.publish(proto.EventFailed, o.st.Error, nil)
	o.logger.Warn("workflow %s failed: %s", o.st.WorkflowID, o.st.Error)

	result := errorResult(proto.PhaseFailed, limitErr.Error())
	result.IsFinal = true
	o.fillCounters(&result)
	return result, limitErr
}

// absorbPlannerReply applies a classified planner reply to the state:
// questions count against the budget, a finished plan moves the workflow to
// PLAN_REVIEW, clarifications change nothing.
func (o *Orchestrator) absorbPlannerReply(reply proto.AgentReply) {
	switch reply.Type {
	case proto.ReplyQuestion:
		o.st.QuestionsAsked++
	case proto.ReplyPlanReady:
		version := o.st.SetPlan(reply.Text)
		o.logger.Info("plan ready (version %d)", version)
		if o.st.Phase != proto.PhasePlanReview {
			o.transition(proto.PhasePlanReview, "plan ready")
		}
	}
}

// requirePhase validates the current phase for an operation. Terminal phases
// reject all mutation.
func (o *Orchestrator) requirePhase(operation string, expected proto.Phase) error {
	if o.st.Phase.IsTerminal() {
		return fmt.Errorf("%w: %s in %s", ErrWorkflowTerminal, operation, o.st.Phase)
	}
	if o.st.Phase != expected {
		return &InvalidPhaseError{Operation: operation, Current: o.st.Phase, Expected: []proto.Phase{expected}}
	}
	return nil
}

// transition moves to the next phase through the canonical transition map
// and publishes the change. Panics on an edge outside the map: the callers
// above only request legal edges, so a violation is a bug.
func (o *Orchestrator) transition(to proto.Phase, detail string) {
	from := o.st.Phase
	if !proto.IsValidTransition(from, to) {
		panic(fmt.Sprintf("illegal transition %s -> %s", from, to))
	}
	o.st.Phase = to
	o.recorder.ObserveTransition(from, to)
	if o.audit != nil {
		if err := o.audit.RecordTransition(o.st.WorkflowID, from, to, detail); err != nil {
			o.logger.Warn("audit write failed: %v", err)
		}
	}

	ev := proto.NewWorkflowEvent(o.st.WorkflowID, proto.EventPhaseChange)
	ev.FromPhase = from
	ev.ToPhase = to
	ev.Detail = detail
	o.events.Publish(ev)
	o.logger.Info("%s: %s -> %s (%s)", o.st.WorkflowID, from, to, detail)
}

// persist writes the snapshot and rolls the in-memory state back to prev on
// failure, so a failed write never reports success with unsaved state.
func (o *Orchestrator) persist(prev *state.WorkflowState) error {
	o.st.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(o.st); err != nil {
		o.st = prev
		return &PersistenceError{WorkflowID: prev.WorkflowID, Err: err}
	}
	if o.audit != nil {
		if err := o.audit.UpsertWorkflow(o.st); err != nil {
			o.logger.Warn("audit write failed: %v", err)
		}
	}
	return nil
}

// callPlanner runs one planner call under the configured timeout and maps
// failures to AgentCallError.
func (o *Orchestrator) callPlanner(ctx context.Context, name string, call func(context.Context) (proto.AgentReply, error)) (proto.AgentReply, error) {
	callCtx := ctx
	if o.cfg.AgentCallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.AgentCallTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := call(callCtx)
	o.recorder.ObserveAgentCall(name, err, time.Since(start))
	if err != nil {
		return proto.AgentReply{}, &AgentCallError{Agent: name, Err: err}
	}
	return reply, nil
}

func (o *Orchestrator) publishPlannerReply(reply proto.AgentReply) {
	o.publish(proto.EventPlannerReply, string(reply.Type), nil)
}

func (o *Orchestrator) publish(eventType proto.EventType, detail string, metadata map[string]any) {
	ev := proto.NewWorkflowEvent(o.st.WorkflowID, eventType)
	ev.Detail = detail
	ev.Metadata = metadata
	o.events.Publish(ev)
}

func (o *Orchestrator) replyResult(reply proto.AgentReply) Result {
	result := successResult(o.st.Phase)
	result.Reply = reply.Text
	result.IsPlan = reply.Type == proto.ReplyPlanReady
	o.fillCounters(&result)
	return result
}

func (o *Orchestrator) fillCounters(result *Result) {
	result.QuestionsAsked = o.st.QuestionsAsked
	result.CodeIterations = o.st.CodeIterationCount
	result.RefinementIterations = o.st.RefinementIterationCount
}

// outputPath derives the per-workflow result file location. Workflows own
// disjoint paths; the id suffix keeps same-named workflows apart.
func (o *Orchestrator) outputPath() string {
	name := utils.SanitizeFilename(o.st.Name)
	if name == "" {
		name = "workflow"
	}
	return filepath.Join(o.cfg.OutputDir, fmt.Sprintf("%s_%s_output.csv", name, o.st.WorkflowID))
}
