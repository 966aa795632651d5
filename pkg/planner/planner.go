// Package planner implements the requirements-gathering agent. It interviews
// the user about a CSV analysis workflow and produces a business logic plan.
package planner

import (
	"context"
	"fmt"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/contextmgr"
	"irabuilder/pkg/csvkit"
	"irabuilder/pkg/logx"
	"irabuilder/pkg/proto"
)

// Classifier maps a raw planner reply to its type. The default is the
// marker-based Classify; tests and alternative prompt schemes can swap it.
type Classifier func(content string) proto.ReplyType

// Planner runs the requirements interview for one workflow at a time.
type Planner struct {
	client       agent.LLMClient
	ctx          *contextmgr.ContextManager
	maxQuestions int
	classify     Classifier
	logger       *logx.Logger
}

// New creates a planner backed by the given LLM client.
func New(client agent.LLMClient, maxQuestions int) *Planner {
	return &Planner{
		client:       client,
		ctx:          contextmgr.NewContextManager(),
		maxQuestions: maxQuestions,
		classify:     Classify,
		logger:       logx.NewLogger("planner"),
	}
}

// SetClassifier replaces the reply classifier. A nil classifier restores the
// default.
func (p *Planner) SetClassifier(c Classifier) {
	if c == nil {
		c = Classify
	}
	p.classify = c
}

// Initialize seeds a new interview with the workflow description and the CSV
// structure, and returns the planner's first reply.
func (p *Planner) Initialize(ctx context.Context, name, description string, csvPaths []string) (proto.AgentReply, error) {
	p.ctx.Clear()
	p.ctx.AddMessage(agent.RoleSystem, fmt.Sprintf(systemPrompt, p.maxQuestions))

	summary := csvkit.Summary(csvPaths)
	p.ctx.AddUserMessage(seedPrompt(name, description, csvPaths, summary, p.maxQuestions))

	p.logger.Info("initializing interview for workflow %q with %d csv files", name, len(csvPaths))
	return p.complete(ctx)
}

// Answer feeds the user's answer into the interview and returns the next
// reply, which may be another question or the finished plan.
func (p *Planner) Answer(ctx context.Context, userAnswer string) (proto.AgentReply, error) {
	p.ctx.AddUserMessage(userAnswer)
	return p.complete(ctx)
}

// GeneratePlan forces plan generation from whatever has been gathered so far.
// Used when the question budget runs out before the planner volunteers a plan.
func (p *Planner) GeneratePlan(ctx context.Context) (proto.AgentReply, error) {
	p.logger.Info("forcing plan generation")
	p.ctx.AddUserMessage(planTemplate)

	reply, err := p.complete(ctx)
	if err != nil {
		return proto.AgentReply{}, err
	}
	// A forced generation is a plan even when the marker heuristics miss.
	reply.Type = proto.ReplyPlanReady
	return reply, nil
}

// Refine reworks the current plan according to user feedback. The reply is
// classified normally: the planner may answer with a revised plan or with a
// follow-up question that reopens the interview.
func (p *Planner) Refine(ctx context.Context, feedback string) (proto.AgentReply, error) {
	p.logger.Info("refining plan from feedback")
	p.ctx.AddUserMessage(refinePrompt(feedback))
	return p.complete(ctx)
}

// Restore rebuilds the interview context from persisted history so a resumed
// workflow can continue where it stopped.
func (p *Planner) Restore(history []agent.CompletionMessage) {
	p.ctx.Clear()
	p.ctx.AddMessage(agent.RoleSystem, fmt.Sprintf(systemPrompt, p.maxQuestions))
	for i := range history {
		p.ctx.AddMessage(history[i].Role, history[i].Content)
	}
}

// Transcript returns the interview history as plain text.
func (p *Planner) Transcript() string {
	return p.ctx.Transcript()
}

// Reset clears all interview state.
func (p *Planner) Reset() {
	p.ctx.Clear()
}

func (p *Planner) complete(ctx context.Context) (proto.AgentReply, error) {
	p.ctx.CompactIfNeeded()

	resp, err := p.client.Complete(ctx, agent.NewCompletionRequest(p.ctx.Messages()))
	if err != nil {
		return proto.AgentReply{}, fmt.Errorf("planner call failed: %w", err)
	}
	p.ctx.AddAssistantMessage(resp.Content)

	reply := proto.AgentReply{
		Text: resp.Content,
		Type: p.classify(resp.Content),
	}
	p.logger.Debug("planner reply classified as %s", reply.Type)
	return reply, nil
}
