// Package orchestrator coordinates one conversation turn across the agents.
// The engine owns no domain logic: it appends the user's message, decides
// whether the classifier may run, then gives every agent its slot in a fixed
// order. Agents coordinate through the shared store, never directly.
package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/dyluth/barista/pkg/blackboard"
)

// FallbackNotice is appended when no agent produced a reply for the turn.
const FallbackNotice = "I'm not sure how to help with that. You can describe a taste problem, name a coffee bean, or ask for a recommendation."

// Agent is one specialist in the turn pipeline.
type Agent interface {
	Name() string
	Process(ctx context.Context) error
}

// Engine runs the turn pipeline for a single session. It is single-threaded:
// one turn at a time, agents invoked sequentially.
type Engine struct {
	bb *blackboard.Client

	intentAgent Agent
	agents      []Agent
}

// NewEngine creates a turn engine. The intent agent is held separately
// because the busy lock can skip it; the remaining agents run every turn in
// the given order.
func NewEngine(bb *blackboard.Client, intentAgent Agent, agents ...Agent) *Engine {
	return &Engine{bb: bb, intentAgent: intentAgent, agents: agents}
}

// Turn processes one user message and returns the assistant messages it
// produced. Agent errors are logged and absorbed so a failing agent cannot
// kill the conversation; the turn always completes.
func (e *Engine) Turn(ctx context.Context, userText string) ([]blackboard.Message, error) {
	before, err := e.bb.TranscriptLen(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading transcript length: %w", err)
	}

	if err := e.bb.AppendUserMessage(ctx, userText); err != nil {
		return nil, fmt.Errorf("appending user message: %w", err)
	}

	busy, err := e.conversationBusy(ctx)
	if err != nil {
		return nil, err
	}
	if busy {
		log.Printf("[Orchestrator] agent busy, skipping intent classification")
	} else {
		e.run(ctx, e.intentAgent)
	}

	for _, agent := range e.agents {
		e.run(ctx, agent)
	}

	last, ok, err := e.bb.LastMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading last message: %w", err)
	}
	if !ok || last.Role != blackboard.RoleAssistant {
		if err := e.bb.AppendAssistantMessage(ctx, FallbackNotice); err != nil {
			return nil, fmt.Errorf("appending fallback notice: %w", err)
		}
	}

	produced, err := e.bb.TranscriptFrom(ctx, before+1)
	if err != nil {
		return nil, fmt.Errorf("reading turn output: %w", err)
	}

	var replies []blackboard.Message
	for _, m := range produced {
		if m.Role == blackboard.RoleAssistant {
			replies = append(replies, m)
		}
	}
	return replies, nil
}

// conversationBusy reports whether a state machine holds the conversation. A
// busy agent keeps the current intent pinned so its pending question gets the
// user's answer.
func (e *Engine) conversationBusy(ctx context.Context) (bool, error) {
	doctorState, err := e.bb.DoctorState(ctx)
	if err != nil {
		return false, fmt.Errorf("reading doctor state: %w", err)
	}
	brewerState, err := e.bb.BrewerState(ctx)
	if err != nil {
		return false, fmt.Errorf("reading brewer state: %w", err)
	}
	return doctorState.Busy() || brewerState.Busy(), nil
}

func (e *Engine) run(ctx context.Context, agent Agent) {
	if err := agent.Process(ctx); err != nil {
		log.Printf("[Orchestrator] agent %s failed: %v", agent.Name(), err)
	}
}
