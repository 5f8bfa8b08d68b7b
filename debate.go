package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Base system prompt shared by all phases.
const basePrompt = "You are an AI participating in a structured collaborative debate. \n" +
	"Follow the instructions for your current phase carefully."

// Phase-specific rubrics. The bracket labels are part of the protocol
// and must match what participants are told to emit.
var phasePrompts = map[string]string{
	PhasePropose: "\n**Phase 1: Propose (제안)**\n" +
		"* Offer 1-2 core ideas related to the given topic\n" +
		"* Prioritize uniqueness – avoid repeating concepts already presented by others\n" +
		"* Be concise (1-3 sentences per idea)\n" +
		"* Label your response: `[제안]`\n" +
		"\n" +
		"Focus on contributing original, valuable ideas while being brief and clear.",

	PhaseCritique: "\n**Phase 2: Critique & Refine (비판 및 개선)**\n" +
		"* Review proposals from OTHER participants only\n" +
		"* Identify at least one specific flaw OR suggest a concrete improvement for another's idea\n" +
		"* Be constructive and explain your reasoning briefly\n" +
		"* Label your response: `[피드백]` (On [Target Idea/Participant], Critique/Suggestion: ...)\n" +
		"\n" +
		"Focus on strengthening others' ideas through constructive criticism.",

	PhaseSynthesize: "\n**Phase 3: Synthesize (종합)**\n" +
		"* Based on the discussion in Phases 1 & 2, construct one concise, improved solution\n" +
		"* Integrate the strongest points and refinements identified\n" +
		"* Acknowledge core contributions briefly if feasible\n" +
		"* Label your response: `[최종안]`\n" +
		"\n" +
		"Focus on creating the most effective solution by combining the best elements from the previous phases.",
}

// Key rules appended to every phase prompt.
const keyRules = "\n**Key Rules:**\n" +
	"* Uniqueness: Strive for distinct contributions in each phase\n" +
	"* Interaction: Phase 2 must engage with others' ideas\n" +
	"* Brevity: Concise responses are highly valued - solutions that are twice as short may receive twice the score\n" +
	"\n" +
	"Maintain a helpful, precise, and professional tone at all times."

// phaseLabels maps each phase to the bracket label its responses must
// carry. Responses lacking the label get it prepended.
var phaseLabels = map[string]string{
	PhasePropose:    "[제안]",
	PhaseCritique:   "[피드백]",
	PhaseSynthesize: "[최종안]",
}

// DebatePhases lists the phases of one cycle in protocol order. No
// phase is skipped or reordered; a new topic always restarts at propose.
var DebatePhases = []string{PhasePropose, PhaseCritique, PhaseSynthesize}

// Debate orchestrates one debate session across all configured models.
// One instance owns one session; sessions are single-writer and must
// not be driven from more than one cycle at a time.
type Debate struct {
	Models    []*AIModel
	History   *HistoryManager
	SessionID string

	// Messages is the session's canonical message log, rebuilt each
	// cycle and persisted when the cycle completes.
	Messages []Message

	// Shuffle returns a permutation of [0, n) used as the turn order
	// for one phase. A fresh permutation is drawn every phase.
	// Defaults to rand.Perm; tests substitute a fixed ordering.
	Shuffle func(n int) []int
}

// NewDebate creates a debate session over the given models. The session
// ID is minted once and stays stable for the lifetime of the instance.
func NewDebate(models []*AIModel, history *HistoryManager) *Debate {
	return &Debate{
		Models:    models,
		History:   history,
		SessionID: uuid.New().String(),
		Shuffle:   rand.Perm,
	}
}

// GetSystemPrompt composes the full system prompt for a phase.
func (d *Debate) GetSystemPrompt(phase string) string {
	return fmt.Sprintf("%s\n\n%s\n%s", basePrompt, phasePrompts[phase], keyRules)
}

// RunPhase runs a single phase with every model taking one turn in a
// freshly shuffled order. The phase transcript is seeded from the
// previous phase's transcript; the phase's system prompt replaces any
// existing system message (or is inserted in front), and a phase
// indicator is appended so models know which rubric applies. Each
// response is appended to both the phase transcript (so later turns in
// the same phase see it) and the session's canonical log.
//
// Returns the responses in turn order and the updated phase transcript
// to seed the next phase.
func (d *Debate) RunPhase(ctx context.Context, phase, topic string, previous []Message) ([]PhaseResponse, []Message) {
	phaseMessages := make([]Message, len(previous))
	copy(phaseMessages, previous)

	systemPrompt := d.GetSystemPrompt(phase)

	// Replace the existing system message, or insert one in front
	replaced := false
	for i, msg := range phaseMessages {
		if msg.IsSystem() {
			phaseMessages[i] = Message{Role: RoleSystem, Content: systemPrompt}
			replaced = true
			break
		}
	}
	if !replaced {
		phaseMessages = append([]Message{{Role: RoleSystem, Content: systemPrompt}}, phaseMessages...)
	}

	// For the propose phase, add the topic as user input unless one is
	// already present
	if phase == PhasePropose && topic != "" && !containsInput(phaseMessages) {
		phaseMessages = append(phaseMessages, Message{Role: RoleInput, Content: topic})
	}

	phaseMessages = append(phaseMessages, Message{
		Role:    RoleSystem,
		Content: fmt.Sprintf("Current phase: %s. Follow the guidelines for this phase only.", strings.ToUpper(phase)),
	})

	order := d.Shuffle(len(d.Models))

	var responses []PhaseResponse
	for _, idx := range order {
		model := d.Models[idx]
		log.Printf("Generating %s response from %s...", strings.ToUpper(phase), model.Name)

		response := model.GenerateResponse(ctx, phaseMessages)

		if label := phaseLabels[phase]; !strings.Contains(response, label) {
			response = label + "\n" + response
		}

		turn := Message{Role: model.Name, Content: response, Phase: phase}
		phaseMessages = append(phaseMessages, turn)
		d.Messages = append(d.Messages, turn)

		responses = append(responses, PhaseResponse{Model: model.Name, Response: response})
	}

	return responses, phaseMessages
}

// RunDebateCycle runs a complete cycle of all three phases on the given
// topic and persists the canonical message log. Backend failures are
// carried as response content and never abort the cycle; the only error
// returned is a failure to persist the finished session.
func (d *Debate) RunDebateCycle(ctx context.Context, topic string) (*CycleResults, error) {
	log.Printf("Starting new debate cycle on: %s", topic)

	// Reset the canonical log for the new cycle
	d.Messages = []Message{{Role: RoleInput, Content: topic}}

	results := &CycleResults{}

	proposeResponses, transcript := d.RunPhase(ctx, PhasePropose, topic, nil)
	results.Propose = proposeResponses

	critiqueResponses, transcript := d.RunPhase(ctx, PhaseCritique, "", transcript)
	results.Critique = critiqueResponses

	synthesizeResponses, _ := d.RunPhase(ctx, PhaseSynthesize, "", transcript)
	results.Synthesize = synthesizeResponses

	if _, err := d.History.SaveDebate(d.SessionID, d.Messages); err != nil {
		return results, fmt.Errorf("failed to save debate session: %w", err)
	}

	return results, nil
}

// PhaseResults returns the responses for one phase of a cycle.
func (r *CycleResults) PhaseResults(phase string) []PhaseResponse {
	switch phase {
	case PhasePropose:
		return r.Propose
	case PhaseCritique:
		return r.Critique
	case PhaseSynthesize:
		return r.Synthesize
	}
	return nil
}

func containsInput(messages []Message) bool {
	for _, msg := range messages {
		if msg.IsInput() {
			return true
		}
	}
	return false
}
