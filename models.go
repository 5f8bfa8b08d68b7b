package main

// Reserved transcript roles. Any other role value is a model's display
// name, which acts as an assistant voice once the model has spoken.
// Display names must not collide with the reserved roles.
const (
	RoleSystem = "system"
	RoleInput  = "input"
)

// Debate phases, in protocol order.
const (
	PhasePropose    = "propose"
	PhaseCritique   = "critique"
	PhaseSynthesize = "synthesize"
)

// Message represents a single transcript entry. Phase is set only on
// model turns.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Phase   string `json:"phase,omitempty"`
}

// IsSystem reports whether the message is a system instruction.
func (m Message) IsSystem() bool { return m.Role == RoleSystem }

// IsInput reports whether the message is user input.
func (m Message) IsInput() bool { return m.Role == RoleInput }

// IsModelTurn reports whether the message was produced by a model.
func (m Message) IsModelTurn() bool { return m.Role != RoleSystem && m.Role != RoleInput }

// SessionData is the on-disk JSON representation of one debate session.
type SessionData struct {
	SessionID        string `json:"session_id"`
	CreatedTimestamp string `json:"created_timestamp,omitempty"`
	LastUpdated      string `json:"last_updated,omitempty"`
	// Timestamp is the single timestamp field written by an older
	// format revision. Readers fall back to it when last_updated is
	// absent; writers never set it.
	Timestamp string    `json:"timestamp,omitempty"`
	Messages  []Message `json:"messages"`
}

// SessionSummary is one row of a session listing.
type SessionSummary struct {
	Path      string `json:"path"`
	SessionID string `json:"session_id"`
	Created   string `json:"created"`
	Updated   string `json:"updated"`
	Preview   string `json:"preview"`
}

// ModelConfig describes one debate participant. The API key may be
// given directly or as the name of an environment variable to resolve.
type ModelConfig struct {
	Name                string                 `json:"name"`
	ModelName           string                 `json:"model_name"`
	APIKey              string                 `json:"api_key,omitempty"`
	APIKeyEnv           string                 `json:"api_key_env,omitempty"`
	BaseURL             string                 `json:"base_url,omitempty"`
	MaxCompletionTokens int                    `json:"max_completion_tokens,omitempty"`
	ExtraBody           map[string]interface{} `json:"extra_body,omitempty"`
}

// DebateConfig is the top-level model configuration file.
type DebateConfig struct {
	Models []ModelConfig `json:"models"`
}

// ChatMessage is a message in the chat-completions wire format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatAPIResponse is the chat-completions response structure.
type ChatAPIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// PhaseResponse is one model's labeled response within a phase.
type PhaseResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// CycleResults holds the responses of one full three-phase cycle,
// grouped by phase in turn order.
type CycleResults struct {
	Propose    []PhaseResponse `json:"propose"`
	Critique   []PhaseResponse `json:"critique"`
	Synthesize []PhaseResponse `json:"synthesize"`
}

// RunDebateRequest is a request to run one debate cycle.
type RunDebateRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// RunDebateResponse is returned after a full cycle completes.
type RunDebateResponse struct {
	SessionID string        `json:"session_id"`
	Results   *CycleResults `json:"results"`
}

// FetchURLRequest is a request to extract debate topic content from a URL.
type FetchURLRequest struct {
	URL string `json:"url" binding:"required"`
}
