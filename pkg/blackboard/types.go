package blackboard

import "fmt"

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser marks messages typed by the human.
	RoleUser Role = "user"

	// RoleAssistant marks messages produced by an agent.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the ordered, append-only conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Intent is the current conversation topic label. Changing it cascade-resets
// both specialists' progress (see Client.SetIntent); an empty Intent means the
// topic has not been classified yet.
type Intent string

const (
	// IntentDoctor routes the conversation to the diagnostic specialist.
	IntentDoctor Intent = "doctor"

	// IntentBrewer routes the conversation to the recipe specialist.
	IntentBrewer Intent = "master_brewer"

	// IntentSommelier routes the conversation to the recommendation specialist.
	IntentSommelier Intent = "sommelier"
)

// Validate checks if the Intent is a recognized topic label.
func (i Intent) Validate() error {
	switch i {
	case IntentDoctor, IntentBrewer, IntentSommelier:
		return nil
	default:
		return fmt.Errorf("unknown intent: %q", i)
	}
}

// AgentID identifies a specialist state machine on the blackboard.
type AgentID string

const (
	// AgentDoctor is the diagnostic Q&A state machine.
	AgentDoctor AgentID = "doctor"

	// AgentBrewer is the recipe resolution state machine.
	AgentBrewer AgentID = "brewer"
)

// DoctorState enumerates the diagnostic state machine's states.
type DoctorState string

const (
	DoctorInit       DoctorState = "INIT"
	DoctorAskBean    DoctorState = "ASK_BEAN"
	DoctorWaitBean   DoctorState = "WAIT_BEAN"
	DoctorWaitMethod DoctorState = "WAIT_METHOD"
	DoctorDiagnosing DoctorState = "DIAGNOSING"
	DoctorWaitAnswer DoctorState = "WAIT_ANSWER"
	DoctorSynthesize DoctorState = "SYNTHESIZE"
	DoctorDone       DoctorState = "DONE"
)

// Validate checks if the DoctorState is a valid enum value.
func (s DoctorState) Validate() error {
	switch s {
	case DoctorInit, DoctorAskBean, DoctorWaitBean, DoctorWaitMethod,
		DoctorDiagnosing, DoctorWaitAnswer, DoctorSynthesize, DoctorDone:
		return nil
	default:
		return fmt.Errorf("unknown doctor state: %q", s)
	}
}

// Busy reports whether the doctor owns an in-flight multi-turn exchange.
// A busy doctor blocks intent reclassification until the exchange completes.
func (s DoctorState) Busy() bool {
	return s != DoctorInit && s != DoctorDone
}

// BrewerState enumerates the recipe resolution state machine's states.
type BrewerState string

const (
	BrewerInit                BrewerState = "INIT"
	BrewerWaitMethodSelection BrewerState = "WAIT_METHOD_SELECTION"
	BrewerGatherAttrs         BrewerState = "CBR_GATHER_ATTRS"
)

// Validate checks if the BrewerState is a valid enum value.
func (s BrewerState) Validate() error {
	switch s {
	case BrewerInit, BrewerWaitMethodSelection, BrewerGatherAttrs:
		return nil
	default:
		return fmt.Errorf("unknown brewer state: %q", s)
	}
}

// Busy reports whether the brewer owns an in-flight multi-turn exchange.
func (s BrewerState) Busy() bool {
	return s != BrewerInit
}

// CauseItem is one pending diagnostic check: a cause key plus its question
// template and documented fix. Items are queued FIFO per diagnosis session.
type CauseItem struct {
	Key      string `json:"key"`
	Question string `json:"question"`
	Solution string `json:"solution"`
}

// Validate checks if the CauseItem carries the minimum required fields.
func (c *CauseItem) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("cause key cannot be empty")
	}
	if c.Question == "" {
		return fmt.Errorf("cause %q: question cannot be empty", c.Key)
	}
	return nil
}

// Well-known evidence keys. Evidence is append/overwrite only and survives
// intent changes; see Client.SetIntent and Client.ClearShortTermMemory.
const (
	// EvidenceInitialProblem holds the classified top-level problem category.
	EvidenceInitialProblem = "initial_problem_classification"

	// EvidenceProblemKey holds the problem category the active diagnosis
	// session was built from, kept for synthesis.
	EvidenceProblemKey = "current_problem_key"

	// EvidenceBeanName holds the user's free-text answer naming their bean.
	EvidenceBeanName = "user_bean_name"

	// EvidenceBrewMethod holds the user's (or the assumed default) brew method.
	EvidenceBrewMethod = "user_brew_method"

	// ConfirmedPrefix prefixes evidence keys for causes judged present.
	ConfirmedPrefix = "confirmed:"

	// RejectedPrefix prefixes evidence keys for causes judged absent.
	RejectedPrefix = "rejected:"
)
