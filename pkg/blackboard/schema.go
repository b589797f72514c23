package blackboard

import "fmt"

// Redis key pattern helpers
//
// All Redis keys are namespaced by session name to enable multiple conversation
// sessions to safely coexist on a single Redis server.
//
// Key pattern: barista:{session}:{entity}

// TranscriptKey returns the Redis key for the conversation transcript list.
// Pattern: barista:{session}:transcript
func TranscriptKey(session string) string {
	return fmt.Sprintf("barista:%s:transcript", session)
}

// LastInputKey returns the Redis key holding the most recent user input.
// Pattern: barista:{session}:last_input
func LastInputKey(session string) string {
	return fmt.Sprintf("barista:%s:last_input", session)
}

// IntentKey returns the Redis key for the current intent label.
// Pattern: barista:{session}:intent
func IntentKey(session string) string {
	return fmt.Sprintf("barista:%s:intent", session)
}

// EvidenceKey returns the Redis key for the evidence hash.
// Pattern: barista:{session}:evidence
func EvidenceKey(session string) string {
	return fmt.Sprintf("barista:%s:evidence", session)
}

// CauseQueueKey returns the Redis key for the FIFO cause queue list.
// Pattern: barista:{session}:cause_queue
func CauseQueueKey(session string) string {
	return fmt.Sprintf("barista:%s:cause_queue", session)
}

// CurrentCauseKey returns the Redis key for the in-flight cause pointer.
// Pattern: barista:{session}:current_cause
func CurrentCauseKey(session string) string {
	return fmt.Sprintf("barista:%s:current_cause", session)
}

// AgentStateKey returns the Redis key for a specialist's state value.
// Pattern: barista:{session}:agent:{agent_id}:state
func AgentStateKey(session string, agent AgentID) string {
	return fmt.Sprintf("barista:%s:agent:%s:state", session, agent)
}

// ContextBeanKey returns the Redis key for the bean-in-focus reference.
// The value is a catalog bean ID, not an owned copy.
// Pattern: barista:{session}:context:bean
func ContextBeanKey(session string) string {
	return fmt.Sprintf("barista:%s:context:bean", session)
}

// ContextRecipeKey returns the Redis key for the recipe-in-focus reference.
// Pattern: barista:{session}:context:recipe
func ContextRecipeKey(session string) string {
	return fmt.Sprintf("barista:%s:context:recipe", session)
}

// sessionKeys lists every key owned by a session, for ResetSession.
func sessionKeys(session string) []string {
	return []string{
		TranscriptKey(session),
		LastInputKey(session),
		IntentKey(session),
		EvidenceKey(session),
		CauseQueueKey(session),
		CurrentCauseKey(session),
		AgentStateKey(session, AgentDoctor),
		AgentStateKey(session, AgentBrewer),
		ContextBeanKey(session),
		ContextRecipeKey(session),
	}
}
