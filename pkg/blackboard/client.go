package blackboard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Client provides session-scoped Redis operations for the blackboard.
// All keys are automatically namespaced with the session name. The client
// assumes exclusive single-session ownership: the turn coordinator mutates the
// store strictly sequentially, so no locking primitives are used.
type Client struct {
	rdb     *redis.Client
	session string
}

// NewClient creates a new blackboard client for the specified session.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - session: conversation session identifier (must not be empty)
//
// Returns an error if session is empty.
func NewClient(redisOpts *redis.Options, session string) (*Client, error) {
	if session == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	return &Client{
		rdb:     redis.NewClient(redisOpts),
		session: session,
	}, nil
}

// Session returns the session name this client is scoped to.
func (c *Client) Session() string {
	return c.session
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AppendUserMessage appends a user message to the transcript and records it as
// the last user input consumed by the agents this turn.
func (c *Client) AppendUserMessage(ctx context.Context, text string) error {
	if err := c.appendMessage(ctx, Message{Role: RoleUser, Content: text}); err != nil {
		return err
	}

	if err := c.rdb.Set(ctx, LastInputKey(c.session), text, 0).Err(); err != nil {
		return fmt.Errorf("failed to record last user input: %w", err)
	}

	return nil
}

// AppendAssistantMessage appends an assistant message to the transcript.
func (c *Client) AppendAssistantMessage(ctx context.Context, text string) error {
	return c.appendMessage(ctx, Message{Role: RoleAssistant, Content: text})
}

func (c *Client) appendMessage(ctx context.Context, m Message) error {
	entry, err := EncodeMessage(m)
	if err != nil {
		return err
	}

	if err := c.rdb.RPush(ctx, TranscriptKey(c.session), entry).Err(); err != nil {
		return fmt.Errorf("failed to append %s message: %w", m.Role, err)
	}

	return nil
}

// Transcript returns the full ordered transcript.
func (c *Client) Transcript(ctx context.Context) ([]Message, error) {
	return c.TranscriptFrom(ctx, 0)
}

// TranscriptFrom returns the transcript entries from index start onwards.
func (c *Client) TranscriptFrom(ctx context.Context, start int64) ([]Message, error) {
	raw, err := c.rdb.LRange(ctx, TranscriptKey(c.session), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, entry := range raw {
		m, err := DecodeMessage(entry)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// TranscriptLen returns the number of transcript entries.
func (c *Client) TranscriptLen(ctx context.Context) (int64, error) {
	n, err := c.rdb.LLen(ctx, TranscriptKey(c.session)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read transcript length: %w", err)
	}
	return n, nil
}

// LastMessage returns the most recent transcript entry.
// The second return value is false when the transcript is empty.
func (c *Client) LastMessage(ctx context.Context) (Message, bool, error) {
	raw, err := c.rdb.LIndex(ctx, TranscriptKey(c.session), -1).Result()
	if err == redis.Nil {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("failed to read last message: %w", err)
	}

	m, err := DecodeMessage(raw)
	if err != nil {
		return Message{}, false, err
	}

	return m, true, nil
}

// LastUserInput returns the most recent user input, or "" if none was recorded.
func (c *Client) LastUserInput(ctx context.Context) (string, error) {
	text, err := c.rdb.Get(ctx, LastInputKey(c.session)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last user input: %w", err)
	}
	return text, nil
}

// SetIntent sets the current topic label. A no-op when the label equals the
// current intent. On an actual change it cascade-resets short-term progress:
// doctor state back to INIT, brewer state back to INIT, cause queue and
// current-cause pointer cleared. Evidence is deliberately left untouched so the
// system keeps long-term memory across topic changes.
func (c *Client) SetIntent(ctx context.Context, intent Intent) error {
	if err := intent.Validate(); err != nil {
		return err
	}

	current, err := c.Intent(ctx)
	if err != nil {
		return err
	}
	if current == intent {
		return nil
	}

	log.Printf("[Blackboard] intent change: %q -> %q (resetting specialist progress)", current, intent)

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, IntentKey(c.session), string(intent), 0)
	pipe.Set(ctx, AgentStateKey(c.session, AgentDoctor), string(DoctorInit), 0)
	pipe.Set(ctx, AgentStateKey(c.session, AgentBrewer), string(BrewerInit), 0)
	pipe.Del(ctx, CauseQueueKey(c.session))
	pipe.Del(ctx, CurrentCauseKey(c.session))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set intent: %w", err)
	}

	return nil
}

// Intent returns the current topic label, or "" when unclassified.
func (c *Client) Intent(ctx context.Context) (Intent, error) {
	label, err := c.rdb.Get(ctx, IntentKey(c.session)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read intent: %w", err)
	}
	return Intent(label), nil
}

// SetAgentState records a specialist's raw state value. Last write wins.
func (c *Client) SetAgentState(ctx context.Context, agent AgentID, state string) error {
	if err := c.rdb.Set(ctx, AgentStateKey(c.session, agent), state, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s state: %w", agent, err)
	}
	return nil
}

// AgentState returns a specialist's raw state value, or "" when unset.
func (c *Client) AgentState(ctx context.Context, agent AgentID) (string, error) {
	state, err := c.rdb.Get(ctx, AgentStateKey(c.session, agent)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s state: %w", agent, err)
	}
	return state, nil
}

// DoctorState returns the diagnostic state machine's state, defaulting to INIT.
func (c *Client) DoctorState(ctx context.Context) (DoctorState, error) {
	raw, err := c.AgentState(ctx, AgentDoctor)
	if err != nil {
		return DoctorInit, err
	}
	if raw == "" {
		return DoctorInit, nil
	}

	state := DoctorState(raw)
	if err := state.Validate(); err != nil {
		return DoctorInit, err
	}
	return state, nil
}

// SetDoctorState records the diagnostic state machine's state.
func (c *Client) SetDoctorState(ctx context.Context, state DoctorState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	return c.SetAgentState(ctx, AgentDoctor, string(state))
}

// BrewerState returns the recipe state machine's state, defaulting to INIT.
func (c *Client) BrewerState(ctx context.Context) (BrewerState, error) {
	raw, err := c.AgentState(ctx, AgentBrewer)
	if err != nil {
		return BrewerInit, err
	}
	if raw == "" {
		return BrewerInit, nil
	}

	state := BrewerState(raw)
	if err := state.Validate(); err != nil {
		return BrewerInit, err
	}
	return state, nil
}

// SetBrewerState records the recipe state machine's state.
func (c *Client) SetBrewerState(ctx context.Context, state BrewerState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	return c.SetAgentState(ctx, AgentBrewer, string(state))
}

// UpsertEvidence records a confidence factor under the given evidence key,
// overwriting any previous value for the key.
func (c *Client) UpsertEvidence(ctx context.Context, key string, cf float64) error {
	if err := c.rdb.HSet(ctx, EvidenceKey(c.session), key, FormatCF(cf)).Err(); err != nil {
		return fmt.Errorf("failed to upsert evidence %q: %w", key, err)
	}
	return nil
}

// EvidenceCF returns the confidence factor stored under key.
// The second return value is false when the key is unset or holds free text.
func (c *Client) EvidenceCF(ctx context.Context, key string) (float64, bool, error) {
	raw, err := c.rdb.HGet(ctx, EvidenceKey(c.session), key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read evidence %q: %w", key, err)
	}

	cf, err := ParseCF(raw)
	if err != nil {
		return 0, false, nil
	}
	return cf, true, nil
}

// SetEvidenceText records a free-text fact in the evidence hash. Text facts
// share the evidence lifecycle: preserved across intent changes, cleared only
// by ClearShortTermMemory.
func (c *Client) SetEvidenceText(ctx context.Context, key, text string) error {
	if err := c.rdb.HSet(ctx, EvidenceKey(c.session), key, text).Err(); err != nil {
		return fmt.Errorf("failed to set evidence text %q: %w", key, err)
	}
	return nil
}

// EvidenceText returns the free-text fact stored under key, or "" when unset.
func (c *Client) EvidenceText(ctx context.Context, key string) (string, error) {
	raw, err := c.rdb.HGet(ctx, EvidenceKey(c.session), key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read evidence text %q: %w", key, err)
	}
	return raw, nil
}

// Evidence returns the raw evidence hash. Values are either formatted
// confidence factors or free-text facts; use ParseCF to distinguish.
func (c *Client) Evidence(ctx context.Context) (map[string]string, error) {
	evidence, err := c.rdb.HGetAll(ctx, EvidenceKey(c.session)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence: %w", err)
	}
	return evidence, nil
}

// PushCauses appends cause items to the FIFO cause queue.
func (c *Client) PushCauses(ctx context.Context, items []CauseItem) error {
	if len(items) == 0 {
		return nil
	}

	entries := make([]interface{}, 0, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("invalid cause item: %w", err)
		}
		entry, err := EncodeCause(items[i])
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	if err := c.rdb.RPush(ctx, CauseQueueKey(c.session), entries...).Err(); err != nil {
		return fmt.Errorf("failed to push cause queue: %w", err)
	}

	return nil
}

// PopCause removes and returns the next cause item and records it as the
// current-cause pointer. Returns ok=false on an empty queue, leaving the
// current-cause pointer untouched.
func (c *Client) PopCause(ctx context.Context) (CauseItem, bool, error) {
	raw, err := c.rdb.LPop(ctx, CauseQueueKey(c.session)).Result()
	if err == redis.Nil {
		return CauseItem{}, false, nil
	}
	if err != nil {
		return CauseItem{}, false, fmt.Errorf("failed to pop cause queue: %w", err)
	}

	item, err := DecodeCause(raw)
	if err != nil {
		return CauseItem{}, false, err
	}

	if err := c.rdb.Set(ctx, CurrentCauseKey(c.session), raw, 0).Err(); err != nil {
		return CauseItem{}, false, fmt.Errorf("failed to record current cause: %w", err)
	}

	return item, true, nil
}

// CurrentCause returns the in-flight cause awaiting a user answer.
// Returns ok=false when no cause is pending.
func (c *Client) CurrentCause(ctx context.Context) (CauseItem, bool, error) {
	raw, err := c.rdb.Get(ctx, CurrentCauseKey(c.session)).Result()
	if err == redis.Nil {
		return CauseItem{}, false, nil
	}
	if err != nil {
		return CauseItem{}, false, fmt.Errorf("failed to read current cause: %w", err)
	}

	item, err := DecodeCause(raw)
	if err != nil {
		return CauseItem{}, false, err
	}

	return item, true, nil
}

// ClearCurrentCause unsets the in-flight cause pointer.
func (c *Client) ClearCurrentCause(ctx context.Context) error {
	if err := c.rdb.Del(ctx, CurrentCauseKey(c.session)).Err(); err != nil {
		return fmt.Errorf("failed to clear current cause: %w", err)
	}
	return nil
}

// CauseQueueLen returns the number of pending cause items.
func (c *Client) CauseQueueLen(ctx context.Context) (int64, error) {
	n, err := c.rdb.LLen(ctx, CauseQueueKey(c.session)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read cause queue length: %w", err)
	}
	return n, nil
}

// SetContextBean records the bean-in-focus as a catalog ID reference.
func (c *Client) SetContextBean(ctx context.Context, beanID string) error {
	if err := c.rdb.Set(ctx, ContextBeanKey(c.session), beanID, 0).Err(); err != nil {
		return fmt.Errorf("failed to set context bean: %w", err)
	}
	return nil
}

// ContextBeanID returns the bean-in-focus catalog ID, or "" when unset.
func (c *Client) ContextBeanID(ctx context.Context) (string, error) {
	id, err := c.rdb.Get(ctx, ContextBeanKey(c.session)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read context bean: %w", err)
	}
	return id, nil
}

// SetContextRecipe records the recipe-in-focus as a catalog ID reference.
func (c *Client) SetContextRecipe(ctx context.Context, recipeID string) error {
	if err := c.rdb.Set(ctx, ContextRecipeKey(c.session), recipeID, 0).Err(); err != nil {
		return fmt.Errorf("failed to set context recipe: %w", err)
	}
	return nil
}

// ContextRecipeID returns the recipe-in-focus catalog ID, or "" when unset.
func (c *Client) ContextRecipeID(ctx context.Context) (string, error) {
	id, err := c.rdb.Get(ctx, ContextRecipeKey(c.session)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read context recipe: %w", err)
	}
	return id, nil
}

// ClearShortTermMemory resets the conversation context when the topic changes
// drastically: intent, context references, evidence, agent states and the
// cause queue are cleared. The transcript is always preserved. Agent states
// are included because a busy state machine with no intent behind it could
// never be unlocked again.
func (c *Client) ClearShortTermMemory(ctx context.Context) error {
	log.Printf("[Blackboard] short-term memory cleared for session %q", c.session)

	err := c.rdb.Del(ctx,
		IntentKey(c.session),
		ContextBeanKey(c.session),
		ContextRecipeKey(c.session),
		EvidenceKey(c.session),
		AgentStateKey(c.session, AgentDoctor),
		AgentStateKey(c.session, AgentBrewer),
		CauseQueueKey(c.session),
		CurrentCauseKey(c.session),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to clear short-term memory: %w", err)
	}

	return nil
}

// ResetSession deletes every key owned by this session, transcript included.
func (c *Client) ResetSession(ctx context.Context) error {
	if err := c.rdb.Del(ctx, sessionKeys(c.session)...).Err(); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
