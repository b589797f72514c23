// Package blackboard provides type-safe Go definitions and Redis schema patterns
// for the Barista blackboard architecture. The blackboard is the central shared
// state system where all Barista agents (intent, sommelier, brewer, doctor) and
// the turn coordinator interact via well-defined data structures stored in Redis.
//
// All Redis keys are namespaced by session name so that multiple conversation
// sessions can safely coexist on a single Redis server. One Client serves exactly
// one session, and the turn protocol assumes the session is driven by a single
// coordinator at a time: the store itself takes no locks.
//
// The store separates long-term from short-term memory. Evidence collected during
// a diagnosis survives intent changes; the per-agent progress (agent states, the
// cause queue and the current cause pointer) is cascade-reset whenever the intent
// actually changes. ClearShortTermMemory resets intent, context references and
// evidence but always preserves the transcript.
package blackboard
