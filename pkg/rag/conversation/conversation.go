// Package conversation holds the per-assistant chat state machine. A conversation admits at
// most one turn in flight, attributes each answer's fragments to its turn, and discards
// results that arrive after a reset.
package conversation

import (
	"strings"
	"sync"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag"
	"study-assistant-be/pkg/rag/ledger"
)

type State string

const (
	StateIdle       State = "IDLE"
	StateProcessing State = "PROCESSING"
)

// Outcome is the result of a state transition. Rejections are policy outcomes, not errors.
type Outcome string

const (
	OutcomeAccepted               Outcome = "ACCEPTED"
	OutcomeEmptyQuery             Outcome = "EMPTY_QUERY"
	OutcomeConcurrentTurnRejected Outcome = "CONCURRENT_TURN_REJECTED"
	OutcomeStaleResultDiscarded   Outcome = "STALE_RESULT_DISCARDED"
	OutcomeNotProcessing          Outcome = "NOT_PROCESSING"
)

// Turn is one completed query/answer exchange.
type Turn struct {
	Index  int    `json:"index"`
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Ticket identifies one accepted submission. It carries the query and the history snapshot
// to hand to the retrieval engine, and must be presented back to Complete or Abort.
type Ticket struct {
	Assistant  string
	Generation uint64
	Query      string
	History    []rag.HistoryEntry
}

type Conversation struct {
	mu sync.Mutex

	assistant  string
	state      State
	pending    string
	generation uint64

	turns   []Turn
	history []rag.HistoryEntry
	ledger  *ledger.Ledger
	display DisplayRequest

	logger logger.ILogger
}

func New(assistant string, log logger.ILogger) *Conversation {
	return &Conversation{
		assistant: assistant,
		state:     StateIdle,
		ledger:    ledger.New(),
		display:   NoDisplay{},
		logger:    log,
	}
}

func (c *Conversation) Assistant() string {
	return c.assistant
}

// Submit moves an idle conversation to PROCESSING. A blank query or a submission while another
// turn is in flight changes nothing; the pending query keeps its first value.
func (c *Conversation) Submit(query string) (Ticket, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		return Ticket{}, OutcomeEmptyQuery
	}
	if c.state == StateProcessing {
		c.logger.Info("CONVERSATION", "Concurrent turn rejected", map[string]interface{}{
			"assistant": c.assistant,
			"pending":   c.pending,
			"dropped":   query,
		})
		return Ticket{}, OutcomeConcurrentTurnRejected
	}

	c.generation++
	c.state = StateProcessing
	c.pending = query

	return Ticket{
		Assistant:  c.assistant,
		Generation: c.generation,
		Query:      query,
		History:    append([]rag.HistoryEntry(nil), c.history...),
	}, OutcomeAccepted
}

// Completion is the turn a Complete call appended, with its de-duplicated fragments.
type Completion struct {
	Turn      Turn
	Fragments []rag.Fragment
}

// Complete appends the answered turn and attributes its fragments. Tickets issued before the
// most recent reset are discarded and yield a nil Completion.
func (c *Conversation) Complete(ticket Ticket, answer string, fragments []rag.Fragment) (*Completion, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if outcome := c.checkTicket(ticket, "complete"); outcome != OutcomeAccepted {
		return nil, outcome
	}

	index := len(c.turns)
	turn := Turn{Index: index, Query: c.pending, Answer: answer}
	c.turns = append(c.turns, turn)
	c.history = append(c.history,
		rag.HistoryEntry{Role: rag.RoleHuman, Text: c.pending},
		rag.HistoryEntry{Role: rag.RoleAI, Text: answer},
	)
	c.ledger.Attribute(index, fragments)

	c.state = StateIdle
	c.pending = ""
	return &Completion{Turn: turn, Fragments: c.ledger.FragmentsForTurn(index)}, OutcomeAccepted
}

// Abort returns the conversation to IDLE after the engine call for ticket failed.
func (c *Conversation) Abort(ticket Ticket) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if outcome := c.checkTicket(ticket, "abort"); outcome != OutcomeAccepted {
		return outcome
	}
	c.state = StateIdle
	c.pending = ""
	return OutcomeAccepted
}

func (c *Conversation) checkTicket(ticket Ticket, op string) Outcome {
	if ticket.Generation != c.generation {
		c.logger.Info("CONVERSATION", "Stale result discarded", map[string]interface{}{
			"assistant":         c.assistant,
			"op":                op,
			"ticket_generation": ticket.Generation,
			"generation":        c.generation,
		})
		return OutcomeStaleResultDiscarded
	}
	if c.state != StateProcessing {
		c.logger.Warn("CONVERSATION", "No turn in flight", map[string]interface{}{
			"assistant": c.assistant,
			"op":        op,
		})
		return OutcomeNotProcessing
	}
	return OutcomeAccepted
}

// Reset clears turns, raw history, attributions and the display request. An in-flight
// result that arrives later is discarded.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.state = StateIdle
	c.pending = ""
	c.turns = nil
	c.history = nil
	c.ledger.Reset()
	c.display = NoDisplay{}
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the in-flight query, or "" when idle.
func (c *Conversation) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.turns...)
}

func (c *Conversation) History() []rag.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]rag.HistoryEntry(nil), c.history...)
}

func (c *Conversation) FragmentsForTurn(turn int) []rag.Fragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.FragmentsForTurn(turn)
}

func (c *Conversation) TurnGroupedByFile(turn int) []ledger.FileGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.TurnGroupedByFile(turn)
}

// GroupedByFile returns every fragment referenced so far, grouped by source file.
func (c *Conversation) GroupedByFile() []ledger.FileGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.GroupedByFile()
}

// ReferencedFragments is the size of the conversation-lifetime union.
func (c *Conversation) ReferencedFragments() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Len()
}
