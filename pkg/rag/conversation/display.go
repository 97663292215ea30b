package conversation

import (
	"errors"

	"study-assistant-be/pkg/rag"
)

var (
	ErrTurnNotFound = errors.New("turn not found")
	ErrNoFragments  = errors.New("no fragments cited from this file")
)

// AllTurns selects the conversation-lifetime union instead of a single turn.
const AllTurns = -1

// DisplayRequest is what the UI should be showing besides the chat itself.
// It is either NoDisplay or ShowFragments.
type DisplayRequest interface {
	displayRequest()
}

type NoDisplay struct{}

// ShowFragments asks the UI to open the fragments one file contributed to a turn, or to the
// whole conversation when Turn is AllTurns.
type ShowFragments struct {
	Turn      int
	Filename  string
	Fragments []rag.Fragment
}

func (NoDisplay) displayRequest()     {}
func (ShowFragments) displayRequest() {}

// ShowFragments resolves the fragments filename contributed and records them as the current
// display request.
func (c *Conversation) ShowFragments(turn int, filename string) (ShowFragments, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fragments []rag.Fragment
	if turn == AllTurns {
		for _, g := range c.ledger.GroupedByFile() {
			if g.Filename == filename {
				fragments = g.Fragments
			}
		}
	} else {
		if turn < 0 || turn >= len(c.turns) {
			return ShowFragments{}, ErrTurnNotFound
		}
		for _, g := range c.ledger.TurnGroupedByFile(turn) {
			if g.Filename == filename {
				fragments = g.Fragments
			}
		}
	}
	if len(fragments) == 0 {
		return ShowFragments{}, ErrNoFragments
	}

	req := ShowFragments{Turn: turn, Filename: filename, Fragments: fragments}
	c.display = req
	return req, nil
}

func (c *Conversation) Display() DisplayRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

func (c *Conversation) CloseDisplay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display = NoDisplay{}
}
