package conversation

import (
	"browser_agent/domain/entities"
	"slices"
)

// history is the ordered message list. Entry 0 is the system preamble
// and survives every reset.
type history struct {
	entries []entities.Message
}

func newHistory(preamble entities.Message) *history {
	return &history{entries: []entities.Message{preamble}}
}

func (h *history) append(msg entities.Message) {
	h.entries = append(h.entries, msg)
}

// resetToPreamble drops every turn after the preamble.
func (h *history) resetToPreamble() {
	clear(h.entries[1:])
	h.entries = h.entries[:1]
}

func (h *history) len() int {
	return len(h.entries)
}

func (h *history) messages() []entities.Message {
	return slices.Clone(h.entries)
}
