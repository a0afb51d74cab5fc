package discord

// transcript collects formatted lines for one channel
type transcript struct {
	lines []string
}

// append adds a line to the channel's transcript. When the transcript
// reaches the batch size its lines are returned and the transcript starts
// over; otherwise append returns nil.
func (h *Handler) append(channelID, line string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.buffers[channelID]
	if !ok {
		t = &transcript{}
		h.buffers[channelID] = t
	}
	t.lines = append(t.lines, line)
	if len(t.lines) < h.every {
		return nil
	}

	batch := t.lines
	t.lines = nil
	return batch
}

// Pending returns how many lines are buffered for a channel
func (h *Handler) Pending(channelID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.buffers[channelID]; ok {
		return len(t.lines)
	}
	return 0
}
