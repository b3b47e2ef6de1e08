package notify

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayQueue is a fixed-capacity FIFO holding messages while the broker is
// unreachable. Oldest messages are dropped on overflow.
// Not safe for concurrent use; the caller must synchronize.
type replayQueue struct {
	msgs  []queuedMsg
	next  int // next write position
	count int
}

func newReplayQueue(capacity int) *replayQueue {
	return &replayQueue{msgs: make([]queuedMsg, capacity)}
}

// push appends msg, overwriting the oldest entry when full. It reports
// whether an entry was dropped.
func (q *replayQueue) push(msg queuedMsg) bool {
	dropped := q.count == len(q.msgs)
	q.msgs[q.next] = msg
	q.next = (q.next + 1) % len(q.msgs)
	if !dropped {
		q.count++
	}
	return dropped
}

// drain returns all queued messages oldest-first and empties the queue.
func (q *replayQueue) drain() []queuedMsg {
	if q.count == 0 {
		return nil
	}

	out := make([]queuedMsg, q.count)
	start := (q.next - q.count + len(q.msgs)) % len(q.msgs)
	for i := range out {
		out[i] = q.msgs[(start+i)%len(q.msgs)]
	}

	q.next = 0
	q.count = 0
	return out
}

func (q *replayQueue) len() int {
	return q.count
}
