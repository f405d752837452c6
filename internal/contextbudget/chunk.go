package contextbudget

import "github.com/cloudwego/eino/schema"

// Chunk is a contiguous run of messages that must be kept or dropped
// together: a user turn and everything the agent does in response to it
// (assistant messages, tool calls, tool results) stays bundled as one whole
// exchange, so compaction never slices mid-tool-call and leaves a dangling
// tool result with no matching call in the trimmed history.
type Chunk struct {
	Messages []*schema.Message
	Start    int // index of Messages[0] in the original slice
	// Score is the chunk's importance, the average of its members' scores —
	// a whole exchange is worth keeping in proportion to how important it
	// is as a unit, not just its single most important message.
	Score Importance
}

// BuildChunks partitions messages into whole exchanges: everything from one
// user message up to (but not including) the next is one chunk. Any
// messages preceding the first user turn (a leading system prompt, for
// instance) form their own leading chunk.
func BuildChunks(messages []*schema.Message) []Chunk {
	var chunks []Chunk
	i := 0
	for i < len(messages) {
		start := i
		group := []*schema.Message{messages[i]}
		i++

		for i < len(messages) && messages[i].Role != schema.User {
			group = append(group, messages[i])
			i++
		}

		chunks = append(chunks, Chunk{Messages: group, Start: start})
	}
	return chunks
}

// ScoreChunks assigns each chunk its aggregate importance given the full
// message slice it was built from (needed for recency-relative scoring).
func ScoreChunks(chunks []Chunk, total int) []Chunk {
	for ci, c := range chunks {
		sum := 0
		for offset, m := range c.Messages {
			sum += int(Score(m, c.Start+offset, total))
		}
		chunks[ci].Score = Importance(sum / len(c.Messages))
	}
	return chunks
}

// Flatten reassembles chunks back into a flat message slice, preserving
// order.
func Flatten(chunks []Chunk) []*schema.Message {
	var out []*schema.Message
	for _, c := range chunks {
		out = append(out, c.Messages...)
	}
	return out
}
