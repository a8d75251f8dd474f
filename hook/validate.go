package hook

import (
	"fmt"

	"github.com/hupe1980/agentloop/core"
)

// ValidateReentry checks messages injected for a reasoning reentry against
// the pending tool calls of the given reasoning result.
//
// When the result has no pending tool calls, any message list is accepted
// (free-form hints or prompts). When tool calls are pending, msgs must
// collectively contain exactly one matching tool result per pending call id;
// extra non-tool-result messages may be present, but missing, duplicated or
// unknown tool results are rejected.
//
// The check runs purely on the data provided and has no side effects beyond
// accept/reject.
func ValidateReentry(result core.Message, msgs []core.Message) error {
	pending := result.ToolCalls()
	if len(pending) == 0 {
		return nil
	}

	pendingIDs := make(map[string]bool, len(pending))
	for _, tc := range pending {
		pendingIDs[tc.ID] = true
	}

	seen := make(map[string]int, len(pending))
	for _, m := range msgs {
		for _, tr := range m.ToolResults() {
			if !pendingIDs[tr.ID] {
				return fmt.Errorf("reentry carries tool result for unknown call id %q", tr.ID)
			}
			seen[tr.ID]++
		}
	}

	for _, tc := range pending {
		switch seen[tc.ID] {
		case 0:
			return fmt.Errorf("reentry missing tool result for pending call id %q (tool %s)", tc.ID, tc.Name)
		case 1:
			// exactly one match
		default:
			return fmt.Errorf("reentry carries %d tool results for call id %q, want exactly one", seen[tc.ID], tc.ID)
		}
	}

	return nil
}
