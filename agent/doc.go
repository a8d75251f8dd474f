// Package agent implements the ReAct execution state machine that drives a
// reasoning/acting/summarizing loop on behalf of an autonomous agent.
//
// Every phase boundary of the loop is exposed to an ordered chain of hooks
// (see the hook package) that may inspect, mutate, or redirect execution.
// The loop supports human-in-the-loop interruption: a hook observing a
// PostReasoning or PostActing event can request an early stop, and a later
// invocation with no new input resumes exactly where the previous one left
// off without duplicating or dropping messages.
//
// A single invocation executes as one logical sequential flow. Distinct
// invocations are independent and may run concurrently as long as they do
// not share an agent with a pending resume.
package agent
