package core

import (
	"errors"
	"testing"
)

func TestNewTextMessage(t *testing.T) {
	m := NewTextMessage("user", "hello")
	if m.ID == "" {
		t.Fatal("expected generated id")
	}
	if m.Role != "user" {
		t.Fatalf("unexpected role %q", m.Role)
	}
	if m.Text() != "hello" {
		t.Fatalf("unexpected text %q", m.Text())
	}
	if m.Timestamp.IsZero() {
		t.Fatal("expected timestamp")
	}
}

func TestMessage_ToolCallsPreserveOrder(t *testing.T) {
	m := NewMessage("assistant")
	m.Parts = []Part{
		TextPart{Text: "calling tools"},
		ToolCallPart{ToolCall: ToolCall{ID: "c1", Name: "search"}},
		ToolCallPart{ToolCall: ToolCall{ID: "c2", Name: "fetch"}},
	}

	calls := m.ToolCalls()
	if len(calls) != 2 || calls[0].ID != "c1" || calls[1].ID != "c2" {
		t.Fatalf("unexpected calls: %#v", calls)
	}
}

func TestNewToolResultMessage(t *testing.T) {
	m := NewToolResultMessage("c1", "search", "42 results", nil)
	if m.Role != "tool" {
		t.Fatalf("unexpected role %q", m.Role)
	}
	trs := m.ToolResults()
	if len(trs) != 1 || trs[0].ID != "c1" || trs[0].Output != "42 results" || trs[0].Error != "" {
		t.Fatalf("unexpected results: %#v", trs)
	}

	failed := NewToolResultMessage("c2", "search", nil, errors.New("timeout"))
	if failed.ToolResults()[0].Error != "timeout" {
		t.Fatalf("expected error copied into result")
	}
}

func TestMessage_TextConcatenatesParts(t *testing.T) {
	m := NewMessage("assistant")
	m.Parts = []Part{
		TextPart{Text: "foo"},
		ToolCallPart{ToolCall: ToolCall{ID: "c1", Name: "noop"}},
		TextPart{Text: "bar"},
	}
	if m.Text() != "foobar" {
		t.Fatalf("unexpected text %q", m.Text())
	}
}

func TestCloneMessages_Isolation(t *testing.T) {
	orig := []Message{NewTextMessage("user", "a")}
	cp := CloneMessages(orig)
	cp[0].Parts[0] = TextPart{Text: "mutated"}
	if orig[0].Text() != "a" {
		t.Fatalf("expected clone isolation, got %q", orig[0].Text())
	}
}
