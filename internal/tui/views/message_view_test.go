package views

import (
	"strings"
	"testing"

	"github.com/matheus3301/huddle/internal/remote"
	"github.com/stretchr/testify/assert"
)

func msg(id, user, text, hhmm string) remote.Message {
	return remote.Message{ID: id, Record: remote.Record{Username: user, Text: text, Time: hhmm}}
}

func TestFormatMessage(t *testing.T) {
	got := formatMessage(msg("a", "ana", "hi", "16:00"), "bob")
	assert.Equal(t, "[aqua::b]ana[-:-:-] [::d]16:00[-:-:-]\nhi\n\n", got)

	own := formatMessage(msg("b", "bob", "yo", "16:01"), "bob")
	assert.Contains(t, own, "[green::b]bob")
}

func TestFormatMessageEscapesTags(t *testing.T) {
	got := formatMessage(msg("a", "ana", "[red]not red[-]", "16:00"), "")
	assert.NotContains(t, got, "\n[red]")
	assert.Contains(t, got, "not red")
}

func TestFormatMessagesKeepsOrder(t *testing.T) {
	out := formatMessages([]remote.Message{
		msg("b", "bob", "second", "09:00"),
		msg("a", "ana", "first", "08:00"),
	}, "")
	assert.Less(t, strings.Index(out, "second"), strings.Index(out, "first"))
}

