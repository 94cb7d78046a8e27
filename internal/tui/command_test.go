package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"quit", Command{Name: CmdQuit}},
		{"q", Command{Name: CmdQuit}},
		{"  INVITE  ", Command{Name: CmdInvite}},
		{"?", Command{Name: CmdHelp}},
		{"nick  ana b ", Command{Name: "nick", Args: "ana b"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCommand(tt.in), tt.in)
	}
}
