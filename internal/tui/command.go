package tui

import "strings"

// Composer commands, typed with a leading '/'.
const (
	CmdHelp   = "help"
	CmdInvite = "invite"
	CmdQuit   = "quit"
)

// Command is a parsed composer command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command line without its leading '/'.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	switch cmd.Name {
	case "q", "exit":
		cmd.Name = CmdQuit
	case "?", "h":
		cmd.Name = CmdHelp
	}
	return cmd
}
