package script

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
)

// Verb identifies the engine call a [Command] makes.
type Verb string

const (
	VerbAdd    Verb = "add"
	VerbMove   Verb = "mv"
	VerbRemove Verb = "rm"
)

// arity is the number of arguments after the verb.
var arity = map[Verb]int{
	VerbAdd:    5,
	VerbMove:   3,
	VerbRemove: 1,
}

// Command is one parsed script line.
type Command struct {
	Line       int // 1-based; 0 for commands not read from a script
	Verb       Verb
	ID         string
	X, Y, W, H int
}

// String returns the canonical script form of c.
func (c Command) String() string {
	switch c.Verb {
	case VerbAdd:
		return fmt.Sprintf("add %s %d %d %d %d", c.ID, c.X, c.Y, c.W, c.H)
	case VerbMove:
		return fmt.Sprintf("mv %s %d %d", c.ID, c.X, c.Y)
	case VerbRemove:
		return "rm " + c.ID
	}
	return string(c.Verb)
}

// Apply performs c on e.
func (c Command) Apply(e *grid.Engine) error {
	switch c.Verb {
	case VerbAdd:
		_, err := e.AddItem(c.ID, c.X, c.Y, c.W, c.H)
		return err
	case VerbMove:
		return e.MoveItem(c.ID, c.X, c.Y)
	case VerbRemove:
		_, err := e.RemoveItem(c.ID)
		return err
	}
	return gerrors.New(gerrors.ErrCodeInvalidScript, "unknown instruction %q", c.Verb)
}

// Parse reads a whole script. It stops at the first invalid line.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		cmd, ok, err := ParseLine(sc.Text())
		if err != nil {
			return nil, gerrors.New(gerrors.ErrCodeInvalidScript, "line %d: %s", n, gerrors.UserMessage(err))
		}
		if !ok {
			continue
		}
		cmd.Line = n
		cmds = append(cmds, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return cmds, nil
}

// ParseLine parses a single instruction. It reports ok=false for blank and
// comment lines.
func ParseLine(line string) (cmd Command, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Command{}, false, nil
	}

	fields := strings.Fields(line)
	verb := Verb(fields[0])
	want, known := arity[verb]
	if !known {
		return Command{}, false, gerrors.New(gerrors.ErrCodeInvalidScript, "invalid instruction: %s", line)
	}
	args := fields[1:]
	if len(args) < want {
		return Command{}, false, gerrors.New(gerrors.ErrCodeInvalidScript,
			"%s needs %d arguments, got %d", verb, want, len(args))
	}

	cmd = Command{Verb: verb, ID: args[0]}
	nums := make([]int, want-1)
	for i := range nums {
		v, err := strconv.Atoi(args[i+1])
		if err != nil || v < 0 {
			return Command{}, false, gerrors.New(gerrors.ErrCodeInvalidScript,
				"%s: argument %d (%q) must be a non-negative integer", verb, i+2, args[i+1])
		}
		nums[i] = v
	}

	switch verb {
	case VerbAdd:
		cmd.X, cmd.Y, cmd.W, cmd.H = nums[0], nums[1], nums[2], nums[3]
	case VerbMove:
		cmd.X, cmd.Y = nums[0], nums[1]
	}
	return cmd, true, nil
}
