// Package cmdline is a small command-tree CLI framework: commands with subcommands, typed long/short flags (local or inherited by descendants), positional arg
// validation, generated help, and exit-code mapping (0 success, 1 failure, 2 usage error).
package cmdline

// RunFunc is a command handler.
type RunFunc func(c *Context) error

// ArgsFunc validates positional args. Returning a UsageError makes Run print help and exit with 2.
type ArgsFunc func(args []string) error

// Command is one node in a command tree.
type Command struct {
	// Name is the token that selects this command ("merge" in "xdiff merge").
	Name string

	Short   string // one-line description shown in the parent's command list
	Long    string
	Example string

	Args ArgsFunc // optional
	Run  RunFunc  // nil for commands that only group subcommands

	parent     *Command
	children   []*Command
	local      *FlagSet
	persistent *FlagSet
}

// AddCommand attaches children to c. It panics on a nil, unnamed, or already attached child.
func (c *Command) AddCommand(children ...*Command) {
	for _, child := range children {
		switch {
		case child == nil:
			panic("cmdline: AddCommand called with nil child")
		case child.parent != nil:
			panic("cmdline: AddCommand called with a child already attached to a parent")
		case child.Name == "":
			panic("cmdline: AddCommand called with a child with empty Name")
		}
		c.children = append(c.children, child)
		child.parent = c
	}
}

// Commands returns a copy of c's direct children.
func (c *Command) Commands() []*Command {
	return append([]*Command(nil), c.children...)
}

// Flags returns the flags that apply only to c.
func (c *Command) Flags() *FlagSet {
	if c.local == nil {
		c.local = newFlagSet()
	}
	return c.local
}

// PersistentFlags returns the flags that apply to c and all of its descendants.
func (c *Command) PersistentFlags() *FlagSet {
	if c.persistent == nil {
		c.persistent = newFlagSet()
	}
	return c.persistent
}

func (c *Command) child(token string) *Command {
	for _, child := range c.children {
		if child.Name == token {
			return child
		}
	}
	return nil
}

// path returns the commands from the root down to c.
func (c *Command) path() []*Command {
	var cmds []*Command
	for cur := c; cur != nil; cur = cur.parent {
		cmds = append([]*Command{cur}, cmds...)
	}
	return cmds
}
