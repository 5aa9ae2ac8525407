package cmdline

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

func writeHelp(w io.Writer, cmd *Command) {
	name := displayName(cmd)
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s - %s\n", name, cmd.Short)
	} else {
		fmt.Fprintf(w, "%s\n", name)
	}
	if cmd.Long != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(cmd.Long, "\n"))
	}

	fmt.Fprintf(w, "\nUsage:\n  %s\n", usageLine(cmd))

	if len(cmd.children) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		children := cmd.Commands()
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		for _, child := range children {
			fmt.Fprintf(w, "  %-10s %s\n", child.Name, child.Short)
		}
	}

	if flags := cmd.active().sorted(); len(flags) > 0 {
		fmt.Fprintln(w, "\nFlags:")
		for _, f := range flags {
			fmt.Fprintln(w, flagHelpLine(f))
		}
	}

	if cmd.Example != "" {
		fmt.Fprintln(w, "\nExample:")
		for _, line := range strings.Split(strings.TrimRight(cmd.Example, "\n"), "\n") {
			if line == "" {
				fmt.Fprintln(w)
				continue
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func displayName(cmd *Command) string {
	var parts []string
	for _, c := range cmd.path() {
		parts = append(parts, c.Name)
	}
	return strings.Join(parts, " ")
}

func usageLine(cmd *Command) string {
	segments := []string{displayName(cmd)}
	if len(cmd.active().byName) > 0 {
		segments = append(segments, "[flags]")
	}
	if len(cmd.children) > 0 {
		if cmd.Run == nil {
			segments = append(segments, "<command>")
		} else {
			segments = append(segments, "[command]")
		}
	}
	if cmd.Run != nil {
		segments = append(segments, "[args]")
	}
	return strings.Join(segments, " ")
}

func flagHelpLine(f *flag) string {
	names := "    --" + f.name
	if f.shorthand != 0 {
		names = fmt.Sprintf("-%c, --%s", f.shorthand, f.name)
	}
	if f.kind != flagBool {
		names += fmt.Sprintf(" <%s>", f.kind)
	}
	usage := strings.TrimSpace(f.usage)
	if usage == "" {
		return "  " + names
	}
	return fmt.Sprintf("  %-24s %s", names, usage)
}
