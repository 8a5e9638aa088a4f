package infrastructure

import "strings"

// ShellEscape quotes a single argument for display in logs. Output is
// copy-pasteable into a POSIX shell; it is never passed to one.
func ShellEscape(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'`$\\&|;<>()[]{}*?~#%") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// ShellEscapeCommand renders a full command line for logging.
func ShellEscapeCommand(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(name))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}
