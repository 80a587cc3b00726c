package app

import (
	"io"
	"os"
)

func writeUsage(w io.Writer) {
	useColor := shouldColorize(w)
	title := colorize(useColor, "wsnav - workspace selection and navigation")
	usage := colorize(useColor, "Usage:")
	commands := colorize(useColor, "Commands:")

	io.WriteString(w, title+"\n\n")
	io.WriteString(w, usage+"\n")
	io.WriteString(w, "  wsnav [--data-dir <path>] [--debug] <command> [options]\n\n")
	io.WriteString(w, colorize(useColor, "Global options:")+"\n")
	io.WriteString(w, "  --data-dir <path>  Override data dir (WSNAV_DATA_DIR)\n")
	io.WriteString(w, "  --debug            Log at debug level to stderr\n\n")
	io.WriteString(w, "Version:\n")
	io.WriteString(w, "  wsnav version | wsnav --version | wsnav -v\n\n")
	io.WriteString(w, commands+"\n")
	io.WriteString(w, "  workspaces      wsnav workspaces [--project <name>] [--app <name>] [--all] [--format table|json|yaml]\n")
	io.WriteString(w, "  workspace       wsnav workspace put <name> [--project <name>]... [--app <project>/<app>]...\n")
	io.WriteString(w, "                  wsnav workspace get <name> [--format json|yaml]\n")
	io.WriteString(w, "                  wsnav workspace delete <name>\n")
	io.WriteString(w, "  build           wsnav build add --workspace <name> --project <name> --app <name>\n")
	io.WriteString(w, "  builds          wsnav builds [--workspace <name>] [--project <name>] [--app <name>] [--limit 20] [--format table|json|yaml]\n")
	io.WriteString(w, "  resolve         wsnav resolve [--format text|json|yaml]\n")
	io.WriteString(w, "  visit           wsnav visit [<path>] [--dry-run] [--format text|json|yaml]\n")
	io.WriteString(w, "  switch          wsnav switch <workspace> [--from <path>] [--format text|json|yaml]\n")
	io.WriteString(w, "  forget          wsnav forget\n")
	io.WriteString(w, "  watch           wsnav watch [--max-events <n>]\n")
	io.WriteString(w, "  doctor          wsnav doctor [--json] [--repair] [--verbose]\n")
	io.WriteString(w, "  mcp             wsnav mcp [--allow-write] [--name <name>]\n")
}

func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func colorize(enabled bool, text string) string {
	if !enabled {
		return text
	}
	const purple = "\x1b[35m"
	const bold = "\x1b[1m"
	const reset = "\x1b[0m"
	return bold + purple + text + reset
}
