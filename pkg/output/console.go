package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/event"
	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Longest block preview printed on one line.
const maxPreviewRunes = 100

// ConsoleDisplay handles the CLI output formatting for console output
type ConsoleDisplay struct {
	mu       sync.Mutex
	writer   io.Writer
	showRaw  bool
	eventBus bus.EventBus
	stats    *Stats
}

// NewConsoleDisplay creates a new display handler for console output with
// custom writer. When showRaw is set, failures are followed by their payload.
func NewConsoleDisplay(writer io.Writer, showRaw bool, eventBus bus.EventBus) (*ConsoleDisplay, error) {
	d := &ConsoleDisplay{
		writer:   writer,
		showRaw:  showRaw,
		eventBus: eventBus,
		stats:    NewStats(),
	}

	if eventBus == nil {
		return d, nil
	}
	if err := eventBus.SubscribeSync(event.EventTypeFrame, d.handleEvent); err != nil {
		return nil, err
	}
	if err := eventBus.SubscribeSync(event.EventTypeParseFailure, d.handleEvent); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// Colors for different elements
var (
	timestampColor = color.New(color.FgHiBlack)
	sourceColor    = color.New(color.FgCyan)
	modelColor     = color.New(color.FgHiCyan)
	idColor        = color.New(color.FgHiBlack)
	textColor      = color.New(color.FgWhite)
	thinkingColor  = color.New(color.FgHiBlack, color.Italic)
	toolColor      = color.New(color.FgGreen)
	resultColor    = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
	errorKindColor = color.New(color.FgHiRed)
	headerColor    = color.New(color.FgWhite, color.Bold)
)

// PrintHeader prints the adaptogen header
func (d *ConsoleDisplay) PrintHeader() {
	d.mu.Lock()
	defer d.mu.Unlock()

	headerColor.Fprintln(d.writer, "adaptogen")
	fmt.Fprintln(d.writer, "LLM Response Normalizer - Anthropic and OpenAI-compatible responses as content frames")
	fmt.Fprintln(d.writer, strings.Repeat("─", 80))
}

// Stats returns the counters collected from displayed events.
func (d *ConsoleDisplay) Stats() *Stats {
	return d.stats
}

// PrintStats prints statistics tables
func (d *ConsoleDisplay) PrintStats(stats *Stats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.writer, "\n"+strings.Repeat("─", 80))
	headerColor.Fprintln(d.writer, "Statistics:")

	table := d.newTable([]string{"Model", "Frames", "Text", "Thinking", "Tool Use", "Tool Result"})
	for _, ms := range stats.Models() {
		table.Append([]string{
			ms.Model,
			fmt.Sprintf("%d", ms.Frames),
			fmt.Sprintf("%d", ms.Blocks[normalized.BlockTypeText]),
			fmt.Sprintf("%d", ms.Blocks[normalized.BlockTypeThinking]),
			fmt.Sprintf("%d", ms.Blocks[normalized.BlockTypeToolUse]),
			fmt.Sprintf("%d", ms.Blocks[normalized.BlockTypeToolResult]),
		})
	}
	table.Render()

	failures := stats.Failures()
	if len(failures) == 0 {
		return
	}

	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	fmt.Fprintln(d.writer)
	table = d.newTable([]string{"Failure", "Count"})
	for _, kind := range kinds {
		table.Append([]string{kind, fmt.Sprintf("%d", failures[llm.ErrorKind(kind)])})
	}
	table.Render()
}

// PrintModels prints the registered model identifiers with their parsers.
func (d *ConsoleDisplay) PrintModels(rows []ModelRow) {
	d.mu.Lock()
	defer d.mu.Unlock()

	table := d.newTable([]string{"Model", "Parser"})
	for _, row := range rows {
		table.Append([]string{row.Model, row.Parser})
	}
	table.Render()
}

func (d *ConsoleDisplay) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(d.writer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	return table
}

// PrintInfo prints an info message
func (d *ConsoleDisplay) PrintInfo(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.writer, format+"\n", args...)
}

func (d *ConsoleDisplay) handleEvent(e event.Event) {
	switch evt := e.(type) {
	case *event.FrameEvent:
		d.stats.AddFrame(evt.Frame)
		d.PrintFrame(evt)
	case *event.ParseFailureEvent:
		d.stats.AddFailure(evt.Kind)
		d.PrintFailure(evt)
	}
}

// PrintFrame prints a frame summary line followed by one line per block.
// Format: [time] [source:line] [model] [id] N blocks
func (d *ConsoleDisplay) PrintFrame(e *event.FrameEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.writer, "%s %s %s %s %d blocks\n",
		timestampColor.Sprint(e.Timestamp.Format("15:04:05.000")),
		sourceColor.Sprint(formatPosition(e.Position)),
		modelColor.Sprint(e.Frame.Model),
		idColor.Sprintf("[%s]", e.Frame.ID),
		len(e.Frame.Blocks),
	)

	for _, block := range e.Frame.Blocks {
		fmt.Fprintf(d.writer, "    %s\n", formatBlock(block))
	}
}

// PrintFailure prints a failed response.
// Format: [time] [source:line] ERR [kind] message
func (d *ConsoleDisplay) PrintFailure(e *event.ParseFailureEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kind := string(e.Kind)
	if kind == "" {
		kind = "other"
	}

	fmt.Fprintf(d.writer, "%s %s %s %s %s\n",
		timestampColor.Sprint(e.Timestamp.Format("15:04:05.000")),
		sourceColor.Sprint(formatPosition(e.Position)),
		errorColor.Sprint("ERR"),
		errorKindColor.Sprintf("[%s]", kind),
		e.Error,
	)

	if d.showRaw && len(e.Raw) > 0 {
		d.printBuffer(e.Raw)
	}
}

func formatPosition(pos event.Position) string {
	if pos.Line > 0 {
		return fmt.Sprintf("%s:%d", pos.Source, pos.Line)
	}
	return pos.Source
}

// formatBlock renders a block as "<type> <preview>".
func formatBlock(block normalized.ContentBlock) string {
	switch b := block.(type) {
	case normalized.TextBlock:
		return fmt.Sprintf("%-11s %s", b.Type(), textColor.Sprint(preview(b.Text)))
	case normalized.ThinkingBlock:
		if b.Text == "" {
			return fmt.Sprintf("%-11s %s", b.Type(), thinkingColor.Sprint("(redacted)"))
		}
		return fmt.Sprintf("%-11s %s", b.Type(), thinkingColor.Sprint(preview(b.Text)))
	case normalized.ToolUseBlock:
		return fmt.Sprintf("%-11s %s %s %s", b.Type(), toolColor.Sprint(b.Name), idColor.Sprintf("[%s]", b.ID), preview(string(b.Input)))
	case normalized.ToolResultBlock:
		status := resultColor.Sprint("OK")
		if b.IsError {
			status = errorColor.Sprint("ERR")
		}
		return fmt.Sprintf("%-11s %s %s %s", b.Type(), idColor.Sprintf("[%s]", b.ToolUseID), status, preview(b.Text()))
	default:
		return string(block.Type())
	}
}

// preview collapses whitespace and truncates s to maxPreviewRunes.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxPreviewRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxPreviewRunes-1]) + "…"
}

// printBuffer prints the raw message content with proper JSON formatting
func (d *ConsoleDisplay) printBuffer(content []byte) {
	// Try to parse and pretty-print JSON
	prettyContent := string(content)
	var jsonObj interface{}
	if err := json.Unmarshal(content, &jsonObj); err == nil {
		if prettyBytes, err := json.MarshalIndent(jsonObj, "", "  "); err == nil {
			prettyContent = string(prettyBytes)
		}
	}

	fmt.Fprintln(d.writer, "┌────")
	for _, line := range strings.Split(prettyContent, "\n") {
		if line != "" {
			fmt.Fprintf(d.writer, "│ %s\n", line)
		}
	}
	fmt.Fprintln(d.writer, "└────")
}

func (d *ConsoleDisplay) Close() {
	if d.eventBus == nil {
		return
	}
	d.eventBus.Unsubscribe(event.EventTypeFrame, d.handleEvent)
	d.eventBus.Unsubscribe(event.EventTypeParseFailure, d.handleEvent)
}
