// Package browse is the interactive catalog browser.
package browse

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
	"github.com/lehigh-university-libraries/docbrowser/internal/render"
	"github.com/lehigh-university-libraries/docbrowser/internal/selection"
)

const prompt = "docs> "

var commands = []string{"q", "cat", "select", "back", "forward", "image", "list", "categories", "location", "help", "quit"}

// Session drives a selection controller from typed commands.
type Session struct {
	out      io.Writer
	history  *selection.History
	ctrl     *selection.Controller
	query    string
	category string
}

// NewSession opens catalog at location (for example "?id=abc") and renders
// every view change to out.
func NewSession(catalog *models.Catalog, location string, out io.Writer) *Session {
	s := &Session{
		out:     out,
		history: selection.NewHistory(location),
	}
	s.ctrl = selection.New(catalog, s.history, selection.WithRenderer(func(v selection.View) {
		render.View(s.out, v)
	}))
	return s
}

// Controller exposes the underlying selection controller
func (s *Session) Controller() *selection.Controller {
	return s.ctrl
}

// Location returns the current history entry as a query string
func (s *Session) Location() string {
	return s.history.Location()
}

// Filter applies the initial query and category and renders the first view
func (s *Session) Filter(q, category string) selection.View {
	s.query, s.category = q, category
	return s.ctrl.OnFilterChanged(q, category)
}

// Close detaches the controller from the history
func (s *Session) Close() {
	s.ctrl.Close()
}

// Execute runs a single command line. It reports true when the session
// should end.
func (s *Session) Execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true

	case "help", "?":
		s.printHelp()

	case "q", "query", "/":
		s.query = arg
		s.ctrl.OnFilterChanged(s.query, s.category)

	case "cat", "category":
		s.category = arg
		s.ctrl.OnFilterChanged(s.query, s.category)

	case "select", "s":
		s.cmdSelect(arg)

	case "back", "b":
		if !s.history.Back() {
			fmt.Fprintln(s.out, "Already at the oldest entry.")
		}

	case "forward", "f":
		if !s.history.Forward() {
			fmt.Fprintln(s.out, "Already at the newest entry.")
		}

	case "image", "i":
		s.ctrl.OnToggleImageMode()

	case "list", "ls":
		s.ctrl.Render()

	case "categories":
		for _, c := range s.ctrl.Categories() {
			fmt.Fprintln(s.out, c)
		}

	case "location", "loc":
		fmt.Fprintln(s.out, s.history.Location())

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

// cmdSelect accepts a document id or a 1-based row number from the current
// list. An exact id match among the visible documents wins over a row
// number, and "#n" always means row n.
func (s *Session) cmdSelect(arg string) {
	if arg == "" {
		fmt.Fprintln(s.out, "Usage: select <id|n|#n>")
		return
	}
	visible := s.ctrl.View().Documents
	id := arg
	if row, ok := strings.CutPrefix(arg, "#"); ok {
		n, err := strconv.Atoi(row)
		if err != nil || n < 1 || n > len(visible) {
			fmt.Fprintf(s.out, "No row %s.\n", row)
			return
		}
		id = visible[n-1].ID
	} else if !isVisible(visible, arg) {
		if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(visible) {
			id = visible[n-1].ID
		}
	}
	if id == "" {
		fmt.Fprintf(s.out, "Row %s has no id.\n", arg)
		return
	}
	s.ctrl.OnExplicitSelect(id)
}

func isVisible(docs []models.Document, id string) bool {
	for i := range docs {
		if docs[i].ID == id {
			return true
		}
	}
	return false
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  q <text>        filter by text (no text clears)")
	fmt.Fprintln(s.out, "  cat <name>      filter by category (no name clears)")
	fmt.Fprintln(s.out, "  select <id|n>   select a document by id, else by row number (#n forces a row)")
	fmt.Fprintln(s.out, "  back, forward   move through selection history")
	fmt.Fprintln(s.out, "  image           toggle image fit / actual size")
	fmt.Fprintln(s.out, "  list            redraw the current view")
	fmt.Fprintln(s.out, "  categories      list category options")
	fmt.Fprintln(s.out, "  location        print the current location")
	fmt.Fprintln(s.out, "  quit            leave the browser")
}

func (s *Session) completer(line string) []string {
	if rest, ok := strings.CutPrefix(line, "cat "); ok {
		var out []string
		for _, c := range s.ctrl.Categories() {
			if strings.HasPrefix(c, rest) {
				out = append(out, "cat "+c)
			}
		}
		return out
	}
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docbrowser_history")
}

// Run reads commands from the terminal until quit, EOF or Ctrl-C
func (s *Session) Run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(s.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer s.saveHistory(line)

	fmt.Fprintln(s.out, "Type 'help' for available commands.")
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.Execute(input) {
			return nil
		}
	}
}

func (s *Session) saveHistory(line *liner.State) {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}
