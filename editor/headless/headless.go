// Package headless applies an instruction file of flag assignments to a
// package without user interaction, then saves it.
//
// The driver never aborts on the first problem. It collects messages,
// saves only when there are changes and no errors, prints the messages in
// line order and returns a process exit code.
package headless

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/joshuapare/upkflags/editor"
	"github.com/joshuapare/upkflags/editor/node"
	"github.com/joshuapare/upkflags/editor/prop"
	"github.com/joshuapare/upkflags/internal/logger"
)

// MessageType classifies a report line.
type MessageType int

const (
	Info MessageType = iota
	Warning
	Error
	Success
	Notification
)

func (t MessageType) String() string {
	switch t {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Success:
		return "success"
	case Notification:
		return "notification"
	}
	return "info"
}

// Message is one report line. Line is -1 when it refers to no line of the
// instruction file.
type Message struct {
	Line         int
	Text         string
	Type         MessageType
	suppressType bool
}

func (m Message) String() string {
	var prefix string
	if !m.suppressType {
		switch m.Type {
		case Warning:
			prefix = "WARNING"
		case Error:
			prefix = "ERROR"
		}
	}
	switch {
	case m.Line > -1 && prefix != "":
		return fmt.Sprintf("%s (line %d): %s", prefix, m.Line, m.Text)
	case m.Line > -1:
		return fmt.Sprintf("(line %d): %s", m.Line, m.Text)
	case prefix != "":
		return prefix + ": " + m.Text
	}
	return m.Text
}

// Result summarizes a run.
type Result struct {
	Messages         []Message
	Changes          int
	Errors           int
	Warnings         int
	ObjectsNotFound  int
	FlagsNotFound    int
	AttemptedChanges int
	Saved            bool
	ExitCode         int
}

// Runner executes instruction files.
type Runner struct {
	opts []editor.Option
	base editor.Options
	log  *logrus.Entry

	messages []Message
}

// NewRunner returns a runner whose engines start from
// editor.HeadlessOptions adjusted by opts.
func NewRunner(opts ...editor.Option) *Runner {
	return &Runner{opts: opts, base: editor.HeadlessOptions(), log: logrus.NewEntry(logger.L)}
}

// Run applies the instruction file at instructionsPath to the package at
// packagePath, writes the sorted report to w and returns the exit code:
// 0 when there were no errors and the save either succeeded or was not
// needed, 1 otherwise.
func Run(packagePath, instructionsPath string, w io.Writer, opts ...editor.Option) int {
	res := NewRunner(opts...).Execute(packagePath, instructionsPath)
	WriteMessages(w, res.Messages)
	return res.ExitCode
}

// Execute runs the instruction file and returns the result with its
// messages sorted.
func (r *Runner) Execute(packagePath, instructionsPath string) *Result {
	r.messages = nil
	res := &Result{ExitCode: 1}
	log := r.log.WithFields(logrus.Fields{"package": packagePath, "instructions": instructionsPath})

	r.add(-1, fmt.Sprintf("Running headless instructions from %s on package %s", instructionsPath, packagePath), Info)

	instr := r.load(instructionsPath)
	switch {
	case instr == nil:
	case packagePath == "":
		r.errorf(-1, "Package file path may not be empty!")
	default:
		e := editor.New(r.base, r.opts...)
		if err := e.LoadPackage(packagePath); err != nil {
			if msg := editor.FriendlyFileError(packagePath, "package", err); msg != "" {
				r.errorf(-1, "%s", msg)
			} else {
				r.errorf(-1, "Unexpected error while running instructions for package %s: %v", packagePath, err)
			}
		} else {
			r.execute(e, instr, res)
		}
		if err := e.Close(); err != nil {
			log.WithError(err).Warn("close package")
		}
	}

	res.Messages = SortMessages(r.messages)
	for _, m := range res.Messages {
		if m.suppressType {
			continue
		}
		switch m.Type {
		case Error:
			res.Errors++
		case Warning:
			res.Warnings++
		}
	}
	log.WithFields(logrus.Fields{"changes": res.Changes, "errors": res.Errors, "exit": res.ExitCode}).Debug("headless run finished")
	return res
}

func (r *Runner) load(path string) *Instructions {
	in, problems, err := LoadInstructions(path)
	if err != nil {
		cause := errors.Cause(err)
		if msg := editor.FriendlyFileError(path, "instruction file", cause); msg != "" {
			r.errorf(-1, "%s", msg)
		} else {
			r.errorf(-1, "Unexpected error trying to open the instruction file %s: %v", path, cause)
		}
		return nil
	}
	for _, p := range problems {
		line := p.Line
		if line == 0 {
			line = -1
		}
		r.errorf(line, "%s", p.Msg)
	}
	return in
}

// execute applies every object of in and saves. Mirrors the counting rules
// of the report: errors abort the save, a run without changes skips it.
func (r *Runner) execute(e *editor.Engine, in *Instructions, res *Result) {
	printEach := in.PrintEachChange
	for _, obj := range in.Objects {
		n, err := r.findObject(e, obj)
		if err != nil {
			r.errorf(obj.Line, "%s", err.Error())
			printEach = false
			continue
		}
		if n == nil {
			res.ObjectsNotFound++
			continue
		}
		n.PreInitProperties()
		for _, f := range obj.Flags {
			p, err := findFlag(n, f)
			if err != nil {
				r.errorf(f.Line, "%s", err.Error())
				printEach = false
				continue
			}
			if p == nil {
				res.FlagsNotFound++
				continue
			}
			old := p.Get()
			if err := p.SetValue(f.Value); err != nil {
				r.errorf(f.Line, "%v", err)
				printEach = false
				continue
			}
			res.AttemptedChanges++
			if !printEach {
				continue
			}
			if old != f.Value {
				r.add(-1, fmt.Sprintf("CHANGE : %s - %s = %s.", obj.Path, f.Name, boolText(f.Value)), Success)
			} else {
				r.add(-1, fmt.Sprintf("NO CHANGE : %s - %s was already %s.", obj.Path, f.Name, boolText(f.Value)), Notification)
			}
		}
	}

	if res.ObjectsNotFound > 0 || res.FlagsNotFound > 0 {
		r.add(-1, fmt.Sprintf("%d Objects and %d Properties were not found, and skipped.", res.ObjectsNotFound, res.FlagsNotFound), Warning)
	}

	errorCount, warningCount := r.count()
	e.ConditionalUpdateStats()
	res.Changes = e.CachedChangeCount()

	aborted := res.Changes == 0 || errorCount > 0
	saved := false
	if !aborted {
		if err := e.SaveOverwrite(); err != nil {
			r.errorf(-1, "Unexpected error while saving package: %v", err)
			errorCount++
		} else {
			saved = true
		}
	}
	res.Saved = saved

	unchanged := res.AttemptedChanges - res.Changes
	if errorCount == 0 {
		if !in.HasAnyFlags() {
			r.add(-1, "Couldn't find any flags in this instruction file.", Warning)
			warningCount++
		} else if unchanged > 0 && !printEach {
			if unchanged == 1 {
				r.add(-1, "One property was already at the desired value, and was left unchanged.", Notification)
			} else {
				r.add(-1, fmt.Sprintf("%d properties were already at the desired value, and were left unchanged.", unchanged), Notification)
			}
		}
	}

	status := "Save failed/incomplete"
	switch {
	case aborted:
		status = "Save aborted"
	case saved:
		status = "Flag edits successful"
	}
	reason := ""
	if errorCount == 0 && res.Changes == 0 {
		reason = " (due to a lack of changes)"
	}
	typ := Info
	switch {
	case errorCount > 0:
		typ = Error
	case warningCount > 0:
		typ = Warning
	case res.AttemptedChanges > 0:
		typ = Success
	}
	r.messages = append(r.messages, Message{
		Line: -1,
		Text: fmt.Sprintf("%s for package '%s'%s - Changes: %d, Errors: %d, Warnings: %d.",
			status, e.Package().Name, reason, res.Changes, errorCount, warningCount),
		Type:         typ,
		suppressType: true,
	})

	if errorCount == 0 && (saved || aborted) {
		res.ExitCode = 0
	}
}

// findObject returns nil without error for a missing object that may not
// exist.
func (r *Runner) findObject(e *editor.Engine, obj Object) (node.Node, error) {
	n, err := e.FindObject(obj.Path)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, editor.ErrObjectNotFound) {
		if obj.MightNotExist {
			return nil, nil
		}
		return nil, errors.Errorf("Could not find object %s! Consider adding mightNotExist: true for this object.", obj.Path)
	}
	return nil, err
}

// findFlag returns nil without error for a missing flag that may not exist.
func findFlag(n node.Node, f Flag) (prop.Bool, error) {
	if p := n.Property(f.Name); p != nil {
		b, ok := p.(prop.Bool)
		if !ok {
			return nil, errors.Errorf("Found property %s within %s, but it isn't a Bool!", f.Name, n.ReferencePath())
		}
		return b, nil
	}
	if f.MightNotExist {
		return nil, nil
	}
	return nil, errors.Errorf("Could not find property %s within %s! Consider adding mightNotExist: true for this flag.", f.Name, n.ReferencePath())
}

func boolText(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func (r *Runner) add(line int, text string, t MessageType) {
	r.messages = append(r.messages, Message{Line: line, Text: text, Type: t})
}

func (r *Runner) errorf(line int, format string, args ...interface{}) {
	r.add(line, fmt.Sprintf(format, args...), Error)
}

func (r *Runner) count() (errs, warnings int) {
	for _, m := range r.messages {
		switch m.Type {
		case Error:
			errs++
		case Warning:
			warnings++
		}
	}
	return errs, warnings
}

// SortMessages orders messages by line. Messages without a line stay where
// they are and split the list into independently sorted runs.
func SortMessages(msgs []Message) []Message {
	out := slices.Clone(msgs)
	start := 0
	for i := 0; i <= len(out); i++ {
		if i < len(out) && out[i].Line != -1 {
			continue
		}
		slices.SortStableFunc(out[start:i], func(a, b Message) int { return a.Line - b.Line })
		start = i + 1
	}
	return out
}

// WriteMessages prints one message per line.
func WriteMessages(w io.Writer, msgs []Message) {
	for _, m := range msgs {
		fmt.Fprintln(w, m.String())
	}
}
