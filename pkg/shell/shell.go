// Package shell is the command loop shared by the console and the
// terminal server: numbered lines edit the program, a few commands manage
// it, and anything else runs immediately.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/interpreter"
	"github.com/agileandy/bbcbasic/pkg/logger"
	"github.com/agileandy/bbcbasic/pkg/program"
)

// Prompt is printed before each command line.
const Prompt = ">"

// Shell owns one program and the interpreter that runs it.
type Shell struct {
	prog   *program.Program
	interp *interpreter.Interpreter
	out    *interpreter.TextOutput
	w      io.Writer
	lib    Library
}

// New returns a shell writing to w and reading INPUT lines from in. lib
// may be nil, which disables SAVE, LOAD, CAT and DELETE.
func New(w io.Writer, in interpreter.Input, lib Library, opts interpreter.Options) *Shell {
	out := interpreter.NewTextOutput(w, opts.ZoneWidth)
	prog := program.New()
	s := &Shell{
		prog: prog,
		out:  out,
		w:    w,
		lib:  lib,
	}
	var input interpreter.Input
	if in != nil {
		input = lineInput{in: in, out: out}
	}
	s.interp = interpreter.New(prog, out, input, opts)
	return s
}

// lineInput marks the cursor as back at column 0 once the user has typed
// a line.
type lineInput struct {
	in  interpreter.Input
	out *interpreter.TextOutput
}

func (l lineInput) ReadLine(ctx context.Context, prompt string) (string, error) {
	line, err := l.in.ReadLine(ctx, prompt)
	l.out.ResetColumn()
	return line, err
}

// Program exposes the program being edited.
func (s *Shell) Program() *program.Program { return s.prog }

// Interpreter exposes the interpreter, mainly for Interrupt.
func (s *Shell) Interpreter() *interpreter.Interpreter { return s.interp }

// Interrupt stops a running program; it is safe from any goroutine.
func (s *Shell) Interrupt() { s.interp.Interrupt() }

type command func(s *Shell, ctx context.Context, args string) bool

var commands = map[string]command{
	"RUN":    (*Shell).cmdRun,
	"LIST":   (*Shell).cmdList,
	"NEW":    (*Shell).cmdNew,
	"SAVE":   (*Shell).cmdSave,
	"LOAD":   (*Shell).cmdLoad,
	"CAT":    (*Shell).cmdCat,
	"DELETE": (*Shell).cmdDelete,
	"TRACE":  (*Shell).cmdTrace,
	"QUIT":   (*Shell).cmdQuit,
	"BYE":    (*Shell).cmdQuit,
}

// Execute handles one line of user input. It returns false when the
// session should end.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	if number, rest, ok := program.SplitNumber(line); ok {
		if err := s.prog.Set(number, rest); err != nil {
			s.println(err.Error())
			return true
		}
		s.interp.Invalidate()
		logger.Debug(logger.AreaProgram, "line %d set to %q", number, rest)
		return true
	}

	if name, args, ok := splitCommand(line); ok {
		return commands[name](s, ctx, args)
	}

	outcome, err := s.interp.ExecuteDirect(ctx, line)
	return s.report(outcome, err)
}

// splitCommand recognises a shell command word at the start of line. A
// word followed by = or a type suffix is an assignment, not a command.
func splitCommand(line string) (string, string, bool) {
	i := 0
	for i < len(line) && isLetter(line[i]) {
		i++
	}
	name := strings.ToUpper(line[:i])
	if _, ok := commands[name]; !ok {
		return "", "", false
	}
	rest := line[i:]
	if rest != "" {
		switch c := rest[0]; {
		case c == '%' || c == '$' || c == '(' || c == '_' || (c >= '0' && c <= '9' && name != "LIST"):
			return "", "", false
		}
		if strings.HasPrefix(strings.TrimSpace(rest), "=") {
			return "", "", false
		}
	}
	return name, strings.TrimSpace(rest), true
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// report prints how a run ended in BBC style.
func (s *Shell) report(outcome interpreter.Outcome, err error) bool {
	if err != nil {
		s.freshLine()
		if f, ok := faults.As(err); ok {
			logger.Debug(logger.AreaSession, "%s fault %d: %s", f.Kind, f.Code, f.Error())
		}
		s.println(err.Error())
		return true
	}
	switch outcome.Reason {
	case interpreter.Stopped:
		s.freshLine()
		s.println(fmt.Sprintf("STOP at line %d", outcome.Line))
	case interpreter.Quit:
		return false
	}
	return true
}

func (s *Shell) freshLine() {
	if s.out.Column() > 0 {
		s.out.Newline()
	}
}

func (s *Shell) println(text string) {
	s.out.Print(text)
	s.out.Newline()
}

func (s *Shell) cmdRun(ctx context.Context, args string) bool {
	outcome, err := s.interp.Run(ctx)
	return s.report(outcome, err)
}

func (s *Shell) cmdList(ctx context.Context, args string) bool {
	from, to, err := parseRange(args)
	if err != nil {
		s.println(err.Error())
		return true
	}
	s.freshLine()
	if err := s.prog.List(s.w, from, to); err != nil {
		s.println(err.Error())
	}
	return true
}

// parseRange reads LIST arguments: "", "n", "n,", ",m" or "n,m".
func parseRange(args string) (int, int, error) {
	if args == "" {
		return 0, 0, nil
	}
	first, second, hasComma := strings.Cut(args, ",")
	from, err := atoiOrZero(first)
	if err != nil {
		return 0, 0, err
	}
	if !hasComma {
		return from, from, nil
	}
	to, err := atoiOrZero(second)
	return from, to, err
}

func atoiOrZero(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("Bad line range %q", s)
	}
	return n, nil
}

func (s *Shell) cmdNew(ctx context.Context, args string) bool {
	s.prog.Clear()
	s.interp.State().Reset()
	s.interp.Invalidate()
	return true
}

// fileName strips the quotes from a SAVE/LOAD argument.
func fileName(args string) (string, error) {
	name := strings.TrimSpace(args)
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	if name == "" {
		return "", errors.New("Missing file name")
	}
	return name, nil
}

func (s *Shell) withLibrary(args string, fn func(name string) error) bool {
	if s.lib == nil {
		s.println("No program library")
		return true
	}
	name, err := fileName(args)
	if err == nil {
		err = fn(name)
	}
	if err != nil {
		s.println(err.Error())
	}
	return true
}

func (s *Shell) cmdSave(ctx context.Context, args string) bool {
	return s.withLibrary(args, func(name string) error {
		if s.prog.Len() == 0 {
			return errors.New("No program")
		}
		return s.lib.Save(ctx, name, s.prog.String())
	})
}

func (s *Shell) cmdLoad(ctx context.Context, args string) bool {
	return s.withLibrary(args, func(name string) error {
		src, err := s.lib.Load(ctx, name)
		if err != nil {
			return err
		}
		return s.LoadSource(src)
	})
}

// LoadSource replaces the program with numbered source text.
func (s *Shell) LoadSource(src string) error {
	if err := s.prog.Load(strings.NewReader(src)); err != nil {
		return err
	}
	s.interp.Invalidate()
	return nil
}

// RunSource loads src and runs it, as for a program named on the command
// line. Faults are reported on the output and also returned.
func (s *Shell) RunSource(ctx context.Context, src string) error {
	if err := s.LoadSource(src); err != nil {
		return err
	}
	outcome, err := s.interp.Run(ctx)
	s.report(outcome, err)
	return err
}

func (s *Shell) cmdDelete(ctx context.Context, args string) bool {
	return s.withLibrary(args, func(name string) error {
		return s.lib.Delete(ctx, name)
	})
}

func (s *Shell) cmdCat(ctx context.Context, args string) bool {
	if s.lib == nil {
		s.println("No program library")
		return true
	}
	entries, err := s.lib.List(ctx)
	if err != nil {
		s.println(err.Error())
		return true
	}
	s.freshLine()
	for _, e := range entries {
		s.println(fmt.Sprintf("%-16s %8s  %s", e.Name, humanize.Bytes(uint64(e.Size)), humanize.Time(e.Modified)))
	}
	s.println(fmt.Sprintf("%d program(s)", len(entries)))
	return true
}

func (s *Shell) cmdTrace(ctx context.Context, args string) bool {
	switch strings.ToUpper(args) {
	case "ON":
		s.interp.SetTrace(true)
	case "OFF":
		s.interp.SetTrace(false)
	case "":
		state := "OFF"
		if s.interp.Tracing() {
			state = "ON"
		}
		s.println("TRACE " + state)
	default:
		s.println("Syntax: TRACE ON|OFF")
	}
	return true
}

func (s *Shell) cmdQuit(ctx context.Context, args string) bool {
	return false
}
