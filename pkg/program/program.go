// Package program stores the numbered lines of a BASIC program and keeps
// the current line for the interpreter.
package program

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/btree"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/lexer"
	"github.com/agileandy/bbcbasic/pkg/logger"
)

// Line numbers run from MinLine to MaxLine inclusive.
const (
	MinLine = 1
	MaxLine = 65279
)

type line struct {
	number int
	text   string
}

func (l line) Less(than btree.Item) bool {
	return l.number < than.(line).number
}

// Program is an ordered set of numbered lines.
type Program struct {
	lines   *btree.BTree
	current int
}

// New returns an empty program.
func New() *Program {
	return &Program{lines: btree.New(4)}
}

// Valid reports whether n can be used as a line number.
func Valid(n int) bool {
	return n >= MinLine && n <= MaxLine
}

// Set inserts or replaces a line. Empty text deletes the line.
func (p *Program) Set(number int, text string) error {
	if !Valid(number) {
		return fmt.Errorf("line number %d out of range %d-%d", number, MinLine, MaxLine)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.Delete(number)
		return nil
	}
	p.lines.ReplaceOrInsert(line{number: number, text: text})
	return nil
}

// Delete removes a line and reports whether it existed.
func (p *Program) Delete(number int) bool {
	return p.lines.Delete(line{number: number}) != nil
}

// Clear removes every line.
func (p *Program) Clear() {
	p.lines.Clear(false)
	p.current = 0
}

// Len is the number of lines.
func (p *Program) Len() int { return p.lines.Len() }

// Lines returns the line numbers in ascending order.
func (p *Program) Lines() []int {
	numbers := make([]int, 0, p.lines.Len())
	p.lines.Ascend(func(item btree.Item) bool {
		numbers = append(numbers, item.(line).number)
		return true
	})
	return numbers
}

// Text returns the source of a line.
func (p *Program) Text(number int) (string, bool) {
	item := p.lines.Get(line{number: number})
	if item == nil {
		return "", false
	}
	return item.(line).text, true
}

// First returns the lowest line number.
func (p *Program) First() (int, bool) {
	item := p.lines.Min()
	if item == nil {
		return 0, false
	}
	return item.(line).number, true
}

// After returns the first line numbered above n.
func (p *Program) After(n int) (int, bool) {
	var found line
	p.lines.AscendGreaterOrEqual(line{number: n + 1}, func(item btree.Item) bool {
		found = item.(line)
		return false
	})
	return found.number, found.number != 0
}

// CurrentLine is the line the interpreter is on, 0 before a run.
func (p *Program) CurrentLine() int { return p.current }

// Jump makes number the current line.
func (p *Program) Jump(number int) error {
	if !p.lines.Has(line{number: number}) {
		return faults.Newf(faults.UndefinedNameFault, faults.CodeNoSuchLine, "%d", number)
	}
	p.current = number
	return nil
}

// NextLine moves to the line after the current one.
func (p *Program) NextLine() (int, bool) {
	next, ok := p.After(p.current)
	if !ok {
		return 0, false
	}
	p.current = next
	return next, true
}

// Reset forgets the current line.
func (p *Program) Reset() { p.current = 0 }

// List writes the lines numbered from..to inclusive. A zero to means no
// upper bound.
func (p *Program) List(w io.Writer, from, to int) error {
	if to == 0 {
		to = MaxLine
	}
	bw := bufio.NewWriter(w)
	p.lines.AscendRange(line{number: from}, line{number: to + 1}, func(item btree.Item) bool {
		l := item.(line)
		fmt.Fprintf(bw, "%5d %s\n", l.number, l.text)
		return true
	})
	return bw.Flush()
}

// Save writes the program as plain numbered text.
func (p *Program) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	p.lines.Ascend(func(item btree.Item) bool {
		l := item.(line)
		fmt.Fprintf(bw, "%d %s\n", l.number, l.text)
		return true
	})
	return bw.Flush()
}

// String is the program as Save would write it.
func (p *Program) String() string {
	var b strings.Builder
	p.Save(&b)
	return b.String()
}

// Load replaces the program with numbered text read from r. Blank lines
// are skipped; a line without a number is an error.
func (p *Program) Load(r io.Reader) error {
	loaded := btree.New(4)
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		number, rest, ok := SplitNumber(text)
		if !ok {
			return fmt.Errorf("line %d: missing line number", n)
		}
		if !Valid(number) {
			return fmt.Errorf("line %d: line number %d out of range", n, number)
		}
		if rest == "" {
			continue
		}
		loaded.ReplaceOrInsert(line{number: number, text: rest})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	p.lines = loaded
	p.current = 0
	logger.Debug(logger.AreaProgram, "loaded %d lines", loaded.Len())
	return nil
}

// SplitNumber splits a leading decimal line number from the rest of text.
func SplitNumber(text string) (int, string, bool) {
	i := 0
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, text, false
	}
	number, err := strconv.Atoi(text[:i])
	if err != nil {
		return 0, text, false
	}
	return number, strings.TrimSpace(text[i:]), true
}

// Data collects the values of every DATA statement in line order.
func (p *Program) Data() ([]ast.DataItem, error) {
	var items []ast.DataItem
	var err error
	p.lines.Ascend(func(item btree.Item) bool {
		l := item.(line)
		if !strings.Contains(strings.ToUpper(l.text), "DATA") {
			return true
		}
		tokens, lexErr := lexer.Tokenize(l.text)
		if lexErr != nil {
			if f, ok := faults.As(lexErr); ok {
				f.At(l.number)
			}
			err = lexErr
			return false
		}
		for _, tok := range tokens {
			if !tok.Is(lexer.DATA) {
				continue
			}
			for _, v := range ast.SplitData(tok.Value) {
				items = append(items, ast.DataItem{Line: l.number, Value: v})
			}
		}
		return true
	})
	return items, err
}
