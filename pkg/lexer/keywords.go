package lexer

import "strings"

// Keyword is a reserved word.
type Keyword int

const (
	NoKeyword Keyword = iota

	// Operators spelled as words.
	AND
	OR
	EOR
	DIV
	MOD
	NOT

	// Statements and statement parts.
	CLEAR
	CLS
	DATA
	DEF
	DIM
	ELSE
	END
	ENDPROC
	ENDWHILE
	ERROR
	FN
	FOR
	GOSUB
	GOTO
	IF
	INPUT
	LET
	LOCAL
	NEXT
	OFF
	ON
	PRINT
	PROC
	QUIT
	READ
	REM
	REPEAT
	REPORT
	RESTORE
	RETURN
	SPC
	STEP
	STOP
	SWAP
	TAB
	THEN
	TO
	UNTIL
	WHILE

	// Built-in functions and pseudo-variables.
	ABS
	ACS
	ASC
	ASN
	ATN
	CHRS
	COS
	DEG
	ERL
	ERR
	EXP
	FALSE
	INSTR
	INT
	LEFTS
	LEN
	LN
	LOG
	MIDS
	PI
	RAD
	REPORTS
	RIGHTS
	RND
	SGN
	SIN
	SQR
	STRS
	STRINGS
	TAN
	TRUE
	VAL
)

var keywordNames = map[Keyword]string{
	AND: "AND", OR: "OR", EOR: "EOR", DIV: "DIV", MOD: "MOD", NOT: "NOT",

	CLEAR: "CLEAR", CLS: "CLS", DATA: "DATA", DEF: "DEF", DIM: "DIM",
	ELSE: "ELSE", END: "END", ENDPROC: "ENDPROC", ENDWHILE: "ENDWHILE",
	ERROR: "ERROR", FN: "FN", FOR: "FOR", GOSUB: "GOSUB", GOTO: "GOTO",
	IF: "IF", INPUT: "INPUT", LET: "LET", LOCAL: "LOCAL", NEXT: "NEXT",
	OFF: "OFF", ON: "ON", PRINT: "PRINT", PROC: "PROC", QUIT: "QUIT",
	READ: "READ", REM: "REM", REPEAT: "REPEAT", REPORT: "REPORT",
	RESTORE: "RESTORE", RETURN: "RETURN", SPC: "SPC", STEP: "STEP",
	STOP: "STOP", SWAP: "SWAP", TAB: "TAB", THEN: "THEN", TO: "TO",
	UNTIL: "UNTIL", WHILE: "WHILE",

	ABS: "ABS", ACS: "ACS", ASC: "ASC", ASN: "ASN", ATN: "ATN",
	CHRS: "CHR$", COS: "COS", DEG: "DEG", ERL: "ERL", ERR: "ERR",
	EXP: "EXP", FALSE: "FALSE", INSTR: "INSTR", INT: "INT",
	LEFTS: "LEFT$", LEN: "LEN", LN: "LN", LOG: "LOG", MIDS: "MID$",
	PI: "PI", RAD: "RAD", REPORTS: "REPORT$", RIGHTS: "RIGHT$", RND: "RND",
	SGN: "SGN", SIN: "SIN", SQR: "SQR", STRS: "STR$", STRINGS: "STRING$",
	TAN: "TAN", TRUE: "TRUE", VAL: "VAL",
}

var keywordsByName = func() map[string]Keyword {
	m := make(map[string]Keyword, len(keywordNames))
	for kw, name := range keywordNames {
		m[name] = kw
	}
	return m
}()

func (k Keyword) String() string {
	if name, ok := keywordNames[k]; ok {
		return name
	}
	return "?"
}

// LookupKeyword maps a word, in any letter case, to its keyword.
func LookupKeyword(word string) (Keyword, bool) {
	kw, ok := keywordsByName[strings.ToUpper(word)]
	return kw, ok
}

// IsFunction reports whether the keyword names a built-in function or
// pseudo-variable usable inside an expression.
func (k Keyword) IsFunction() bool {
	return k >= ABS && k <= VAL
}

// takesLineNumber lists keywords after which an integer literal is a line
// number.
func (k Keyword) takesLineNumber() bool {
	switch k {
	case GOTO, GOSUB, THEN, ELSE, RESTORE:
		return true
	}
	return false
}
