package grammar

import "unicode/utf8"

// Token is one input symbol: a character, or the capture-close marker.
type Token struct {
	Char  rune
	Close bool
}

// CloseToken ends any open reference capture.
var CloseToken = Token{Close: true}

// Tokens splits text into one character token per rune.
func Tokens(text string) []Token {
	runes := []rune(text)
	toks := make([]Token, len(runes))
	for i, r := range runes {
		toks[i] = Token{Char: r}
	}
	return toks
}

// Lexer is a resettable, position-tracked token source over a string.
// It decodes one rune per call to Next, so a parse that stops early never
// reads the rest of the input. Positions are byte offsets; Save and
// Restore are O(1).
type Lexer struct {
	text string
	pos  int
}

// NewLexer returns a lexer positioned at the start of text.
func NewLexer(text string) *Lexer {
	return &Lexer{text: text}
}

// Reset replaces the input and moves to pos (clamped to the input).
func (l *Lexer) Reset(text string, pos int) {
	l.text = text
	l.Restore(pos)
}

// Next returns the next token, or ok=false at end of input.
func (l *Lexer) Next() (tok Token, ok bool) {
	if l.pos >= len(l.text) {
		return Token{}, false
	}
	r, size := utf8.DecodeRuneInString(l.text[l.pos:])
	l.pos += size
	return Token{Char: r}, true
}

// Save returns the current position.
func (l *Lexer) Save() int {
	return l.pos
}

// Restore moves back (or forward) to a position returned by Save.
func (l *Lexer) Restore(pos int) {
	switch {
	case pos < 0:
		l.pos = 0
	case pos > len(l.text):
		l.pos = len(l.text)
	default:
		l.pos = pos
	}
}

// Len returns the length of the input in bytes.
func (l *Lexer) Len() int {
	return len(l.text)
}
