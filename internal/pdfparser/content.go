package pdfparser

import (
	"bytes"
	"strconv"
	"strings"
)

// Run is a piece of text shown at a position in page space.
type Run struct {
	X, Y float64
	Text string
}

// =============================================================================
// CONTENT STREAM LEXER
// =============================================================================

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokOperator
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
)

type token struct {
	kind tokenKind
	num  float64
	str  string
}

type lexer struct {
	data []byte
	pos  int
}

func isWhite(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhite(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) next() (token, bool) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{}, false
	}

	b := l.data[l.pos]
	switch {
	case b == '(':
		l.pos++
		return token{kind: tokString, str: l.literalString()}, true
	case b == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
		l.pos += 2
		return token{kind: tokDictStart}, true
	case b == '>' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '>':
		l.pos += 2
		return token{kind: tokDictEnd}, true
	case b == '<':
		l.pos++
		return token{kind: tokString, str: l.hexString()}, true
	case b == '[':
		l.pos++
		return token{kind: tokArrayStart}, true
	case b == ']':
		l.pos++
		return token{kind: tokArrayEnd}, true
	case b == '/':
		l.pos++
		return token{kind: tokName, str: l.regular()}, true
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		word := l.regular()
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			return token{kind: tokNumber, num: f}, true
		}
		return token{kind: tokOperator, str: word}, true
	case isDelim(b):
		// Stray delimiter such as '{' or ')'; skip it.
		l.pos++
		return l.next()
	}
	return token{kind: tokOperator, str: l.regular()}, true
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isWhite(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// literalString reads a (...) string. The opening paren is already consumed.
func (l *lexer) literalString() string {
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '\\':
			if l.pos >= len(l.data) {
				return decodeBytes(out)
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						val = val*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, b)
		case ')':
			depth--
			if depth == 0 {
				return decodeBytes(out)
			}
			out = append(out, b)
		default:
			out = append(out, b)
		}
	}
	return decodeBytes(out)
}

// hexString reads a <...> string. The opening bracket is already consumed.
func (l *lexer) hexString() string {
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if !isWhite(l.data[l.pos]) {
			digits = append(digits, l.data[l.pos])
		}
		l.pos++
	}
	l.pos++ // '>'
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return decodeBytes(out)
}

// skipInlineImage moves past image data following an ID operator.
func (l *lexer) skipInlineImage() {
	idx := bytes.Index(l.data[l.pos:], []byte("EI"))
	for idx >= 0 {
		end := l.pos + idx + 2
		if (l.pos+idx == 0 || isWhite(l.data[l.pos+idx-1])) && (end >= len(l.data) || isWhite(l.data[end])) {
			l.pos = end
			return
		}
		next := bytes.Index(l.data[end:], []byte("EI"))
		if next < 0 {
			break
		}
		idx = end - l.pos + next
	}
	l.pos = len(l.data)
}

// decodeBytes maps single-byte font encodings onto runes. Standard fonts
// written by report generators use WinAnsi, whose printable ASCII and Latin-1
// ranges map directly.
func decodeBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// =============================================================================
// TEXT STATE INTERPRETER
// =============================================================================

type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// kernSpace is the TJ adjustment, in thousandths of an em, treated as a word gap.
const kernSpace = -250

type interpreter struct {
	ctm      matrix
	stack    []matrix
	tm, tlm  matrix
	leading  float64
	fontSize float64
	operands []token
	array    []token
	inArray  bool
	runs     []Run
}

// ContentRuns interprets a decoded page content stream and returns every
// text run with its position in page space. Do operators are ignored and
// string bytes are taken as Latin-1.
func ContentRuns(content []byte) []Run {
	in := &interpreter{ctm: identity, tm: identity, tlm: identity, fontSize: 1}
	lx := &lexer{data: content}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokArrayStart:
			in.inArray = true
			in.array = in.array[:0]
		case tokArrayEnd:
			in.inArray = false
		case tokOperator:
			if tok.str == "ID" {
				lx.skipInlineImage()
				in.operands = in.operands[:0]
				continue
			}
			in.apply(tok.str)
			in.operands = in.operands[:0]
		default:
			if in.inArray {
				in.array = append(in.array, tok)
			} else {
				in.operands = append(in.operands, tok)
			}
		}
	}
	return in.runs
}

func (in *interpreter) nums(n int) ([]float64, bool) {
	if len(in.operands) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, tok := range in.operands[len(in.operands)-n:] {
		if tok.kind != tokNumber {
			return nil, false
		}
		out[i] = tok.num
	}
	return out, true
}

func (in *interpreter) lastString() (string, bool) {
	if len(in.operands) == 0 {
		return "", false
	}
	tok := in.operands[len(in.operands)-1]
	return tok.str, tok.kind == tokString
}

func (in *interpreter) apply(op string) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.ctm)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.ctm = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if v, ok := in.nums(6); ok {
			in.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.mul(in.ctm)
		}
	case "BT":
		in.tm, in.tlm = identity, identity
	case "Tf":
		if v, ok := in.nums(1); ok && v[0] != 0 {
			in.fontSize = v[0]
		}
	case "TL":
		if v, ok := in.nums(1); ok {
			in.leading = v[0]
		}
	case "Td":
		if v, ok := in.nums(2); ok {
			in.moveLine(v[0], v[1])
		}
	case "TD":
		if v, ok := in.nums(2); ok {
			in.leading = -v[1]
			in.moveLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := in.nums(6); ok {
			in.tm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.tlm = in.tm
		}
	case "T*":
		in.moveLine(0, -in.leading)
	case "Tj":
		if s, ok := in.lastString(); ok {
			in.show(s)
		}
	case "'":
		in.moveLine(0, -in.leading)
		if s, ok := in.lastString(); ok {
			in.show(s)
		}
	case "\"":
		in.moveLine(0, -in.leading)
		if s, ok := in.lastString(); ok {
			in.show(s)
		}
	case "TJ":
		var sb strings.Builder
		for _, tok := range in.array {
			switch tok.kind {
			case tokString:
				sb.WriteString(tok.str)
			case tokNumber:
				if tok.num <= kernSpace {
					sb.WriteByte(' ')
				}
			}
		}
		in.show(sb.String())
		in.array = in.array[:0]
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = translate(tx, ty).mul(in.tlm)
	in.tm = in.tlm
}

func (in *interpreter) show(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	pos := in.tm.mul(in.ctm)
	in.runs = append(in.runs, Run{X: pos[4], Y: pos[5], Text: s})

	// Glyph widths are unknown without font metrics; half an em per
	// character keeps later runs on the same line to the right.
	advance := float64(len([]rune(s))) * in.fontSize * 0.5
	in.tm = translate(advance, 0).mul(in.tm)
}
