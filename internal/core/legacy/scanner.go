package legacy

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Block is the repaired text of one "<name> = { ... }" month object
type Block struct {
	Name string
	Text string
}

type scanState int

const (
	seekingBlockStart scanState = iota
	insideBlock
)

func (s scanState) String() string {
	switch s {
	case seekingBlockStart:
		return "seeking-block-start"
	case insideBlock:
		return "inside-block"
	default:
		return "unknown"
	}
}

var blockStartRe = regexp.MustCompile(`^\s*([A-Za-zÀ-ÿ]+)\s*=\s*\{\s*$`)

// blockScanner tracks brace depth line by line. A block closes only when the
// depth returns to exactly zero; blocks still open at end of input, including
// ones whose depth went negative, are never emitted.
type blockScanner struct {
	state  scanState
	depth  int
	name   string
	buf    []string
	blocks []Block
	index  map[string]int
}

func newBlockScanner() *blockScanner {
	return &blockScanner{
		state: seekingBlockStart,
		index: make(map[string]int),
	}
}

func (s *blockScanner) feed(line string) {
	switch s.state {
	case seekingBlockStart:
		m := blockStartRe.FindStringSubmatch(line)
		if m == nil {
			return
		}
		s.state = insideBlock
		s.name = m[1]
		s.depth = 1
		s.buf = []string{"{"}

	case insideBlock:
		s.depth += strings.Count(line, "{")
		s.depth -= strings.Count(line, "}")
		s.buf = append(s.buf, line)
		if s.depth == 0 {
			s.emit()
		}
	}
}

// emit stores the closed block. A later block with the same name replaces
// the earlier text but keeps its position.
func (s *blockScanner) emit() {
	block := Block{Name: s.name, Text: RepairBlock(strings.Join(s.buf, "\n"))}
	if i, ok := s.index[s.name]; ok {
		s.blocks[i] = block
	} else {
		s.index[s.name] = len(s.blocks)
		s.blocks = append(s.blocks, block)
	}

	s.state = seekingBlockStart
	s.name = ""
	s.depth = 0
	s.buf = nil
}

// ScanBlocks extracts month blocks, in source order, from comment-free text
func ScanBlocks(text string) []Block {
	s := newBlockScanner()
	for _, line := range strings.Split(text, "\n") {
		s.feed(strings.TrimSuffix(line, "\r"))
	}
	return s.blocks
}

// DecodeText reads raw as UTF-8, falling back to Latin-1 when it is not valid
// UTF-8. A UTF-8 byte order mark is dropped.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return strings.TrimPrefix(string(raw), "\ufeff")
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// ISO-8859-1 maps every byte
		return string(raw)
	}
	return string(decoded)
}

// Parse decodes, strips comments and scans raw legacy source
func Parse(raw []byte) []Block {
	return ScanBlocks(StripComments(DecodeText(raw)))
}
