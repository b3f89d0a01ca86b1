package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/mgomes/tinyscript/tiny"
)

const (
	severityError   = 1
	severityWarning = 2

	completionKindMethod   = 2
	completionKindProperty = 10
	completionKindKeyword  = 14
)

var lspKeywords = []string{"and", "false", "func", "if", "or", "return", "true", "while"}

// lspMembers documents the members and methods available on values.
var lspMembers = map[string]string{
	"length":      "`value.length` number of elements of an array or bytes of a text",
	"starts_with": "`text.starts_with(prefix)` reports whether text begins with prefix",
}

type lspInboundMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type lspResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type lspOutboundMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *json.RawMessage  `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  any               `json:"params,omitempty"`
	Result  any               `json:"result,omitempty"`
	Error   *lspResponseError `json:"error,omitempty"`
}

type lspDidOpenParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
}

type lspDidChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type lspTextDocumentPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	} `json:"position"`
}

type lspServer struct {
	reader *bufio.Reader
	writer *bufio.Writer
	docs   map[string]string
}

func runLSP() error {
	server := &lspServer{
		reader: bufio.NewReader(os.Stdin),
		writer: bufio.NewWriter(os.Stdout),
		docs:   make(map[string]string),
	}
	return server.serve()
}

func (s *lspServer) serve() error {
	for {
		payload, err := s.readPayload()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var incoming lspInboundMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			continue
		}

		for _, msg := range s.handleMessage(incoming) {
			if err := s.writePayload(msg); err != nil {
				return err
			}
		}

		if incoming.Method == "exit" {
			return nil
		}
	}
}

func (s *lspServer) handleMessage(incoming lspInboundMessage) []lspOutboundMessage {
	switch incoming.Method {
	case "initialize":
		return []lspOutboundMessage{{
			JSONRPC: "2.0",
			ID:      incoming.ID,
			Result: map[string]any{
				"capabilities": map[string]any{
					"textDocumentSync": 1,
					"hoverProvider":    true,
					"completionProvider": map[string]any{
						"resolveProvider":   false,
						"triggerCharacters": []string{"."},
					},
				},
				"serverInfo": map[string]any{"name": "tiny-lsp"},
			},
		}}
	case "initialized", "exit":
		return nil
	case "shutdown":
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{{JSONRPC: "2.0", ID: incoming.ID, Result: nil}}
	case "textDocument/didOpen":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return nil
		}
		s.docs[params.TextDocument.URI] = params.TextDocument.Text
		return []lspOutboundMessage{s.publishDiagnostics(params.TextDocument.URI, params.TextDocument.Text)}
	case "textDocument/didChange":
		var params lspDidChangeParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil || len(params.ContentChanges) == 0 {
			return nil
		}
		latest := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.docs[params.TextDocument.URI] = latest
		return []lspOutboundMessage{s.publishDiagnostics(params.TextDocument.URI, latest)}
	case "textDocument/didClose":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err == nil {
			delete(s.docs, params.TextDocument.URI)
		}
		return nil
	case "textDocument/completion":
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{{
			JSONRPC: "2.0",
			ID:      incoming.ID,
			Result: map[string]any{
				"isIncomplete": false,
				"items":        completionItems(),
			},
		}}
	case "textDocument/hover":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return []lspOutboundMessage{{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Error:   &lspResponseError{Code: -32602, Message: "invalid hover params"},
			}}
		}
		source := s.docs[params.TextDocument.URI]
		word := wordAtPosition(source, params.Position.Line, params.Position.Character)
		if word == "" {
			return []lspOutboundMessage{{JSONRPC: "2.0", ID: incoming.ID, Result: nil}}
		}
		return []lspOutboundMessage{{
			JSONRPC: "2.0",
			ID:      incoming.ID,
			Result: map[string]any{
				"contents": map[string]any{
					"kind":  "markdown",
					"value": describeWord(source, word),
				},
			},
		}}
	default:
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{{
			JSONRPC: "2.0",
			ID:      incoming.ID,
			Error:   &lspResponseError{Code: -32601, Message: "method not found"},
		}}
	}
}

func (s *lspServer) publishDiagnostics(uri, source string) lspOutboundMessage {
	return lspOutboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: map[string]any{
			"uri":         uri,
			"diagnostics": diagnosticsForSource(source),
		},
	}
}

// diagnosticsForSource reports the parse error of a document, or the
// analyzer warnings when it parses.
func diagnosticsForSource(source string) []map[string]any {
	source = strings.TrimSuffix(source, "\n")
	lines := strings.Split(source, "\n")
	at := func(pos tiny.Position, severity int, message string) map[string]any {
		line := max(0, pos.Line-1)
		return newDiagnostic(line, utf16Column(lines, line, pos.Column), severity, message)
	}

	program, err := tiny.Parse(source)
	if err != nil {
		var parseErr *tiny.ParseError
		if !errors.As(err, &parseErr) {
			return []map[string]any{newDiagnostic(0, 0, severityError, err.Error())}
		}
		return []map[string]any{at(parseErr.Pos, severityError, parseErr.Msg)}
	}

	warnings := analyzeProgram(program)
	out := make([]map[string]any, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, at(w.Pos, severityWarning, w.Message))
	}
	return out
}

// utf16Column maps a 1-based rune column on a 0-based line to the 0-based
// UTF-16 character offset used by LSP positions.
func utf16Column(lines []string, line, column int) int {
	runes := column - 1
	if runes <= 0 {
		return 0
	}
	if line >= len(lines) {
		return runes
	}
	units := 0
	for _, r := range lines[line] {
		if runes == 0 {
			break
		}
		units += utf16.RuneLen(r)
		runes--
	}
	return units + runes
}

func newDiagnostic(line, character, severity int, message string) map[string]any {
	return map[string]any{
		"range": map[string]any{
			"start": map[string]any{
				"line":      line,
				"character": character,
			},
			"end": map[string]any{
				"line":      line,
				"character": character + 1,
			},
		},
		"severity": severity,
		"source":   "tiny-lsp",
		"message":  message,
	}
}

func completionItems() []map[string]any {
	items := make([]map[string]any, 0, len(lspKeywords)+len(lspMembers))
	for _, keyword := range lspKeywords {
		items = append(items, map[string]any{
			"label":  keyword,
			"kind":   completionKindKeyword,
			"detail": "keyword",
		})
	}
	for name := range lspMembers {
		kind, detail := completionKindProperty, "member"
		if name == "starts_with" {
			kind, detail = completionKindMethod, "method"
		}
		items = append(items, map[string]any{
			"label":  name,
			"kind":   kind,
			"detail": detail,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i]["label"].(string) < items[j]["label"].(string)
	})
	return items
}

// describeWord renders hover text. Functions defined in the document show
// their signature.
func describeWord(source, word string) string {
	for _, keyword := range lspKeywords {
		if keyword == word {
			return fmt.Sprintf("`%s`\n\nTinyScript keyword", word)
		}
	}
	if doc, ok := lspMembers[word]; ok {
		return doc
	}
	if program, err := tiny.Parse(strings.TrimSuffix(source, "\n")); err == nil {
		for _, stmt := range program.Statements {
			if fn, ok := stmt.(*tiny.FunctionStmt); ok && fn.Name == word {
				return fmt.Sprintf("```\nfunc %s(%s)\n```\n\ndefined on line %d", fn.Name, strings.Join(fn.Function.Params, ", "), fn.Pos().Line)
			}
		}
	}
	return fmt.Sprintf("`%s`\n\nTinyScript variable", word)
}

// wordAtPosition finds the identifier under an LSP position. character
// counts UTF-16 code units.
func wordAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	runes := []rune(lines[line])
	if len(runes) == 0 {
		return ""
	}
	cursor := runeIndexForUTF16(runes, max(character, 0))
	if cursor == len(runes) {
		cursor--
	}
	if !isWordRune(runes[cursor]) {
		if cursor > 0 && isWordRune(runes[cursor-1]) {
			cursor--
		} else {
			return ""
		}
	}

	start := cursor
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	end := cursor
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return string(runes[start:end])
}

func runeIndexForUTF16(runes []rune, units int) int {
	count := 0
	for i, r := range runes {
		if count >= units {
			return i
		}
		count += utf16.RuneLen(r)
	}
	return len(runes)
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == '_'
}

func (s *lspServer) readPayload() ([]byte, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, errors.New("missing Content-Length header")
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *lspServer) writePayload(msg lspOutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}
