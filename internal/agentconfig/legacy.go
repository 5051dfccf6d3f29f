package agentconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/musher-dev/clawdash/internal/model"
)

// The legacy document is line oriented:
//
//	defaults:
//	  model: anthropic/claude-sonnet-4
//	agents:
//	  main:
//	    name: Main
//	    maxTurns: 20
//	    allowAgents: [research]
//	bindings:
//	  - channel: slack agent: main
//	  - pattern: "^ops"
//	    agent: ops
//
// Sections start at column zero. Unknown sections, full-line comments, and
// lines that do not fit the grammar are skipped; parsing never aborts on a
// single bad line.

type section int

const (
	sectionNone section = iota
	sectionAgents
	sectionBindings
	sectionDefaults
	sectionUnknown
)

// bindingToken matches key: value pairs inside one binding item. Values may
// be quoted.
var bindingToken = regexp.MustCompile(`(?:^|[\s,{])(channel|agentId|agent|pattern)\s*:\s*("(?:[^"\\]|\\.)*"|'[^']*'|[^\s,}]+)`)

type line struct {
	indent int
	text   string
}

type legacyParser struct {
	section section

	agents       []model.Agent
	agentIndent  int
	current      *model.Agent
	listProperty string
	listIndent   int

	bindings    []model.Binding
	itemIndent  int
	item        []string
	sawSections bool

	defaultModel string
}

// ParseLegacy parses the indentation-based document. It returns ErrShape when
// the document has neither an agents nor a bindings section.
func ParseLegacy(data []byte, defaultModel string) (model.AgentsOverview, error) {
	p := &legacyParser{agentIndent: -1, itemIndent: -1}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		l, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}

		p.consume(l)
	}

	if err := scanner.Err(); err != nil {
		return model.EmptyOverview(), fmt.Errorf("read legacy config: %w", err)
	}

	p.flushAgent()
	p.flushBinding()

	if !p.sawSections {
		return model.EmptyOverview(), fmt.Errorf("%w: no agents or bindings section", ErrShape)
	}

	fallback := firstNonEmpty(p.defaultModel, defaultModel)

	for i := range p.agents {
		p.agents[i].Model = firstNonEmpty(p.agents[i].Model, fallback)
	}

	return finish(p.agents, p.bindings), nil
}

// splitLine measures indentation and drops blank and comment lines. A tab
// counts as two columns.
func splitLine(raw string) (line, bool) {
	raw = strings.TrimRight(raw, " \t\r")

	indent := 0

	for i, r := range raw {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += 2
		default:
			text := raw[i:]
			if strings.HasPrefix(text, "#") {
				return line{}, false
			}

			return line{indent: indent, text: text}, true
		}
	}

	return line{}, false
}

func (p *legacyParser) consume(l line) {
	if l.indent == 0 && !(p.section == sectionBindings && isListItem(l.text)) {
		p.startSection(l.text)
		return
	}

	switch p.section {
	case sectionAgents:
		p.agentLine(l)
	case sectionBindings:
		p.bindingLine(l)
	case sectionDefaults:
		if key, value, ok := splitKeyValue(l.text); ok && key == "model" {
			if s, ok := decodeString(value); ok {
				p.defaultModel = s
			}
		}
	case sectionNone, sectionUnknown:
	}
}

func (p *legacyParser) startSection(text string) {
	p.flushAgent()
	p.flushBinding()

	key, value, ok := splitKeyValue(text)
	if !ok || value != "" {
		p.section = sectionUnknown
		return
	}

	switch key {
	case "agents":
		p.section = sectionAgents
		p.sawSections = true
		p.agentIndent = -1
	case "bindings":
		p.section = sectionBindings
		p.sawSections = true
		p.itemIndent = -1
	case "defaults":
		p.section = sectionDefaults
	default:
		p.section = sectionUnknown
	}
}

func (p *legacyParser) agentLine(l line) {
	if p.agentIndent < 0 {
		p.agentIndent = l.indent
	}

	switch {
	case l.indent == p.agentIndent:
		p.flushAgent()

		key, value, ok := splitKeyValue(l.text)
		if !ok || value != "" {
			return
		}

		id, ok := decodeString(key)
		if !ok || id == "" {
			return
		}

		p.current = &model.Agent{ID: id}
	case l.indent > p.agentIndent && p.current != nil:
		if p.listProperty != "" && l.indent >= p.listIndent && isListItem(l.text) {
			if item, ok := decodeString(strings.TrimSpace(strings.TrimPrefix(l.text, "-"))); ok && item != "" {
				p.current.AllowAgents = append(p.current.AllowAgents, item)
			}

			return
		}

		p.listProperty = ""
		p.agentProperty(l)
	}
}

func (p *legacyParser) agentProperty(l line) {
	key, value, ok := splitKeyValue(l.text)
	if !ok {
		return
	}

	agent := p.current

	switch key {
	case "name":
		if s, ok := decodeString(value); ok {
			agent.Name = s
		}
	case "model":
		if s, ok := decodeString(value); ok {
			agent.Model = s
		}
	case "thinkingLevel", "thinking":
		if s, ok := decodeString(value); ok {
			agent.ThinkingLevel = s
		}
	case "maxTurns":
		var n int
		if err := yaml.Unmarshal([]byte(value), &n); err == nil && value != "" {
			agent.MaxTurns = &n
		}
	case "allowAgents":
		if value == "" {
			p.listProperty = key
			p.listIndent = l.indent
			agent.AllowAgents = []string{}

			return
		}

		var list []string
		if err := yaml.Unmarshal([]byte(value), &list); err == nil {
			agent.AllowAgents = list
		}
	}
}

func (p *legacyParser) flushAgent() {
	if p.current != nil {
		p.agents = append(p.agents, *p.current)
	}

	p.current = nil
	p.listProperty = ""
}

func (p *legacyParser) bindingLine(l line) {
	if isListItem(l.text) {
		if p.itemIndent < 0 || l.indent <= p.itemIndent {
			p.flushBinding()
			p.itemIndent = l.indent
			p.item = []string{strings.TrimPrefix(l.text, "-")}

			return
		}
	}

	if p.item != nil && l.indent > p.itemIndent {
		p.item = append(p.item, l.text)
	}
}

func (p *legacyParser) flushBinding() {
	if p.item == nil {
		return
	}

	text := strings.Join(p.item, " ")
	p.item = nil

	var b model.Binding

	for _, m := range bindingToken.FindAllStringSubmatch(text, -1) {
		value, ok := decodeString(m[2])
		if !ok {
			continue
		}

		switch m[1] {
		case "channel":
			b.Channel = firstNonEmpty(b.Channel, value)
		case "pattern":
			b.Pattern = firstNonEmpty(b.Pattern, value)
		case "agent", "agentId":
			b.Agent = firstNonEmpty(b.Agent, value)
		}
	}

	p.bindings = append(p.bindings, b)
}

// isListItem reports a sequence entry. Entries may sit at the same column as
// their parent key.
func isListItem(text string) bool {
	return strings.HasPrefix(text, "- ") || text == "-"
}

// splitKeyValue splits "key: value" or "key:". Quoted keys are allowed.
func splitKeyValue(text string) (key, value string, ok bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return "", "", false
	}

	if idx+1 < len(text) && text[idx+1] != ' ' && text[idx+1] != '\t' {
		return "", "", false
	}

	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), true
}

// decodeString reads a scalar with YAML rules so quoting, escapes, and
// trailing comments behave as the gateway's own loader treats them.
func decodeString(raw string) (string, bool) {
	if raw == "" {
		return "", true
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return "", false
	}

	if len(node.Content) != 1 || node.Content[0].Kind != yaml.ScalarNode {
		return "", false
	}

	return node.Content[0].Value, true
}
