// Package schema implements the JSON Decision Model document: the wire
// format described in SPEC_FULL.md §6, plus eager parsing of every
// expression and predicate cell into a cached AST at load time so the
// graph executor never reparses during evaluation.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flowgraph/jdm/expr"
)

// NodeKind identifies which variant of Node content is populated.
type NodeKind string

const (
	KindInput          NodeKind = "inputNode"
	KindOutput         NodeKind = "outputNode"
	KindDecisionTable  NodeKind = "decisionTableNode"
	KindExpression     NodeKind = "expressionNode"
	KindSwitch         NodeKind = "switchNode"
)

// Document is a parsed JDM graph: nodes keyed by id, edges in declared
// order, with every expression/predicate cell pre-parsed into an AST.
type Document struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Nodes map[string]*Node `json:"nodes"`
	Edges []Edge           `json:"edges"`
}

// Edge connects two nodes. SourceHandle, when set, carries a switch
// statement id and is used to route dispatch (see SPEC_FULL.md §4.F).
type Edge struct {
	ID           string `json:"id"`
	SourceID     string `json:"sourceId"`
	TargetID     string `json:"targetId"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Node is one vertex of the graph. Content is kind-specific; Parse
// populates it from the raw JSON payload by switching on Type.
type Node struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    NodeKind `json:"type"`
	Content Content  `json:"content,omitempty"`
}

// Content is implemented by the kind-specific payload types. Input and
// output nodes carry no content and so have no Content implementation.
type Content interface {
	contentNode()
}

// ExpressionContent holds an ordered sequence of (path, expression)
// assignments, evaluated in declared order (SPEC_FULL.md §4.E).
type ExpressionContent struct {
	Assignments []Assignment
	asts        []expr.Node // parallel to Assignments, cached at load
}

// Assignment is one target_path -> expression_string pair.
type Assignment struct {
	Path       string
	Expression string
}

func (*ExpressionContent) contentNode() {}

// AST returns the cached, pre-parsed AST for assignment i.
func (c *ExpressionContent) AST(i int) expr.Node { return c.asts[i] }

// InputColumn is a decision-table input column.
type InputColumn struct {
	ID    string `json:"id"`
	Field string `json:"field,omitempty"`
}

// OutputColumn is a decision-table output column.
type OutputColumn struct {
	ID    string `json:"id"`
	Field string `json:"field"`
}

// Rule is one decision-table row: a mapping from column id to cell text.
type Rule map[string]string

// DecisionTableContent is a decision table's full definition, plus a
// cache of parsed predicate/expression ASTs keyed by [rule index][col id].
type DecisionTableContent struct {
	HitPolicy string         `json:"hitPolicy"`
	Inputs    []InputColumn  `json:"inputs"`
	Outputs   []OutputColumn `json:"outputs"`
	Rules     []Rule         `json:"rules"`

	predicateASTs   []map[string]expr.Node // rule index -> input col id -> AST
	expressionASTs  []map[string]expr.Node // rule index -> output col id -> AST
}

func (*DecisionTableContent) contentNode() {}

// PredicateAST returns the cached predicate AST for a given rule/column.
func (c *DecisionTableContent) PredicateAST(ruleIdx int, colID string) expr.Node {
	return c.predicateASTs[ruleIdx][colID]
}

// ExpressionAST returns the cached output expression AST for a given
// rule/column.
func (c *DecisionTableContent) ExpressionAST(ruleIdx int, colID string) expr.Node {
	return c.expressionASTs[ruleIdx][colID]
}

// Statement is one switch branch: a predicate condition routed to
// successors whose inbound edge SourceHandle equals ID.
type Statement struct {
	ID        string `json:"id"`
	Condition string `json:"condition,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// SwitchContent holds a switch node's statements and hit policy.
type SwitchContent struct {
	HitPolicy  string      `json:"hitPolicy"`
	Statements []Statement `json:"statements"`

	conditionASTs []expr.Node // parallel to Statements; nil entry for default-only statements
}

func (*SwitchContent) contentNode() {}

// ConditionAST returns the cached condition AST for statement i, or nil
// if the statement has no condition (pure default).
func (c *SwitchContent) ConditionAST(i int) expr.Node { return c.conditionASTs[i] }

// ErrUnknownNodeKind is returned when a node's Type is not recognized.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// Parse decodes a JDM document from JSON and eagerly parses every
// expression and predicate cell into a cached AST (SPEC_FULL.md §9:
// "parse once at document load... this also lets parse errors be
// reported before any evaluation begins").
func Parse(data []byte) (*Document, error) {
	var raw struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Nodes map[string]struct {
			ID      string          `json:"id"`
			Name    string          `json:"name"`
			Type    NodeKind        `json:"type"`
			Content json.RawMessage `json:"content"`
		} `json:"nodes"`
		Edges []Edge `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding JDM document: %w", err)
	}

	doc := &Document{ID: raw.ID, Name: raw.Name, Edges: raw.Edges, Nodes: map[string]*Node{}}
	for id, rn := range raw.Nodes {
		node := &Node{ID: rn.ID, Name: rn.Name, Type: rn.Type}
		content, err := parseContent(rn.Type, rn.Content)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", id, err)
		}
		node.Content = content
		doc.Nodes[id] = node
	}
	return doc, nil
}

func parseContent(kind NodeKind, raw json.RawMessage) (Content, error) {
	switch kind {
	case KindInput, KindOutput:
		return nil, nil
	case KindExpression:
		return parseExpressionContent(raw)
	case KindDecisionTable:
		return parseDecisionTableContent(raw)
	case KindSwitch:
		return parseSwitchContent(raw)
	default:
		return nil, fmt.Errorf("type %q: %w", kind, ErrUnknownNodeKind)
	}
}

func parseExpressionContent(raw json.RawMessage) (*ExpressionContent, error) {
	if len(raw) == 0 {
		return &ExpressionContent{}, nil
	}
	var wire struct {
		Expressions json.RawMessage `json:"expressions"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding expression content: %w", err)
	}
	assignments, err := decodeOrderedStringMap(wire.Expressions)
	if err != nil {
		return nil, fmt.Errorf("decoding expressions: %w", err)
	}

	c := &ExpressionContent{}
	for _, a := range assignments {
		n, err := expr.Parse(a.Expression)
		if err != nil {
			return nil, fmt.Errorf("expression at %q: %w", a.Path, err)
		}
		c.Assignments = append(c.Assignments, a)
		c.asts = append(c.asts, n)
	}
	return c, nil
}

// decodeOrderedStringMap decodes a JSON object of string values,
// preserving declaration order (SPEC_FULL.md §4.E: "later expressions
// see earlier assignments"). encoding/json's map[string]string forgets
// key order, so this token-streams the object the same way
// value.Value.UnmarshalJSON does.
func decodeOrderedStringMap(raw json.RawMessage) ([]Assignment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []Assignment
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("object key is not a string")
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		val, ok := valTok.(string)
		if !ok {
			return nil, fmt.Errorf("value at %q is not a string", key)
		}
		out = append(out, Assignment{Path: key, Expression: val})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	return out, nil
}

func parseDecisionTableContent(raw json.RawMessage) (*DecisionTableContent, error) {
	var c DecisionTableContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decoding decision table content: %w", err)
	}
	c.predicateASTs = make([]map[string]expr.Node, len(c.Rules))
	c.expressionASTs = make([]map[string]expr.Node, len(c.Rules))
	for i, rule := range c.Rules {
		preds := make(map[string]expr.Node, len(c.Inputs))
		for _, col := range c.Inputs {
			cell, ok := rule[col.ID]
			if !ok {
				cell = ""
			}
			n, err := expr.ParsePredicate(cell)
			if err != nil {
				return nil, fmt.Errorf("rule %d, input column %q: %w", i, col.ID, err)
			}
			preds[col.ID] = n
		}
		c.predicateASTs[i] = preds

		exprs := make(map[string]expr.Node, len(c.Outputs))
		for _, col := range c.Outputs {
			cell, ok := rule[col.ID]
			if !ok {
				cell = "null"
			}
			n, err := expr.Parse(cell)
			if err != nil {
				return nil, fmt.Errorf("rule %d, output column %q: %w", i, col.ID, err)
			}
			exprs[col.ID] = n
		}
		c.expressionASTs[i] = exprs
	}
	return &c, nil
}

func parseSwitchContent(raw json.RawMessage) (*SwitchContent, error) {
	var c SwitchContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decoding switch content: %w", err)
	}
	c.conditionASTs = make([]expr.Node, len(c.Statements))
	for i, st := range c.Statements {
		if st.Condition == "" {
			continue
		}
		n, err := expr.ParsePredicate(st.Condition)
		if err != nil {
			return nil, fmt.Errorf("statement %q: %w", st.ID, err)
		}
		c.conditionASTs[i] = n
	}
	return &c, nil
}
