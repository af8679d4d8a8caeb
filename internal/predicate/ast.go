package predicate

import (
	"regexp"
	"strconv"
)

type valueType int

const (
	typeString valueType = iota
	typeList
	typeBool
)

func (t valueType) String() string {
	switch t {
	case typeString:
		return "string"
	case typeList:
		return "list"
	default:
		return "boolean"
	}
}

// Op is a string comparison operator.
type Op string

// Comparison operators.
const (
	OpEq         Op = "=="
	OpNeq        Op = "!="
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpMatches    Op = "matches"
)

// Node is a compiled expression. The concrete types are the closed set below.
type Node interface {
	String() string
	kind() valueType
}

// StringLit is a quoted string.
type StringLit struct{ Value string }

// BoolLit is true or false.
type BoolLit struct{ Value bool }

// Field reads one declared post or attachment field.
type Field struct{ Name string }

// Lower lowercases its string argument.
type Lower struct{ Arg Node }

// IsChannel tests the post's channel id.
type IsChannel struct{ ChannelID string }

// Compare applies Op to two string operands. For OpContains the left operand
// may be a list, which tests membership.
type Compare struct {
	Op    Op
	Left  Node
	Right Node
	re    *regexp.Regexp
}

// And is logical conjunction.
type And struct{ Left, Right Node }

// Or is logical disjunction.
type Or struct{ Left, Right Node }

// Not is logical negation.
type Not struct{ X Node }

func (StringLit) kind() valueType { return typeString }
func (BoolLit) kind() valueType   { return typeBool }
func (f Field) kind() valueType   { return fields[f.Name] }
func (Lower) kind() valueType     { return typeString }
func (IsChannel) kind() valueType { return typeBool }
func (*Compare) kind() valueType  { return typeBool }
func (And) kind() valueType       { return typeBool }
func (Or) kind() valueType        { return typeBool }
func (Not) kind() valueType       { return typeBool }

func (n StringLit) String() string { return strconv.Quote(n.Value) }
func (n BoolLit) String() string   { return strconv.FormatBool(n.Value) }
func (n Field) String() string     { return n.Name }
func (n Lower) String() string     { return "lower(" + n.Arg.String() + ")" }
func (n IsChannel) String() string { return "isChannel(" + strconv.Quote(n.ChannelID) + ")" }
func (n *Compare) String() string {
	return n.Left.String() + " " + string(n.Op) + " " + n.Right.String()
}
func (n And) String() string { return "(" + n.Left.String() + " && " + n.Right.String() + ")" }
func (n Or) String() string  { return "(" + n.Left.String() + " || " + n.Right.String() + ")" }
func (n Not) String() string { return "!" + operandString(n.X) }

func operandString(n Node) string {
	if c, ok := n.(*Compare); ok {
		return "(" + c.String() + ")"
	}
	return n.String()
}

// fields lists every readable name and its type.
var fields = map[string]valueType{
	"post.id":           typeString,
	"post.guid":         typeString,
	"post.title":        typeString,
	"post.text":         typeString,
	"post.type":         typeString,
	"post.channel":      typeString,
	"post.channelTitle": typeString,
	"post.creator":      typeString,
	"post.tags":         typeList,
	"post.releaseDate":  typeString,
	"attachment":        typeBool,
	"attachment.id":     typeString,
	"attachment.title":  typeString,
}
