package predicate

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"floatsync/internal/floatplane"
)

// Input is what a rule can see.
type Input struct {
	Post       floatplane.Post
	Attachment *floatplane.Attachment
}

type value struct {
	s    string
	list []string
	b    bool
}

func lowerString(s string) string {
	// Casers carry state, so each call gets its own.
	return cases.Lower(language.Und).String(s)
}

func eval(n Node, in *Input) value {
	switch n := n.(type) {
	case StringLit:
		return value{s: n.Value}
	case BoolLit:
		return value{b: n.Value}
	case Field:
		return readField(n.Name, in)
	case Lower:
		return value{s: lowerString(eval(n.Arg, in).s)}
	case IsChannel:
		return value{b: in.Post.Channel.ID == n.ChannelID}
	case *Compare:
		return value{b: compare(n, in)}
	case And:
		return value{b: eval(n.Left, in).b && eval(n.Right, in).b}
	case Or:
		return value{b: eval(n.Left, in).b || eval(n.Right, in).b}
	case Not:
		return value{b: !eval(n.X, in).b}
	default:
		return value{}
	}
}

func compare(n *Compare, in *Input) bool {
	left := eval(n.Left, in)
	right := eval(n.Right, in).s
	if n.Left.kind() == typeList {
		return slices.Contains(left.list, right)
	}
	switch n.Op {
	case OpEq:
		return left.s == right
	case OpNeq:
		return left.s != right
	case OpContains:
		return strings.Contains(left.s, right)
	case OpStartsWith:
		return strings.HasPrefix(left.s, right)
	case OpEndsWith:
		return strings.HasSuffix(left.s, right)
	case OpMatches:
		return n.re.MatchString(left.s)
	default:
		return false
	}
}

func readField(name string, in *Input) value {
	post := in.Post
	switch name {
	case "post.id":
		return value{s: post.ID}
	case "post.guid":
		return value{s: post.GUID}
	case "post.title":
		return value{s: post.Title}
	case "post.text":
		return value{s: post.Text}
	case "post.type":
		return value{s: post.Type}
	case "post.channel":
		return value{s: post.Channel.ID}
	case "post.channelTitle":
		return value{s: post.Channel.Title}
	case "post.creator":
		return value{s: post.Creator.ID}
	case "post.tags":
		return value{list: post.Tags}
	case "post.releaseDate":
		if post.ReleaseDate.IsZero() {
			return value{}
		}
		return value{s: post.ReleaseDate.UTC().Format(time.RFC3339)}
	case "attachment":
		return value{b: in.Attachment != nil}
	case "attachment.id":
		if in.Attachment == nil {
			return value{}
		}
		return value{s: in.Attachment.ID}
	case "attachment.title":
		if in.Attachment == nil {
			return value{}
		}
		return value{s: in.Attachment.Title}
	default:
		return value{}
	}
}
