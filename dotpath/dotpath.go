// Package dotpath implements the dot-path grammar, parser, and evaluator
// used to address a value inside a record without a schema (§4.9, §4.12).
//
// Grammar:
//
//	path       := node (('.' node) | ('[' integer ']'))*
//	node       := identifier | '[' integer ']'
//	identifier := bare-identifier | '"' quoted-chars '"'
package dotpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NodeKind distinguishes an object-key traversal step from an array/column
// index traversal step.
type NodeKind int

const (
	KindKey NodeKind = iota
	KindIndex
)

// Node is one parsed path segment.
type Node struct {
	Kind  NodeKind
	Key   string
	Index int
}

// ErrSyntax is returned for any path that doesn't match the grammar.
var ErrSyntax = errors.New("dotpath: syntax error")

// Parse splits path into its Node sequence.
func Parse(path string) ([]Node, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrSyntax)
	}
	var nodes []Node
	i := 0
	n := len(path)
	expectNode := true
	for i < n {
		if !expectNode && path[i] != '[' {
			if path[i] != '.' {
				return nil, fmt.Errorf("%w: expected '.' at offset %d", ErrSyntax, i)
			}
			i++
			expectNode = true
			if i >= n {
				return nil, fmt.Errorf("%w: trailing '.'", ErrSyntax)
			}
		}
		switch {
		case path[i] == '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated '[' at offset %d", ErrSyntax, i)
			}
			numStr := path[i+1 : i+end]
			idx, err := strconv.Atoi(numStr)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: invalid index %q at offset %d", ErrSyntax, numStr, i)
			}
			nodes = append(nodes, Node{Kind: KindIndex, Index: idx})
			i += end + 1
		case path[i] == '"':
			j := i + 1
			var sb strings.Builder
			closed := false
			for j < n {
				if path[j] == '"' {
					closed = true
					break
				}
				sb.WriteByte(path[j])
				j++
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quoted identifier at offset %d", ErrSyntax, i)
			}
			nodes = append(nodes, Node{Kind: KindKey, Key: sb.String()})
			i = j + 1
		case isIdentStart(path[i]):
			j := i
			for j < n && isIdentChar(path[j]) {
				j++
			}
			nodes = append(nodes, Node{Kind: KindKey, Key: path[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected byte %q at offset %d", ErrSyntax, path[i], i)
		}
		expectNode = false
	}
	return nodes, nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// String renders nodes back into dot-path syntax.
func String(nodes []Node) string {
	var sb strings.Builder
	for i, n := range nodes {
		if n.Kind == KindIndex {
			fmt.Fprintf(&sb, "[%d]", n.Index)
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		if needsQuoting(n.Key) {
			fmt.Fprintf(&sb, "%q", n.Key)
		} else {
			sb.WriteString(n.Key)
		}
	}
	return sb.String()
}

func needsQuoting(key string) bool {
	if key == "" || !isIdentStart(key[0]) {
		return true
	}
	for i := 1; i < len(key); i++ {
		if !isIdentChar(key[i]) {
			return true
		}
	}
	return false
}
