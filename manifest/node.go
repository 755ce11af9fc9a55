package manifest

import (
	"encoding/xml"
)

const xmlnsSpace = "xmlns"

// Attr is a decoded attribute. Value is the attribute's typed value rendered
// as a string (resource references resolved when resources.arsc is readable).
type Attr struct {
	Namespace string
	Name      string
	Value     string
}

// Node is a generic decoded XML element. The tree is read-only once built.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
}

// AttrValue returns the value of the first attribute with the given local
// name. Empty values are reported as absent.
func (n *Node) AttrValue(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Namespace == xmlnsSpace {
			continue
		}
		if a.Name == name {
			return a.Value, a.Value != ""
		}
	}
	return "", false
}

// Find returns the first node with the given tag in depth-first pre-order,
// starting with n itself.
func (n *Node) Find(tag string) *Node {
	if n == nil {
		return nil
	}
	if n.Tag == tag {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// treeEncoder builds a Node tree out of the token stream apkparser emits.
// It satisfies apkparser.ManifestEncoder.
type treeEncoder struct {
	root  *Node
	stack []*Node
}

func (e *treeEncoder) EncodeToken(t xml.Token) error {
	switch tok := t.(type) {
	case xml.StartElement:
		node := &Node{Tag: tok.Name.Local}
		for _, a := range tok.Attr {
			node.Attrs = append(node.Attrs, Attr{
				Namespace: a.Name.Space,
				Name:      a.Name.Local,
				Value:     a.Value,
			})
		}

		if len(e.stack) == 0 {
			if e.root == nil {
				e.root = node
			}
		} else {
			parent := e.stack[len(e.stack)-1]
			parent.Children = append(parent.Children, node)
		}
		e.stack = append(e.stack, node)
	case xml.EndElement:
		if len(e.stack) > 0 {
			e.stack = e.stack[:len(e.stack)-1]
		}
	}
	return nil
}

func (e *treeEncoder) Flush() error {
	return nil
}
