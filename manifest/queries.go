package manifest

// Queries are the package visibility declarations of a <queries> element.
// Values keep declaration order; authorities are not split on ';'.
type Queries struct {
	Packages  []string
	Intents   []string
	Providers []string
}

// ExtractQueries reads the first <queries> element of the tree (document
// pre-order). Only its direct children are considered; a tree without
// <queries> yields empty lists.
func ExtractQueries(root *Node) Queries {
	q := Queries{
		Packages:  []string{},
		Intents:   []string{},
		Providers: []string{},
	}

	queries := root.Find("queries")
	if queries == nil {
		return q
	}

	for _, child := range queries.Children {
		switch child.Tag {
		case "package":
			if name, ok := child.AttrValue("name"); ok {
				q.Packages = append(q.Packages, name)
			}
		case "intent":
			// category and data filters are not reported
			for _, intentChild := range child.Children {
				if intentChild.Tag != "action" {
					continue
				}
				if name, ok := intentChild.AttrValue("name"); ok {
					q.Intents = append(q.Intents, name)
				}
			}
		case "provider":
			if authorities, ok := child.AttrValue("authorities"); ok {
				q.Providers = append(q.Providers, authorities)
			}
		}
	}

	return q
}
