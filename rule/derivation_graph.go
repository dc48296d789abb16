package rule

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"gitlab.grandhoo.com/rock/rock_seco/dataset"
)

// DerivationGraph renders the predecessor chains of rules in DOT format.
func DerivationGraph(rules []*Rule, ex *dataset.Examples) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("derivation"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	ids := make(map[*Rule]string)
	var add func(r *Rule) (string, error)
	add = func(r *Rule) (string, error) {
		if id, ok := ids[r]; ok {
			return id, nil
		}
		id := "r" + strconv.Itoa(len(ids))
		ids[r] = id
		label := strconv.Quote(fmt.Sprintf("%s\n%.4f", r.Format(ex), r.Score()))
		if err := g.AddNode("derivation", id, map[string]string{"label": label, "shape": "box"}); err != nil {
			return "", err
		}
		if r.Predecessor != nil {
			parent, err := add(r.Predecessor)
			if err != nil {
				return "", err
			}
			if err := g.AddEdge(parent, id, true, nil); err != nil {
				return "", err
			}
		}
		return id, nil
	}
	for _, r := range rules {
		if _, err := add(r); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}
