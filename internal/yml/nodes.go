package yml

import "gopkg.in/yaml.v3"

type Nodes []*yaml.Node

// LookupValueNode returns the value node paired with the given key in a
// mapping node's content, nil when the key is absent.
func (n Nodes) LookupValueNode(name string) *yaml.Node {
	for i := 0; i+1 < len(n); i += 2 {
		if n[i].Value == name {
			return n[i+1]
		}
	}
	return nil
}
