package model

import "gopkg.in/yaml.v3"

// DecodeYAML unmarshals data into out, keeping unquoted timestamps
// ("launched: 1969-07-16") as their source text instead of UTC time.Time
// values, so zone-less dates are read in the widget's location.
func DecodeYAML(data []byte, out any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		return nil
	}
	timestampsAsText(&doc)
	return doc.Decode(out)
}

func timestampsAsText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		timestampsAsText(c)
	}
}
