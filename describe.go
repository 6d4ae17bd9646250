package props

import "fmt"

// PropertyInfo describes one declared property for introspection.
type PropertyInfo struct {
	Label      string     `json:"label"`
	Class      string     `json:"class"`
	Visibility Visibility `json:"visibility"`
	HasGetHook bool       `json:"has_get_hook,omitempty"`
	HasSetHook bool       `json:"has_set_hook,omitempty"`
	Entries    int        `json:"entries"`
}

// ClassDocument is a point-in-time description of a class: its ancestry and
// every property the class chain contributes, with current entry counts.
// Entry counts are per-store totals, so ancestors shared with other classes
// report entries from all their instances.
type ClassDocument struct {
	Class      string         `json:"class"`
	Parent     string         `json:"parent,omitempty"`
	Properties []PropertyInfo `json:"properties"`
}

// Describe generates the class document for class.
func (rt *Runtime) Describe(class *Class) (ClassDocument, error) {
	if class == nil {
		return ClassDocument{}, fmt.Errorf("props: class is required")
	}
	descriptors := class.chain()
	properties := make([]PropertyInfo, 0, len(descriptors))
	for _, d := range descriptors {
		properties = append(properties, PropertyInfo{
			Label:      d.label,
			Class:      d.class.name,
			Visibility: d.visibility,
			HasGetHook: d.getHook != nil,
			HasSetHook: d.setHook != nil,
			Entries:    d.store.Len(),
		})
	}
	doc := ClassDocument{
		Class:      class.name,
		Properties: properties,
	}
	if class.parent != nil {
		doc.Parent = class.parent.name
	}
	return doc, nil
}
