// Package sensor resolves named readings out of the labeled sensor tree
// served by LibreHardwareMonitor's data.json endpoint.
package sensor

// Node is one entry of the sensor tree. Children are searched in order,
// so the order of the feed is significant.
type Node struct {
	Text     string `json:"Text"`
	Value    string `json:"Value"`
	Children []Node `json:"Children"`
}
