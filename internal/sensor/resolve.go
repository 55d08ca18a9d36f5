package sensor

import (
	"math"
	"strconv"
	"strings"
)

const (
	minPlausibleTemp = -50
	maxPlausibleTemp = 150

	// DefaultInterface is the adapter node the network lookup is scoped to.
	DefaultInterface = "Wi-Fi"
)

// FindNumeric returns the first value, in depth-first pre-order, of a node
// whose trimmed label matches label case-insensitively. A matching node
// whose value does not parse is searched through its children instead.
func FindNumeric(node *Node, label string) (float64, bool) {
	if strings.EqualFold(strings.TrimSpace(node.Text), label) {
		if v, ok := parseValue(node.Value); ok {
			return v, true
		}
	}

	for i := range node.Children {
		if v, ok := FindNumeric(&node.Children[i], label); ok {
			return v, true
		}
	}

	return 0, false
}

// FindTemperature is FindNumeric restricted to readings inside (-50, 150).
func FindTemperature(node *Node, label string) (float64, bool) {
	v, ok := FindNumeric(node, label)
	if !ok || !(v > minPlausibleTemp && v < maxPlausibleTemp) {
		return 0, false
	}

	return v, true
}

// FindInterfaceSpeed looks for the first descendant labeled exactly iface
// and resolves label inside that subtree only. The first interface node in
// depth-first order decides the result, even when label is missing under it.
func FindInterfaceSpeed(node *Node, iface, label string) (float64, bool) {
	v, ok, _ := findInterface(node, iface, label)
	return v, ok
}

func findInterface(node *Node, iface, label string) (v float64, ok, scoped bool) {
	for i := range node.Children {
		child := &node.Children[i]
		if strings.TrimSpace(child.Text) == iface {
			v, ok = FindNumeric(child, label)
			return v, ok, true
		}
		if v, ok, scoped = findInterface(child, iface, label); scoped {
			return v, ok, true
		}
	}

	return 0, false, false
}

// parseValue reads "<number>" or "<number> <unit>" and normalizes
// throughput to MB/s. Unknown units pass through unchanged. Values carry
// float32 precision, the precision they are emitted with; NaN and
// infinities count as unparsable.
func parseValue(raw string) (float64, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(fields[0], 32)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	if len(fields) > 1 {
		switch strings.ToLower(fields[1]) {
		case "kb/s":
			v /= 1024
		case "gb/s":
			v *= 1024
		}
	}

	return float64(float32(v)), true
}
