package sensor_test

import (
	"encoding/json"
	"testing"

	"codeberg.org/mutker/lhmosc/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedFixture = `{
  "Text": "Sensor", "Value": "Value", "Children": [
    {"Text": "DESKTOP", "Value": "", "Children": [
      {"Text": "AMD Ryzen 7 5800X", "Value": "", "Children": [
        {"Text": "Temperatures", "Value": "", "Children": [
          {"Text": "Core (Tctl/Tdie)", "Value": "54.3 °C", "Children": []}
        ]},
        {"Text": "Load", "Value": "", "Children": [
          {"Text": "CPU Total", "Value": "23.5 %", "Children": []}
        ]}
      ]},
      {"Text": "NVIDIA GeForce RTX 3070", "Value": "", "Children": [
        {"Text": "GPU Core_Temp-1  ( ! )", "Value": "61 °C", "Children": []},
        {"Text": "GPU Core_Used-1  ( ! )", "Value": "47 %", "Children": []},
        {"Text": "GPU Memory_Used-1  ( ! )", "Value": "2048 MB", "Children": []},
        {"Text": "GPU Memory_Total-1  ( ! )", "Value": "8192 MB", "Children": []}
      ]},
      {"Text": "Ethernet", "Value": "", "Children": [
        {"Text": "Upload Speed", "Value": "9 MB/s", "Children": []},
        {"Text": "Download Speed", "Value": "7 MB/s", "Children": []}
      ]},
      {"Text": "Wi-Fi", "Value": "", "Children": [
        {"Text": "Throughput", "Value": "", "Children": [
          {"Text": "Upload Speed", "Value": "512 KB/s", "Children": []},
          {"Text": "Download Speed", "Value": "2 GB/s", "Children": []}
        ]}
      ]}
    ]}
  ]
}`

func loadFixture(t *testing.T) *sensor.Node {
	t.Helper()
	var root sensor.Node
	require.NoError(t, json.Unmarshal([]byte(feedFixture), &root))
	return &root
}

func leaf(text, value string) sensor.Node {
	return sensor.Node{Text: text, Value: value}
}

func TestFindNumericUnits(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"512 KB/s", 0.5},
		{"2 GB/s", 2048},
		{"3.5 MB/s", 3.5},
		{"47 %", 47},
		{"12 kb/S", 12.0 / 1024},
		{"61 °C", 61},
		{"1800 RPM", 1800},
		{"42", 42},
		{"  42  ", 42},
		{"7 MB/s extra tokens", 7},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			root := sensor.Node{Children: []sensor.Node{leaf("Reading", tt.value)}}
			got, ok := sensor.FindNumeric(&root, "Reading")
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFindNumericNonFinite(t *testing.T) {
	for _, value := range []string{"NaN °C", "nan", "Inf", "-Inf %", "+infinity", "1e39 MB/s"} {
		t.Run(value, func(t *testing.T) {
			root := sensor.Node{Children: []sensor.Node{leaf("Reading", value)}}
			_, ok := sensor.FindNumeric(&root, "Reading")
			assert.False(t, ok)
		})
	}
}

func TestFindNumericNonFiniteDescends(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{
		{Text: "Load", Value: "NaN %", Children: []sensor.Node{leaf("Load", "5 %")}},
	}}

	v, ok := sensor.FindNumeric(&root, "Load")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestFindNumericLabelMatching(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{leaf("  CPU Total ", "10 %")}}

	v, ok := sensor.FindNumeric(&root, "cpu total")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = sensor.FindNumeric(&root, "CPU")
	assert.False(t, ok, "partial labels must not match")
}

func TestFindNumericNotFound(t *testing.T) {
	root := loadFixture(t)

	_, ok := sensor.FindNumeric(root, "Bus Speed")
	assert.False(t, ok)

	empty := leaf("Only", "")
	_, ok = sensor.FindNumeric(&empty, "Only")
	assert.False(t, ok)

	bare := sensor.Node{}
	_, ok = sensor.FindNumeric(&bare, "CPU Total")
	assert.False(t, ok)
}

func TestFindNumericFirstMatchWins(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{
		{Text: "Group", Children: []sensor.Node{leaf("Load", "1 %")}},
		leaf("Load", "2 %"),
	}}

	v, ok := sensor.FindNumeric(&root, "Load")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestFindNumericUnparsableMatchDescends(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{
		{Text: "Load", Value: "n/a", Children: []sensor.Node{leaf("Load", "3 %")}},
		leaf("Load", "4 %"),
	}}

	v, ok := sensor.FindNumeric(&root, "Load")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	root.Children[0].Children = nil
	v, ok = sensor.FindNumeric(&root, "Load")
	require.True(t, ok)
	assert.Equal(t, 4.0, v, "search falls through to the next sibling")
}

func TestFindTemperatureBounds(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"-60", false},
		{"-50", false},
		{"-49.9", true},
		{"45 °C", true},
		{"149.9", true},
		{"150", false},
		{"149.99999999", false},
		{"3200 RPM", false},
		{"NaN °C", false},
		{"nan", false},
		{"Inf", false},
		{"-Inf", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			root := sensor.Node{Children: []sensor.Node{leaf("Temp", tt.value)}}
			_, ok := sensor.FindTemperature(&root, "Temp")
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFindInterfaceSpeed(t *testing.T) {
	root := loadFixture(t)

	up, ok := sensor.FindInterfaceSpeed(root, sensor.DefaultInterface, "Upload Speed")
	require.True(t, ok)
	assert.Equal(t, 0.5, up, "Ethernet's upload speed must not be used")

	down, ok := sensor.FindInterfaceSpeed(root, sensor.DefaultInterface, "Download Speed")
	require.True(t, ok)
	assert.Equal(t, 2048.0, down)
}

func TestFindInterfaceSpeedScopedToFirstInterface(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{
		leaf("Upload Speed", "9 MB/s"),
		{Text: "Adapters", Children: []sensor.Node{
			{Text: "Wi-Fi", Children: []sensor.Node{leaf("Download Speed", "1 MB/s")}},
		}},
		{Text: "Wi-Fi", Children: []sensor.Node{leaf("Upload Speed", "5 MB/s")}},
	}}

	_, ok := sensor.FindInterfaceSpeed(&root, "Wi-Fi", "Upload Speed")
	assert.False(t, ok, "first Wi-Fi node decides the result")

	v, ok := sensor.FindInterfaceSpeed(&root, "Wi-Fi", "Download Speed")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestFindInterfaceSpeedMissingInterface(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{
		{Text: "wi-fi", Children: []sensor.Node{leaf("Upload Speed", "5 MB/s")}},
		leaf("Upload Speed", "9 MB/s"),
	}}

	_, ok := sensor.FindInterfaceSpeed(&root, "Wi-Fi", "Upload Speed")
	assert.False(t, ok, "interface label is matched case-sensitively")
}
