package sensor_test

import (
	"testing"

	"codeberg.org/mutker/lhmosc/internal/sensor"
	"github.com/stretchr/testify/assert"
)

var defaultNames = sensor.NameMap{
	CPUTemp:     "Core (Tctl/Tdie)",
	CPUUsage:    "CPU Total",
	GPUTemp:     "GPU Core_Temp-1  ( ! )",
	GPUUsage:    "GPU Core_Used-1  ( ! )",
	GPUMemUsed:  "GPU Memory_Used-1  ( ! )",
	GPUMemTotal: "GPU Memory_Total-1  ( ! )",
	NetUp:       "Upload Speed",
	NetDown:     "Download Speed",
}

func TestExtract(t *testing.T) {
	root := loadFixture(t)

	r := sensor.Extract(root, defaultNames, sensor.DefaultInterface, sensor.UnavailableReadings())

	assert.InDelta(t, 54.3, r.CPUTemp, 1e-5)
	assert.Equal(t, 23.5, r.CPUUsage)
	assert.Equal(t, 61.0, r.GPUTemp)
	assert.Equal(t, 47.0, r.GPUUsage)
	assert.Equal(t, 2048.0, r.GPUMemUsed)
	assert.Equal(t, 8192.0, r.GPUMemTotal)
	assert.Equal(t, 25.0, r.GPUMemPercent)
	assert.Equal(t, 0.5, r.NetUp)
	assert.Equal(t, 2048.0, r.NetDown)
}

func TestExtractSentinels(t *testing.T) {
	root := sensor.Node{Text: "Sensor"}

	r := sensor.Extract(&root, defaultNames, sensor.DefaultInterface, sensor.UnavailableReadings())

	assert.Equal(t, sensor.UnavailableReadings(), r)
	assert.Equal(t, 0.0, r.NetUp)
	assert.Equal(t, 0.0, r.NetDown)
}

func TestExtractKeepsMemoryPercent(t *testing.T) {
	root := sensor.Node{Children: []sensor.Node{
		leaf("GPU Memory_Used-1  ( ! )", "0 MB"),
		leaf("GPU Memory_Total-1  ( ! )", "8192 MB"),
	}}
	prev := sensor.UnavailableReadings()
	prev.GPUMemPercent = 37.5

	r := sensor.Extract(&root, defaultNames, sensor.DefaultInterface, prev)

	assert.Equal(t, 0.0, r.GPUMemUsed)
	assert.Equal(t, 37.5, r.GPUMemPercent)
}
