package sensor

// Unavailable is the sentinel for a temperature, usage or memory reading
// that could not be resolved. Network speeds fall back to zero instead.
const Unavailable = -1

// NameMap holds the feed label configured for each role.
type NameMap struct {
	CPUTemp     string
	CPUUsage    string
	GPUTemp     string
	GPUUsage    string
	GPUMemUsed  string
	GPUMemTotal string
	NetUp       string
	NetDown     string
}

// Readings are the normalized values of one successful poll. Speeds are
// in MB/s, memory in whatever unit the feed reports (MB for LHM).
type Readings struct {
	CPUTemp       float64 `json:"cpu_temp"`
	CPUUsage      float64 `json:"cpu_usage"`
	GPUTemp       float64 `json:"gpu_temp"`
	GPUUsage      float64 `json:"gpu_usage"`
	GPUMemUsed    float64 `json:"gpu_mem_used"`
	GPUMemTotal   float64 `json:"gpu_mem_total"`
	GPUMemPercent float64 `json:"gpu_mem_percent"`
	NetUp         float64 `json:"net_up"`
	NetDown       float64 `json:"net_down"`
}

// UnavailableReadings returns the values used before the first poll.
func UnavailableReadings() Readings {
	return Readings{
		CPUTemp:       Unavailable,
		CPUUsage:      Unavailable,
		GPUTemp:       Unavailable,
		GPUUsage:      Unavailable,
		GPUMemUsed:    Unavailable,
		GPUMemTotal:   Unavailable,
		GPUMemPercent: Unavailable,
	}
}

// Extract resolves every role from root. GPUMemPercent is carried over
// from prev unless both used and total memory are positive.
func Extract(root *Node, names NameMap, iface string, prev Readings) Readings {
	numeric := func(label string) float64 {
		if v, ok := FindNumeric(root, label); ok {
			return v
		}
		return Unavailable
	}
	temperature := func(label string) float64 {
		if v, ok := FindTemperature(root, label); ok {
			return v
		}
		return Unavailable
	}
	speed := func(label string) float64 {
		if v, ok := FindInterfaceSpeed(root, iface, label); ok {
			return v
		}
		return 0
	}

	r := Readings{
		CPUTemp:       temperature(names.CPUTemp),
		CPUUsage:      numeric(names.CPUUsage),
		GPUTemp:       temperature(names.GPUTemp),
		GPUUsage:      numeric(names.GPUUsage),
		GPUMemUsed:    numeric(names.GPUMemUsed),
		GPUMemTotal:   numeric(names.GPUMemTotal),
		GPUMemPercent: prev.GPUMemPercent,
		NetUp:         speed(names.NetUp),
		NetDown:       speed(names.NetDown),
	}

	if r.GPUMemUsed > 0 && r.GPUMemTotal > 0 {
		r.GPUMemPercent = r.GPUMemUsed / r.GPUMemTotal * 100
	}

	return r
}
