package osc

// Avatar parameter addresses, in the order they are sent each poll.
const (
	PathCPUTemp       = "/avatar/parameters/CPU_Temp"
	PathCPUUsage      = "/avatar/parameters/CPU_Usage"
	PathGPUTemp       = "/avatar/parameters/GPU_Temp"
	PathGPUUsage      = "/avatar/parameters/GPU_Usage"
	PathGPUMemUsed    = "/avatar/parameters/GPU_Memory_Used"
	PathGPUMemPercent = "/avatar/parameters/GPU_Memory_Percent"
	PathNetUp         = "/avatar/parameters/Wifi_Up"
	PathNetDown       = "/avatar/parameters/Wifi_Down"
	PathTimeString    = "/avatar/parameters/TimeString"
	PathWeekday       = "/avatar/parameters/Weekday"
)
