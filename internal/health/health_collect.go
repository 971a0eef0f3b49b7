// Package health assembles a diagnostic snapshot of the process, its config
// and the network link.
package health

import (
	"runtime"
	"time"
)

// Options selects what Collect reports.
type Options struct {
	ConfigPath string
	LogFile    string
	Model      string
	ModelName  string
	APIBase    string
	APIKeySet  bool
	WifiSSID   string
	ProbeAddr  string
	// Probe, if set, is called once to test network readiness.
	Probe func() bool
	Now   func() time.Time
}

// Snapshot is the health report.
type Snapshot struct {
	Status    string       `json:"status"`
	Runtime   RuntimeInfo  `json:"runtime"`
	Memory    MemoryInfo   `json:"memory"`
	Config    *ConfigInfo  `json:"config,omitempty"`
	Network   *NetworkInfo `json:"network,omitempty"`
	Timestamp string       `json:"timestamp"`
}

// RuntimeInfo describes the Go runtime.
type RuntimeInfo struct {
	Version    string `json:"version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	CPUs       int    `json:"cpus"`
	Goroutines int    `json:"goroutines"`
}

// MemoryInfo is a subset of runtime.MemStats in megabytes.
type MemoryInfo struct {
	AllocMB      float64 `json:"allocMb"`
	TotalAllocMB float64 `json:"totalAllocMb"`
	SysMB        float64 `json:"sysMb"`
	NumGC        uint32  `json:"numGc"`
}

// ConfigInfo summarizes the loaded config without secrets.
type ConfigInfo struct {
	Path      string `json:"path,omitempty"`
	LogFile   string `json:"logFile,omitempty"`
	Model     string `json:"model"`
	ModelName string `json:"modelName,omitempty"`
	APIBase   string `json:"apiBase,omitempty"`
	APIKeySet bool   `json:"apiKeySet"`
	WifiSSID  string `json:"wifiSsid,omitempty"`
}

// NetworkInfo is the result of one readiness probe.
type NetworkInfo struct {
	ProbeAddr string `json:"probeAddr,omitempty"`
	Ready     bool   `json:"ready"`
	ProbeMs   int64  `json:"probeMs"`
}

// Collect returns a health snapshot for the current process.
func Collect(opts Options) Snapshot {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status: "healthy",
		Runtime: RuntimeInfo{
			Version:    runtime.Version(),
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			CPUs:       runtime.NumCPU(),
			Goroutines: runtime.NumGoroutine(),
		},
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Timestamp: now().Format(time.RFC3339),
	}

	if opts.Model != "" || opts.ConfigPath != "" {
		s.Config = &ConfigInfo{
			Path:      opts.ConfigPath,
			LogFile:   opts.LogFile,
			Model:     opts.Model,
			ModelName: opts.ModelName,
			APIBase:   opts.APIBase,
			APIKeySet: opts.APIKeySet,
			WifiSSID:  opts.WifiSSID,
		}
		if !opts.APIKeySet {
			s.Status = "unconfigured"
		}
	}

	if opts.Probe != nil {
		start := now()
		ready := opts.Probe()
		s.Network = &NetworkInfo{
			ProbeAddr: opts.ProbeAddr,
			Ready:     ready,
			ProbeMs:   now().Sub(start).Milliseconds(),
		}
		if !ready && s.Status == "healthy" {
			s.Status = "offline"
		}
	}

	return s
}
