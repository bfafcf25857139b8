// Package diagnostics collects host and database statistics for the doctor
// command. Everything is best-effort: probes that fail leave their fields
// zeroed rather than failing the report.
package diagnostics

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Report holds a point-in-time snapshot of the host and the workout database.
type Report struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`

	CPUModel   string `json:"cpu_model,omitempty"`
	CPUCores   int    `json:"cpu_cores,omitempty"`
	CPUThreads int    `json:"cpu_threads,omitempty"`

	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	// Disk usage of the filesystem holding the database.
	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskFreeGB  float64 `json:"disk_free_gb"`
	DiskPercent float64 `json:"disk_percent"`

	DatabasePath  string `json:"database_path"`
	DatabaseBytes int64  `json:"database_bytes"`
}

// Collect gathers a report for the database at dbPath.
func Collect(dbPath string) Report {
	r := Report{
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		DatabasePath: dbPath,
	}

	collectCPU(&r)
	collectMemory(&r)
	collectDisk(&r, dbPath)

	if info, err := os.Stat(dbPath); err == nil {
		r.DatabaseBytes = info.Size()
	}
	return r
}

func collectCPU(r *Report) {
	info, err := ghw.CPU()
	if err != nil || len(info.Processors) == 0 {
		return
	}
	r.CPUModel = info.Processors[0].Model
	r.CPUCores = int(info.TotalCores)
	r.CPUThreads = int(info.TotalThreads)
}

func collectMemory(r *Report) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	r.MemTotalMB = float64(vm.Total) / 1024 / 1024
	r.MemUsedMB = float64(vm.Used) / 1024 / 1024
	r.MemPercent = vm.UsedPercent
}

func collectDisk(r *Report, dbPath string) {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); err != nil {
		dir = "."
	}
	usage, err := disk.Usage(dir)
	if err != nil {
		return
	}
	r.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
	r.DiskFreeGB = float64(usage.Free) / 1024 / 1024 / 1024
	r.DiskPercent = usage.UsedPercent
}
