package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SysHealth is a snapshot of process and data-directory health.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	DataDiskSize string `json:"data_disk_size"`
}

// GetSysHealth collects real-time health data. dataPath is the directory
// holding the database and checked-state files.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: dirSize(dataPath),
	}
}

// Report renders health and usage as plain text for chat replies and the CLI.
func Report(h SysHealth, usage []DailyUsage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Memory: %d MB alloc, %d MB sys, %d GC\n", h.AllocMB, h.SysMB, h.NumGC)
	fmt.Fprintf(&sb, "Goroutines: %d\n", h.Goroutines)
	fmt.Fprintf(&sb, "Data: %s\n", h.DataDiskSize)

	if len(usage) == 0 {
		sb.WriteString("No AI usage recorded.")
		return sb.String()
	}
	sb.WriteString("AI usage:")
	for _, u := range usage {
		fmt.Fprintf(&sb, "\n%s: %d calls, %d in / %d out tokens", u.Date, u.TotalExecution, u.TotalPrompt, u.TotalCompletion)
	}
	return sb.String()
}

func dirSize(path string) string {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
