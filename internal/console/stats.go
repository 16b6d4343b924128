package console

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stat описывает одну строку системной статистики.
type Stat struct {
	Name  string
	Value string
}

// StatsFunc собирает системную статистику.
type StatsFunc func(ctx context.Context) ([]Stat, error)

// SystemStats собирает статистику ОС через gopsutil и статистику кучи Go runtime.
func SystemStats(ctx context.Context) ([]Stat, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load average: %w", err)
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cpu count: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("uptime: %w", err)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return []Stat{
		{Name: "Load Average", Value: fmt.Sprintf("%.2f %.2f %.2f", avg.Load1, avg.Load5, avg.Load15)},
		{Name: "CPU Count", Value: fmt.Sprint(cpus)},
		{Name: "Free Memory", Value: fmt.Sprint(vm.Free)},
		{Name: "Used Memory (%)", Value: fmt.Sprintf("%.0f", vm.UsedPercent)},
		{Name: "Heap In Use", Value: fmt.Sprint(ms.HeapInuse)},
		{Name: "Heap Used (%)", Value: fmt.Sprint(percent(ms.HeapAlloc, ms.HeapSys))},
		{Name: "Goroutines", Value: fmt.Sprint(runtime.NumGoroutine())},
		{Name: "Uptime", Value: (time.Duration(uptime) * time.Second).String()},
	}, nil
}

func percent(part, total uint64) uint64 {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}
