// Package storage summarizes disk usage: the volume totals reported by the
// operating system plus the size of a few well-known user directories.
package storage

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/fenilsonani/reclaim/internal/logging"
	"github.com/fenilsonani/reclaim/internal/platform"
	"github.com/fenilsonani/reclaim/internal/walker"
)

// Usage is the capacity of the volume holding a path
type Usage struct {
	Path        string  `json:"path" yaml:"path"`
	Total       uint64  `json:"total" yaml:"total"`
	Used        uint64  `json:"used" yaml:"used"`
	Free        uint64  `json:"free" yaml:"free"`
	UsedPercent float64 `json:"used_percent" yaml:"used_percent"`
}

// Category is the measured size of one storage category
type Category struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// Analysis is a storage summary
type Analysis struct {
	Volume     Usage      `json:"volume" yaml:"volume"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// CategoryTotal sums the category sizes
func (a *Analysis) CategoryTotal() int64 {
	var total int64
	for _, c := range a.Categories {
		total += c.Size
	}
	return total
}

// VolumeUsage returns the usage of the volume containing path
func VolumeUsage(path string) (Usage, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return Usage{}, fmt.Errorf("volume usage for %s: %w", path, err)
	}
	return Usage{
		Path:        stat.Path,
		Total:       stat.Total,
		Used:        stat.Used,
		Free:        stat.Free,
		UsedPercent: stat.UsedPercent,
	}, nil
}

// Analyze reports usage of the root volume together with the size of every
// storage category that exists, largest first. Categories that cannot be
// measured or are empty are left out.
func Analyze(ctx context.Context, info *platform.Info) (*Analysis, error) {
	return analyze(ctx, "/", info.StorageCategories)
}

func analyze(ctx context.Context, volume string, locations []platform.Location) (*Analysis, error) {
	log := logging.L("storage")

	usage, err := VolumeUsage(volume)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{Volume: usage, Categories: []Category{}}
	for _, loc := range locations {
		if fi, err := os.Stat(loc.Path); err != nil || !fi.IsDir() {
			continue
		}

		size, err := walker.DirSize(ctx, loc.Path)
		if err != nil {
			if ctx.Err() != nil {
				return analysis, ctx.Err()
			}
			log.Debug("skipping storage category", "category", loc.Name, logging.KeyPath, loc.Path, logging.Err(err))
			continue
		}
		if size == 0 {
			continue
		}
		analysis.Categories = append(analysis.Categories, Category{Name: loc.Name, Path: loc.Path, Size: size})
	}

	sort.SliceStable(analysis.Categories, func(i, j int) bool {
		return analysis.Categories[i].Size > analysis.Categories[j].Size
	})
	return analysis, nil
}
