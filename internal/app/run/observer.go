package run

import (
	"time"

	"github.com/John-Robertt/IMDbScraper/internal/config"
	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

// Observer 用于把“运行进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出。
// - 事件按抓取顺序在调用 Execute 的 goroutine 上同步触发。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig, listingURLs []string)
	// OnListingDone 在每个榜单页（含 next-page）处理完成时调用。
	OnListingDone(res domain.ItemResult, dur time.Duration)
	// OnPhaseDone 在阶段结束时调用（listing / detail）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在每个详情页处理完成时调用；idx 从 1 开始。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
}
