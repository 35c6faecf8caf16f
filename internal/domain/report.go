package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	KindListing = "listing"
	KindDetail  = "detail"
)

const (
	StatusListed   = "listed"
	StatusAdmitted = "admitted"
	StatusDropped  = "dropped"
	StatusFailed   = "failed"
)

const (
	ErrCodeFetchFailed = "fetch_failed"
	ErrCodeParseFailed = "parse_failed"
	ErrCodeIncomplete  = "incomplete"
)

// RunReport 是一次 run 的可追溯记录（--report 落盘为 JSON）。
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Interrupted bool `json:"interrupted"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Listings       int `json:"listings"`
	ListingsFailed int `json:"listings_failed"`
	DetailURLs     int `json:"detail_urls"`
	Admitted       int `json:"admitted"`
	Dropped        int `json:"dropped"`
	Failed         int `json:"failed"`
}

// ItemResult 对应一次页面抓取（listing 或 detail）。
type ItemResult struct {
	Kind   string `json:"kind"`
	URL    string `json:"url"`
	Status string `json:"status"`

	// listing：解析到的详情页数量
	Found int `json:"found,omitempty"`

	// detail：用于人工核对的两个必填字段
	Title  string `json:"title,omitempty"`
	Rating string `json:"rating,omitempty"`

	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) items 稳定排序：listing 在前，detail 在后；同类保持抓取顺序
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		return kindRank(r.Items[i].Kind) < kindRank(r.Items[j].Kind)
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Kind {
		case KindListing:
			s.Listings++
			if it.Status == StatusFailed {
				s.ListingsFailed++
			}
		case KindDetail:
			s.DetailURLs++
			switch it.Status {
			case StatusAdmitted:
				s.Admitted++
			case StatusDropped:
				s.Dropped++
			case StatusFailed:
				s.Failed++
			}
		}
	}
	r.Summary = s
}

func kindRank(kind string) int {
	switch kind {
	case KindListing:
		return 0
	case KindDetail:
		return 1
	default:
		return 2
	}
}

// MarshalJSON 保证 items 在 JSON 中总是数组（而不是 null）。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	a := Alias(r)
	if a.Items == nil {
		a.Items = []ItemResult{}
	}
	return json.Marshal(a)
}
