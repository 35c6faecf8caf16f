package run

import (
	"encoding/json"
	"fmt"

	"github.com/John-Robertt/IMDbScraper/internal/config"
	"github.com/John-Robertt/IMDbScraper/internal/export"
	"github.com/John-Robertt/IMDbScraper/internal/infra/fsx"
	"github.com/John-Robertt/IMDbScraper/internal/nfo"
)

// Written 列出 Persist 实际写出的文件（未写出的为空）。
type Written struct {
	CSV    string
	JSON   string
	Report string
	NFO    []string
}

// Persist 在 run 正常结束后落盘。
//
// 规则：
// - 被中断的 run 什么都不写
// - CSV / JSON / NFO 只在至少有一条入选记录时写出；路径为空表示关闭该输出
// - report 只要配置了路径就写出（便于排查“0 条入选”的原因）
func Persist(eff config.EffectiveConfig, res Result) (Written, error) {
	var w Written
	if res.Report.Interrupted {
		return w, nil
	}

	if len(res.Records) > 0 {
		if eff.CSVPath != "" {
			if err := export.WriteCSV(eff.CSVPath, res.Records); err != nil {
				return w, fmt.Errorf("写入 CSV 失败：%w", err)
			}
			w.CSV = eff.CSVPath
		}
		if eff.JSONPath != "" {
			if err := export.WriteJSON(eff.JSONPath, res.Records); err != nil {
				return w, fmt.Errorf("写入 JSON 失败：%w", err)
			}
			w.JSON = eff.JSONPath
		}
		if eff.NFODir != "" {
			paths, err := nfo.WriteDir(eff.NFODir, res.Records)
			w.NFO = paths
			if err != nil {
				return w, fmt.Errorf("写入 NFO 失败：%w", err)
			}
		}
	}

	if eff.ReportPath != "" {
		b, err := json.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			return w, err
		}
		if err := fsx.WriteFileAtomic(eff.ReportPath, append(b, '\n')); err != nil {
			return w, fmt.Errorf("写入 report 失败：%w", err)
		}
		w.Report = eff.ReportPath
	}
	return w, nil
}
