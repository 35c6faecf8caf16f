package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

// ReadFile 按扩展名（.csv / .json）读回输出文件。
func ReadFile(path string) ([]domain.MovieRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".json":
		return ReadJSON(path)
	default:
		return nil, fmt.Errorf("不支持的文件类型：%s（仅支持 .csv / .json）", path)
	}
}
