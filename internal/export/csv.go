package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
	"github.com/John-Robertt/IMDbScraper/internal/infra/fsx"
)

// WriteCSV 原子写出 CSV：固定七列表头，每条记录一行，缺失字段为空单元格。
func WriteCSV(path string, recs []domain.MovieRecord) error {
	return fsx.WriteAtomic(path, func(w io.Writer) error {
		return EncodeCSV(w, recs)
	})
}

// EncodeCSV 把记录编码为 CSV（UTF-8，CRLF 行尾）。
func EncodeCSV(w io.Writer, recs []domain.MovieRecord) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(domain.Columns); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV 读回 WriteCSV 的产物。表头必须包含全部七列（顺序不限）。
func ReadCSV(path string) ([]domain.MovieRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

func DecodeCSV(r io.Reader) ([]domain.MovieRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("CSV 为空（缺少表头）")
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		// 兼容带 BOM 的文件
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		idx[h] = i
	}
	pos := make([]int, len(domain.Columns))
	for i, c := range domain.Columns {
		p, ok := idx[c]
		if !ok {
			return nil, fmt.Errorf("CSV 表头缺少列 %q", c)
		}
		pos[i] = p
	}

	var out []domain.MovieRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]string, len(pos))
		for i, p := range pos {
			if p < len(row) {
				vals[i] = row[p]
			}
		}
		out = append(out, domain.FromValues(vals))
	}
	return out, nil
}
