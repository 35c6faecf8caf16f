package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/IMDbScraper/internal/export"
)

func newShowCmd(stdout, stderr io.Writer) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <file.json|file.csv>",
		Short: "读取 run 写出的文件并以表格展示",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := export.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(stderr, "读取失败：%v\n", err)
				return &exitError{code: exitFailed}
			}

			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.SetStyle(table.StyleRounded)
			header := table.Row{"#", "Title", "Year", "Rating", "Category", "URL"}
			if full {
				header = append(header, "Description", "Image")
			}
			t.AppendHeader(header)
			for i, r := range recs {
				row := table.Row{i + 1, r.Title, orDash(r.Year), orDash(r.Rating), orDash(r.Category), r.URL}
				if full {
					row = append(row, orDash(truncate(r.Description, 80)), orDash(r.ImageURL))
				}
				t.AppendRow(row)
			}
			t.AppendFooter(table.Row{"", fmt.Sprintf("共 %d 条", len(recs))})
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "同时展示简介与海报地址")
	return cmd
}
