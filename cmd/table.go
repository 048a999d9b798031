package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/RaikyD/laundry-queue/internal/domain"
)

func formatDay(t time.Time) string {
	return t.Local().Format("Mon, Jan 2")
}

func pendingTable(orders []domain.Order) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Pending Queue")
	tw.AppendHeader(table.Row{"#", "Name", "Clothes", "Ready", "ID"})
	for i, o := range orders {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), o.Name, strconv.Itoa(o.ClothesCount), formatDay(o.ReadyDate), o.ID})
	}
	tw.AppendFooter(table.Row{"", "Total", strconv.Itoa(domain.TotalClothes(orders)), "", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func completedTable(orders []domain.Order) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Completed")
	tw.AppendHeader(table.Row{"Name", "Clothes", "Completed"})
	for _, o := range orders {
		done := ""
		if o.CompletedDate != nil {
			done = o.CompletedDate.Local().Format("Mon, Jan 2 15:04")
		}
		tw.AppendRow(table.Row{o.Name, strconv.Itoa(o.ClothesCount), done})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}
