package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/mwalimu/alama/core/report"
)

func (cli *commandLine) classReport(class, section, examType string) error {
	rpt, err := cli.rptSvc.ClassReport(context.Background(), class, section, examType)
	if err != nil {
		return err
	}
	renderClassReport(os.Stdout, rpt)
	return nil
}

func renderClassReport(w io.Writer, rpt report.ClassReport) {
	title := "Class " + rpt.Class
	if rpt.Section != "" {
		title += ", section " + rpt.Section
	}
	title += " / " + rpt.ExamType
	_, _ = color.New(color.FgCyan, color.Bold).Fprintln(w, title)

	fmt.Fprintf(w, "Students graded: %d\n", rpt.TotalStudents)
	fmt.Fprintf(w, "Passed: %s  Failed: %s  Pass rate: %s%%\n",
		color.GreenString(strconv.Itoa(rpt.PassedStudents)),
		color.RedString(strconv.Itoa(rpt.FailedStudents)),
		formatFloat(rpt.PassPercentage),
	)
	fmt.Fprintln(w)

	subjects := tablewriter.NewWriter(w)
	subjects.SetHeader([]string{"Subject", "Average", "Max", "Passed", "Failed", "Pass Rate"})
	for _, st := range rpt.SubjectStats {
		subjects.Append([]string{
			st.Subject,
			formatFloat(st.Average),
			strconv.Itoa(st.MaxMarks),
			strconv.Itoa(st.Passed),
			strconv.Itoa(st.Failed),
			formatFloat(st.PassRate) + "%",
		})
	}
	subjects.Render()
	fmt.Fprintln(w)

	_, _ = color.New(color.Bold).Fprintln(w, "Top performers")
	top := tablewriter.NewWriter(w)
	top.SetHeader([]string{"#", "Name", "Roll No", "Total", "Percentage", "Grade"})
	for i, tp := range rpt.TopPerformers {
		top.Append([]string{
			strconv.Itoa(i + 1),
			tp.Name,
			tp.RollNo,
			strconv.Itoa(tp.Total),
			formatFloat(tp.Percentage) + "%",
			tp.Grade,
		})
	}
	top.Render()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
