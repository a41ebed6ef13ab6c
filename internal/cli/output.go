package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shaiso/deployer/internal/domain"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Summary выводит результаты шагов release по хостам.
func (o *Output) Summary(r *domain.Release) {
	if o.jsonMode {
		o.JSON(r)
		return
	}

	headers := []string{"STEP", "HOST", "STATUS", "EXIT", "DURATION", "COMMANDS"}
	rows := make([][]string, len(r.Steps))
	for i, s := range r.Steps {
		rows[i] = []string{
			s.Step,
			s.Host,
			string(s.Status),
			strconv.Itoa(s.ExitStatus),
			formatDuration(s.Duration()),
			strings.Join(s.Commands, "; "),
		}
	}
	o.Table(headers, rows)

	line := fmt.Sprintf("release %s: %s in %s", r.Environment, r.Status, formatDuration(r.Duration()))
	if r.Ref != "" {
		line += " (ref " + r.Ref + ")"
	}
	if r.Status == domain.ReleaseStatusFailed {
		o.Error(line)
		return
	}
	o.Success(line)
}

// Releases выводит список release из журнала.
func (o *Output) Releases(releases []domain.Release) {
	headers := []string{"ID", "ENVIRONMENT", "REF", "STATUS", "DURATION", "CREATED"}
	rows := make([][]string, len(releases))
	for i, r := range releases {
		rows[i] = []string{
			r.ID.String(),
			r.Environment,
			orDash(r.Ref),
			string(r.Status),
			formatDuration(r.Duration()),
			r.CreatedAt.Format(time.RFC3339),
		}
	}

	if releases == nil {
		releases = []domain.Release{}
	}
	o.Print(headers, rows, releases)
}

// Tasks выводит список задач для --list.
func (o *Output) Tasks(tasks []TaskInfo) {
	if o.jsonMode {
		o.JSON(tasks)
		return
	}

	fmt.Fprintln(o.w, "Available commands:")
	fmt.Fprintln(o.w)

	tw := tabwriter.NewWriter(o.w, 0, 0, 4, ' ', 0)
	for _, t := range tasks {
		fmt.Fprintf(tw, "    %s\t%s\n", t.Name, t.Doc)
	}
	tw.Flush()
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Progress выводит сообщение о ходе release в stderr.
func (o *Output) Progress(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
