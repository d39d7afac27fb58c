package tasks

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Lister interface {
	List(ctx context.Context) ([]Task, error)
}

type Document struct {
	ContentType string
	Ext         string
	Body        []byte
}

// Exporter renders the current task list as json, csv or pdf.
type Exporter struct {
	src Lister
	now func() time.Time
}

func NewExporter(src Lister) *Exporter {
	return &Exporter{src: src, now: time.Now}
}

func (e *Exporter) Export(ctx context.Context, format string) (Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "csv", "pdf":
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	all, err := e.src.List(ctx)
	if err != nil {
		return Document{}, err
	}

	switch format {
	case "csv":
		b, err := exportCSV(all)
		return Document{ContentType: "text/csv", Ext: "csv", Body: b}, err
	case "pdf":
		b, err := e.exportPDF(all)
		return Document{ContentType: "application/pdf", Ext: "pdf", Body: b}, err
	default:
		b, err := json.MarshalIndent(all, "", "  ")
		return Document{ContentType: "application/json", Ext: "json", Body: b}, err
	}
}

func exportCSV(all []Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "text", "completed", "created_at"})
	for _, t := range all {
		_ = w.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Text,
			strconv.FormatBool(t.Completed),
			t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (e *Exporter) exportPDF(all []Task) ([]byte, error) {
	active, completed := Counts(all)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "TaskFlow")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%d active • %d completed • exported %s",
		active, completed, e.now().UTC().Format(time.RFC3339))))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	for _, t := range all {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%s #%d  %s", box, t.ID, t.Text)), "0", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Counts returns the number of open and completed tasks.
func Counts(all []Task) (active, completed int) {
	for _, t := range all {
		if t.Completed {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}
