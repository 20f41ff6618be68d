package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/abhisek/mcqflow/internal/checks"
	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const pageIndex = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

type renderer struct {
	tmpl *template.Template
}

func newRenderer() (*renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &renderer{tmpl: tmpl}, nil
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type pageData struct {
	Topic   string
	RunID   string
	Message string
	Notes   template.HTML
	Items   []itemView
}

// itemView is one MCQ with its solution and validation, flattened for the
// template.
type itemView struct {
	Number        int
	Valid         bool // schema-valid MCQ
	Raw           string
	MCQ           pipeline.MCQ
	Solution      pipeline.Solution
	Validation    pipeline.Validation
	AnswerMatches string
}

// markdown renders model-written notes. Raw HTML in the input is dropped.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderNotes(notes string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(notes), &buf); err != nil {
		return "", fmt.Errorf("render notes: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func resultPage(topic string, result *pipeline.RunResult) (pageData, error) {
	page := pageData{Topic: topic, RunID: result.ID}
	if result.Failed() {
		page.Message = result.Error
		return page, nil
	}

	notes, err := renderNotes(result.ResearchNotes)
	if err != nil {
		return page, err
	}
	page.Notes = notes

	for i := range result.MCQs {
		item := itemView{Number: i + 1, Raw: string(result.MCQs[i])}
		if checks.IsValidSchema(item.Raw) {
			if m, err := result.MCQ(i); err == nil {
				item.MCQ = m
				item.Valid = true
			}
		}
		if i < len(result.Solutions) {
			item.Solution = result.Solutions[i]
		}
		if i < len(result.Validations) {
			v := result.Validations[i]
			item.Validation = v
			if v.AnswerMatches != nil {
				item.AnswerMatches = fmt.Sprint(*v.AnswerMatches)
			}
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}
