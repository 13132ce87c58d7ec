package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DocxExtractor extracts paragraph text from Word documents. A .docx file
// is a zip archive; the document body lives in word/document.xml.
type DocxExtractor struct{}

// documentXML mirrors the subset of the WordprocessingML schema we need:
// paragraphs of runs of text, plus tables whose cells hold paragraphs.
type documentXML struct {
	Body bodyXML `xml:"body"`
}

type bodyXML struct {
	Paragraphs []paragraphXML `xml:"p"`
	Tables     []tableXML     `xml:"tbl"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Texts []string `xml:"t"`
}

type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

type tableCellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

// Extract returns the document text, one line per paragraph. Table rows
// come out with cells joined by tabs.
func (DocxExtractor) Extract(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer reader.Close()

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var lines []string
	for _, p := range doc.Body.Paragraphs {
		lines = append(lines, paragraphText(p))
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellLines []string
				for _, p := range cell.Paragraphs {
					cellLines = append(cellLines, paragraphText(p))
				}
				cells = append(cells, strings.Join(cellLines, " "))
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
	}

	text := strings.Join(lines, "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "", nil
	}
	return text + "\n", nil
}

// paragraphText concatenates the run texts of one paragraph
func paragraphText(p paragraphXML) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			b.WriteString(t)
		}
	}
	return b.String()
}
