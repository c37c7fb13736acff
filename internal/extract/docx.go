package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, docxBody) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", docxBody, err)
		}
		defer rc.Close()
		return docxXMLText(rc)
	}
	return "", fmt.Errorf("%s not found", docxBody)
}

// docxXMLText walks WordprocessingML: text runs, tabs and breaks inline,
// one line per paragraph or table row, tab between table cells.
func docxXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	lastWasNewline := true

	newline := func() {
		if !lastWasNewline {
			b.WriteByte('\n')
			lastWasNewline = true
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBody, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", fmt.Errorf("parse %s: %w", docxBody, err)
				}
				b.WriteString(text)
				lastWasNewline = false
			case "tab":
				b.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				b.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				newline()
			case "tc":
				if !lastWasNewline {
					b.WriteByte('\t')
				}
			}
		}
	}
	return b.String(), nil
}
