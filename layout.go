package deckpdf

import (
	"fmt"
	"html/template"
	"strings"
)

var deckTemplate = template.Must(template.New("deck").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
@page { size: {{.Width}} {{.Height}}; margin: 0; }
html, body { margin: 0; padding: 0; background: #fff; }
.slide { width: {{.Width}}; height: {{.Height}}; overflow: hidden; break-after: page; page-break-after: always; }
.slide:last-child { break-after: auto; page-break-after: auto; }
.slide img { display: block; width: 100%; height: 100%; object-fit: contain; }
</style>
</head>
<body>
{{range $i, $src := .Slides}}<div class="slide"><img src="{{$src}}" alt="Slide {{inc $i}}"></div>
{{end}}</body>
</html>
`))

// deckHTML renders one fixed-size page box per slide image, in order.
func deckHTML(slides []string, size PageSize) (string, error) {
	var sb strings.Builder
	err := deckTemplate.Execute(&sb, struct {
		Width, Height template.CSS
		Slides        []string
	}{
		Width:  template.CSS(fmt.Sprintf("%.4fin", size.Width)),
		Height: template.CSS(fmt.Sprintf("%.4fin", size.Height)),
		Slides: slides,
	})
	if err != nil {
		return "", fmt.Errorf("deckpdf: rendering page layout: %w", err)
	}
	return sb.String(), nil
}
