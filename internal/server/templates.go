package server

import (
	"html/template"
	"strconv"

	"stock-forecaster/internal/pipeline"
)

var templateFuncs = template.FuncMap{
	"isChart":    func(k pipeline.SectionKind) bool { return k == pipeline.SectionChart },
	"isTable":    func(k pipeline.SectionKind) bool { return k == pipeline.SectionRawTable || k == pipeline.SectionForecastTable },
	"isError":    func(k pipeline.SectionKind) bool { return k == pipeline.SectionError },
	"yearsLabel": func(n int) string { return strconv.Itoa(n) + " yr" },
}
