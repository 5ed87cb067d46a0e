// Command genregexporter reads the `creg` struct tags off pkg/controller's
// Registers and Counters types and emits pkg/exporter/generated_collector.go.
// Adapted line-for-line from sockstats' cmd/prom-metrics-gen, retargeted
// from the `tcpi` tag to the `creg` tag and from one source struct to two.
package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"strings"
	"text/template"
)

const (
	sourcePath = "pkg/controller/memory.go"
	outputPath = "pkg/exporter/generated_collector.go"
)

// Metric is one `creg`-tagged field, ready for the template.
//
// Struct is "Registers" or "Counters" — which field of exporter.Snapshot
// to read the value off. Type is the Prometheus metric kind (Gauge or
// Counter).
type Metric struct {
	Name      string
	FieldName string
	Struct    string
	Help      string
	Type      string
}

func main() {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, sourcePath, nil, parser.ParseComments)
	if err != nil {
		log.Fatal(err)
	}

	var metrics []Metric
	ast.Inspect(node, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		s, ok := ts.Type.(*ast.StructType)
		if !ok {
			return true
		}
		if ts.Name.Name != "Registers" && ts.Name.Name != "Counters" {
			return true
		}

		for _, f := range s.Fields.List {
			if f.Tag == nil {
				continue
			}
			tag := strings.Trim(f.Tag.Value, "`")
			cregTag, ok := lookupTag(tag, "creg")
			if !ok {
				continue
			}

			var metric Metric
			metric.FieldName = f.Names[0].Name
			metric.Struct = ts.Name.Name

			tagString := cregTag
			for tagString != "" {
				i := strings.Index(tagString, "=")
				if i == -1 {
					log.Printf("malformed tag (missing =): %s [%s]", tagString, metric.FieldName)
					break
				}
				key := tagString[:i]
				tagString = tagString[i+1:]

				var value string
				if strings.HasPrefix(tagString, "'") {
					tagString = tagString[1:]
					j := strings.Index(tagString, "'")
					if j == -1 {
						log.Printf("malformed tag (missing '): %s [%s]", tagString, metric.FieldName)
						break
					}
					value = tagString[:j]
					tagString = tagString[j+1:]
					if strings.HasPrefix(tagString, ",") {
						tagString = tagString[1:]
					}
				} else {
					j := strings.Index(tagString, ",")
					if j == -1 {
						value = tagString
						tagString = ""
					} else {
						value = tagString[:j]
						tagString = tagString[j+1:]
					}
				}

				switch key {
				case "name":
					metric.Name = value
				case "prom_type":
					switch value {
					case "gauge":
						metric.Type = "Gauge"
					case "counter":
						metric.Type = "Counter"
					}
				case "prom_help":
					metric.Help = value
				}
			}
			metrics = append(metrics, metric)
		}
		return false
	})

	t, err := template.ParseFiles("cmd/genregexporter/template.tmpl")
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Metrics []Metric }{Metrics: metrics}); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Generated %s\n", outputPath)
}

// lookupTag extracts the raw value of one struct tag key without pulling
// in reflect.StructTag, since the source string here already comes from
// an unparsed backtick-trimmed literal.
func lookupTag(tag, key string) (string, bool) {
	for tag != "" {
		i := strings.IndexByte(tag, ' ')
		var pair string
		if i == -1 {
			pair, tag = tag, ""
		} else {
			pair, tag = tag[:i], strings.TrimLeft(tag[i+1:], " ")
		}
		eq := strings.Index(pair, ":")
		if eq == -1 {
			continue
		}
		if pair[:eq] != key {
			continue
		}
		return strings.Trim(pair[eq+1:], `"`), true
	}
	return "", false
}
