package core

import (
	"path"
	"strings"
)

// Classifier maps file names of the form "<ReportType> <Month>-<Year>.csv"
// onto a registered report type and period.
type Classifier struct {
	registry *Registry
}

func NewClassifier(registry *Registry) *Classifier {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Classifier{registry: registry}
}

// Classify returns a *ClassificationError when the type is not registered or
// the date segment does not parse.
func (c *Classifier) Classify(filename string) (ReportFile, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	stem := strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(stem), ".csv") {
		stem = strings.TrimSpace(stem[:len(stem)-4])
	}

	fields := strings.Fields(stem)
	if len(fields) < 2 {
		return ReportFile{}, &ClassificationError{File: name, Reason: UnparsableDate, Detail: "no date segment"}
	}

	dateSeg := fields[len(fields)-1]
	typeFields := fields[:len(fields)-1]
	// "Jan 2025" written with a space instead of a dash.
	if len(typeFields) >= 2 && isDigits(dateSeg) {
		if _, ok := parseMonth(typeFields[len(typeFields)-1]); ok {
			dateSeg = typeFields[len(typeFields)-1] + "-" + dateSeg
			typeFields = typeFields[:len(typeFields)-1]
		}
	}

	typ, ok := c.registry.Match(strings.Join(typeFields, " "))
	if !ok {
		// The whole stem names a report type: the date segment is missing.
		if _, whole := c.registry.Match(stem); whole {
			return ReportFile{}, &ClassificationError{File: name, Reason: UnparsableDate, Detail: "no date segment"}
		}
		return ReportFile{}, &ClassificationError{File: name, Reason: UnrecognizedType, Detail: strings.Join(typeFields, " ")}
	}

	period, err := parseDateSegment(dateSeg)
	if err != nil {
		return ReportFile{}, &ClassificationError{File: name, Reason: UnparsableDate, Detail: dateSeg}
	}

	return ReportFile{Path: filename, Name: name, Type: typ, Period: period}, nil
}
