package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-sitecore"
	"github.com/goliatone/go-sitecore/pkg/datasource"
	"github.com/goliatone/go-sitecore/pkg/manifest"
	"github.com/goliatone/go-sitecore/pkg/pagetree"
	visexpr "github.com/goliatone/go-sitecore/pkg/visibility/expr"
)

type violation struct {
	file     string
	location string
	message  string
}

func (v violation) String() string {
	return fmt.Sprintf("%s: %s -> %s", v.file, v.location, v.message)
}

func sortViolations(violations []violation) {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
}

type linter struct {
	file      string
	session   *sitecore.Session
	evaluator *visexpr.Evaluator
	result    []violation
}

func lintFile(path string) ([]violation, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	return lintManifest(path, m), nil
}

// lintManifest reports problems a manifest can load with but that leave pages
// without data or links. Structural errors stop the lint early.
func lintManifest(file string, m *manifest.Manifest) []violation {
	l := &linter{file: file, evaluator: visexpr.New()}

	if err := m.Validate(); err != nil {
		l.addErrors("manifest", err)
		return l.result
	}
	s, err := sitecore.New(m)
	if err != nil {
		l.add("manifest", err.Error())
		return l.result
	}
	l.session = s

	for _, page := range s.Tree().Pages() {
		l.lintPage(page)
	}
	return l.result
}

func (l *linter) lintPage(page *pagetree.Page) {
	base := []string{"page " + page.Route}

	if page.IsTemplate() {
		if _, ok := l.session.Tree().Parent(page.Route); !ok {
			l.add(formatLocation(base), "template has no listing parent to take its collection from")
		}
	}
	if page.Rule != "" {
		if err := l.evaluator.Check(page.Rule); err != nil {
			l.add(formatLocation(append(base, "rule")), err.Error())
		}
	}
	if page.Version != nil {
		scope, ok := l.session.Planner().ScopeFor(page.Route)
		switch {
		case !ok:
			l.add(formatLocation(append(base, "version")), "page declares a version outside every version scope")
		case !scope.Has(page.Version.ID):
			l.add(formatLocation(append(base, "version")), fmt.Sprintf("scope %q has no version %q", scope.Route, page.Version.ID))
		}
	}
	l.lintRefs(base, "description", page.Description)
	l.lintBlocks(page, base, nil, page.Blocks)
}

func (l *linter) lintBlocks(page *pagetree.Page, base []string, enclosing []pagetree.Block, blocks []pagetree.Block) {
	for i, block := range blocks {
		path := append(append([]pagetree.Block(nil), enclosing...), block)
		location := appendPath(base, blockLabel(i, block))

		l.lintRequirement(page, location, path)
		l.lintData(location, block.Data)
		l.lintBlocks(page, location, path, block.Blocks)
	}
}

func (l *linter) lintRequirement(page *pagetree.Page, location []string, path []pagetree.Block) {
	req := path[len(path)-1].Requires
	if req.IsNone() {
		return
	}
	target := l.session.Target(page, path...)
	found := l.session.Resolver().Discover(target, req)

	switch req.Kind() {
	case datasource.RequireAll:
		if len(found) == 0 && page.IsTemplate() {
			return
		}
		if len(found) == 0 {
			l.add(formatLocation(location), "requires all data but no source is in scope")
		}
	case datasource.RequireSpecific:
		have := make(map[string]bool, len(found))
		for _, decl := range found {
			have[decl.Schema] = true
		}
		for _, schema := range req.Schemas() {
			if !have[schema] && !declaredData(path[len(path)-1], schema) {
				l.add(formatLocation(location), fmt.Sprintf("requires %q but no enclosing source declares it", schema))
			}
		}
	}
}

func declaredData(block pagetree.Block, schema string) bool {
	_, ok := block.Data[schema]
	return ok
}

func (l *linter) lintData(location []string, data map[string]any) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		l.lintValue(appendPath(location, "data."+key), data[key])
	}
}

func (l *linter) lintValue(location []string, value any) {
	switch v := value.(type) {
	case string:
		l.lintRefs(location[:len(location)-1], location[len(location)-1], v)
	case map[string]any:
		l.lintData(location, v)
	case []any:
		for i, item := range v {
			l.lintValue(appendPath(location, strconv.Itoa(i)), item)
		}
	}
}

func (l *linter) lintRefs(base []string, field, value string) {
	ref := strings.TrimSpace(value)
	if !strings.HasPrefix(ref, "page:") {
		return
	}
	id, _, _ := strings.Cut(strings.TrimPrefix(ref, "page:"), "#")
	if _, ok := l.session.Planner().PageByID(id); !ok {
		l.add(formatLocation(appendPath(base, field)), fmt.Sprintf("reference %q names no page", ref))
	}
}

func (l *linter) add(location, message string) {
	l.result = append(l.result, violation{file: l.file, location: location, message: message})
}

func (l *linter) addErrors(location string, err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			l.add(location, e.Error())
		}
		return
	}
	l.add(location, err.Error())
}

func blockLabel(i int, block pagetree.Block) string {
	label := "block " + strconv.Itoa(i)
	if block.Type != "" {
		label += " (" + block.Type + ")"
	}
	return label
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	next = append(next, segment)
	return next
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
