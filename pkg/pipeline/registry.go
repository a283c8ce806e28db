package pipeline

import (
	"fmt"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/kiln/pkg/core"
)

// Task names, in the order a full build runs them.
const (
	TaskTemplates = "templates"
	TaskStyles    = "styles"
	TaskImages    = "images"
	TaskFonts     = "fonts"
	TaskScripts   = "js"
)

// Order is the static task order of a full build.
var Order = []string{TaskTemplates, TaskStyles, TaskImages, TaskFonts, TaskScripts}

var aliases = map[string]string{
	"sass": TaskStyles,
}

// Registry maps task names to tasks.
type Registry struct {
	tasks map[string]Task
}

// NewRegistry registers tasks under their names.
func NewRegistry(tasks ...Task) *Registry {
	r := &Registry{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		r.tasks[t.Name()] = t
	}
	return r
}

// Get resolves name, or one of its aliases, to a task.
func (r *Registry) Get(name string) (Task, error) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	t, ok := r.tasks[name]
	if !ok {
		return nil, core.Wrap(core.KindInvalid, "build", "", fmt.Errorf("%w: %q", core.ErrUnknownTask, name))
	}
	return t, nil
}

// Resolve returns the tasks for names in build order, without duplicates.
// No names means every registered task.
func (r *Registry) Resolve(names ...string) ([]Task, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	seen := make(map[string]bool, len(names))
	var tasks []Task
	for _, name := range names {
		t, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if seen[t.Name()] {
			continue
		}
		seen[t.Name()] = true
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return rank(tasks[i].Name()) < rank(tasks[j].Name())
	})
	return tasks, nil
}

// Names lists the registered task names in build order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if ri, rj := rank(names[i]), rank(names[j]); ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

func rank(name string) int {
	for i, n := range Order {
		if n == name {
			return i
		}
	}
	return len(Order)
}

// WatchRule routes source changes matching Pattern to Task. Variant is the
// name of the watch-triggered rebuild, which reloads browsers afterwards.
type WatchRule struct {
	Pattern string
	Variant string
	Task    string
}

// Match reports whether rel, slash separated and relative to the project
// root, is covered by the rule.
func (w WatchRule) Match(rel string) bool {
	ok, err := doublestar.Match(w.Pattern, rel)
	return err == nil && ok
}

// DefaultRules returns the watch rules of a full project.
func DefaultRules(layout core.Layout) []WatchRule {
	src := path.Clean(layout.Src)
	return []WatchRule{
		{Pattern: src + "/**/*" + core.StyleExt, Variant: "rebuild-styles", Task: TaskStyles},
		{Pattern: src + "/**/*" + core.TemplateExt, Variant: "rebuild-templates", Task: TaskTemplates},
		{Pattern: src + "/**/" + core.ImagesDir + "/*", Variant: "copy-images", Task: TaskImages},
		{Pattern: src + "/**/" + core.FontsDir + "/*", Variant: "copy-fonts", Task: TaskFonts},
		{Pattern: src + "/*.js", Variant: "copy-js", Task: TaskScripts},
	}
}

// NewDefaultRegistry wires the five build tasks of a project.
func NewDefaultRegistry(layout core.Layout, templates TemplateCompiler, styles StyleCompiler, opts ...TaskOption) *Registry {
	o := taskOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return NewRegistry(
		NewTemplatesTask(layout, templates, o.logger),
		NewStylesTask(layout, styles, o.logger),
		NewImagesTask(layout, o.logger),
		NewFontsTask(layout, o.logger),
		NewScriptsTask(layout, o.logger),
	)
}
