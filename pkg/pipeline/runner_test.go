package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiln/pkg/core"
)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []core.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note core.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

type stubTask struct {
	name string
	err  error

	mu  *sync.Mutex
	log *[]string
}

func (s stubTask) Name() string { return s.name }

func (s stubTask) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	*s.log = append(*s.log, s.name)
	s.mu.Unlock()
	return &Result{Task: s.name, Files: []string{s.name + ".out"}}, s.err
}

func stubRegistry(errs map[string]error) (*Registry, *[]string) {
	var mu sync.Mutex
	log := &[]string{}
	var tasks []Task
	for _, name := range []string{TaskScripts, TaskFonts, TaskImages, TaskStyles, TaskTemplates} {
		tasks = append(tasks, stubTask{name: name, err: errs[name], mu: &mu, log: log})
	}
	return NewRegistry(tasks...), log
}

func TestRegistry(t *testing.T) {
	reg, _ := stubRegistry(nil)

	assert.Equal(t, Order, reg.Names())

	task, err := reg.Get("sass")
	require.NoError(t, err)
	assert.Equal(t, TaskStyles, task.Name())

	_, err = reg.Get("pug")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownTask))
	assert.True(t, core.IsKind(err, core.KindInvalid))

	tasks, err := reg.Resolve("js", "templates", "sass", "styles")
	require.NoError(t, err)
	var names []string
	for _, task := range tasks {
		names = append(names, task.Name())
	}
	assert.Equal(t, []string{"templates", "styles", "js"}, names)
}

func TestRunner_Run(t *testing.T) {
	compileErr := core.Wrap(core.KindCompile, "styles", "src/index.sass", errors.New("bad indent"))
	ioErr := core.Wrap(core.KindIO, "images", "src/x", errors.New("denied"))
	reg, log := stubRegistry(map[string]error{
		TaskStyles: compileErr,
		TaskImages: ioErr,
	})
	notifier := &recordingNotifier{}

	results, err := NewRunner(reg, WithNotifier(notifier)).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, compileErr))
	assert.True(t, errors.Is(err, ioErr))

	assert.Equal(t, Order, *log, "every task runs, in order")
	assert.Len(t, results, len(Order))

	require.Len(t, notifier.notes, 1, "only compile errors are notified")
	note := notifier.notes[0]
	assert.Equal(t, core.LevelError, note.Level)
	assert.Equal(t, TaskStyles, note.Task)
	assert.Contains(t, note.Message, "An error occurred while compiling styles.")
	assert.Contains(t, note.Message, "bad indent")
}

func TestRunner_RunParallel(t *testing.T) {
	reg, log := stubRegistry(nil)

	results, err := NewRunner(reg).RunParallel(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, Order, *log)

	var names []string
	for _, r := range results {
		names = append(names, r.Task)
	}
	assert.Equal(t, Order, names)
}

func TestRunner_UnknownTask(t *testing.T) {
	reg, log := stubRegistry(nil)

	_, err := NewRunner(reg).Run(context.Background(), "templates", "nope")
	require.Error(t, err)
	assert.Empty(t, *log)
}

func TestWatchRules(t *testing.T) {
	rules := DefaultRules(core.NewLayout("/site"))
	route := func(rel string) []string {
		var variants []string
		for _, r := range rules {
			if r.Match(rel) {
				variants = append(variants, r.Variant)
			}
		}
		return variants
	}

	assert.Equal(t, []string{"rebuild-styles"}, route("src/components/header/index.sass"))
	assert.Equal(t, []string{"rebuild-styles"}, route("src/index.sass"))
	assert.Equal(t, []string{"rebuild-templates"}, route("src/components/header/index.gohtml"))
	assert.Equal(t, []string{"copy-images"}, route("src/components/header/imgs/logo.png"))
	assert.Equal(t, []string{"copy-fonts"}, route("src/components/footer/fonts/a.woff"))
	assert.Equal(t, []string{"copy-js"}, route("src/app.js"))
	assert.Empty(t, route("src/components/header/app.js"))
	assert.Empty(t, route("dest/index.html"))
}

func TestNotifiers(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Notifiers{a, nil, b}.Notify(context.Background(), core.Notification{Title: "x"})

	assert.Len(t, a.notes, 1)
	assert.Len(t, b.notes, 1)
}
