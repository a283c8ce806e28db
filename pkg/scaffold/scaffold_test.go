package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiln/pkg/core"
)

func newProject(t *testing.T, opts ...Option) (*Scaffolder, core.Layout) {
	t.Helper()
	layout := core.NewLayout(t.TempDir())
	s := New(layout, opts...)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s, layout
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func lines(content string) []string {
	return strings.Split(strings.TrimRight(content, "\n"), "\n")
}

func TestInitialize(t *testing.T) {
	layout := core.NewLayout(t.TempDir())
	res, err := New(layout).Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src/",
		"src/components/",
		"src/index.gohtml",
		"src/index.sass",
		"src/components/common.gohtml",
		"src/components/common.sass",
	}, res.Created)

	assert.Equal(t, rootTemplate, readFile(t, layout.RootTemplate()))
	assert.Equal(t, "", readFile(t, layout.RootStyle()))

	common := readFile(t, layout.SrcPath("components", "common.sass"))
	assert.Contains(t, common, "@function image-path($name)")
	assert.Contains(t, common, `@return "imgs/#{$component}_#{$name}"`)

	tmpl := readFile(t, layout.SrcPath("components", "common.gohtml"))
	assert.Contains(t, tmpl, `{{- define "image" -}}`)

	root := readFile(t, layout.RootTemplate())
	assert.Contains(t, root, `<link rel="stylesheet" href="index.css">`)
	assert.Contains(t, root, "<title>Untitled</title>")
	assert.True(t, strings.HasSuffix(strings.TrimRight(root, "\n"), "  <body>"))
}

func TestInitialize_ExistingSrc(t *testing.T) {
	s, layout := newProject(t)
	_, err := s.AddComponent(context.Background(), "header")
	require.NoError(t, err)

	before := readFile(t, layout.RootTemplate())
	headerBefore := readFile(t, layout.SrcPath("components", "header", "index.gohtml"))

	_, err = s.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindFileSystem))
	assert.True(t, errors.Is(err, fs.ErrExist))

	assert.Equal(t, before, readFile(t, layout.RootTemplate()))
	assert.Equal(t, headerBefore, readFile(t, layout.SrcPath("components", "header", "index.gohtml")))
}

func TestInitialize_EmptySrc(t *testing.T) {
	layout := core.NewLayout(t.TempDir())
	require.NoError(t, os.Mkdir(layout.SrcPath(), 0o755))

	res, err := New(layout).Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindFileSystem))
	assert.Empty(t, res.Created)

	entries, err := os.ReadDir(layout.SrcPath())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddComponent(t *testing.T) {
	s, layout := newProject(t)

	res, err := s.AddComponent(context.Background(), "header")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src/components/header/",
		"src/components/header/imgs/",
		"src/components/header/fonts/",
		"src/components/header/index.gohtml",
		"src/components/header/index.sass",
	}, res.Created)
	assert.Equal(t, []string{"src/index.gohtml", "src/index.sass"}, res.Modified)

	for _, dir := range []string{"imgs", "fonts"} {
		info, err := os.Stat(layout.SrcPath("components", "header", dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	tmpl := readFile(t, layout.SrcPath("components", "header", "index.gohtml"))
	assert.Equal(t, 1, strings.Count(tmpl, `{{with component . "header"}}`))
	assert.Equal(t, 1, strings.Count(tmpl, "{{with "))
	assert.Contains(t, tmpl, `<div class="header"></div>`)
	assert.Contains(t, tmpl, "../common.gohtml")

	style := readFile(t, layout.SrcPath("components", "header", "index.sass"))
	assert.Equal(t, "@import ../common\n\n$component: \"header\"\n", style)

	root := lines(readFile(t, layout.RootTemplate()))
	assert.Equal(t, `    {{template "components/header/index.gohtml" .}}`, root[len(root)-1])
	assert.Equal(t, "@import components/header/index\n", readFile(t, layout.RootStyle()))
}

func TestAddComponent_Order(t *testing.T) {
	s, layout := newProject(t)
	original := lines(readFile(t, layout.RootTemplate()))

	_, err := s.AddComponent(context.Background(), "header")
	require.NoError(t, err)
	_, err = s.AddComponent(context.Background(), "footer")
	require.NoError(t, err)

	got := lines(readFile(t, layout.RootTemplate()))
	require.Len(t, got, len(original)+2)
	assert.Equal(t, original, got[:len(original)], "original lines must be unchanged")
	assert.Equal(t, []string{
		`    {{template "components/header/index.gohtml" .}}`,
		`    {{template "components/footer/index.gohtml" .}}`,
	}, got[len(original):])

	assert.Equal(t, "@import components/header/index\n@import components/footer/index\n", readFile(t, layout.RootStyle()))

	for _, name := range []string{"header", "footer"} {
		for _, entry := range []string{"index.gohtml", "index.sass", "imgs", "fonts"} {
			_, err := os.Stat(layout.SrcPath("components", name, entry))
			assert.NoError(t, err, "%s/%s", name, entry)
		}
	}
}

func TestAddComponent_Collision(t *testing.T) {
	s, layout := newProject(t)
	_, err := s.AddComponent(context.Background(), "header")
	require.NoError(t, err)

	tmplBefore := readFile(t, layout.RootTemplate())
	styleBefore := readFile(t, layout.RootStyle())

	_, err = s.AddComponent(context.Background(), "header")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindFileSystem))
	assert.True(t, errors.Is(err, fs.ErrExist))

	assert.Equal(t, tmplBefore, readFile(t, layout.RootTemplate()))
	assert.Equal(t, styleBefore, readFile(t, layout.RootStyle()))
}

func TestAddComponent_PreservesExistingStyle(t *testing.T) {
	s, layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.RootStyle(), []byte("@import vendor/reset\n\n\n"), 0o644))

	names := []string{"nav", "hero", "card", "footer"}
	for _, name := range names {
		_, err := s.AddComponent(context.Background(), name)
		require.NoError(t, err)
	}

	got := lines(readFile(t, layout.RootStyle()))
	want := []string{"@import vendor/reset"}
	for _, name := range names {
		want = append(want, "@import components/"+name+"/index")
	}
	assert.Equal(t, want, got)
}

func TestAddComponent_InvalidName(t *testing.T) {
	s, layout := newProject(t)

	for _, name := range []string{"", "../escape", "has space", "9lives", "a/b", `quo"te`, "common"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			_, err := s.AddComponent(context.Background(), name)
			require.Error(t, err)
			assert.True(t, core.IsKind(err, core.KindInvalid))
			assert.True(t, errors.Is(err, core.ErrInvalidName))
		})
	}

	entries, err := os.ReadDir(layout.ComponentsPath())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the shared helper files")
}

func TestAddComponent_NotInitialized(t *testing.T) {
	layout := core.NewLayout(t.TempDir())
	require.NoError(t, os.MkdirAll(layout.ComponentsPath(), 0o755))

	_, err := New(layout).AddComponent(context.Background(), "header")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindIO))
	assert.True(t, errors.Is(err, core.ErrNotInitialized))

	_, statErr := os.Stat(layout.ComponentPath("header"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAddComponent_Concurrent(t *testing.T) {
	s, layout := newProject(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddComponent(context.Background(), fmt.Sprintf("c%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	style := readFile(t, layout.RootStyle())
	tmpl := readFile(t, layout.RootTemplate())
	for i := 0; i < n; i++ {
		assert.Equal(t, 1, strings.Count(style, fmt.Sprintf("@import components/c%d/index\n", i)))
		assert.Equal(t, 1, strings.Count(tmpl, fmt.Sprintf(`{{template "components/c%d/index.gohtml" .}}`, i)))
	}
	assert.Len(t, lines(style), n)

	_, err := os.Stat(layout.LockPath())
	assert.True(t, os.IsNotExist(err), "lock must be released")
}

func TestAddComponent_LockHeld(t *testing.T) {
	s, layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.LockPath(), []byte("1\n"), 0o644))
	before := readFile(t, layout.RootTemplate())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.AddComponent(ctx, "header")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindIO))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, before, readFile(t, layout.RootTemplate()))

	// Component files were written before the lock was needed; nothing is rolled back.
	_, statErr := os.Stat(filepath.Join(layout.ComponentPath("header"), "index.gohtml"))
	assert.NoError(t, statErr)
}
