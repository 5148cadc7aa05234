package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/phpattr/attrs"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
)

func fixture(t *testing.T) *attrs.Parser {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/app/src/Controller/Home.php": "<?php\nnamespace App\\Controller;\n\n#[Route('/')]\nclass Home {\n    #[Get]\n    public function index() {}\n}\n",
		"/app/src/Entity/User.PHP":     "<?php\n#[Entity(table: 'users')]\nclass User {}\n",
		"/app/src/helpers.php":         "<?php\nfunction helper() {}\n",
		"/app/src/README.md":           "# not php",
		"/app/src/Broken.php":          "<?php\n#[Bad(1 / 0)]\nclass Broken {}\n",
		"/app/vendor/lib/Lib.php":      "<?php\n#[Vendor]\nclass Lib {}\n",
		"/app/src/cache/Cached.php":    "<?php\n#[Cached]\nclass Cached {}\n",
	}
	for p, content := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0o644))
	}
	return attrs.New(attrs.WithFs(fs))
}

func TestFiles(t *testing.T) {
	l := New(fixture(t), Options{Exclude: []string{"vendor/**", "src/cache"}})

	files, err := l.Files("/app")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/app/src/Broken.php",
		"/app/src/Controller/Home.php",
		"/app/src/Entity/User.PHP",
		"/app/src/helpers.php",
	}, files)
}

func TestFilesSingleFileRoot(t *testing.T) {
	l := New(fixture(t), Options{})

	files, err := l.Files("/app/src/README.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"/app/src/README.md"}, files)

	_, err = l.Files("/nowhere")
	assert.Error(t, err)
}

func TestScanCollectsErrors(t *testing.T) {
	l := New(fixture(t), Options{Exclude: []string{"vendor/**", "**/cache/**"}, Concurrency: 2})

	res, err := l.Scan(context.Background(), "/app")
	require.NoError(t, err)

	var paths []string
	for _, f := range res.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"/app/src/Broken.php",
		"/app/src/Controller/Home.php",
		"/app/src/Entity/User.PHP",
		"/app/src/helpers.php",
	}, paths)

	var names []string
	for _, a := range res.Annotations() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{`App\Controller\Route`, `App\Controller\Get`, "Entity"}, names)
	assert.Equal(t, 3, res.Count())

	require.Len(t, res.Errors, 1)
	var constErr *diagnostics.ConstantExpressionError
	require.True(t, errors.As(res.Errors[0], &constErr))
	assert.Equal(t, "/app/src/Broken.php", constErr.File)
	assert.Equal(t, "Division by zero", constErr.Reason)
}

func TestScanFailFast(t *testing.T) {
	l := New(fixture(t), Options{FailFast: true, Concurrency: 1})

	res, err := l.Scan(context.Background(), "/app/src")
	assert.Nil(t, res)
	assert.Equal(t, "constant-expression", diagnostics.Kind(err))
}

func TestScanCancelled(t *testing.T) {
	l := New(fixture(t), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Scan(ctx, "/app")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		rel     string
		want    bool
	}{
		{"vendor/**", "vendor", true},
		{"vendor/**", "vendor/a/b.php", true},
		{"vendor/**", "src/vendor", false},
		{"**/cache/**", "src/cache", true},
		{"**/cache/**", "cache", true},
		{"*.php", "a.php", true},
		{"*.php", "src/a.php", false},
		{"**/*Test.php", "tests/Unit/UserTest.php", true},
		{"src/[", "src/x", false},
		{"src", "src/deep/file.php", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.rel))
		})
	}
}
