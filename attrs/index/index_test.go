package index

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/phpattr/attrs"
	"github.com/satishbabariya/phpattr/attrs/reader"
)

const controller = `<?php
namespace App;

#[Route('/users', methods: ['GET', 'POST'])]
class Users
{
    #[Route('/users/{id}', priority: -1)]
    public function show(#[MapEntity(id: 'id')] int $id) {}
}
`

func scan(t *testing.T, src string) []*reader.Annotation {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/Users.php", []byte(src), 0o644))
	all, err := attrs.New(attrs.WithFs(fs)).ScanAll("/src/Users.php")
	require.NoError(t, err)
	return all
}

func openIndex(t *testing.T) *Index {
	t.Helper()
	ctx := context.Background()
	ix, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	require.NoError(t, ix.InitSchema(ctx))
	require.NoError(t, ix.InitSchema(ctx), "schema creation is repeatable")
	return ix
}

func TestReplaceAndFind(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	annotations := scan(t, controller)
	require.Len(t, annotations, 3)
	require.NoError(t, ix.Replace(ctx, "/src/Users.php", Checksum([]byte(controller)), annotations))

	routes, err := ix.Find(ctx, `\app\ROUTE`)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, `App\Route`, routes[0].Name)
	assert.Equal(t, "class", routes[0].Target)
	assert.Equal(t, `App\Users`, routes[0].Subject)
	assert.Equal(t, 4, routes[0].Line)
	assert.JSONEq(t, `{"positional":["/users"],"named":{"methods":["GET","POST"]}}`, routes[0].Arguments)

	assert.Equal(t, "method", routes[1].Target)
	assert.Equal(t, `App\Users::show()`, routes[1].Subject)
	positional, named, err := routes[1].DecodeArguments()
	require.NoError(t, err)
	assert.Equal(t, []any{"/users/{id}"}, positional)
	assert.Equal(t, map[string]any{"priority": float64(-1)}, named)

	params, err := ix.Find(ctx, `App\MapEntity`)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, `App\Users::show($id)`, params[0].Subject)

	file, err := ix.File(ctx, "/src/Users.php")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, Checksum([]byte(controller)), file.Checksum)
	assert.False(t, file.IndexedAt.IsZero())
}

func TestReplaceDropsStaleRows(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	require.NoError(t, ix.Replace(ctx, "/src/Users.php", "a", scan(t, controller)))

	smaller := "<?php\nnamespace App;\n\n#[Route('/v2')]\nclass Users {}\n"
	require.NoError(t, ix.Replace(ctx, "/src/Users.php", "b", scan(t, smaller)))

	all, err := ix.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.JSONEq(t, `{"positional":["/v2"],"named":{}}`, all[0].Arguments)

	file, err := ix.File(ctx, "/src/Users.php")
	require.NoError(t, err)
	assert.Equal(t, "b", file.Checksum)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	require.NoError(t, ix.Replace(ctx, "/src/Users.php", "a", scan(t, controller)))
	require.NoError(t, ix.Remove(ctx, "/src/Users.php"))

	all, err := ix.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	file, err := ix.File(ctx, "/src/Users.php")
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestNormalizeProvider(t *testing.T) {
	tests := map[string]string{
		"postgresql": "postgres",
		"Postgres":   "postgres",
		"sqlite":     "sqlite3",
		"mariadb":    "mysql",
		"mysql":      "mysql",
	}
	for in, want := range tests {
		got, err := NormalizeProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeProvider("mongodb")
	assert.EqualError(t, err, `unsupported index provider "mongodb"`)
}

func TestRebind(t *testing.T) {
	pg := &Index{provider: "postgres"}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	my := &Index{provider: "mysql"}
	assert.Equal(t, "DELETE FROM t WHERE x = ?", my.rebind("DELETE FROM t WHERE x = ?"))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(nil))
}
