package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "argument order",
			err:  &ArgumentOrderError{File: "/app/User.php", Line: 7},
			want: "Cannot use positional argument after named argument in /app/User.php:7",
		},
		{
			name: "duplicate name",
			err:  &ArgumentOrderError{File: "/app/User.php", Line: 8, Name: "key", Duplicate: true},
			want: "Named parameter $key overwrites previous argument in /app/User.php:8",
		},
		{
			name: "constant expression",
			err:  &ConstantExpressionError{File: "a.php", Line: 3},
			want: "Constant expression contains invalid operations in a.php:3",
		},
		{
			name: "constant expression with reason",
			err:  &ConstantExpressionError{File: "a.php", Line: 3, Reason: "Division by zero"},
			want: "Division by zero in a.php:3",
		},
		{
			name: "parse",
			err:  &ParseError{File: "a.php", Line: 1, Message: "syntax error, unexpected ']'"},
			want: "syntax error, unexpected ']' in a.php:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestInputErrorUnwrap(t *testing.T) {
	err := &InputError{Path: "/missing.php", Err: fs.ErrNotExist}

	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), `"/missing.php"`)
	assert.Equal(t, Location{File: "/missing.php"}, err.Location())
}

func TestKind(t *testing.T) {
	wrapped := fmt.Errorf("scan: %w", &ConstantExpressionError{File: "a.php", Line: 1})

	assert.Equal(t, "constant-expression", Kind(wrapped))
	assert.Equal(t, "argument-order", Kind(&ArgumentOrderError{}))
	assert.Equal(t, "input", Kind(&InputError{Err: fs.ErrPermission}))
	assert.Equal(t, "parse", Kind(&ParseError{}))
	assert.Equal(t, "error", Kind(errors.New("boom")))
}

func TestPrettyPrint(t *testing.T) {
	color.NoColor = true

	source := "<?php\n\n#[Route(path: '/', 1)]\nfunction index() {}\n"
	err := &ArgumentOrderError{File: "routes.php", Line: 3}

	out := ToPrettyString(source, err)

	require.Contains(t, out, "error: Cannot use positional argument after named argument")
	assert.Contains(t, out, "--> routes.php:3")
	assert.Contains(t, out, " 3 | #[Route(path: '/', 1)]")
	assert.Contains(t, out, " 2 | ")
}

func TestPrettyPrintWithoutLocation(t *testing.T) {
	color.NoColor = true

	out := ToPrettyString("", errors.New("boom"))

	assert.Equal(t, "error: boom", strings.TrimSpace(out))
}
