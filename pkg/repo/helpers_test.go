package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratify-hq/stratify/pkg/repo"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SELECT 1 FROM t", repo.Join("SELECT 1", "", "FROM t", "  "))
	assert.Equal(t, "", repo.Join())
}

func TestJoinWhere(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WHERE a = $1 AND b = $2", repo.JoinWhere("a = $1", "b = $2"))
	assert.Equal(t, "", repo.JoinWhere())
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `plain`, repo.EscapeLike("plain"))
	assert.Equal(t, `100\%`, repo.EscapeLike("100%"))
	assert.Equal(t, `q4\_goals`, repo.EscapeLike("q4_goals"))
	assert.Equal(t, `a\\b\%c\_d`, repo.EscapeLike(`a\b%c_d`))
}

func TestFormatLimitOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "LIMIT 10 OFFSET 20", repo.FormatLimitOffset(10, 20))
	assert.Equal(t, "LIMIT 10", repo.FormatLimitOffset(10, 0))
	assert.Equal(t, "OFFSET 20", repo.FormatLimitOffset(0, 20))
	assert.Equal(t, "", repo.FormatLimitOffset(0, 0))
	assert.Equal(t, "", repo.FormatLimitOffset(-1, -1))
}
