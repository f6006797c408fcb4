package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	t.Run("Splits On Semicolons", func(t *testing.T) {
		content := "CREATE TABLE a (id NUMBER);\nCREATE TABLE b (id NUMBER);\n"
		statements := SplitStatements(content)
		assert.Equal(t, []string{"CREATE TABLE a (id NUMBER)", "CREATE TABLE b (id NUMBER)"}, statements)
	})

	t.Run("Drops Comment Lines", func(t *testing.T) {
		content := "-- quizzes hold the settings\nCREATE TABLE quizzes (id VARCHAR2(26));\n-- trailing note\n"
		statements := SplitStatements(content)
		assert.Equal(t, []string{"CREATE TABLE quizzes (id VARCHAR2(26))"}, statements)
	})

	t.Run("Keeps Multi Line Statements Together", func(t *testing.T) {
		content := "CREATE TABLE c (\n  id NUMBER,\n  name VARCHAR2(50)\n);"
		statements := SplitStatements(content)
		if assert.Len(t, statements, 1) {
			assert.Contains(t, statements[0], "name VARCHAR2(50)")
		}
	})

	t.Run("Empty Input Yields Nothing", func(t *testing.T) {
		assert.Empty(t, SplitStatements(""))
		assert.Empty(t, SplitStatements("\n\n-- only a comment\n"))
	})
}
