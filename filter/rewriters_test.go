package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abg/mysqldumpfilter/node"
	"github.com/abg/mysqldumpfilter/token"
)

func rowToken(i int) token.Token {
	return token.New(token.InsertRow, "INSERT INTO `big` VALUES (1);\n", i, int64(i))
}

// S6 -- a synthetic table-dml node whose interior is millions of rows
// must be emittable without ever holding them all in one slice. This
// generates rows on demand from source rather than building []token.Token
// up front, the same shape skip-triggers itself wraps.
func newSyntheticTableDML(rows int) *node.Node {
	source := func(emit func(token.Token) error) error {
		if err := emit(token.New(token.LockTable, "LOCK TABLES `big` WRITE;\n", 1, 0)); err != nil {
			return err
		}
		for i := 0; i < rows; i++ {
			if err := emit(rowToken(i + 2)); err != nil {
				return err
			}
		}
		return emit(token.New(token.UnlockTable, "UNLOCK TABLES;\n", rows+2, 0))
	}
	return node.NewStreamed(node.TableDML, "bigdb", "big", source)
}

func TestDispatcherStreamsSyntheticMillionRowTable(t *testing.T) {
	const rows = 2_000_000
	d := NewDispatcher()
	n := newSyntheticTableDML(rows)

	chunks := 0
	err := d.Emit(n, func(chunk string) error {
		chunks++
		return nil
	})
	require.NoError(t, err)
	// One chunk per token: LOCK TABLES, `rows` INSERT rows, UNLOCK TABLES.
	assert.Equal(t, rows+2, chunks)
}

func TestSkipTriggersDropsTrailingTriggerAndSetVariable(t *testing.T) {
	tokens := []token.Token{
		token.New(token.LockTable, "LOCK TABLES `t` WRITE;\n", 1, 0),
		token.New(token.InsertRow, "INSERT INTO `t` VALUES (1);\n", 2, 0),
		token.New(token.UnlockTable, "UNLOCK TABLES;\n", 3, 0),
		token.New(token.BlankLine, "\n", 4, 0),
		token.New(token.CreateTrigger, "/*!50003 CREATE TRIGGER t_trg ... */;\n", 5, 0),
		token.New(token.SetVariable, "SET @saved_cs_client = @@character_set_client;\n", 6, 0),
	}
	n := node.NewMaterialized(node.TableDML, tokens)

	d := NewDispatcher()
	d.Register(node.TableDML, SkipTriggers())

	var out strings.Builder
	err := d.Emit(n, func(chunk string) error {
		out.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "INSERT INTO `t`")
	assert.Contains(t, rendered, "UNLOCK TABLES")
	assert.NotContains(t, rendered, "CREATE TRIGGER")
	assert.NotContains(t, rendered, "saved_cs_client")
}
