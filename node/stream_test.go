package node

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abg/mysqldumpfilter/lexer"
	"github.com/abg/mysqldumpfilter/scanner"
)

func newStreamFromFile(t *testing.T, path string) *Stream {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	sc := scanner.New(scanner.NewSource(f))
	tz := lexer.New(sc, lexer.Rules)
	return NewStream(tz)
}

// drain advances past a lazy node's interior so the stream can move on
// to whatever follows it, exactly as a real consumer must.
func mustDrain(t *testing.T, n *Node) {
	t.Helper()
	require.NoError(t, n.Drain())
}

func TestStreamHeaderDetectsDatabase(t *testing.T) {
	s := newStreamFromFile(t, "testdata/sakila_dump.sql")

	n, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, DumpHeader, n.Type)
	db, ok := n.Database()
	require.True(t, ok)
	assert.Equal(t, "sakila", db)

	n, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, SetupSession, n.Type)
}

func TestStreamFullDumpNodeSequence(t *testing.T) {
	s := newStreamFromFile(t, "testdata/sakila_dump.sql")

	want := []Type{
		DumpHeader,
		SetupSession,
		Replication,
		DatabaseDDL,
		TableDDL,
		TableDML,
		ViewTempDDL,
		DatabaseRoutines,
		ViewFinalizeDB,
		ViewDDL,
		Final,
	}

	var got []Type
	for {
		n, err := s.Next()
		require.NoError(t, err)
		got = append(got, n.Type)
		if n.IsLazy() {
			mustDrain(t, n)
		}
		if n.Type == Final {
			break
		}
	}

	assert.Equal(t, want, got)
}

func TestStreamTableDDLCarriesDatabaseAndEngine(t *testing.T) {
	s := newStreamFromFile(t, "testdata/sakila_dump.sql")

	var ddl *Node
	for {
		n, err := s.Next()
		require.NoError(t, err)
		if n.Type == TableDDL {
			ddl = n
			break
		}
		if n.IsLazy() {
			mustDrain(t, n)
		}
	}

	require.NotNil(t, ddl)
	db, ok := ddl.Database()
	require.True(t, ok)
	assert.Equal(t, "sakila", db)

	table, ok := ddl.Table()
	require.True(t, ok)
	assert.Equal(t, "actor", table)

	engine, ok := ddl.Engine()
	require.True(t, ok)
	assert.Equal(t, "InnoDB", engine)
}

func TestStreamReplicationPosition(t *testing.T) {
	s := newStreamFromFile(t, "testdata/sakila_dump.sql")

	var rep *Node
	for {
		n, err := s.Next()
		require.NoError(t, err)
		if n.Type == Replication {
			rep = n
			break
		}
		if n.IsLazy() {
			mustDrain(t, n)
		}
	}

	require.NotNil(t, rep)
	file, pos, ok := rep.Position()
	require.True(t, ok)
	assert.Equal(t, "bin-log.000007", file)
	assert.EqualValues(t, 296, pos)
}

func TestStreamDatabaseRoutinesNamesFunction(t *testing.T) {
	s := newStreamFromFile(t, "testdata/sakila_dump.sql")

	var routines *Node
	for {
		n, err := s.Next()
		require.NoError(t, err)
		if n.Type == DatabaseRoutines {
			routines = n
			break
		}
		if n.IsLazy() {
			mustDrain(t, n)
		}
	}

	require.NotNil(t, routines)
	assert.Contains(t, routines.Routines(), "film_in_stock")
}

func TestStreamTableDMLIsLazyAndBounded(t *testing.T) {
	s := newStreamFromFile(t, "testdata/sakila_dump.sql")

	var dml *Node
	for {
		n, err := s.Next()
		require.NoError(t, err)
		if n.Type == TableDML {
			dml = n
			break
		}
	}

	require.NotNil(t, dml)
	assert.True(t, dml.IsLazy())
	assert.Empty(t, dml.Tokens())

	table, ok := dml.Table()
	require.True(t, ok)
	assert.Equal(t, "actor", table)

	db, ok := dml.Database()
	require.True(t, ok)
	assert.Equal(t, "sakila", db)

	rendered, err := dml.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, "INSERT INTO `actor`")
	assert.Contains(t, rendered, "LOCK TABLES `actor` WRITE")
	assert.Contains(t, rendered, "UNLOCK TABLES")

	// Draining a second time is a no-op, not an error.
	require.NoError(t, dml.Drain())
}

func TestStreamUnhandledTriggerTokenFails(t *testing.T) {
	s := newStreamFromFile(t, "testdata/malformed_trigger_dump.sql")

	n, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, DumpHeader, n.Type)

	n, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, SetupSession, n.Type)

	_, err = s.Next()
	require.Error(t, err)
	var cannotHandle *CannotHandleTokenError
	require.ErrorAs(t, err, &cannotHandle)
}
