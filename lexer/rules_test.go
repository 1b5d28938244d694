package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abg/mysqldumpfilter/scanner"
	"github.com/abg/mysqldumpfilter/token"
)

func TestMakeToken(t *testing.T) {
	text := "-- Host: localhost    Database: sakila\n-- Dumping data for table `actor`\n"
	sc := scanner.New(scanner.NewSource(strings.NewReader(text)))
	line, err := sc.Next()
	require.NoError(t, err)

	tok := makeToken(token.SqlComment, line, sc)
	assert.Equal(t, line, tok.Text)
	assert.Equal(t, token.SqlComment, tok.Symbol)
	assert.EqualValues(t, 0, tok.Offset)
}

func TestRuleBlank(t *testing.T) {
	sc := scanner.New(scanner.NewSource(strings.NewReader("\n")))
	line, err := sc.Next()
	require.NoError(t, err)
	tok, ok, err := ruleBlank(line, sc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token.BlankLine, tok.Symbol)

	sc2 := scanner.New(scanner.NewSource(strings.NewReader("foo\n")))
	line2, err := sc2.Next()
	require.NoError(t, err)
	_, ok, err = ruleBlank(line2, sc2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMultiLineCreateTable(t *testing.T) {
	text := "CREATE TABLE `actor` (\n" +
		"    `actor_id` smallint(5) unsigned NOT NULL AUTO_INCREMENT,\n" +
		"    PRIMARY KEY (`actor_id`)\n" +
		") ENGINE=InnoDB AUTO_INCREMENT=201 DEFAULT CHARSET=utf8;\n"
	sc := scanner.New(scanner.NewSource(strings.NewReader(text)))
	line, err := sc.Next()
	require.NoError(t, err)

	tok := multiLine(token.CreateTable, ";", line, sc)
	assert.Equal(t, token.CreateTable, tok.Symbol)
	assert.Equal(t, 1, tok.LineRange.First)
	assert.Equal(t, strings.Count(text, "\n"), tok.LineRange.Last)
	assert.True(t, strings.HasPrefix(tok.Text, "CREATE TABLE `actor`"))
	assert.True(t, strings.HasSuffix(strings.TrimRight(tok.Text, "\n"), ";"))
}

func TestClassifyDelimiterBlockRoutine(t *testing.T) {
	text := "DELIMITER ;;\n" +
		"/*!50003 CREATE*/ /*!50020 DEFINER=`root`@`localhost`*/ /*!50003 PROCEDURE `film_in_stock`()\n" +
		"BEGIN\n" +
		"    SELECT 1;\n" +
		"END */;;\n" +
		"DELIMITER ;\n"
	sc := scanner.New(scanner.NewSource(strings.NewReader(text)))
	line, err := sc.Next()
	require.NoError(t, err)

	tok, err := classifyDelimiterBlock(line, sc)
	require.NoError(t, err)
	assert.Equal(t, token.CreateRoutine, tok.Symbol)
	assert.Equal(t, text, tok.Text)
}

func TestClassifyDelimiterBlockTrigger(t *testing.T) {
	text := "DELIMITER ;;\n" +
		"/*!50003 CREATE*/ /*!50017 DEFINER=`root`@`localhost`*/ /*!50003 TRIGGER `t` BEFORE INSERT ON `c` FOR EACH ROW SET NEW.x = 1 */;;\n" +
		"DELIMITER ;\n"
	sc := scanner.New(scanner.NewSource(strings.NewReader(text)))
	line, err := sc.Next()
	require.NoError(t, err)

	tok, err := classifyDelimiterBlock(line, sc)
	require.NoError(t, err)
	assert.Equal(t, token.CreateTrigger, tok.Symbol)
	assert.Equal(t, text, tok.Text)
}

func TestDistinguishConditional(t *testing.T) {
	text := strings.Join([]string{
		"/*!40000 ALTER TABLE `actor` DISABLE KEYS */;\n",
		"/*!50001 DROP TABLE IF EXISTS `actor_info`*/;\n",
		"/*!50001 DROP VIEW IF EXISTS `film_list`*/;\n",
		"/*!50001 CREATE TABLE `actor_info` (\n    `actor_id` smallint(5) unsigned\n) ENGINE=MyISAM */;\n",
		"/*!50001 CREATE ALGORITHM=UNDEFINED */\n/*!50013 DEFINER=`root`@`localhost` SQL SECURITY INVOKER */\n/*!50001 VIEW `actor_info` AS select 1 */;\n",
		"/*!50001 SET character_set_client      = @saved_cs_client */;\n",
		"/*!30223 START SLAVE */;\n",
	}, "")
	expect := []token.Symbol{
		token.AlterTable,
		token.DropTmpView,
		token.DropView,
		token.CreateTmpView,
		token.CreateView,
		token.SetVariable,
		token.ConditionalComment,
	}

	sc := scanner.New(scanner.NewSource(strings.NewReader(text)))
	for _, want := range expect {
		line, err := sc.Next()
		require.NoError(t, err)
		tok, err := distinguishConditional(line, sc)
		require.NoError(t, err)
		assert.Equal(t, want, tok.Symbol)
	}
}

func TestDistinguishSQLComment(t *testing.T) {
	text := "--\n-- Position to start replication or point-in-time recovery from\n--\n-- CHANGE MASTER TO MASTER_LOG_FILE='bin-log.000007', MASTER_LOG_POS=296;\n"
	expect := []token.Symbol{token.SqlComment, token.SqlComment, token.SqlComment, token.ChangeMaster}

	sc := scanner.New(scanner.NewSource(strings.NewReader(text)))
	for _, want := range expect {
		line, err := sc.Next()
		require.NoError(t, err)
		tok, err := distinguishSQLComment(line, sc)
		require.NoError(t, err)
		assert.Equal(t, want, tok.Symbol)
	}
}

func TestStripConditionalPrefix(t *testing.T) {
	assert.Equal(t, "SET x = 1", stripConditionalPrefix("/*!40101 SET x = 1"))
	assert.Equal(t, "SET x = 1", stripConditionalPrefix("/*!401 SET x = 1"))
}
