package text2cypher

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/llm"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/schema"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, request llm.Request) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func TestExtract(t *testing.T) {
	Convey("Given model replies in different shapes", t, func() {
		Convey("Structured output should be unwrapped", func() {
			So(Extract(`{"cypher": "MATCH (a:Agreement) RETURN count(a)"}`), ShouldEqual, "MATCH (a:Agreement) RETURN count(a)")
		})

		Convey("Code fences should be stripped", func() {
			So(Extract("```cypher\nMATCH (n) RETURN n;\n```"), ShouldEqual, "MATCH (n) RETURN n")
		})

		Convey("Bare text should pass through trimmed", func() {
			So(Extract("  MATCH (n) RETURN n  "), ShouldEqual, "MATCH (n) RETURN n")
		})
	})
}

func TestReadOnly(t *testing.T) {
	Convey("Given translated statements", t, func() {
		Convey("Read queries should be accepted", func() {
			So(ReadOnly("MATCH (a:Agreement)-[:HAS_CLAUSE]->(c) RETURN a.name, count(c)"), ShouldBeNil)
		})

		Convey("Keywords inside string literals should not count", func() {
			So(ReadOnly("MATCH (c:ClauseType {name: 'Set Off'}) RETURN c"), ShouldBeNil)
		})

		Convey("Write clauses should be rejected", func() {
			for _, cypher := range []string{
				"MATCH (a) DETACH DELETE a",
				"MERGE (o:Organization {name: 'x'})",
				"MATCH (a) set a.name = 'x'",
				"LOAD CSV FROM 'file:///x' AS row RETURN row",
				"CALL { MATCH (n) RETURN n } IN TRANSACTIONS",
			} {
				So(errors.Is(ReadOnly(cypher), ErrUnsafeQuery), ShouldBeTrue)
			}
		})

		Convey("Multiple statements should be rejected", func() {
			So(errors.Is(ReadOnly("MATCH (n) RETURN n; MATCH (m) RETURN m"), ErrUnsafeQuery), ShouldBeTrue)
		})

		Convey("Empty statements should be rejected", func() {
			So(errors.Is(ReadOnly(" "), ErrEmptyTranslation), ShouldBeTrue)
		})
	})
}

func TestTranslate(t *testing.T) {
	Convey("Given a translator over a mock completer", t, func() {
		completer := &MockCompleter{}
		translator := NewTranslator(completer, schema.Contracts().Describe(), log.New(io.Discard))
		ctx := context.Background()

		Convey("It should send the schema and question and return the statement", func() {
			var request llm.Request
			completer.On("Complete", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { request = args.Get(1).(llm.Request) }).
				Return(`{"cypher": "MATCH (a:Agreement) RETURN count(a) AS total"}`, nil)

			cypher, err := translator.Translate(ctx, "How many agreements are there?")

			So(err, ShouldBeNil)
			So(cypher, ShouldEqual, "MATCH (a:Agreement) RETURN count(a) AS total")
			So(request.Prompt, ShouldContainSubstring, "(:Organization)-[:IS_PARTY_TO]->(:Agreement)")
			So(request.Prompt, ShouldContainSubstring, "How many agreements are there?")
			So(request.Schema, ShouldNotBeNil)
		})

		Convey("It should refuse a write statement", func() {
			completer.On("Complete", mock.Anything, mock.Anything).Return(`{"cypher": "MATCH (n) DELETE n"}`, nil)

			_, err := translator.Translate(ctx, "delete everything")

			So(errors.Is(err, ErrUnsafeQuery), ShouldBeTrue)
		})

		Convey("It should pass through provider failures", func() {
			completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

			_, err := translator.Translate(ctx, "anything")

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "rate limited")
		})
	})
}
