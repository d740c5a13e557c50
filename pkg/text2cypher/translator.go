// Package text2cypher translates natural-language questions into read-only Cypher over the
// contract graph.
package text2cypher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/llm"
)

const systemPrompt = `You are an expert Neo4j developer who writes Cypher for a legal contract knowledge graph.
Only ever write read queries. Do not use any labels, properties or relationships that are not in the schema.`

const promptTemplate = `Task: Generate a Cypher statement for querying a Neo4j graph database from a user input.

Schema:
%s
Input:
%s

Return the statement in the "cypher" field without triple backticks or any additional text.`

// Output is the structured reply the model is asked for.
type Output struct {
	Cypher string `json:"cypher" jsonschema_description:"A single read-only Cypher statement answering the question"`
}

var (
	// ErrEmptyTranslation means the model returned no statement.
	ErrEmptyTranslation = errors.New("translation produced no query")

	// ErrUnsafeQuery means the statement would modify the graph or run more than one statement.
	ErrUnsafeQuery = errors.New("translated query is not read-only")
)

var (
	stringLiteral = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)
	writeClause   = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|LOAD\s+CSV|IN\s+TRANSACTIONS)\b`)
	codeFence     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Translator turns questions into Cypher with a completion provider.
type Translator struct {
	completer llm.Completer
	schema    string
	logger    *log.Logger
}

// NewTranslator creates a translator that describes the graph to the model with schema.
func NewTranslator(completer llm.Completer, schema string, logger *log.Logger) *Translator {
	if logger == nil {
		logger = log.Default()
	}

	return &Translator{
		completer: completer,
		schema:    schema,
		logger:    logger,
	}
}

// Translate returns a single read-only statement for question.
func (translator *Translator) Translate(ctx context.Context, question string) (string, error) {
	reply, err := translator.completer.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: fmt.Sprintf(promptTemplate, translator.schema, question),
		Schema: &llm.Schema{
			Name:        "cypher_query",
			Description: "A Cypher statement for the contract graph",
			Value:       llm.GenerateSchema[Output](),
		},
	})
	if err != nil {
		return "", err
	}

	cypher := Extract(reply)
	translator.logger.Debug("translated question", "question", question, "cypher", cypher)

	if err := ReadOnly(cypher); err != nil {
		return "", err
	}

	return cypher, nil
}

// Extract pulls the statement out of a model reply, accepting the structured JSON form, a fenced
// code block, or bare text.
func Extract(reply string) string {
	reply = strings.TrimSpace(reply)

	var output Output
	if err := json.Unmarshal([]byte(reply), &output); err == nil && output.Cypher != "" {
		reply = strings.TrimSpace(output.Cypher)
	}

	if match := codeFence.FindStringSubmatch(reply); match != nil {
		reply = strings.TrimSpace(match[1])
	}

	return strings.TrimSuffix(reply, ";")
}

// ReadOnly rejects empty statements, statements with write clauses, and multiple statements.
// Keywords inside string literals are ignored.
func ReadOnly(cypher string) error {
	if strings.TrimSpace(cypher) == "" {
		return ErrEmptyTranslation
	}

	stripped := stringLiteral.ReplaceAllString(cypher, "''")

	if clause := writeClause.FindString(stripped); clause != "" {
		return fmt.Errorf("%w: contains %s", ErrUnsafeQuery, strings.ToUpper(clause))
	}

	if strings.Contains(strings.TrimSuffix(strings.TrimSpace(stripped), ";"), ";") {
		return fmt.Errorf("%w: contains more than one statement", ErrUnsafeQuery)
	}

	return nil
}
