package retrieval

// Parties are collected with OPTIONAL MATCH so an agreement without parties, or a party without
// an incorporation country, still comes back.
const partiesMatch = `
OPTIONAL MATCH (p:Organization)-[r:IS_PARTY_TO]->(a)
OPTIONAL MATCH (p)-[i:INCORPORATED_IN]->(country:Country)
`

const partiesColumn = `collect(p {.name, role: r.role, incorporation_country: country.name, incorporation_state: i.state}) AS parties`

const summaryReturn = partiesMatch + `WITH a, p, r, i, country ORDER BY p.name
RETURN a.contract_id AS contract_id, a.name AS name, a.agreement_type AS agreement_type, ` + partiesColumn + `
ORDER BY contract_id
`

const contractCypher = `
MATCH (a:Agreement {contract_id: $contract_id})
OPTIONAL MATCH (a)-[:HAS_CLAUSE]->(cc:ContractClause)
OPTIONAL MATCH (cc)-[:HAS_EXCERPT]->(e:Excerpt)
WITH a, cc, collect(e.text) AS excerpts
ORDER BY cc.type
WITH a, collect(cc {.type, excerpts: excerpts}) AS clauses
OPTIONAL MATCH (a)-[g:GOVERNED_BY_LAW]->(gl:Country)
WITH a, clauses, head(collect(gl {.name, state: g.state})) AS governing_law
` + partiesMatch + `WITH a, clauses, governing_law, p, r, i, country ORDER BY p.name
RETURN a AS agreement, clauses, governing_law, ` + partiesColumn

const organizationCypher = `
CALL db.index.fulltext.queryNodes($index_name, $organization_name)
YIELD node AS o, score
WITH o, score
ORDER BY score DESC
LIMIT 1
MATCH (o)-[:IS_PARTY_TO]->(a:Agreement)
WITH DISTINCT a
` + summaryReturn

const withClauseCypher = `
MATCH (a:Agreement)-[:HAS_CLAUSE]->(:ContractClause {type: $clause_type})
WITH DISTINCT a
` + summaryReturn

const withoutClauseCypher = `
MATCH (a:Agreement)
OPTIONAL MATCH (a)-[:HAS_CLAUSE]->(cc:ContractClause {type: $clause_type})
WITH a, cc
WHERE cc IS NULL
WITH DISTINCT a
` + summaryReturn

const excerptTraversal = `
MATCH (a:Agreement)-[:HAS_CLAUSE]->(cc:ContractClause)-[:HAS_EXCERPT]->(node)
RETURN a.name AS agreement_name, a.contract_id AS contract_id, cc.type AS clause_type, node.text AS excerpt, score
ORDER BY score DESC, contract_id
`

const vectorIndexCypher = `
CALL db.index.vector.queryNodes($index_name, $top_k, $embedding)
YIELD node, score
` + excerptTraversal

const mirrorHitsCypher = `
UNWIND $hits AS hit
MATCH (node:Excerpt)
WHERE elementId(node) = hit.element_id
WITH node, hit.score AS score
` + excerptTraversal
