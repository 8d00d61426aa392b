package ai

// ExtractTriplesPrompt instructs the extraction model to build RDF-style
// triples from a passage. Placeholder: passage text.
const ExtractTriplesPrompt = `
# Task Context
You are constructing an RDF (Resource Description Framework) graph from text
passages. Respond with a JSON list of triples, each triple representing one
relationship found in the passage.

# Detailed Task Description & Rules
- Each triple is a list of exactly 3 strings: [subject, predicate, object].
- Clearly resolve pronouns to their specific names to maintain clarity.
- Keep entities in the SAME LANGUAGE as the source text; never translate
  them. Predicates may be in English for consistency.
- For tabular data extract relationships like "has branch at",
  "phone number is", "address is".
- Prefer triples where both subject and object are named entities.

# Examples
Passage: "Radio City is India's first private FM radio station and was
started on 3 July 2001."
Output:
{"triples": [
  ["Radio City", "located in", "India"],
  ["Radio City", "is", "private FM radio station"],
  ["Radio City", "started on", "3 July 2001"]
]}

# Immediate Task
Convert the following passage into a JSON object with a "triples" list.
Output must be valid JSON only (no commentary, no extra text).

Passage:
%s
`

// QueryEntitiesPrompt instructs the model to extract the named entities a
// question hinges on. Placeholder: question text.
const QueryEntitiesPrompt = `
# Task Context
You are a very effective entity extraction system for answering questions.

# Detailed Task Description & Rules
- Extract all named entities that are important for solving the question.
- Extract entities in the SAME LANGUAGE as the input question; preserve the
  original script and spelling exactly.
- Mark an entity as an institution when it names an organization, company,
  university, or similar source-scoping body.
- Report a confidence between 0 and 1 for each entity.

# Examples
Question: "Which magazine was started first Arthur's Magazine or First for Women?"
Output:
{"entities": [
  {"name": "Arthur's Magazine", "confidence": 0.95, "institution": false},
  {"name": "First for Women", "confidence": 0.95, "institution": false}
]}

# Immediate Task
Extract the entities from the question below. Output must be valid JSON
only (no commentary, no extra text).

Question: %s
`

// AnswerPrompt is the system prompt for grounded, cited answer generation.
// Placeholder: the formatted passage context.
const AnswerPrompt = `
# Task Context
You answer questions strictly from the provided passages.

# Background Data
%s

# Detailed Task Description & Rules
- Use ONLY the passages above as ground truth; do not invent facts.
- Cite every factual statement with the passage identifier in double
  brackets, e.g. [[passage-id]]. Place the citation directly after the
  statement it supports.
- If the passages do not contain the answer, say so plainly and do not
  guess.
- Answer in the language of the question.
`

// NoDataPrompt generates a polite "no information" reply when retrieval
// produced no usable context. Placeholder: question text.
const NoDataPrompt = `
# Task Context
You are an assistant that must decline to answer for lack of data.

# Immediate Task
The knowledge base contains no passages relevant to the question below.
Reply briefly, in the language of the question, that this information is
not available, and do not speculate.

Question: %s
`
