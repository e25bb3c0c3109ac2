package service

import "strings"

// RefusalMessage is the answer the model is instructed to give when the
// context does not contain the information asked for.
const RefusalMessage = "Não tenho informações necessárias para responder sua pergunta."

const promptTemplate = `
CONTEXTO:
{contexto}

REGRAS:
- Responda somente com base no CONTEXTO.
- Se a informação não estiver explicitamente no CONTEXTO, responda:
  "Não tenho informações necessárias para responder sua pergunta."
- Nunca invente ou use conhecimento externo.
- Nunca produza opiniões ou interpretações além do que está escrito.

EXEMPLOS DE PERGUNTAS FORA DO CONTEXTO:
Pergunta: "Qual é a capital da França?"
Resposta: "Não tenho informações necessárias para responder sua pergunta."

Pergunta: "Quantos clientes temos em 2024?"
Resposta: "Não tenho informações necessárias para responder sua pergunta."

Pergunta: "Você acha isso bom ou ruim?"
Resposta: "Não tenho informações necessárias para responder sua pergunta."

PERGUNTA DO USUÁRIO:
{pergunta}

RESPONDA A "PERGUNTA DO USUÁRIO"
`

// RenderPrompt fills the grounding template. Slots are replaced in a single
// pass, so slot markers inside contexto or pergunta are left as typed.
func RenderPrompt(contexto, pergunta string) string {
	return strings.NewReplacer("{contexto}", contexto, "{pergunta}", pergunta).Replace(promptTemplate)
}
