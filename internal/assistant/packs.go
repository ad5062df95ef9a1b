package assistant

import (
	"regexp"

	"github.com/olasis/olasis-service/internal/domain"
)

// TurnKind distinguishes the greeting turn from later turns.
type TurnKind int

const (
	// FirstTurn must open with the pack's greeting sentence.
	FirstTurn TurnKind = iota
	// FollowUp must not contain any greeting.
	FollowUp

	turnKindCount
)

// String returns the metric label of the turn kind.
func (k TurnKind) String() string {
	switch k {
	case FirstTurn:
		return "first"
	case FollowUp:
		return "follow_up"
	default:
		return "unknown"
	}
}

// Pack is the per-language bundle of prompts and canned replies.
type Pack struct {
	// Templates holds the instruction prepended to the prompt per turn kind.
	Templates [turnKindCount]string
	// Greeting is the exact sentence every first reply starts with.
	Greeting string
	// GreetingPattern matches one leading greeting phrase.
	GreetingPattern *regexp.Regexp
	// IntroPattern matches one leading self-introduction sentence.
	IntroPattern *regexp.Regexp
	// UserLabel and AssistantLabel prefix history lines.
	UserLabel      string
	AssistantLabel string
	// Unavailable is returned when no backend is configured.
	Unavailable string
	// Failure is returned when generation fails or yields nothing.
	Failure string
}

// packs is indexed by domain.Language. TestPacksComplete fails if an entry
// is left empty.
var packs = [domain.LanguageCount]Pack{
	domain.English: {
		Templates: [turnKindCount]string{
			FirstTurn: "You are OLABOT, the scientific research assistant of OLASIS 4.0. " +
				"Always answer in English. Start your reply with this exact sentence, verbatim: " +
				"\"Hello! I'm OLABOT, the scientific research assistant of OLASIS 4.0.\" " +
				"Then answer the user's message in one short paragraph. Use plain text only, no markdown.",
			FollowUp: "You are OLABOT, the scientific research assistant of OLASIS 4.0. " +
				"Always answer in English. Do not greet the user and do not introduce yourself. " +
				"Answer the question directly, clearly and with evidence, in 2 to 4 paragraphs. " +
				"Give scientific or historical context when relevant and practical examples when possible. " +
				"Use plain text only, no markdown.",
		},
		Greeting:        "Hello! I'm OLABOT, the scientific research assistant of OLASIS 4.0.",
		GreetingPattern: regexp.MustCompile(`(?i)^\s*(?:hello|hi|hey|greetings|good (?:morning|afternoon|evening))(?:\s+there)?(?:\s*[!,.:;]+\s*|\s+|$)`),
		IntroPattern:    regexp.MustCompile(`(?i)^\s*(?:I['’]m|I\s+am|my\s+name\s+is|this\s+is)\s+OLABOT\b(?:[^.!?\n]|[.!?]\S)*[.!?]*(?:\s+|$)`),
		UserLabel:       "User",
		AssistantLabel:  "OLABOT",
		Unavailable:     "OLABOT is unavailable right now. Please check the API key configuration and try again later.",
		Failure:         "Sorry, I could not generate a response right now. Please try again.",
	},
	domain.Spanish: {
		Templates: [turnKindCount]string{
			FirstTurn: "Eres OLABOT, el asistente de investigación científica de OLASIS 4.0. " +
				"Responde siempre en español. Comienza tu respuesta con esta frase exacta, literalmente: " +
				"\"¡Hola! Soy OLABOT, el asistente de investigación científica de OLASIS 4.0.\" " +
				"Luego responde al mensaje del usuario en un párrafo corto. Usa solo texto plano, sin markdown.",
			FollowUp: "Eres OLABOT, el asistente de investigación científica de OLASIS 4.0. " +
				"Responde siempre en español. No saludes ni te presentes. " +
				"Responde directamente a la pregunta de forma clara y fundamentada, en 2 a 4 párrafos. " +
				"Aporta contexto científico o histórico cuando sea relevante y ejemplos prácticos cuando sea posible. " +
				"Usa solo texto plano, sin markdown.",
		},
		Greeting:        "¡Hola! Soy OLABOT, el asistente de investigación científica de OLASIS 4.0.",
		GreetingPattern: regexp.MustCompile(`(?i)^\s*¡?\s*(?:hola|saludos|buen(?:os|as)\s+(?:días|dias|tardes|noches))(?:\s+a\s+todos)?(?:\s*[!¡,.:;]+\s*|\s+|$)`),
		IntroPattern:    regexp.MustCompile(`(?i)^\s*(?:soy|me\s+llamo|aquí\s+(?:está|tienes\s+a))\s+OLABOT\b(?:[^.!?\n]|[.!?]\S)*[.!?]*(?:\s+|$)`),
		UserLabel:       "Usuario",
		AssistantLabel:  "OLABOT",
		Unavailable:     "OLABOT no está disponible en este momento. Verifica la configuración de la clave de API e inténtalo más tarde.",
		Failure:         "Lo siento, no pude generar una respuesta en este momento. Inténtalo de nuevo.",
	},
	domain.Portuguese: {
		Templates: [turnKindCount]string{
			FirstTurn: "Você é o OLABOT, assistente especializado em pesquisa científica do OLASIS 4.0. " +
				"Responda sempre em português. Comece sua resposta com esta frase exata, literalmente: " +
				"\"Olá! Sou o OLABOT, assistente de pesquisa científica do OLASIS 4.0.\" " +
				"Depois responda à mensagem do usuário em UM parágrafo curto. Use apenas texto simples, sem markdown.",
			FollowUp: "Você é o OLABOT, assistente especializado em pesquisa científica do OLASIS 4.0. " +
				"Responda sempre em português. Não cumprimente o usuário nem se apresente. " +
				"Responda diretamente à pergunta de forma clara, detalhada e embasada, limitando a resposta a 2 a 4 parágrafos. " +
				"Forneça contexto científico ou histórico quando relevante e use exemplos práticos quando possível. " +
				"Use apenas texto simples, sem markdown.",
		},
		Greeting:        "Olá! Sou o OLABOT, assistente de pesquisa científica do OLASIS 4.0.",
		GreetingPattern: regexp.MustCompile(`(?i)^\s*(?:olá|ola|oi|saudações|saudacoes|bom\s+dia|boa\s+(?:tarde|noite))(?:\s+a\s+todos)?(?:\s*[!,.:;]+\s*|\s+|$)`),
		IntroPattern:    regexp.MustCompile(`(?i)^\s*(?:(?:eu\s+)?sou\s+o|me\s+chamo|aqui\s+é\s+o)\s+OLABOT\b(?:[^.!?\n]|[.!?]\S)*[.!?]*(?:\s+|$)`),
		UserLabel:       "Usuário",
		AssistantLabel:  "OLABOT",
		Unavailable:     "O OLABOT não está disponível no momento. Verifique a configuração da chave de API e tente novamente mais tarde.",
		Failure:         "Desculpe, não consegui gerar uma resposta agora. Tente novamente.",
	},
}

// PackFor returns the pack of lang, falling back to Spanish for values
// outside the table.
func PackFor(lang domain.Language) *Pack {
	if !lang.Valid() {
		lang = domain.Spanish
	}
	return &packs[lang]
}
