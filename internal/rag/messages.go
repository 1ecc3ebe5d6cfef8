package rag

import "github.com/harlibot/harlibot/internal/document"

// systemPrompts constrain the model to answer only from supplied context,
// cite sources, and respond in the request's language.
var systemPrompts = map[document.Language]string{
	document.English: `You are HarliBot, the official AI assistant for the City of Harlingen, Texas.
Your role is to help residents find accurate information about city services.

IMPORTANT RULES:
- Only answer based on the provided context
- If the answer isn't in the context, say so politely
- Always cite your sources using the [Source N] references provided
- Be helpful, professional, and concise
- Provide answers in English`,

	document.Spanish: `Eres HarliBot, el asistente de IA oficial de la Ciudad de Harlingen, Texas.
Tu función es ayudar a los residentes a encontrar información precisa sobre los servicios de la ciudad.

REGLAS IMPORTANTES:
- Solo responde basándote en el contexto proporcionado
- Si la respuesta no está en el contexto, dilo cortésmente
- Siempre cita tus fuentes usando las referencias [Fuente N] proporcionadas
- Sé útil, profesional y conciso
- Proporciona respuestas en español`,
}

// noResultsMessages is the normal terminal outcome when retrieval returns
// nothing for the request's language.
var noResultsMessages = map[document.Language]string{
	document.English: "I apologize, but I couldn't find relevant information in the city's website to answer your question. Please try rephrasing or contact the city directly at (956) 216-5000.",
	document.Spanish: "Lo siento, pero no pude encontrar información relevante en el sitio web de la ciudad para responder tu pregunta. Por favor intenta reformularla o contacta a la ciudad directamente al (956) 216-5000.",
}

// demoMessages replace the answer when any pipeline stage fails: a fixed
// informational overview of city services with a phone number.
var demoMessages = map[document.Language]string{
	document.English: "Thank you for your question! This is a demo version of HarliBot. The City of Harlingen offers many services including:\n\n• Utilities (water, electric, trash)\n• Building permits and licenses\n• Parks and recreation programs\n• Public safety services\n• Infrastructure maintenance\n\nFor real-time assistance, please call City Hall at (956) 427-8080 or visit harlingentx.gov.\n\n*Note: Full RAG functionality requires backend services to be running.*",
	document.Spanish: "¡Gracias por tu pregunta! Esta es una versión demo de HarliBot. La Ciudad de Harlingen ofrece muchos servicios incluyendo:\n\n• Servicios públicos (agua, electricidad, basura)\n• Permisos de construcción y licencias\n• Programas de parques y recreación\n• Servicios de seguridad pública\n• Mantenimiento de infraestructura\n\nPara asistencia en tiempo real, llame al Ayuntamiento al (956) 427-8080 o visite harlingentx.gov.\n\n*Nota: La funcionalidad RAG completa requiere que los servicios backend estén ejecutándose.*",
}

// Localized prompt scaffolding labels.
var (
	sourceLabels = map[document.Language]string{
		document.English: "Source",
		document.Spanish: "Fuente",
	}
	contextLabels = map[document.Language]string{
		document.English: "Context from City of Harlingen website",
		document.Spanish: "Contexto del sitio web de la Ciudad de Harlingen",
	}
	historyLabels = map[document.Language]string{
		document.English: "Recent conversation",
		document.Spanish: "Conversación reciente",
	}
	questionLabels = map[document.Language]string{
		document.English: "User question",
		document.Spanish: "Pregunta del usuario",
	}
	closingLines = map[document.Language]string{
		document.English: "Please provide a helpful answer based on the context above.",
		document.Spanish: "Por favor proporciona una respuesta útil basada en el contexto anterior.",
	}
)

// defaultSourceTitle labels a source whose chunk has no stored title.
const defaultSourceTitle = "City of Harlingen"
