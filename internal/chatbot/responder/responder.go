// Package responder owns every piece of user-facing text: canned replies,
// product listings, specification sheets, comparisons and apologies. All
// output is Spanish, matching the store's audience.
package responder

import (
	"fmt"
	"regexp"
	"strings"

	"infotec-chatbot/internal/chatbot/rules"
	"infotec-chatbot/internal/models"
)

// Company is the static store profile injected into generator prompts.
type Company struct {
	Name        string
	Location    string
	Specialties []string
	Services    []string
}

var DefaultCompany = Company{
	Name:     "Infotec",
	Location: "Lima, Perú",
	Specialties: []string{
		"laptops", "computadoras de escritorio", "monitores",
		"componentes y periféricos",
	},
	Services: []string{
		"envíos a todo el país", "garantía oficial", "asesoría personalizada",
	},
}

// PromptPreamble renders the company profile for generator prompts.
func (c Company) PromptPreamble() string {
	return fmt.Sprintf(
		"Eres el asistente virtual de %s, una tienda de tecnología en %s especializada en %s. Ofrecemos %s.",
		c.Name, c.Location,
		strings.Join(c.Specialties, ", "),
		strings.Join(c.Services, ", "))
}

// preparedResponse is a keyword-triggered canned reply, checked before the
// text generator on general conversation.
type preparedResponse struct {
	Keywords []string
	Reply    string
}

var preparedResponses = []preparedResponse{
	{
		Keywords: []string{"envío", "envio", "delivery", "entrega", "cuánto demora", "cuanto demora"},
		Reply: "🚚 Hacemos envíos a todo el Perú. En Lima la entrega demora 24-48 horas y en provincias de 3 a 5 días hábiles. " +
			"El envío es gratis en compras mayores a S/ 199.",
	},
	{
		Keywords: []string{"garantía", "garantia", "warranty"},
		Reply: "🛡️ Todos nuestros productos incluyen garantía oficial de 12 meses como mínimo. " +
			"Las laptops y PCs tienen soporte directo con la marca y también puedes traerlas a nuestra tienda.",
	},
	{
		Keywords: []string{"financiamiento", "cuotas", "crédito", "credito", "tarjeta"},
		Reply: "💳 Aceptamos todas las tarjetas y ofrecemos pagos en cuotas sin intereses de 3 a 12 meses " +
			"con tarjetas de crédito seleccionadas.",
	},
	{
		Keywords: []string{"otros modelos", "más modelos", "mas modelos", "otras opciones"},
		Reply:    "Claro, tenemos muchos más modelos disponibles. Dime qué tipo de equipo buscas, tu presupuesto o para qué lo vas a usar, y te muestro las mejores opciones. 💻",
	},
	{
		Keywords: []string{"horario", "atienden", "abierto"},
		Reply:    "🕐 Atendemos de lunes a sábado de 9:00 a 19:00. Por este chat te ayudamos en cualquier momento.",
	},
}

// Prepared returns the canned reply for the message, if any keyword matches.
func Prepared(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, pr := range preparedResponses {
		for _, kw := range pr.Keywords {
			if strings.Contains(lower, kw) {
				return pr.Reply, true
			}
		}
	}
	return "", false
}

const Greeting = "¡Hola! 👋 Soy el asistente virtual de Infotec. Puedo ayudarte a encontrar laptops, PCs, monitores y más. ¿Qué estás buscando hoy?"

const Thanks = "¡De nada! 😊 Si necesitas algo más, aquí estoy."

const Farewell = "¡Gracias por visitarnos! 👋 Que tengas un buen día."

// Casual answers simple small talk without calling the generator.
func Casual(message string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	switch {
	case lower == "":
		return Greeting, true
	case containsAny(lower, []string{"hola", "buenos días", "buenas tardes", "buenas noches", "hey", "saludos"}):
		return Greeting, true
	case containsAny(lower, []string{"gracias", "muchas gracias"}):
		return Thanks, true
	case containsAny(lower, []string{"adiós", "adios", "hasta luego", "chau", "nos vemos"}):
		return Farewell, true
	}
	return "", false
}

// ProductList renders a numbered listing with price, discount and stock.
func ProductList(products []models.Product) string {
	var b strings.Builder
	b.WriteString("Encontré estas opciones para ti:\n\n")
	for i, p := range products {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, p.Name)
		if discount := p.DiscountPercent(); discount > 0 {
			fmt.Fprintf(&b, "💰 **S/ %.2f** ~~S/ %.2f~~ (-%d%%)\n", p.Price, p.OriginalPrice, discount)
		} else {
			fmt.Fprintf(&b, "💰 **S/ %.2f**\n", p.Price)
		}
		if p.Rating > 0 {
			fmt.Fprintf(&b, "⭐ %.1f\n", p.Rating)
		}
		if p.StockQuantity <= 3 {
			fmt.Fprintf(&b, "📦 ¡Solo quedan %d en stock!\n", p.StockQuantity)
		} else {
			b.WriteString("📦 En stock\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("¿Quieres ver las especificaciones de alguno? Dime por ejemplo \"la primera\" o \"la segunda\". 😉")
	return b.String()
}

var (
	processorPattern = regexp.MustCompile(`(?i)(intel\s+core\s+i[3579](?:-\w+)?|core\s+i[3579]|ryzen\s+[3579](?:\s+\w+)?|celeron|pentium|apple\s+m[123])`)
	ramPattern       = regexp.MustCompile(`(?i)(\d{1,2})\s*gb(?:\s+de)?\s+ram`)
	storagePattern   = regexp.MustCompile(`(?i)(\d+\s*(?:gb|tb))\s*(ssd|hdd|nvme)`)
	displayPattern   = regexp.MustCompile(`(?i)(\d{2}(?:\.\d)?)["”]|(\d{2}(?:\.\d)?)\s*pulgadas`)
	gpuPattern       = regexp.MustCompile(`(?i)(rtx\s*\d{4}|gtx\s*\d{4}|radeon\s+\w+|iris\s+xe)`)
)

// SpecSheet renders a specification card. Structured specifications win;
// otherwise the sheet derives what it can from the product name.
func SpecSheet(p models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Especificaciones de %s**\n\n", p.Name)
	fmt.Fprintf(&b, "💰 Precio: S/ %.2f", p.Price)
	if discount := p.DiscountPercent(); discount > 0 {
		fmt.Fprintf(&b, " (antes S/ %.2f, -%d%%)", p.OriginalPrice, discount)
	}
	b.WriteString("\n")
	if p.Brand != "" {
		fmt.Fprintf(&b, "🏷️ Marca: %s\n", p.Brand)
	}

	if len(p.Specifications) > 0 {
		for _, key := range []string{"procesador", "ram", "almacenamiento", "pantalla", "sistema_operativo", "tarjeta_grafica"} {
			if v, ok := p.Specifications[key]; ok {
				fmt.Fprintf(&b, "• %s: %s\n", specLabel(key), v)
			}
		}
		for k, v := range p.Specifications {
			if !knownSpecKey(k) {
				fmt.Fprintf(&b, "• %s: %s\n", k, v)
			}
		}
	} else {
		writeDerivedSpecs(&b, p)
	}

	if p.StockQuantity > 0 {
		fmt.Fprintf(&b, "\n📦 Stock disponible: %d unidades\n", p.StockQuantity)
		b.WriteString("¿Te lo agrego al carrito? 🛒")
	} else {
		b.WriteString("\n😔 Por el momento está agotado.")
	}
	return b.String()
}

func writeDerivedSpecs(b *strings.Builder, p models.Product) {
	source := p.Name + " " + p.Description
	if m := processorPattern.FindString(source); m != "" {
		fmt.Fprintf(b, "• Procesador: %s\n", strings.TrimSpace(m))
	}
	if m := ramPattern.FindStringSubmatch(source); m != nil {
		fmt.Fprintf(b, "• Memoria RAM: %s GB\n", m[1])
	}
	if m := storagePattern.FindStringSubmatch(source); m != nil {
		fmt.Fprintf(b, "• Almacenamiento: %s %s\n",
			strings.ToUpper(strings.ReplaceAll(m[1], " ", "")), strings.ToUpper(m[2]))
	}
	if m := gpuPattern.FindString(source); m != "" {
		fmt.Fprintf(b, "• Tarjeta gráfica: %s\n", strings.ToUpper(m))
	}
	if m := displayPattern.FindStringSubmatch(source); m != nil {
		size := m[1]
		if size == "" {
			size = m[2]
		}
		fmt.Fprintf(b, "• Pantalla: %s\"\n", size)
	}
}

func specLabel(key string) string {
	switch key {
	case "procesador":
		return "Procesador"
	case "ram":
		return "Memoria RAM"
	case "almacenamiento":
		return "Almacenamiento"
	case "pantalla":
		return "Pantalla"
	case "sistema_operativo":
		return "Sistema operativo"
	case "tarjeta_grafica":
		return "Tarjeta gráfica"
	}
	return key
}

func knownSpecKey(key string) bool {
	switch key {
	case "procesador", "ram", "almacenamiento", "pantalla", "sistema_operativo", "tarjeta_grafica":
		return true
	}
	return false
}

// Comparison renders a side-by-side card for two resolved products.
func Comparison(a, b models.Product, attrs []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚖️ **%s vs %s**\n\n", a.Name, b.Name)
	for _, p := range []models.Product{a, b} {
		fmt.Fprintf(&sb, "**%s**\n", p.Name)
		fmt.Fprintf(&sb, "💰 S/ %.2f\n", p.Price)
		if p.Rating > 0 {
			fmt.Fprintf(&sb, "⭐ %.1f\n", p.Rating)
		}
		sb.WriteString("\n")
	}
	if len(attrs) > 0 && attrs[0] != rules.DefaultComparisonAttribute {
		fmt.Fprintf(&sb, "Comparando: %s\n\n", strings.Join(attrs, ", "))
	}
	switch {
	case a.Price < b.Price:
		fmt.Fprintf(&sb, "El más económico es **%s** (ahorras S/ %.2f).", a.Name, b.Price-a.Price)
	case b.Price < a.Price:
		fmt.Fprintf(&sb, "El más económico es **%s** (ahorras S/ %.2f).", b.Name, a.Price-b.Price)
	default:
		sb.WriteString("Ambos tienen el mismo precio; revisa las especificaciones para decidir.")
	}
	return sb.String()
}

// CartMessage decorates the cart service verdict with the running total.
// The service message itself is propagated verbatim.
func CartMessage(result *models.CartResult) string {
	if !result.Success {
		return result.Message
	}
	msg := result.Message
	if result.CartTotal > 0 {
		msg += fmt.Sprintf("\n🛒 Total del carrito: S/ %.2f", result.CartTotal)
	}
	msg += "\n¿Deseas algo más?"
	return msg
}

// OrdinalClarification asks the user to name the product when a back
// reference could not be resolved.
func OrdinalClarification(n int) string {
	if name, ok := rules.SpanishOrdinal[n]; ok {
		return fmt.Sprintf("No encuentro una %s opción en lo que te mostré. 🤔 ¿Me dices el nombre del producto que te interesa?", name)
	}
	return "No estoy seguro de a qué producto te refieres. 🤔 ¿Me dices su nombre?"
}

// TechAnswerFallbacks keeps the degraded-mode answers for tech question
// subtypes that come up constantly in store chats.
var TechAnswerFallbacks = map[string]string{
	"laptop_vs_pc": "Depende de tu uso 🙂. Una **laptop** te da portabilidad: ideal para estudiar o trabajar en varios lugares. " +
		"Una **PC de escritorio** rinde más por el mismo precio y es más fácil de ampliar, ideal para gaming o trabajo pesado en un solo lugar. " +
		"Si me cuentas para qué la necesitas y tu presupuesto, te recomiendo equipos concretos.",
	"storage_comparison": "Un **SSD** es mucho más rápido y silencioso que un **HDD**: el sistema arranca en segundos. " +
		"El HDD ofrece más capacidad por menos dinero. Hoy casi todos nuestros equipos vienen con SSD.",
}

// TechAnswerGeneric is the degraded-mode answer for any other tech question.
const TechAnswerGeneric = "Buena pregunta 🤓. En este momento no puedo darte una respuesta detallada, " +
	"pero si me cuentas qué equipo buscas y para qué lo usarás, te recomiendo opciones concretas de nuestro catálogo."

// DefaultSmallTalk closes general conversation when the generator is down
// and no canned reply applies.
const DefaultSmallTalk = "Estoy aquí para ayudarte con laptops, PCs, monitores y accesorios. 💻 ¿Qué estás buscando?"

// CartClarification asks which product to add when nothing could be resolved.
const CartClarification = "¡Claro! 🛒 ¿Qué producto quieres agregar? Dime su nombre o el número de la lista."

// Apologies, one per failure class so users get a specific message.
const (
	ApologyGeneric = "Lo siento, tuve un problema técnico procesando tu mensaje. 😓 ¿Puedes intentarlo de nuevo?"
	ApologyCatalog = "Lo siento, no puedo consultar el catálogo en este momento. 😓 Inténtalo de nuevo en unos minutos."
	ApologyCart    = "Lo siento, no pude verificar el stock para agregarlo al carrito. 😓 Inténtalo de nuevo en un momento."
	NoResults      = "No encontré productos que coincidan con tu búsqueda. 😕 ¿Quieres que te muestre otras opciones?"
)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
