// Package rules holds the ordered pattern tables the extractor and the
// fallback classifier run against. Order inside each table is precedence:
// the first matching rule wins. Everything here is data; matching is left
// to the callers so precedence stays testable on its own.
package rules

import (
	"regexp"
	"strings"
)

// CategoryRule maps a product category to its detection pattern.
type CategoryRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Categories lists catalog categories in match order. Broader categories go
// last so e.g. "memoria ram" resolves to the component rule, not "pc".
var Categories = []CategoryRule{
	{"laptop", regexp.MustCompile(`laptop|port[aá]til|notebook`)},
	{"pc", regexp.MustCompile(`\bpc\b|computadora de escritorio|desktop|ordenador`)},
	{"monitor", regexp.MustCompile(`monitor|pantalla`)},
	{"teclado", regexp.MustCompile(`teclado|keyboard`)},
	{"mouse", regexp.MustCompile(`\bmouse\b|rat[oó]n`)},
	{"impresora", regexp.MustCompile(`impresora|printer`)},
	{"tablet", regexp.MustCompile(`tablet`)},
	{"smartphone", regexp.MustCompile(`smartphone|celular|m[oó]vil`)},
	{"audifonos", regexp.MustCompile(`aud[ií]fonos|auriculares|headset`)},
	{"componente_pc", regexp.MustCompile(`tarjeta de video|\bgpu\b|procesador|\bcpu\b|memoria ram|\bram\b|disco duro|\bssd\b|placa madre|motherboard`)},
}

// Brands are matched as case-insensitive literals, first hit wins.
var Brands = []string{
	"asus", "lenovo", "hp", "dell", "acer", "apple", "samsung",
	"lg", "microsoft", "xiaomi", "huawei", "msi", "gigabyte",
	"corsair", "logitech", "razer", "kingston", "intel", "amd",
}

// UseCaseRule maps a use case to the keywords that imply it.
type UseCaseRule struct {
	Name     string
	Keywords []string
}

var UseCases = []UseCaseRule{
	{"gaming", []string{"gaming", "gamer", "juegos", "videojuegos", "fps", "minecraft", "fortnite"}},
	{"universidad", []string{"universidad", "universitario", "estudios", "carrera", "tesis", "investigación"}},
	{"trabajo", []string{"trabajo", "oficina", "empresarial", "corporativo", "profesional"}},
	{"programacion", []string{"programar", "programación", "desarrollo", "código", "python", "java"}},
	{"diseño", []string{"diseño", "photoshop", "illustrator", "render", "3d", "gráfico"}},
	{"basico", []string{"básico", "simple", "internet", "word", "excel", "navegación"}},
}

// SearchKeywordForUseCase translates a use case into the catalog keyword
// appended to synthesized search queries.
var SearchKeywordForUseCase = map[string]string{
	"gaming":      "gaming",
	"universidad": "estudiante",
	"trabajo":     "empresarial",
}

// Budget captures "hasta/máximo/presupuesto <n>" style price ceilings.
var Budget = regexp.MustCompile(`(?:hasta|m[aá]ximo|presupuesto|budget)\s*(?:de\s*)?(?:s/\s*)?(\d+)`)

// Quantity captures explicit unit counts.
var Quantity = regexp.MustCompile(`(\d+)\s*(?:unidades?|pcs?|equipos?)`)

// CartPhrases mark an intent to buy or add to the cart. Substring match.
var CartPhrases = []string{
	"agregar al carrito", "agrega al carrito", "añade al carrito",
	"añadir al carrito", "pon en el carrito", "quiero comprar",
	"comprar esto", "comprar esta", "lo llevo", "lo quiero", "lo agrego",
	"agregarlo", "añadirlo", "comprarlo", "puedes agregar", "me lo das",
	"agregar", "añadir", "carrito", "comprar", "llevar",
}

// SpecPhrases mark a request for technical specifications. Substring match.
var SpecPhrases = []string{
	"especificaciones", "specs", "características", "detalles",
	"información detallada", "especificacion", "que especificacion",
	"qué especificación", "más info",
}

// ContextualRefs are phrases that point back at a previously discussed
// product rather than naming one.
var ContextualRefs = []*regexp.Regexp{
	regexp.MustCompile(`\bes[ea]\b`),
	regexp.MustCompile(`\bes[oa]s\b`),
	regexp.MustCompile(`el anterior`),
	regexp.MustCompile(`el [uú]ltimo`),
	regexp.MustCompile(`ese modelo`),
	regexp.MustCompile(`\blo\b`),
	regexp.MustCompile(`(?:agregar|a[ñn]adir|comprar|llevar|agr[eé]ga|a[ñn][aá]de|compra|lleva)r?l[oa]\b`),
}

// OrdinalRule maps ordinal phrasings and bare digits to a 1-indexed position.
type OrdinalRule struct {
	Position int
	Words    []string
}

var Ordinals = []OrdinalRule{
	{1, []string{"primera", "primero", "primer", "1"}},
	{2, []string{"segunda", "segundo", "2"}},
	{3, []string{"tercera", "tercero", "tercer", "3"}},
	{4, []string{"cuarta", "cuarto", "4"}},
	{5, []string{"quinta", "quinto", "5"}},
}

// SpanishOrdinal names positions in user-facing clarification messages.
var SpanishOrdinal = map[int]string{
	1: "primera", 2: "segunda", 3: "tercera", 4: "cuarta", 5: "quinta",
}

// RecommendationQueries detect "best product you have" style questions that
// ask the store, not the world, for a ranking.
var RecommendationQueries = []*regexp.Regexp{
	regexp.MustCompile(`qu[eé]\s+(?:laptop|pc|computadora|equipo)\s+es\s+mejor`),
	regexp.MustCompile(`cu[aá]l\s+(?:laptop|pc|computadora|equipo)\s+es\s+mejor`),
	regexp.MustCompile(`qu[eé]\s+me\s+recomien(?:da|das)`),
	regexp.MustCompile(`cu[aá]l\s+me\s+recomien(?:da|das)`),
	regexp.MustCompile(`cu[aá]l\s+recomien(?:da|das)`),
	regexp.MustCompile(`mejor\s+(?:laptop|pc|computadora|equipo|marca)\s+que\s+tien[ee]s?`),
	regexp.MustCompile(`(?:laptop|pc|computadora|equipo)\s+recomenda(?:da|do)`),
	regexp.MustCompile(`recomi[eé]ndame\s+(?:una?|la|el)?\s*(?:laptop|pc|computadora|equipo)?`),
}

// TechQuestionRule classifies general technology questions that never touch
// the catalog, with a subtype used to pick fallback answers.
type TechQuestionRule struct {
	Type    string
	Pattern *regexp.Regexp
}

var TechQuestions = []TechQuestionRule{
	{"laptop_vs_pc", regexp.MustCompile(`(?:qu[eé]|cu[aá]l)\s+es\s+mejor.*laptop.*(?:\bpc\b|escritorio)|laptop\s+(?:o|vs|versus)\s+(?:\bpc\b|escritorio)`)},
	{"brand_comparison", regexp.MustCompile(`(?:qu[eé]|cu[aá]l)\s+es\s+mejor\s+(?:amd|intel|nvidia)\s+(?:o|vs|versus)\s+(?:amd|intel|nvidia)|(?:amd|intel|nvidia)\s+(?:o|vs|versus)\s+(?:amd|intel|nvidia)`)},
	{"storage_comparison", regexp.MustCompile(`(?:diferencia|mejor).*(?:\bssd\b.*\bhdd\b|\bhdd\b.*\bssd\b)`)},
	{"os_comparison", regexp.MustCompile(`(?:diferencia|mejor).*(?:windows.*(?:linux|mac)|(?:linux|mac).*windows)`)},
	{"general_tech", regexp.MustCompile(`(?:qu[eé]|cu[aá]l)\s+(?:es\s+mejor|diferencia).*(?:procesador|tarjeta gr[aá]fica|\bcpu\b|\bgpu\b|\bram\b)`)},
}

// Comparisons capture two comparison targets. Each pattern has exactly two
// capture groups; target classification (brand vs product) happens later.
var Comparisons = []*regexp.Regexp{
	regexp.MustCompile(`cu[aá]l es mejor entre\s+(.+?)\s+y\s+(.+)`),
	regexp.MustCompile(`cu[aá]l es mejor\s+(.+?)\s+o\s+(.+)`),
	regexp.MustCompile(`qu[eé] es mejor\s+(.+?)\s+o\s+(.+)`),
	regexp.MustCompile(`compara(?:r)?\s+(.+?)\s+(?:con|vs|versus)\s+(.+)`),
	regexp.MustCompile(`diferencias?\s+entre\s+(.+?)\s+y\s+(.+)`),
	regexp.MustCompile(`recomienda(?:s)?\s+(.+?)\s+o\s+(.+)`),
	regexp.MustCompile(`elijo\s+(.+?)\s+o\s+(.+)`),
	regexp.MustCompile(`prefiere(?:s)?\s+(.+?)\s+o\s+(.+)`),
	regexp.MustCompile(`(.+?)\s+vs\s+(.+)`),
	regexp.MustCompile(`mejor\s+(.+?)\s+o\s+(.+)`),
}

// AttributeRule maps a comparison attribute to its trigger patterns.
type AttributeRule struct {
	Name     string
	Patterns []*regexp.Regexp
}

// ComparisonAttributes lists attributes in presentation order. The
// "caracteristicas" catch-all is the default when a comparison is detected
// but no attribute matched.
var ComparisonAttributes = []AttributeRule{
	{"precio", compile(`precio`, `costo`, `cu[aá]nto cuesta`)},
	{"bateria", compile(`bater[ií]a`, `duraci[oó]n de bater[ií]a`, `autonom[ií]a`)},
	{"pantalla", compile(`pantalla`, `display`, `resoluci[oó]n`)},
	{"rendimiento", compile(`rendimiento`, `performance`, `potencia`, `velocidad`)},
	{"camara", compile(`c[aá]mara`, `fotos`, `v[ií]deo`)},
	{"almacenamiento", compile(`almacenamiento`, `capacidad`, `disco duro`, `\bssd\b`, `gb de disco`)},
	{"ram", compile(`\bram\b`, `memoria ram`, `gb de ram`)},
	{"procesador", compile(`procesador`, `\bcpu\b`, `\bchip\b`)},
	{"tarjeta grafica", compile(`tarjeta gr[aá]fica`, `\bgpu\b`)},
	{"peso", compile(`\bpeso\b`, `cu[aá]nto pesa`, `ligero`)},
	{"dimensiones", compile(`dimensiones`, `tama[ñn]o`, `medidas`)},
	{"marca", compile(`\bmarca\b`, `fabricante`)},
	{"caracteristicas", compile(`caracter[ií]sticas`, `especificaciones`, `specs`, `detalles generales`, `\btodo\b`)},
}

const DefaultComparisonAttribute = "caracteristicas"

// SpecificProducts capture brand+model phrases naming a concrete catalog
// item. Model-line patterns go first so the generic fallback never clips a
// known line short.
var SpecificProducts = []*regexp.Regexp{
	regexp.MustCompile(`asus\s+vivobook\s+go\s+15(?:\s+e1504fa)?[\w\s-]*`),
	regexp.MustCompile(`asus\s+rog\s+strix\s+g15[\w\s-]*`),
	regexp.MustCompile(`asus\s+vivobook(?:\s+16x)?[\w\s-]*`),
	regexp.MustCompile(`hp\s+pavilion(?:\s+gaming)?[\w\s-]*`),
	regexp.MustCompile(`hp\s+envy\s+x360[\w\s-]*`),
	regexp.MustCompile(`hp\s+omen[\w\s-]*`),
	regexp.MustCompile(`hp\s+1[45]-[a-z0-9]+`),
	regexp.MustCompile(`lenovo\s+legion\s+5[\w\s-]*`),
	regexp.MustCompile(`lenovo\s+v15(?:\s+g4(?:\s+amn|\s+i3)?)?[\w\s-]*`),
	regexp.MustCompile(`lenovo\s+ideapad\s+(?:flex\s+5|slim\s+3)[\w\s-]*`),
	regexp.MustCompile(`lenovo\s+yoga\s+7[\w\s-]*`),
	regexp.MustCompile(`dell\s+inspiron(?:\s+3520)?[\w\s-]*`),
	regexp.MustCompile(`(?:[a-z]+\s+){0,2}(?:xps|macbook|thinkpad|rog|omen|spectre|zenbook|ideapad|legion|alienware|envy|pavilion|aspire|predator|surface)\s*\d*\s*[a-z0-9]*`),
}

// NumberedItems recover product names from previously formatted bot replies
// when a turn predates structured product storage. Ordered from the most
// specific listing format to the loosest.
var NumberedItems = []*regexp.Regexp{
	regexp.MustCompile(`\*\*\d+\.\s+([^*(\n]+?)(?:\*\*|\()`),
	regexp.MustCompile(`\d+\.\s+\*\*([^*(\n]+?)(?:\*\*|\()`),
	regexp.MustCompile(`\*\*([^*\n(]+?)\*\*\s+\(S/\s*\d+`),
	regexp.MustCompile(`\d+\.\s+([^(\n]+?)\(`),
	regexp.MustCompile(`\d+\.\s+([^:\n]+?):\s`),
	regexp.MustCompile(`\d+\.\s+([^\n]+)`),
}

// ScrapedNameStoplist rejects list artifacts that regex recovery mistakes
// for product names.
var ScrapedNameStoplist = []string{"precio", "total", "subtotal", "cantidad"}

// MinScrapedNameLen drops fragments too short to be a model name.
const MinScrapedNameLen = 4

// Emoji strips decoration from scraped names before validation.
var Emoji = regexp.MustCompile(`[💻🎮⭐✨🔥💡📱🖥️💾🧠⚡💰🏷️📦🛍️]`)

// ScrapeProductNames recovers product names from a formatted bot reply.
// Names are cleaned of markdown and emoji, deduplicated in order, and
// dropped when too short or on the stoplist.
func ScrapeProductNames(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, re := range NumberedItems {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			name := match[1]
			name = Emoji.ReplaceAllString(name, "")
			name = strings.Trim(name, "* \t")
			name = strings.TrimSpace(name)
			if len([]rune(name)) < MinScrapedNameLen {
				continue
			}
			lower := strings.ToLower(name)
			if slicesContains(ScrapedNameStoplist, lower) || seen[lower] {
				continue
			}
			seen[lower] = true
			names = append(names, name)
		}
		if len(names) > 0 {
			break
		}
	}
	return names
}

func slicesContains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Keyword sets for the deterministic fallback classifier.
var (
	GreetingKeywords       = []string{"hola", "buenos", "buenas", "gracias", "adios", "adiós", "saludos", "hey"}
	ProductRequestKeywords = []string{"busco", "quiero", "necesito", "comprar", "ver", "mostrar", "tienes", "tienen"}
	ProductTypes           = []string{"laptop", "pc", "tablet", "smartphone", "monitor", "computadora", "equipo"}
	TechComparisonKeywords = []string{"mejor", "diferencia", "vs", "versus", "cual", "cuál", "que", "qué", "comparar", "entre"}
	TechBrandsComponents   = []string{
		"hp", "lenovo", "dell", "asus", "acer", "msi", "apple", "samsung",
		"intel", "amd", "nvidia", "qualcomm", "mediatek",
		"android", "ios", "windows", "linux", "mac",
		"ssd", "hdd", "ram", "procesador", "cpu", "gpu", "tarjeta",
	}
	SpecKeywords      = []string{"especificaciones", "specs", "características", "detalles", "información"}
	ReferenceKeywords = []string{"primera", "primero", "1", "segunda", "segundo", "2", "tercera", "tercero", "3", "cuarta", "cuarto", "4", "quinta", "quinto", "5"}
)

// DefaultSearchTerm is the low-confidence catalog fallback used when query
// synthesis finds nothing to work with.
const DefaultSearchTerm = "laptop"

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
