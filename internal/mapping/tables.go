package mapping

import "sync"

// Set bundles the three tables the wardrobe passes read. A Set is built
// once and shared read-only between requests.
type Set struct {
	Brands *Table
	Slang  *Table
	Colors *Table
}

// NewSet builds a Set from raw dictionaries. Brands match anywhere in the
// text so a brand glued to other characters is still caught; slang and
// color terms only match whole words.
func NewSet(brands, slang, colors map[string]string) *Set {
	return &Set{
		Brands: New("brand", Substring, brands),
		Slang:  New("slang", Word, slang),
		Colors: New("color", Word, colors),
	}
}

var defaultSet = sync.OnceValue(func() *Set {
	return NewSet(brandPairs, slangPairs, colorPairs)
})

// Default returns the process-wide built-in tables.
func Default() *Set {
	return defaultSet()
}

// brandPairs maps brand names (and well known model names) to a neutral
// garment description. Brands that say nothing about the garment type map
// to "" and are removed.
var brandPairs = map[string]string{
	"adidas samba":     "tênis retrô de perfil baixo",
	"adidas superstar": "tênis retrô de biqueira emborrachada",
	"adidas gazelle":   "tênis retrô de camurça",
	"nike air force":   "tênis de cano baixo e solado robusto",
	"air force 1":      "tênis de cano baixo e solado robusto",
	"nike air max":     "tênis esportivo com amortecimento aparente",
	"nike dunk":        "tênis retrô de cano baixo",
	"new balance":      "tênis esportivo retrô",
	"vans":             "tênis casual de lona de sola reta",
	"converse":         "tênis de lona de cano alto",
	"all star":         "tênis de lona de cano alto",
	"havaianas":        "chinelo de borracha",
	"havaiana":         "chinelo de borracha",
	"crocs":            "tamanco de borracha",
	"birkenstock":      "sandália de tiras largas com palmilha anatômica",
	"dr. martens":      "bota coturno de couro",
	"dr martens":       "bota coturno de couro",
	"doc martens":      "bota coturno de couro",
	"timberland":       "bota de trabalho em nobuck",
	"levi's":           "calça jeans de modelagem reta",
	"levis":            "calça jeans de modelagem reta",
	"ray-ban":          "óculos de sol",
	"rayban":           "óculos de sol",
	"oakley":           "óculos esportivo",

	"adidas":             "",
	"nike":               "",
	"asics":              "",
	"mizuno":             "",
	"gucci":              "",
	"prada":              "",
	"louis vuitton":      "",
	"chanel":             "",
	"balenciaga":         "",
	"dior":               "",
	"versace":            "",
	"hermès":             "",
	"hermes":             "",
	"burberry":           "",
	"fendi":              "",
	"yves saint laurent": "",
	"saint laurent":      "",
	"bottega veneta":     "",
	"miu miu":            "",
	"armani":             "",
	"zara":               "",
	"shein":              "",
	"h&m":                "",
	"c&a":                "",
	"uniqlo":             "",
	"forever 21":         "",
	"renner":             "",
	"riachuelo":          "",
	"hering":             "",
	"lacoste":            "",
	"tommy hilfiger":     "",
	"ralph lauren":       "",
	"calvin klein":       "",
	"osklen":             "",
	"dudalina":           "",
	"colcci":             "",
	"animale":            "",
	"schutz":             "",
	"arezzo":             "",
}

// slangPairs maps colloquial shorthand to an editorial phrase.
var slangPairs = map[string]string{
	"t-shirt":         "camiseta",
	"tshirt":          "camiseta",
	"baby look":       "camiseta de modelagem ajustada",
	"babylook":        "camiseta de modelagem ajustada",
	"cropped":         "top curto",
	"blusinha":        "blusa leve",
	"moletinho":       "moletom leve",
	"jaquetinha":      "jaqueta curta",
	"vestidinho":      "vestido curto",
	"sainha":          "saia curta",
	"shortinho":       "short curto",
	"blazerzinho":     "blazer curto",
	"rasteirinha":     "sandália rasteira",
	"sapatênis":       "sapato casual com solado de tênis",
	"tenis":           "tênis",
	"sneaker":         "tênis",
	"sneakers":        "tênis",
	"skinny":          "de modelagem justa",
	"oversized":       "de modelagem ampla",
	"oversize":        "de modelagem ampla",
	"mom jeans":       "jeans de cintura alta e modelagem reta",
	"bermudão":        "bermuda longa",
	"camisetão":       "camiseta longa de modelagem ampla",
	"all black":       "produção monocromática em preto",
	"moletom canguru": "moletom com capuz e bolso frontal",
	"hoodie":          "moletom com capuz",
	"bomber":          "jaqueta de aviador curta",
	"puffer":          "jaqueta acolchoada",
	"slide":           "chinelo de tira única",
	"tricot":          "tricô",
	"leg":             "legging",
}

// colorPairs maps regional or informal color words to the fixed palette
// vocabulary.
var colorPairs = map[string]string{
	"pretinho":      "preto",
	"branquinho":    "branco",
	"gelo":          "off-white",
	"cru":           "off-white",
	"off white":     "off-white",
	"offwhite":      "off-white",
	"nude":          "bege",
	"areia":         "bege",
	"bordô":         "vinho",
	"bordo":         "vinho",
	"marsala":       "vinho",
	"grafite":       "cinza",
	"chumbo":        "cinza",
	"mescla":        "cinza",
	"cinza mescla":  "cinza",
	"camel":         "caramelo",
	"caqui":         "cáqui",
	"marinho":       "azul-marinho",
	"azul marinho":  "azul-marinho",
	"azul escuro":   "azul-marinho",
	"verde militar": "verde-oliva",
	"verde musgo":   "verde-oliva",
	"oliva":         "verde-oliva",
	"pink":          "rosa",
	"rosinha":       "rosa",
	"telha":         "terracota",
	"ferrugem":      "terracota",
}
