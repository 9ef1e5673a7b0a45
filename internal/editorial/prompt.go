package editorial

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// Prompt is the assembled model input for one request.
type Prompt struct {
	Variant            Variant
	Mode               Mode
	SystemInstructions string
	Parts              []Part
}

// Part is one piece of user content: text or an image reference.
type Part struct {
	Text  string
	Image *ImageRef
}

// ImageCount returns the number of image parts.
func (p Prompt) ImageCount() int {
	n := 0
	for _, part := range p.Parts {
		if part.Image != nil {
			n++
		}
	}
	return n
}

// OnlyJSONInstruction closes every instruction set.
const OnlyJSONInstruction = "Responda SOMENTE com o objeto JSON, sem nenhum texto antes ou depois e sem blocos de código."

const brandGuardTemplate = `
	As marcas %s servem apenas como inspiração criativa.
	Nunca mencione, repita ou imite nomes de marcas, logotipos ou modelos assinados no resultado.
	Descreva as peças pelo tipo, corte, material e cor.`

const policyInstruction = `
	Se alguma imagem for uma selfie ou mostrar principalmente o rosto de uma pessoa, responda apenas {"error": "selfie_not_allowed"}.
	Se as referências forem impróprias ou não tiverem relação com moda, responda apenas {"error": "content_not_allowed"}.`

var modeIntros = map[Mode]string{
	ModeVisual: `
		Você é editor de moda de uma revista.
		Analise as três imagens de referência e identifique silhuetas, cores, texturas e atitude.`,
	ModeBrands: `
		Você é editor de moda de uma revista.
		A partir do universo estético das marcas de referência, proponha uma direção de estilo original.`,
	ModeBoth: `
		Você é editor de moda de uma revista.
		Combine o que as três imagens de referência mostram com o universo estético das marcas de referência
		e proponha uma direção de estilo original.`,
	ModeWardrobe: `
		Você é editor de moda de uma revista.
		Trabalhe somente com as peças que a pessoa já tem e proponha combinações.`,
}

var outputContracts = map[Variant]string{
	VariantEditorial: `
		Formato obrigatório da resposta:
		{
		  "profile": {"style": string, "keywords": [string], "palette": [string]},
		  "editorial": {
		    "title": string,
		    "summary": string,
		    "looks": [{"name": string, "items": [string], "styling": string}]
		  }
		}`,
	VariantCapsule: `
		Formato obrigatório da resposta:
		{
		  "capsule": [string],
		  "looks": [{"name": string, "items": [string], "occasion": string}],
		  "gaps": [string]
		}`,
	VariantBrandKit: `
		Formato obrigatório da resposta:
		{
		  "identity": {"name": string, "mood": string, "keywords": [string]},
		  "palette": [string],
		  "pieces": [string]
		}`,
}

// Build validates req and assembles the instructions and user content.
// items are the already normalized wardrobe items; they are only used by
// variants driven by the wardrobe list. Image references are passed through
// untouched.
func Build(req Request, items []string) (Prompt, error) {
	req = req.Clean()
	if err := req.Validate(); err != nil {
		return Prompt{}, err
	}

	mode := req.Mode()
	if mode == ModeWardrobe && !req.Variant.UsesItems() {
		return Prompt{}, NewError(KindInvalidInput, "at least one kind of reference (images or brands) is required")
	}

	var sys strings.Builder
	sys.WriteString(dedentText(modeIntros[mode]))
	if mode == ModeBrands || mode == ModeBoth {
		sys.WriteString("\n\n")
		sys.WriteString(fmt.Sprintf(dedentText(brandGuardTemplate), quoteList(req.BrandRefs)))
	}
	if mode == ModeVisual || mode == ModeBoth {
		sys.WriteString("\n\n")
		sys.WriteString(dedentText(policyInstruction))
	}
	if ctx := contextBlock(req); ctx != "" {
		sys.WriteString("\n\n")
		sys.WriteString(ctx)
	}
	sys.WriteString("\n\n")
	sys.WriteString(dedentText(outputContracts[req.Variant]))
	sys.WriteString("\n\n")
	sys.WriteString(OnlyJSONInstruction)

	parts := []Part{{Text: userText(req, mode, items)}}
	for _, ref := range req.ImageRefs() {
		ref := ref
		parts = append(parts, Part{Image: &ref})
	}

	return Prompt{
		Variant:            req.Variant,
		Mode:               mode,
		SystemInstructions: sys.String(),
		Parts:              parts,
	}, nil
}

func userText(req Request, mode Mode, items []string) string {
	var b strings.Builder
	switch mode {
	case ModeVisual:
		fmt.Fprintf(&b, "Referências visuais: %d imagens em anexo.\n", len(req.Images))
	case ModeBrands:
		fmt.Fprintf(&b, "Marcas de referência: %s.\n", strings.Join(req.BrandRefs, ", "))
	case ModeBoth:
		fmt.Fprintf(&b, "Referências visuais: %d imagens em anexo.\n", len(req.Images))
		fmt.Fprintf(&b, "Marcas de referência: %s.\n", strings.Join(req.BrandRefs, ", "))
	}
	if req.Variant.UsesItems() && len(items) > 0 {
		b.WriteString("Peças do guarda-roupa:\n")
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}
	b.WriteString(OnlyJSONInstruction)
	return b.String()
}

func contextBlock(req Request) string {
	var lines []string
	if req.Category != "" {
		lines = append(lines, "Categoria: "+req.Category)
	}
	if req.Tone != "" {
		lines = append(lines, "Tom: "+req.Tone)
	}
	if req.Note != "" {
		lines = append(lines, "Observações da pessoa: "+req.Note)
	}
	return strings.Join(lines, "\n")
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

func dedentText(text string) string {
	return strings.TrimSpace(dedent.Dedent(text))
}
